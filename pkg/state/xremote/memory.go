package xremote

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Memory 是 Store 的进程内实现。
// 用途是测试替身和无远端部署时的降级后端：支持 TTL、故障注入和调用计数。
// 所有方法并发安全。必须通过 [NewMemory] 创建。
type Memory struct {
	mu    sync.Mutex
	items map[string]memEntry
	clock func() time.Time

	failErr error // 注入的故障，非 nil 时按 failN 递减返回
	failN   int   // 剩余故障次数，-1 表示持续故障

	calls  map[string]int
	closed atomic.Bool
}

// memEntry 内部条目。expiresAt 为零值表示永不过期。
type memEntry struct {
	value     []byte
	expiresAt time.Time
}

var _ Store = (*Memory)(nil)

// MemoryOption 定义内存存储的可选配置函数类型。
type MemoryOption func(*Memory)

// WithMemoryClock 注入时钟函数，用于测试中控制 TTL 过期。
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(m *Memory) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewMemory 创建内存存储实例。
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		items: make(map[string]memEntry),
		clock: time.Now,
		calls: make(map[string]int),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// FailWith 注入故障：接下来 n 次操作返回 err（经过错误分类）。
// n < 0 表示持续故障直到再次调用 FailWith(nil, 0) 解除。
func (m *Memory) FailWith(err error, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
	m.failN = n
}

// CallCount 返回指定操作（get/set/delete/exists/incr/scan/ping）被调用的次数。
func (m *Memory) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// begin 记录调用并消费注入的故障。调用方必须持有 m.mu。
func (m *Memory) begin(op string) error {
	m.calls[op]++
	if m.failErr == nil {
		return nil
	}
	if m.failN == 0 {
		m.failErr = nil
		return nil
	}
	if m.failN > 0 {
		m.failN--
	}
	return m.failErr
}

// expired 报告条目在 now 时刻是否已过期。
func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func (m *Memory) Get(ctx context.Context, key string) (Item, error) {
	if key == "" {
		return Item{}, ErrEmptyKey
	}
	if m.closed.Load() {
		return Item{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Item{}, classify("get", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("get"); err != nil {
		return Item{}, classify("get", err)
	}

	e, ok := m.items[key]
	now := m.clock()
	if !ok || e.expired(now) {
		delete(m.items, key)
		return Item{}, classify("get", ErrNotFound)
	}
	var ttl time.Duration
	if !e.expiresAt.IsZero() {
		ttl = e.expiresAt.Sub(now)
	}
	return Item{Value: e.value, TTL: ttl}, nil
}

func (m *Memory) Set(ctx context.Context, key string, item Item) error {
	if key == "" {
		return ErrEmptyKey
	}
	if m.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return classify("set", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("set"); err != nil {
		return classify("set", err)
	}

	e := memEntry{value: item.Value}
	if item.TTL > 0 {
		e.expiresAt = m.clock().Add(item.TTL)
	}
	m.items[key] = e
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if m.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return classify("delete", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("delete"); err != nil {
		return classify("delete", err)
	}

	delete(m.items, key)
	return nil
}

func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	if m.closed.Load() {
		return false, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return false, classify("exists", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("exists"); err != nil {
		return false, classify("exists", err)
	}

	e, ok := m.items[key]
	if !ok || e.expired(m.clock()) {
		return false, nil
	}
	return true, nil
}

func (m *Memory) Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if key == "" {
		return 0, ErrEmptyKey
	}
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, classify("incr", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("incr"); err != nil {
		return 0, classify("incr", err)
	}

	now := m.clock()
	var current int64
	if e, ok := m.items[key]; ok && !e.expired(now) {
		n, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("xremote: incr: %w", ErrNotCounter)
		}
		current = n
	}
	current += delta

	e := memEntry{value: []byte(strconv.FormatInt(current, 10))}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	} else if prev, ok := m.items[key]; ok && !prev.expired(now) {
		e.expiresAt = prev.expiresAt
	}
	m.items[key] = e
	return current, nil
}

func (m *Memory) Scan(ctx context.Context, prefix string) (map[string][]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, classify("scan", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("scan"); err != nil {
		return nil, classify("scan", err)
	}

	now := m.clock()
	result := make(map[string][]byte)
	for k, e := range m.items {
		if strings.HasPrefix(k, prefix) && !e.expired(now) {
			result[k] = e.value
		}
	}
	return result, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return classify("ping", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("ping"); err != nil {
		return classify("ping", err)
	}
	return nil
}

// Len 返回当前存活条目数（测试辅助）。
func (m *Memory) Len() int {
	if m.closed.Load() {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock()
	n := 0
	for _, e := range m.items {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func (m *Memory) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]memEntry)
	return nil
}
