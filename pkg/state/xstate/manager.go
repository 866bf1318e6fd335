package xstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/omeyang/statekit/pkg/state/xremote"
)

// Get 读取状态。
//
// 快路径在本地层命中，零 I/O；本地未命中时读穿透到远端，
// 命中则带版本条件回填本地。回填失败说明远端取数期间本地发生了
// 新写入——本地写入获胜，过期的远端读数被丢弃。
func (m *manager) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	if m.closed.Load() {
		return nil, false, ErrClosed
	}
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	sk := JoinKey(namespace, key)

	if value, ok := m.local.Get(sk); ok {
		m.stats.localHits.Add(1)
		m.collector.RecordGet(ctx, tierLocal, true)
		return value, true, nil
	}
	m.stats.localMisses.Add(1)
	m.collector.RecordGet(ctx, tierLocal, false)

	// 本地未命中即"观测到键不存在"（惰性删除保证过期条目已被移除），
	// 回填以版本 0 为条件：远端取数期间的并发本地写入会推高版本，
	// 使回填失败。
	item, err := m.remote.Get(ctx, sk)
	if err != nil {
		if xremote.IsNotFound(err) {
			m.stats.remoteMisses.Add(1)
			m.collector.RecordGet(ctx, tierRemote, false)
			return nil, false, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, false, err
		}
		m.noteRemoteError(ctx, "get", sk, err)
		return nil, false, fmt.Errorf("xstate: get: %w", err)
	}
	m.stats.remoteHits.Add(1)
	m.collector.RecordGet(ctx, tierRemote, true)

	ttl := item.TTL
	if ttl <= 0 {
		ttl = m.options.DefaultTTL
	}
	if !m.local.SetIfVersion(sk, item.Value, ttl, 0) {
		// 本地写入获胜：返回本地的新值而非过期的远端读数
		if value, ok := m.local.Get(sk); ok {
			return value, true, nil
		}
		// 本地新写入又已被删除，远端读数仍是可见的最新状态
	}
	return item.Value, true, nil
}

// Set 写入状态。本地同步写入在前，远端镜像在后。
func (m *manager) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if key == "" {
		return ErrEmptyKey
	}
	sk := JoinKey(namespace, key)

	m.local.Set(sk, value, ttl)
	m.stats.sets.Add(1)

	item := xremote.Item{Value: value, TTL: ttl}
	if m.options.AsyncRemoteWrite {
		m.goRemote(ctx, "set", sk, func(wctx context.Context) error {
			return m.remote.Set(wctx, sk, item)
		})
		return nil
	}
	if err := m.remote.Set(ctx, sk, item); err != nil {
		// 本地写入保留：远端恢复前本实例仍可读到自己的写入
		m.noteRemoteError(ctx, "set", sk, err)
		return fmt.Errorf("xstate: set: %w", err)
	}
	return nil
}

// Invalidate 删除状态。本地立即删除，远端删除 best-effort。
func (m *manager) Invalidate(ctx context.Context, namespace, key string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if key == "" {
		return ErrEmptyKey
	}
	sk := JoinKey(namespace, key)

	m.local.Delete(sk)
	m.stats.deletes.Add(1)

	if m.options.AsyncRemoteWrite {
		m.goRemote(ctx, "delete", sk, func(wctx context.Context) error {
			return m.remote.Delete(wctx, sk)
		})
		return nil
	}
	if err := m.remote.Delete(ctx, sk); err != nil {
		m.noteRemoteError(ctx, "delete", sk, err)
	}
	return nil
}

// Exists 报告键是否存在。本地检查用 Peek 语义，不刷新热度。
func (m *manager) Exists(ctx context.Context, namespace, key string) (bool, error) {
	if m.closed.Load() {
		return false, ErrClosed
	}
	if key == "" {
		return false, ErrEmptyKey
	}
	sk := JoinKey(namespace, key)

	if m.local.Contains(sk) {
		return true, nil
	}

	ok, err := m.remote.Exists(ctx, sk)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false, err
		}
		m.noteRemoteError(ctx, "exists", sk, err)
		return false, fmt.Errorf("xstate: exists: %w", err)
	}
	return ok, nil
}

// GetAll 返回命名空间下的全部存活条目。
//
// 远端扫描先铺底，本地快照随后覆盖：本实例的写入先落本地，
// 本地视图总是更新鲜。远端故障时降级为仅本地视图，
// 部分结果与归类错误一并返回，调用方自行决定是否可用。
func (m *manager) GetAll(ctx context.Context, namespace string) (map[string][]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	prefix := ""
	if namespace != "" {
		prefix = namespace + keySeparator
	}

	result := make(map[string][]byte)
	remote, rerr := m.remote.Scan(ctx, prefix)
	for k, v := range remote {
		result[strings.TrimPrefix(k, prefix)] = v
	}

	now := m.now()
	for _, e := range m.local.Entries() {
		if !strings.HasPrefix(e.Key, prefix) || e.Expired(now) {
			continue
		}
		result[strings.TrimPrefix(e.Key, prefix)] = e.Value
	}

	if rerr != nil {
		if errors.Is(rerr, context.Canceled) {
			return result, rerr
		}
		m.noteRemoteError(ctx, "scan", prefix, rerr)
		return result, fmt.Errorf("xstate: getall: %w", rerr)
	}
	return result, nil
}

// Increment 把数值状态按 delta 原子递增。
//
// 远端优先：INCRBY 保证跨实例原子性，新值镜像进本地层
// （带默认 TTL，降级窗口结束后跨实例计数在 TTL 内收敛）。
// 远端不可达时退化为实例本地递增。
func (m *manager) Increment(ctx context.Context, namespace, key string, delta int64) (int64, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if key == "" {
		return 0, ErrEmptyKey
	}
	sk := JoinKey(namespace, key)

	value, err := m.remote.Incr(ctx, sk, delta, 0)
	if err == nil {
		m.local.Set(sk, []byte(strconv.FormatInt(value, 10)), m.options.DefaultTTL)
		m.stats.sets.Add(1)
		return value, nil
	}
	if errors.Is(err, xremote.ErrNotCounter) || errors.Is(err, context.Canceled) {
		// 使用错误和主动取消不降级
		return 0, fmt.Errorf("xstate: increment: %w", err)
	}
	m.noteRemoteError(ctx, "incr", sk, err)

	// 降级：实例本地读改写，rmwMu 保证实例内原子
	m.rmwMu.Lock()
	defer m.rmwMu.Unlock()

	var current int64
	if v, ok := m.local.Get(sk); ok {
		parsed, perr := strconv.ParseInt(string(v), 10, 64)
		if perr != nil {
			return 0, fmt.Errorf("xstate: increment: %w", xremote.ErrNotCounter)
		}
		current = parsed
	}
	current += delta
	m.local.Set(sk, []byte(strconv.FormatInt(current, 10)), m.options.DefaultTTL)
	m.stats.sets.Add(1)
	return current, nil
}

// Append 向 JSON 数组状态追加一个元素。
//
// 读改写：读现值（本地优先，读穿透远端）、解码数组、追加、
// 必要时裁剪到末尾 maxLen 个元素、整体写回两级。
// rmwMu 把实例内的并发 Append 串行化；跨实例为远端最后写入获胜。
func (m *manager) Append(ctx context.Context, namespace, key string, element []byte, ttl time.Duration, maxLen int) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if key == "" {
		return ErrEmptyKey
	}
	if !json.Valid(element) {
		return fmt.Errorf("%w: %q", ErrNotJSON, element)
	}

	m.rmwMu.Lock()
	defer m.rmwMu.Unlock()

	current, found, err := m.Get(ctx, namespace, key)
	if err != nil {
		// 远端故障时放弃改写：以空数组起头可能在远端恢复后覆盖掉现存列表
		return fmt.Errorf("xstate: append: %w", err)
	}

	var list []json.RawMessage
	if found {
		if uerr := json.Unmarshal(current, &list); uerr != nil {
			return fmt.Errorf("%w: %w", ErrNotList, uerr)
		}
	}
	list = append(list, json.RawMessage(element))
	if maxLen > 0 && len(list) > maxLen {
		list = list[len(list)-maxLen:]
	}

	data, merr := json.Marshal(list)
	if merr != nil {
		return fmt.Errorf("xstate: append: %w", merr)
	}
	return m.Set(ctx, namespace, key, data, ttl)
}

// noteRemoteError 统计一次远端故障并记录告警日志。
// 调用方主动取消不经此路径——那不是远端的问题。
func (m *manager) noteRemoteError(ctx context.Context, op, key string, err error) {
	m.stats.remoteErrors.Add(1)
	m.collector.RecordRemoteError(ctx, op)
	m.logWarn("xstate: remote "+op+" failed", "key", key, "error", err)
}

// goRemote 把远端镜像写提交到后台执行，错误计入统计并告警。
// 写入 context 脱离调用方取消链（保留 Value），兜底超时由存储适配层补上。
func (m *manager) goRemote(ctx context.Context, op, key string, fn func(context.Context) error) {
	m.writerMu.RLock()
	if m.closed.Load() {
		m.writerMu.RUnlock()
		return
	}
	m.writers.Add(1)
	m.writerMu.RUnlock()

	wctx := context.WithoutCancel(ctx)
	go func() {
		defer m.writers.Done()
		if err := fn(wctx); err != nil {
			m.noteRemoteError(wctx, op, key, err)
		}
	}()
}
