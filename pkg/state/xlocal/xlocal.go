package xlocal

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// maxCapacity 缓存最大条目数上限。
const maxCapacity = 1 << 24 // 16,777,216

// expiredScanLimit 容量淘汰时从 LRU 端扫描已过期条目的最大深度。
//
// 设计决策: 有界扫描保证单次插入的淘汰开销为 O(1) 均摊。
// 扫描范围内找到过期条目就优先淘汰它而非存活的 LRU 条目；
// 扫不到就回退为纯 LRU 淘汰，过期条目交给惰性删除和批量清理兜底。
const expiredScanLimit = 8

// Config 定义缓存配置。
type Config struct {
	// Capacity 缓存最大条目数。
	// 必须大于 0 且不超过 16,777,216。
	Capacity int
}

// Cache 是带逐条目 TTL 和版本号的有界 LRU 缓存。
// 必须通过 [New] 函数创建，零值不可用（方法调用会 panic）。
// 所有方法都是并发安全的。
// 调用 Close 后，所有读操作返回零值/false，写操作静默忽略。
//
// 缓存不解释 value 的内容，调用方负责序列化；
// 读取返回的切片与缓存共享底层数组，调用方不得修改。
type Cache struct {
	mu    sync.Mutex
	ll    *list.List               // front = MRU，back = LRU
	items map[string]*list.Element // key -> 链表元素

	capacity int
	now      func() time.Time
	onEvict  func(entry Entry, reason EvictReason)

	closed atomic.Bool
}

// New 创建新的缓存。
// 如果 cfg.Capacity <= 0，返回 ErrInvalidCapacity。
// 如果 cfg.Capacity > 16,777,216，返回 ErrCapacityExceedsMax。
func New(cfg Config, opts ...Option) (*Cache, error) {
	if cfg.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if cfg.Capacity > maxCapacity {
		return nil, ErrCapacityExceedsMax
	}

	o := &options{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	return &Cache{
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		capacity: cfg.Capacity,
		now:      o.clock,
		onEvict:  o.onEvict,
	}, nil
}

// Get 获取缓存值并将条目刷新到最近使用位置。
// 如果键不存在、已过期或缓存已关闭，返回 nil 和 false。
//
// 已过期的条目在此处被惰性删除（触发 ReasonExpired 回调），
// 删除与并发的插入/淘汰在同一互斥锁内串行化。
func (c *Cache) Get(key string) ([]byte, bool) {
	if c.closed.Load() {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ele, ok := c.items[key]
	if !ok {
		return nil, false
	}
	n := ele.Value.(*node)
	now := c.now()
	if n.expired(now) {
		c.removeElement(ele, ReasonExpired)
		return nil, false
	}
	n.lastAccessed = now
	c.ll.MoveToFront(ele)
	return n.value, true
}

// Set 插入或替换条目，并刷新到最近使用位置。
// ttl <= 0 表示永不过期。返回值表示本次插入是否触发了淘汰。
//
// 已存在的键原地更新（值、过期时间、版本号一并更新），不触发淘汰。
// 新键在缓存已满时先腾出一个位置：优先淘汰 LRU 端有界扫描内的
// 已过期条目，否则淘汰最久未访问的存活条目。
// 如果缓存已关闭，静默忽略并返回 false。
func (c *Cache) Set(key string, value []byte, ttl time.Duration) (evicted bool) {
	if c.closed.Load() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if ele, ok := c.items[key]; ok {
		c.update(ele, value, ttl, now)
		return false
	}
	return c.insert(key, value, ttl, now)
}

// SetIfVersion 条件写入：仅当键的当前版本等于 observed 时才写入。
// observed == 0 表示"观测时键不存在"；已过期条目视同不存在。
// 返回 true 表示写入成功。
//
// 设计决策: 这是读穿透回填的冲突检查。读方在未命中时观测到版本 0，
// 远端取数期间若有并发写入把版本推高，回填在此处失败，
// 过期的远端值被丢弃，本地新写入胜出。
func (c *Cache) SetIfVersion(key string, value []byte, ttl time.Duration, observed uint64) bool {
	if c.closed.Load() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	ele, ok := c.items[key]
	if !ok {
		if observed != 0 {
			return false
		}
		c.insert(key, value, ttl, now)
		return true
	}

	n := ele.Value.(*node)
	if n.expired(now) {
		// 逻辑上不存在，但保留版本号继续递增，保持单调性
		if observed != 0 {
			return false
		}
		c.update(ele, value, ttl, now)
		return true
	}
	if n.version != observed {
		return false
	}
	c.update(ele, value, ttl, now)
	return true
}

// Delete 删除缓存条目，键不存在时为无操作。
// 返回 true 表示键存在并被删除。显式删除不触发 OnEvicted 回调。
// 如果缓存已关闭，返回 false。
func (c *Cache) Delete(key string) bool {
	if c.closed.Load() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ele, ok := c.items[key]
	if !ok {
		return false
	}
	n := ele.Value.(*node)
	c.ll.Remove(ele)
	delete(c.items, n.key)
	return true
}

// Len 返回当前缓存条目数。
//
// 注意：返回值可能包含已过期但尚未被惰性删除或批量清理的条目。
// 如果缓存已关闭，返回 0。
func (c *Cache) Len() int {
	if c.closed.Load() {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Peek 获取缓存值但不更新 LRU 顺序，也不删除已过期条目。
// 已过期的条目返回 nil 和 false（与 Get 的 TTL 语义一致）。
// 如果缓存已关闭，返回 nil 和 false。
func (c *Cache) Peek(key string) ([]byte, bool) {
	if c.closed.Load() {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ele, ok := c.items[key]
	if !ok {
		return nil, false
	}
	n := ele.Value.(*node)
	if n.expired(c.now()) {
		return nil, false
	}
	return n.value, true
}

// Contains 检查键是否存在且未过期（不更新访问顺序）。
func (c *Cache) Contains(key string) bool {
	_, ok := c.Peek(key)
	return ok
}

// Version 返回键的当前版本号（不更新访问顺序）。
// 键不存在或已过期时返回 0 和 false。
func (c *Cache) Version(key string) (uint64, bool) {
	if c.closed.Load() {
		return 0, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ele, ok := c.items[key]
	if !ok {
		return 0, false
	}
	n := ele.Value.(*node)
	if n.expired(c.now()) {
		return 0, false
	}
	return n.version, true
}

// Keys 返回所有键的切片，按从最旧到最新的访问顺序排列。
//
// 注意：返回值可能包含已过期但尚未被清理的条目的键。
// 如果缓存已关闭，返回 nil。
func (c *Cache) Keys() []string {
	if c.closed.Load() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.ll.Len())
	for ele := c.ll.Back(); ele != nil; ele = ele.Prev() {
		keys = append(keys, ele.Value.(*node).key)
	}
	return keys
}

// Entries 返回所有条目的只读快照，按从最旧到最新的访问顺序排列。
// 快照可能包含已过期条目，调用方可通过 [Entry.Expired] 过滤。
// 如果缓存已关闭，返回 nil。
func (c *Cache) Entries() []Entry {
	if c.closed.Load() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry, 0, c.ll.Len())
	for ele := c.ll.Back(); ele != nil; ele = ele.Prev() {
		entries = append(entries, ele.Value.(*node).snapshot())
	}
	return entries
}

// ExpireBatch 检查给定的键并删除其中已过期的条目，返回删除数量。
// 每个被删除的条目触发 ReasonExpired 回调。
//
// 设计决策: 批量清理按键列表工作而非全表扫描，调用方（后台清理循环）
// 先用 Keys 拿到快照，再分批调用本方法，单次持锁时间与批大小成正比，
// 不会长时间阻塞并发的 Get/Set。
func (c *Cache) ExpireBatch(keys []string) int {
	if c.closed.Load() {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, key := range keys {
		if ele, ok := c.items[key]; ok && ele.Value.(*node).expired(now) {
			c.removeElement(ele, ReasonExpired)
			removed++
		}
	}
	return removed
}

// Clear 清空所有缓存条目，不触发 OnEvicted 回调。
// 如果缓存已关闭，静默忽略。
func (c *Cache) Clear() {
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Close 关闭缓存并清空条目。
// 该方法是幂等的：多次调用只会执行一次清理。
// Close 后所有读操作返回零值/false，写操作静默忽略。
//
// 设计决策: closed 标记与互斥锁操作之间存在微小的 TOCTOU 窗口——
// 已通过 closed 检查的操作可能在 Close 之后才拿到锁。内部结构在
// Close 后保持有效（只是为空），这类操作至多留下一个残留条目，
// 不会 panic 或损坏数据，属于可接受的关闭瞬间可见性。
func (c *Cache) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// =============================================================================
// 内部方法（调用方必须持有 c.mu）
// =============================================================================

// update 原地更新已存在的条目并刷新到 MRU 位置。
func (c *Cache) update(ele *list.Element, value []byte, ttl time.Duration, now time.Time) {
	n := ele.Value.(*node)
	n.value = value
	n.expiresAt = expiryFrom(now, ttl)
	n.lastAccessed = now
	n.version++
	c.ll.MoveToFront(ele)
}

// insert 插入新条目，必要时先淘汰一个条目腾出空间。
func (c *Cache) insert(key string, value []byte, ttl time.Duration, now time.Time) (evicted bool) {
	if c.ll.Len() >= c.capacity {
		c.evictOne(now)
		evicted = true
	}
	ele := c.ll.PushFront(&node{
		key:          key,
		value:        value,
		expiresAt:    expiryFrom(now, ttl),
		lastAccessed: now,
		version:      1,
	})
	c.items[key] = ele
	return evicted
}

// evictOne 淘汰一个条目为新插入腾出空间。
// 从 LRU 端有界扫描，优先淘汰已过期条目；否则淘汰链表尾部的条目。
//
// 尾部条目即最久未访问者；从未被读取过的条目按插入顺序沉在尾部，
// 因此无访问历史时的淘汰顺序是确定的 FIFO。
func (c *Cache) evictOne(now time.Time) {
	scanned := 0
	for ele := c.ll.Back(); ele != nil && scanned < expiredScanLimit; ele = ele.Prev() {
		if ele.Value.(*node).expired(now) {
			c.removeElement(ele, ReasonExpired)
			return
		}
		scanned++
	}
	if ele := c.ll.Back(); ele != nil {
		c.removeElement(ele, ReasonCapacity)
	}
}

// removeElement 从链表和索引中移除元素并触发回调。
func (c *Cache) removeElement(ele *list.Element, reason EvictReason) {
	n := ele.Value.(*node)
	c.ll.Remove(ele)
	delete(c.items, n.key)
	if c.onEvict != nil {
		c.onEvict(n.snapshot(), reason)
	}
}

// reset 重建内部结构。结构保持可用，保证 Close 后的并发操作不会 panic。
func (c *Cache) reset() {
	c.ll.Init()
	c.items = make(map[string]*list.Element)
}
