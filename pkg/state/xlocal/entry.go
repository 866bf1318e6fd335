package xlocal

import "time"

// noExpiry 表示"永不过期"的哨兵时间戳（远未来）。
//
// 设计决策: 用哨兵时间而非指针/零值表示永不过期，过期判断热路径
// 只需一次时间比较，无需 nil 分支。
var noExpiry = time.Unix(1<<41, 0)

// expiryFrom 根据 TTL 计算绝对过期时间。
// ttl <= 0 表示永不过期，返回哨兵时间。
func expiryFrom(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return noExpiry
	}
	return now.Add(ttl)
}

// Entry 是缓存条目的只读快照。
//
// 注意：Value 与缓存内部共享底层数组，调用方不得修改。
type Entry struct {
	// Key 条目的键。
	Key string

	// Value 条目的负载。缓存不解释其内容。
	Value []byte

	// ExpiresAt 绝对过期时间。永不过期的条目为远未来哨兵时间。
	ExpiresAt time.Time

	// LastAccessed 最近一次成功读取的时间。
	LastAccessed time.Time

	// Version 条目的版本号，每次写入递增。
	Version uint64
}

// Expired 报告快照在 now 时刻是否已过期。
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// EvictReason 表示条目被移除的原因，传递给 OnEvicted 回调。
type EvictReason uint8

const (
	// ReasonCapacity 容量压力下淘汰了最久未访问的存活条目。
	ReasonCapacity EvictReason = iota + 1

	// ReasonExpired 条目因 TTL 过期被移除（惰性发现或批量清理）。
	ReasonExpired
)

// String 返回原因的可读名称。
func (r EvictReason) String() string {
	switch r {
	case ReasonCapacity:
		return "capacity"
	case ReasonExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// node 链表节点，承载条目的全部可变状态。
// 仅在持有 Cache.mu 时访问。
type node struct {
	key          string
	value        []byte
	expiresAt    time.Time
	lastAccessed time.Time
	version      uint64
}

// expired 报告节点在 now 时刻是否已过期（当前时间 >= expiresAt 即为过期）。
func (n *node) expired(now time.Time) bool {
	return !now.Before(n.expiresAt)
}

// snapshot 生成节点的只读快照。
func (n *node) snapshot() Entry {
	return Entry{
		Key:          n.key,
		Value:        n.value,
		ExpiresAt:    n.expiresAt,
		LastAccessed: n.lastAccessed,
		Version:      n.version,
	}
}
