package xremote

import (
	"context"
	"time"
)

// Item 是远端条目：负载加剩余存活时间。
type Item struct {
	// Value 条目的负载，存储不解释其内容。
	Value []byte

	// TTL 剩余存活时间。
	// 写入时 <= 0 表示不设置过期；读取时 0 表示远端未报告过期时间。
	TTL time.Duration
}

// Store 定义远端共享存储接口。
// 远端存储是外部协作者：它有自己的故障模式，所有方法都可能因
// 连接问题返回 ErrUnavailable/ErrTimeout，调用方据此降级。
//
// 所有实现必须把"键不存在"表示为 ErrNotFound，与连接类故障严格区分。
type Store interface {
	// Get 读取键。键不存在返回 ErrNotFound。
	Get(ctx context.Context, key string) (Item, error)

	// Set 写入键。item.TTL <= 0 表示不设置过期时间。
	Set(ctx context.Context, key string, item Item) error

	// Delete 删除键。键不存在不算错误。
	Delete(ctx context.Context, key string) error

	// Exists 报告键是否存在。
	Exists(ctx context.Context, key string) (bool, error)

	// Incr 把键按 delta 原子递增并返回新值，键不存在时从 0 开始。
	// ttl > 0 时每次递增都会刷新过期时间。
	// 键的现有值不是整数时返回错误。
	Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)

	// Scan 返回所有以 prefix 开头的键值对。prefix 按字面量匹配。
	//
	// 注意：结果在遍历期间不是一致性快照，并发写入可能部分可见。
	Scan(ctx context.Context, prefix string) (map[string][]byte, error)

	// Ping 探测存储是否可达。
	Ping(ctx context.Context) error

	// Close 关闭存储，释放底层连接。
	Close() error
}
