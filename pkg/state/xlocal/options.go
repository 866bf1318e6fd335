package xlocal

import "time"

// Option 定义缓存可选配置函数类型。
type Option func(*options)

// options 内部可选配置。
type options struct {
	clock   func() time.Time
	onEvict func(entry Entry, reason EvictReason)
}

// WithClock 注入时钟函数，用于测试中控制 TTL 过期。
// 默认使用 time.Now。传入 nil 时忽略。
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithOnEvicted 设置条目被移除时的回调函数。
// 回调携带被移除条目的快照和移除原因（容量淘汰或 TTL 过期）。
// 显式 Delete 与 Clear 不触发回调。
//
// 设计决策: 回调在缓存互斥锁内同步执行。调用方必须遵守以下约束：
//   - 严禁在回调中调用 Cache 自身的任何方法，否则会死锁
//   - 应避免耗时操作（如网络 I/O），以免阻塞其他并发操作
//   - 适合的用途是递增原子计数器或向 channel 发送事件
func WithOnEvicted(fn func(entry Entry, reason EvictReason)) Option {
	return func(o *options) {
		o.onEvict = fn
	}
}
