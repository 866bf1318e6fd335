package xremote

import "time"

// =============================================================================
// 推荐默认值
// =============================================================================

const (
	// DefaultOpTimeout 单次远端操作的默认超时。
	// 仅当调用方的 context 未携带截止时间时生效。
	DefaultOpTimeout = 3 * time.Second

	// DefaultScanCount 单次 SCAN 游标返回的建议键数。
	DefaultScanCount = 100

	// DefaultBreakerFailures 熔断器连续失败阈值。
	DefaultBreakerFailures = 5

	// DefaultBreakerOpenTimeout 熔断器从开启恢复到半开的等待时间。
	DefaultBreakerOpenTimeout = 30 * time.Second
)

// Options 定义 Redis 存储的配置选项。
type Options struct {
	// OpTimeout 单次远端操作的兜底超时。
	// 调用方的 context 已有截止时间时不叠加。默认 3 秒。
	OpTimeout time.Duration

	// ScanCount 单次 SCAN 游标返回的建议键数。默认 100。
	ScanCount int64

	// BreakerEnabled 是否启用熔断器。
	// 启用后连续失败达到阈值时熔断开启，后续调用不触网直接返回
	// ErrUnavailable，等待 BreakerOpenTimeout 后进入半开试探。
	BreakerEnabled bool

	// BreakerFailures 熔断的连续失败阈值。默认 5。
	BreakerFailures uint32

	// BreakerOpenTimeout 熔断开启后的恢复等待时间。默认 30 秒。
	BreakerOpenTimeout time.Duration
}

// Option 定义配置 Redis 存储的函数类型。
type Option func(*Options)

// defaultOptions 返回默认配置。
func defaultOptions() *Options {
	return &Options{
		OpTimeout:          DefaultOpTimeout,
		ScanCount:          DefaultScanCount,
		BreakerFailures:    DefaultBreakerFailures,
		BreakerOpenTimeout: DefaultBreakerOpenTimeout,
	}
}

// WithOpTimeout 设置单次远端操作的兜底超时。
func WithOpTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.OpTimeout = d
		}
	}
}

// WithScanCount 设置 SCAN 游标的建议批大小。
func WithScanCount(n int64) Option {
	return func(o *Options) {
		if n > 0 {
			o.ScanCount = n
		}
	}
}

// WithBreaker 启用熔断器并设置连续失败阈值与恢复等待时间。
// failures <= 0 或 openTimeout <= 0 时使用默认值。
//
// 设计决策: 熔断的成功判定把 ErrNotFound 视为成功——未命中是正常
// 业务结果，不应累积失败计数把健康的存储熔断掉。
func WithBreaker(failures uint32, openTimeout time.Duration) Option {
	return func(o *Options) {
		o.BreakerEnabled = true
		if failures > 0 {
			o.BreakerFailures = failures
		}
		if openTimeout > 0 {
			o.BreakerOpenTimeout = openTimeout
		}
	}
}
