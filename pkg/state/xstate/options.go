package xstate

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/statekit/pkg/state/xremote"
)

// =============================================================================
// 推荐默认值
// =============================================================================

const (
	// DefaultMaxEntries 本地层默认容量。
	DefaultMaxEntries = 1000

	// DefaultTTL 读穿透回填的兜底过期时间。
	// 仅当远端未报告剩余 TTL 时生效；也是 Increment 本地镜像的过期时间。
	DefaultTTL = 300 * time.Second

	// DefaultSweepInterval 后台清理循环的默认间隔。
	DefaultSweepInterval = 5 * time.Second

	// DefaultSweepBatch 后台清理单批检查的键数。
	// 单次持锁时间与批大小成正比，批之间让出锁给并发读写。
	DefaultSweepBatch = 256

	// DefaultComputeTimeout 单次回源计算的默认超时。
	// 计算在脱离调用方取消链的 context 中执行，
	// 此超时防止计算函数挂起时 singleflight goroutine 泄漏。
	DefaultComputeTimeout = 30 * time.Second

	// DefaultComputeLockTTL 分布式计算锁的默认持有时间。
	// 设置为 ComputeTimeout 的 1.5 倍，确保锁在计算完成前不会过期。
	DefaultComputeLockTTL = 45 * time.Second
)

// Options 定义状态管理器的配置选项。
type Options struct {
	// MaxEntries 本地层最大条目数。默认 1000。
	MaxEntries int

	// DefaultTTL 读穿透回填时远端未报告 TTL 的兜底过期时间。默认 300 秒。
	DefaultTTL time.Duration

	// SweepInterval 后台清理循环的执行间隔。默认 5 秒。
	SweepInterval time.Duration

	// SweepBatch 后台清理单批检查的键数。默认 256。
	SweepBatch int

	// ComputeTimeout 单次回源计算的超时时间。默认 30 秒。
	ComputeTimeout time.Duration

	// ComputeLock 分布式计算锁。非 nil 时 GetOrCompute 在回源前尝试加锁，
	// 把同 key 的回源收敛到集群内单个实例；加锁失败时降级为本实例直接计算
	// （可用性优先于严格互斥）。默认 nil，只做进程内 singleflight 收敛。
	ComputeLock xremote.Locker

	// ComputeLockTTL 分布式计算锁的持有时间。默认 45 秒。
	//
	// 必须大于 ComputeTimeout：锁若在计算完成前过期，
	// 其他实例会并发回源，降低防击穿效果。
	ComputeLockTTL time.Duration

	// AsyncRemoteWrite 是否把 Set/Invalidate 的远端镜像放到后台执行。
	// 开启后写路径只等待本地写入，远端镜像失败计入统计并告警，
	// 不再作为错误返回；Close 会排空在途的镜像写。默认 false。
	AsyncRemoteWrite bool

	// Logger 用于记录降级告警和生命周期日志。
	// 默认 nil，不输出任何日志。
	Logger *slog.Logger

	// meterProvider 可选的 OpenTelemetry 指标导出。nil 时不桥接。
	meterProvider metric.MeterProvider

	// clock 时钟函数，测试注入用。
	clock func() time.Time
}

// Option 定义配置状态管理器的函数类型。
type Option func(*Options)

// defaultOptions 返回默认配置。
func defaultOptions() *Options {
	return &Options{
		MaxEntries:     DefaultMaxEntries,
		DefaultTTL:     DefaultTTL,
		SweepInterval:  DefaultSweepInterval,
		SweepBatch:     DefaultSweepBatch,
		ComputeTimeout: DefaultComputeTimeout,
		ComputeLockTTL: DefaultComputeLockTTL,
		clock:          time.Now,
	}
}

// WithMaxEntries 设置本地层最大条目数。
func WithMaxEntries(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxEntries = n
		}
	}
}

// WithDefaultTTL 设置读穿透回填的兜底过期时间。
func WithDefaultTTL(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.DefaultTTL = d
		}
	}
}

// WithSweepInterval 设置后台清理循环的执行间隔。
func WithSweepInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.SweepInterval = d
		}
	}
}

// WithSweepBatch 设置后台清理单批检查的键数。
func WithSweepBatch(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.SweepBatch = n
		}
	}
}

// WithComputeTimeout 设置单次回源计算的超时时间。
func WithComputeTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.ComputeTimeout = d
		}
	}
}

// WithComputeLock 设置分布式计算锁，把回源收敛到集群内单个实例。
// 适合计算代价高且多实例部署的场景；加锁失败降级为本实例直接计算。
func WithComputeLock(locker xremote.Locker) Option {
	return func(o *Options) {
		o.ComputeLock = locker
	}
}

// WithComputeLockTTL 设置分布式计算锁的持有时间。
// 自定义 ComputeTimeout 时建议同步调整为其 1.5 倍或更大。
func WithComputeLockTTL(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.ComputeLockTTL = d
		}
	}
}

// WithAsyncRemoteWrite 把 Set/Invalidate 的远端镜像放到后台执行。
// 注意这会改变 Set 的错误契约：远端镜像失败只计入统计并告警，不再返回。
func WithAsyncRemoteWrite(enable bool) Option {
	return func(o *Options) {
		o.AsyncRemoteWrite = enable
	}
}

// WithLogger 设置自定义 Logger。传入 nil 保持静默。
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithMeterProvider 启用 OpenTelemetry 指标桥接。
// 传入 nil 时不桥接（内部原子计数器不受影响）。
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *Options) {
		o.meterProvider = mp
	}
}

// WithClock 注入时钟函数，用于测试中控制 TTL 过期。
// 默认使用 time.Now。传入 nil 时忽略。
func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		if clock != nil {
			o.clock = clock
		}
	}
}
