package xstate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/omeyang/statekit/pkg/state/xlocal"
	"github.com/omeyang/statekit/pkg/state/xremote"
)

// ComputeFunc 定义回源计算的函数类型。
// 在脱离调用方取消链、带独立超时的 context 中执行。
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Manager 定义两级状态管理器接口。
// 所有方法并发安全；value 为不透明负载，序列化由调用方负责。
type Manager interface {
	// Get 读取状态：本地优先，未命中读穿透到远端并回填。
	// 返回 (value, found, err)。远端确定没有时 found 为 false 且无错误；
	// 远端故障时 found 为 false 且返回归类错误，调用方可据此区分
	// "确定没有"和"不知道"。
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)

	// Set 写入状态：本地同步写入在前，远端镜像在后。
	// 远端镜像失败不回滚本地写入，错误返回给调用方重试或记录。
	// ttl <= 0 表示永不过期。
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error

	// Invalidate 删除状态：本地立即删除，远端删除 best-effort。
	// 远端删除失败计入统计并告警，不作为错误返回。对不存在的键幂等。
	Invalidate(ctx context.Context, namespace, key string) error

	// Exists 报告键是否存在：本地检查在前（不刷新热度），再查远端。
	Exists(ctx context.Context, namespace, key string) (bool, error)

	// GetAll 返回命名空间下的全部存活条目，键名已剥去命名空间前缀。
	// 本地视图覆盖远端视图（本实例写入先落本地，本地更新鲜）。
	// 远端故障时返回仅含本地视图的部分结果和归类错误。
	GetAll(ctx context.Context, namespace string) (map[string][]byte, error)

	// Increment 把数值状态按 delta 原子递增并返回新值。
	// 远端优先保证跨实例原子性，结果镜像进本地层；
	// 远端不可达时退化为实例本地递增（降级期间计数仅实例内一致）。
	// 现值不是整数时返回 xremote.ErrNotCounter。
	Increment(ctx context.Context, namespace, key string, delta int64) (int64, error)

	// Append 向 JSON 数组状态追加一个元素，element 必须是已编码的 JSON。
	// maxLen > 0 时只保留末尾 maxLen 个元素（滚动窗口）。
	// 读改写在实例内串行化，跨实例为远端最后写入获胜。
	Append(ctx context.Context, namespace, key string, element []byte, ttl time.Duration, maxLen int) error

	// GetOrCompute 读取状态，两级都未命中时调用 computeFn 回源并写入两级。
	// 同 key 的并发未命中被 singleflight 收敛为一次计算，结果或错误
	// 传播给所有等待者；flight 结束即清除，下次调用会重试。
	// 调用方 context 取消只影响自己，计算继续供其他等待者使用。
	GetOrCompute(ctx context.Context, namespace, key string, ttl time.Duration, computeFn ComputeFunc) ([]byte, error)

	// Metrics 返回当前指标快照，从不阻塞并发操作。
	Metrics() MetricsSnapshot

	// Close 停止后台清理、排空异步镜像写并关闭本地层。
	// 传入的远端存储不在此关闭，由调用方管理其生命周期。
	Close() error
}

// manager 实现 Manager 接口。
type manager struct {
	local     *xlocal.Cache
	remote    xremote.Store
	options   *Options
	stats     metrics
	collector *Collector
	group     singleflight.Group

	// rmwMu 串行化实例内的读改写路径（Append、Increment 降级分支）。
	rmwMu sync.Mutex

	// writers 追踪在途的异步镜像写；writerMu 保证 Close 后不再新增。
	writers  sync.WaitGroup
	writerMu sync.RWMutex

	stopSweep chan struct{}
	sweepDone chan struct{}
	closed    atomic.Bool
}

var _ Manager = (*manager)(nil)

// New 创建状态管理器并启动后台清理循环。
// remote 不能为 nil——无远端部署应传入 xremote.NewMemory()。
//
// 管理器持有本地层的生命周期（Close 时关闭），
// 远端存储的生命周期由调用方管理。
func New(remote xremote.Store, opts ...Option) (Manager, error) {
	if remote == nil {
		return nil, ErrNilStore
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	collector, err := NewCollector(o.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("%w: metrics collector: %w", ErrInvalidConfig, err)
	}

	m := &manager{
		remote:    remote,
		options:   o,
		collector: collector,
		stopSweep: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}

	local, err := xlocal.New(
		xlocal.Config{Capacity: o.MaxEntries},
		xlocal.WithClock(o.clock),
		xlocal.WithOnEvicted(m.onEvicted),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: local tier: %w", ErrInvalidConfig, err)
	}
	m.local = local

	go m.sweepLoop()

	m.logInfo("xstate: manager started",
		"max_entries", o.MaxEntries,
		"sweep_interval", o.SweepInterval,
	)
	return m, nil
}

// Metrics 返回当前指标快照。
func (m *manager) Metrics() MetricsSnapshot {
	return m.stats.snapshot(m.local.Len())
}

// Close 关闭管理器。该方法是幂等的：重复调用返回 ErrClosed。
//
// 关闭顺序：停止清理循环并等待其退出，排空在途的异步镜像写，
// 最后关闭本地层。远端存储不在此关闭。
func (m *manager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	close(m.stopSweep)
	<-m.sweepDone

	// 持写锁等待：已入列的镜像写排空，新的入列被 closed 检查拒绝
	m.writerMu.Lock()
	m.writers.Wait()
	m.writerMu.Unlock()

	m.local.Close()
	m.logInfo("xstate: manager closed")
	return nil
}

// onEvicted 是本地层的移除回调，在缓存锁内执行，只做原子递增。
func (m *manager) onEvicted(_ xlocal.Entry, reason xlocal.EvictReason) {
	switch reason {
	case xlocal.ReasonCapacity:
		m.stats.evictions.Add(1)
	case xlocal.ReasonExpired:
		m.stats.expirations.Add(1)
	}
	m.collector.RecordEviction(context.Background(), reason.String())
}

// now 返回当前时钟读数。
func (m *manager) now() time.Time {
	return m.options.clock()
}

// logDebug 记录调试日志（如果配置了 Logger）。
func (m *manager) logDebug(msg string, args ...any) {
	if m.options.Logger != nil {
		m.options.Logger.Debug(msg, args...)
	}
}

// logInfo 记录信息日志（如果配置了 Logger）。
func (m *manager) logInfo(msg string, args ...any) {
	if m.options.Logger != nil {
		m.options.Logger.Info(msg, args...)
	}
}

// logWarn 记录警告日志（如果配置了 Logger）。
func (m *manager) logWarn(msg string, args ...any) {
	if m.options.Logger != nil {
		m.options.Logger.Warn(msg, args...)
	}
}
