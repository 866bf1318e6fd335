package xstate

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称常量
const (
	// metricNameGetsTotal 读取总数计数器（按层级和命中与否分维度）
	metricNameGetsTotal = "xstate.gets.total"
	// metricNameRemoteErrorsTotal 远端故障计数器
	metricNameRemoteErrorsTotal = "xstate.remote.errors.total"
	// metricNameEvictionsTotal 条目移除计数器（容量淘汰与 TTL 过期）
	metricNameEvictionsTotal = "xstate.evictions.total"
	// metricNameComputeDuration 回源计算耗时直方图
	metricNameComputeDuration = "xstate.compute.duration"
)

// 层级标签值
const (
	tierLocal  = "local"
	tierRemote = "remote"
)

// Collector 把管理器指标桥接到 OpenTelemetry。
// 提供 Counter 和 Histogram 类型的指标收集。
// 内部原子计数器始终工作，Collector 只是可选的导出通道。
type Collector struct {
	meter           metric.Meter
	getsTotal       metric.Int64Counter
	remoteErrsTotal metric.Int64Counter
	evictionsTotal  metric.Int64Counter
	computeDuration metric.Float64Histogram
}

// NewCollector 创建指标收集器。
// 如果 meterProvider 为 nil，返回 nil（不收集指标）；
// 所有 Record 方法对 nil 接收者安全，调用方无需判空。
func NewCollector(meterProvider metric.MeterProvider) (*Collector, error) {
	if meterProvider == nil {
		return nil, nil
	}

	meter := meterProvider.Meter("xstate",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	getsTotal, err := meter.Int64Counter(
		metricNameGetsTotal,
		metric.WithDescription("状态读取总数"),
		metric.WithUnit("{get}"),
	)
	if err != nil {
		return nil, err
	}

	remoteErrsTotal, err := meter.Int64Counter(
		metricNameRemoteErrorsTotal,
		metric.WithDescription("远端存储故障数"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	evictionsTotal, err := meter.Int64Counter(
		metricNameEvictionsTotal,
		metric.WithDescription("本地条目移除数"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	computeDuration, err := meter.Float64Histogram(
		metricNameComputeDuration,
		metric.WithDescription("回源计算耗时"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0,
		),
	)
	if err != nil {
		return nil, err
	}

	return &Collector{
		meter:           meter,
		getsTotal:       getsTotal,
		remoteErrsTotal: remoteErrsTotal,
		evictionsTotal:  evictionsTotal,
		computeDuration: computeDuration,
	}, nil
}

// RecordGet 记录一次层级读取结果。
// tier: 层级（"local" 或 "remote"）
// hit: 是否命中
func (c *Collector) RecordGet(ctx context.Context, tier string, hit bool) {
	if c == nil {
		return
	}

	// 使用 context.WithoutCancel 确保即使 ctx 被取消，指标仍能记录
	metricsCtx := context.WithoutCancel(ctx)

	c.getsTotal.Add(metricsCtx, 1, metric.WithAttributes(
		attribute.String("tier", tier),
		attribute.Bool("hit", hit),
	))
}

// RecordRemoteError 记录一次远端故障。
// op: 发生故障的操作名（"get"、"set"、"incr" 等）
func (c *Collector) RecordRemoteError(ctx context.Context, op string) {
	if c == nil {
		return
	}

	metricsCtx := context.WithoutCancel(ctx)

	c.remoteErrsTotal.Add(metricsCtx, 1, metric.WithAttributes(
		attribute.String("op", op),
	))
}

// RecordEviction 记录一次本地条目移除。
// reason: 移除原因（"capacity" 或 "expired"）
func (c *Collector) RecordEviction(ctx context.Context, reason string) {
	if c == nil {
		return
	}

	metricsCtx := context.WithoutCancel(ctx)

	c.evictionsTotal.Add(metricsCtx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordCompute 记录一次回源计算。
// duration: 计算耗时
// ok: 计算是否成功
func (c *Collector) RecordCompute(ctx context.Context, duration time.Duration, ok bool) {
	if c == nil {
		return
	}

	metricsCtx := context.WithoutCancel(ctx)

	c.computeDuration.Record(metricsCtx, duration.Seconds(), metric.WithAttributes(
		attribute.Bool("ok", ok),
	))
}
