package xstate

import "sync/atomic"

// metrics 是管理器的内部计数器组。
// 全部为原子计数器，热路径上无锁递增；快照经原子读取生成，从不阻塞写方。
type metrics struct {
	localHits     atomic.Uint64
	localMisses   atomic.Uint64
	remoteHits    atomic.Uint64
	remoteMisses  atomic.Uint64
	remoteErrors  atomic.Uint64
	evictions     atomic.Uint64
	expirations   atomic.Uint64
	sets          atomic.Uint64
	deletes       atomic.Uint64
	computes      atomic.Uint64
	computeErrors atomic.Uint64
}

// MetricsSnapshot 是指标的一致性无关快照，用于序列化和上报。
//
// 各计数器在快照期间独立读取，彼此之间不保证原子一致
// （快照从不为了一致性阻塞热路径）。
type MetricsSnapshot struct {
	// LocalHits 本地层命中次数。
	LocalHits uint64 `json:"local_hits"`

	// LocalMisses 本地层未命中次数（含随后远端命中的情况）。
	LocalMisses uint64 `json:"local_misses"`

	// RemoteHits 远端命中次数（本地未命中后读穿透成功）。
	RemoteHits uint64 `json:"remote_hits"`

	// RemoteMisses 远端确定未命中次数（键不存在，非故障）。
	RemoteMisses uint64 `json:"remote_misses"`

	// RemoteErrors 远端故障次数（不可达、超时）。调用方主动取消不计入。
	RemoteErrors uint64 `json:"remote_errors"`

	// Evictions 容量压力淘汰次数。
	Evictions uint64 `json:"evictions"`

	// Expirations TTL 过期清除次数（惰性删除与后台清理之和）。
	Expirations uint64 `json:"expirations"`

	// Sets 写入次数（含 Increment 镜像与 Append 改写）。
	Sets uint64 `json:"sets"`

	// Deletes 删除次数。
	Deletes uint64 `json:"deletes"`

	// Computes 回源计算次数（singleflight 收敛后的实际执行数）。
	Computes uint64 `json:"computes"`

	// ComputeErrors 回源计算失败次数（含 panic）。
	ComputeErrors uint64 `json:"compute_errors"`

	// HitRate 两级合并命中率：任一层命中的读取占全部读取的比例。
	// 分母为本地命中加本地未命中（每次读取恰好贡献其一），
	// 分子再叠加远端命中。无读取时为 0。
	HitRate float64 `json:"hit_rate"`

	// LocalEntries 本地层当前条目数（可能含尚未清理的过期条目）。
	LocalEntries int `json:"local_entries"`
}

// snapshot 生成当前计数的快照。localEntries 由调用方提供本地层条目数。
func (s *metrics) snapshot(localEntries int) MetricsSnapshot {
	snap := MetricsSnapshot{
		LocalHits:     s.localHits.Load(),
		LocalMisses:   s.localMisses.Load(),
		RemoteHits:    s.remoteHits.Load(),
		RemoteMisses:  s.remoteMisses.Load(),
		RemoteErrors:  s.remoteErrors.Load(),
		Evictions:     s.evictions.Load(),
		Expirations:   s.expirations.Load(),
		Sets:          s.sets.Load(),
		Deletes:       s.deletes.Load(),
		Computes:      s.computes.Load(),
		ComputeErrors: s.computeErrors.Load(),
		LocalEntries:  localEntries,
	}
	if total := snap.LocalHits + snap.LocalMisses; total > 0 {
		snap.HitRate = float64(snap.LocalHits+snap.RemoteHits) / float64(total)
	}
	return snap
}
