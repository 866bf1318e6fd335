package xstate

import "time"

// sweepLoop 是后台清理循环：按固定间隔分批清除本地层的过期条目。
// 显式 stop channel 停止，Close 会合流等待其退出。
func (m *manager) sweepLoop() {
	defer close(m.sweepDone)

	ticker := time.NewTicker(m.options.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopSweep:
			return
		case <-ticker.C:
			m.sweepOnce()
		}
	}
}

// sweepOnce 执行一轮清理：快照全部键，按配置的批大小分批检查过期。
// 每批在本地层内独立持锁，批之间自然让出给并发读写；
// 发现 stop 信号时中途退出，不等整轮扫完。
func (m *manager) sweepOnce() {
	keys := m.local.Keys()
	if len(keys) == 0 {
		return
	}

	batch := m.options.SweepBatch
	removed := 0
	for start := 0; start < len(keys); start += batch {
		end := min(start+batch, len(keys))
		removed += m.local.ExpireBatch(keys[start:end])

		select {
		case <-m.stopSweep:
			return
		default:
		}
	}

	if removed > 0 {
		m.logDebug("xstate: sweep removed expired entries",
			"removed", removed, "scanned", len(keys))
	}
}
