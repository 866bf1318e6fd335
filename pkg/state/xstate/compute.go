package xstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/statekit/pkg/state/xremote"
)

// GetOrCompute 读取状态，两级都未命中时回源计算并写入两级。
//
// 同 key 的并发未命中经 singleflight 收敛为一次计算：使用 DoChan
// 让每个调用者独立等待，调用方 context 取消只影响自己，
// 计算在脱离取消链、带独立超时的 context 中继续，供其他等待者使用。
// flight 随计算结束（成功或失败）自动清除，下次调用会重试。
func (m *manager) GetOrCompute(ctx context.Context, namespace, key string, ttl time.Duration, computeFn ComputeFunc) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if key == "" {
		return nil, ErrEmptyKey
	}
	if computeFn == nil {
		return nil, ErrNilComputeFn
	}
	sk := JoinKey(namespace, key)

	// 1. 本地快路径
	if value, ok := m.local.Get(sk); ok {
		m.stats.localHits.Add(1)
		m.collector.RecordGet(ctx, tierLocal, true)
		return value, nil
	}
	m.stats.localMisses.Add(1)
	m.collector.RecordGet(ctx, tierLocal, false)

	// 2. singleflight 收敛并发未命中。
	// flight context 在闭包内创建并随闭包结束取消：绑定到任何单个
	// 调用者的 defer 都会在该调用者提前返回时杀掉整个 flight。
	ch := m.group.DoChan(sk, func() (value any, err error) {
		defer func() {
			if r := recover(); r != nil {
				m.stats.computeErrors.Add(1)
				err = fmt.Errorf("%w: %v", ErrComputePanic, r)
			}
		}()

		flightCtx, cancel := m.flightContext(ctx)
		defer cancel()
		return m.computeMiss(flightCtx, sk, ttl, computeFn)
	})

	// 3. 每个调用者独立等待，可以各自取消
	select {
	case <-ctx.Done():
		// 调用方取消只影响自己，后台计算继续供其他等待者使用
		return nil, ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return nil, result.Err
		}
		value, ok := result.Val.([]byte)
		if !ok {
			return nil, errors.New("xstate: unexpected result type from singleflight")
		}
		return value, nil
	}
}

// flightContext 创建回源计算用的 context：
// 脱离调用方取消链（保留 Value），带独立的计算超时。
func (m *manager) flightContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), m.options.ComputeTimeout)
}

// computeMiss 是 flight 的主体：double-check 两级，仍未命中才计算。
func (m *manager) computeMiss(ctx context.Context, sk string, ttl time.Duration, computeFn ComputeFunc) ([]byte, error) {
	// double-check 本地：排队期间上一个 flight 可能已回填
	if value, ok := m.local.Get(sk); ok {
		return value, nil
	}

	// 远端探测：其他实例可能已算好
	item, err := m.remote.Get(ctx, sk)
	if err == nil {
		rttl := item.TTL
		if rttl <= 0 {
			rttl = m.options.DefaultTTL
		}
		m.stats.remoteHits.Add(1)
		m.collector.RecordGet(ctx, tierRemote, true)
		m.local.SetIfVersion(sk, item.Value, rttl, 0)
		return item.Value, nil
	}
	if xremote.IsNotFound(err) {
		m.stats.remoteMisses.Add(1)
		m.collector.RecordGet(ctx, tierRemote, false)
	} else {
		// 远端故障不阻断回源：可用性优先，计算结果稍后照常镜像
		m.noteRemoteError(ctx, "get", sk, err)
	}

	if m.options.ComputeLock != nil {
		return m.computeWithLock(ctx, sk, ttl, computeFn)
	}
	return m.computeAndStore(ctx, sk, ttl, computeFn)
}

// computeWithLock 在分布式锁保护下回源，把计算收敛到集群内单个实例。
// 加锁失败（竞争或锁服务故障）降级为本实例直接计算。
func (m *manager) computeWithLock(ctx context.Context, sk string, ttl time.Duration, computeFn ComputeFunc) ([]byte, error) {
	unlock, lockErr := m.options.ComputeLock.TryLock(ctx, sk, m.options.ComputeLockTTL)
	if lockErr != nil {
		if errors.Is(lockErr, context.Canceled) || errors.Is(lockErr, context.DeadlineExceeded) {
			return nil, lockErr
		}
		if !errors.Is(lockErr, xremote.ErrLockFailed) {
			// 锁服务自身的运行时故障，记录后降级
			m.logWarn("xstate: compute lock error, computing locally",
				"key", sk, "error", lockErr)
		}
		return m.computeAndStore(ctx, sk, ttl, computeFn)
	}

	// 解锁脱离调用链取消影响，但有超时保护
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.options.ComputeLockTTL)
		defer cancel()
		if uerr := unlock(unlockCtx); uerr != nil {
			m.logUnlockError(sk, uerr)
		}
	}()

	// 拿到锁后再探测一次远端：锁释放方可能刚写入结果
	if item, gerr := m.remote.Get(ctx, sk); gerr == nil {
		rttl := item.TTL
		if rttl <= 0 {
			rttl = m.options.DefaultTTL
		}
		m.local.SetIfVersion(sk, item.Value, rttl, 0)
		return item.Value, nil
	}

	return m.computeAndStore(ctx, sk, ttl, computeFn)
}

// computeAndStore 执行回源计算并把结果写入两级。
// computeFn 自身的错误原样传播给所有等待者；
// 远端镜像失败不影响计算结果的返回。
func (m *manager) computeAndStore(ctx context.Context, sk string, ttl time.Duration, computeFn ComputeFunc) ([]byte, error) {
	m.stats.computes.Add(1)
	start := m.now()

	value, err := computeFn(ctx)
	duration := m.now().Sub(start)
	m.collector.RecordCompute(ctx, duration, err == nil)
	if err != nil {
		m.stats.computeErrors.Add(1)
		return nil, err
	}

	// 本地在前：回源结果立即对本实例可见
	m.local.Set(sk, value, ttl)
	m.stats.sets.Add(1)

	if serr := m.remote.Set(ctx, sk, xremote.Item{Value: value, TTL: ttl}); serr != nil {
		m.noteRemoteError(ctx, "set", sk, serr)
	}
	return value, nil
}

// logUnlockError 记录解锁错误。
// ErrLockExpired 是预期情况（计算时间超过锁 TTL），使用 Info 级别；
// 其他错误使用 Warn 级别。
func (m *manager) logUnlockError(key string, err error) {
	if errors.Is(err, xremote.ErrLockExpired) {
		m.logInfo("xstate: compute lock expired before unlock (consider increasing ComputeLockTTL)",
			"key", key)
		return
	}
	m.logWarn("xstate: compute unlock failed", "key", key, "error", err)
}
