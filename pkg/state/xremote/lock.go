package xremote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	rsredis "github.com/go-redsync/redsync/v4/redis"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript 是释放分布式锁的 Lua 脚本。
// 返回 1 表示成功释放，0 表示锁已不属于当前持有者（过期或被抢走）。
var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Unlock 释放分布式锁的函数类型。
// 返回 ErrLockExpired 表示锁已过期或被其他持有者抢走。
type Unlock func(ctx context.Context) error

// Locker 定义跨实例互斥锁接口。
// 用于把同一个键的昂贵计算收敛到集群内的单个实例。
type Locker interface {
	// TryLock 尝试获取锁，成功返回解锁函数。
	// 锁被其他持有者占用时返回 ErrLockFailed。
	// ttl 为锁的最大持有时间，超时自动释放。
	TryLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}

// =============================================================================
// 锁配置选项
// =============================================================================

// LockerOptions 定义分布式锁的配置选项。
type LockerOptions struct {
	// KeyPrefix 锁 key 的前缀。默认为 "lock:"。
	KeyPrefix string

	// RetryInterval 获取锁失败后的重试间隔。默认为 0，表示不重试。
	RetryInterval time.Duration

	// RetryCount 获取锁失败后的最大重试次数。默认为 0，表示不重试。
	RetryCount int
}

// LockerOption 定义配置分布式锁的函数类型。
type LockerOption func(*LockerOptions)

// defaultLockerOptions 返回默认的锁配置。
func defaultLockerOptions() *LockerOptions {
	return &LockerOptions{
		KeyPrefix: "lock:",
	}
}

// WithLockKeyPrefix 设置锁 key 前缀。
func WithLockKeyPrefix(prefix string) LockerOption {
	return func(o *LockerOptions) {
		o.KeyPrefix = prefix
	}
}

// WithLockRetry 设置锁重试策略。
// TryLock 首先立即尝试一次，失败后每隔 interval 重试一次，
// 最多重试 count 次；总尝试次数为 1 + count。
func WithLockRetry(interval time.Duration, count int) LockerOption {
	return func(o *LockerOptions) {
		o.RetryInterval = interval
		o.RetryCount = count
	}
}

// =============================================================================
// SET NX 轻量锁
// =============================================================================

// redisLocker 用 SET NX EX 实现轻量级分布式锁。
// 锁值为随机 token，释放经由 Lua 脚本比对 token，保证只释放自己持有的锁。
type redisLocker struct {
	client  redis.UniversalClient
	options *LockerOptions
}

var _ Locker = (*redisLocker)(nil)

// NewLocker 创建基于单个 Redis 客户端的轻量级锁。
// 适合收敛重复计算这类"尽力而为"的互斥场景。
// 对正确性要求更高的多节点场景应使用 [NewRedsyncLocker]。
func NewLocker(client redis.UniversalClient, opts ...LockerOption) (Locker, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	options := defaultLockerOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return &redisLocker{client: client, options: options}, nil
}

func (l *redisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if ttl <= 0 {
		return nil, ErrInvalidLockTTL
	}

	lockKey := l.options.KeyPrefix + key
	lockValue := uuid.NewString()

	acquired, err := l.tryOnce(ctx, lockKey, lockValue, ttl)
	if err != nil {
		return nil, err
	}
	if !acquired && l.options.RetryCount > 0 && l.options.RetryInterval > 0 {
		acquired, err = l.tryWithRetry(ctx, lockKey, lockValue, ttl)
		if err != nil {
			return nil, err
		}
	}
	if !acquired {
		return nil, ErrLockFailed
	}

	unlock := func(ctx context.Context) error {
		result, err := unlockScript.Run(ctx, l.client, []string{lockKey}, lockValue).Int64()
		if err != nil {
			return classify("unlock", err)
		}
		if result == 0 {
			return ErrLockExpired
		}
		return nil
	}
	return unlock, nil
}

// tryOnce 尝试获取锁（单次）。
func (l *redisLocker) tryOnce(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, classify("lock", err)
	}
	return acquired, nil
}

// tryWithRetry 带重试的获取锁。使用可复用的 Timer 避免 time.After 的泄漏问题。
func (l *redisLocker) tryWithRetry(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	timer := time.NewTimer(l.options.RetryInterval)
	defer timer.Stop()

	for i := 0; i < l.options.RetryCount; i++ {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}

		acquired, err := l.tryOnce(ctx, key, value, ttl)
		if err != nil {
			return false, err
		}
		if acquired {
			return true, nil
		}

		// 重置 timer 用于下次迭代（最后一次迭代跳过，避免无消费的 timer）
		if i < l.options.RetryCount-1 {
			timer.Reset(l.options.RetryInterval)
		}
	}
	return false, nil
}

// =============================================================================
// Redsync 锁
// =============================================================================

// redsyncLocker 基于 redsync 实现 Locker。
// 单节点为标准 Redis 锁；多节点使用 Redlock 算法（需过半成功）。
type redsyncLocker struct {
	rs      *redsync.Redsync
	options *LockerOptions
}

var _ Locker = (*redsyncLocker)(nil)

// NewRedsyncLocker 创建基于 redsync 的分布式锁。
// 传入多个独立的 Redis 节点时按 Redlock 算法工作。
func NewRedsyncLocker(clients []redis.UniversalClient, opts ...LockerOption) (Locker, error) {
	if len(clients) == 0 {
		return nil, ErrNilClient
	}
	for _, client := range clients {
		if client == nil {
			return nil, ErrNilClient
		}
	}

	options := defaultLockerOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	pools := make([]rsredis.Pool, len(clients))
	for i, client := range clients {
		pools[i] = goredis.NewPool(client)
	}
	return &redsyncLocker{
		rs:      redsync.New(pools...),
		options: options,
	}, nil
}

func (l *redsyncLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if ttl <= 0 {
		return nil, ErrInvalidLockTTL
	}

	rsOpts := []redsync.Option{
		redsync.WithExpiry(ttl),
		redsync.WithTries(1 + l.options.RetryCount),
	}
	if l.options.RetryInterval > 0 {
		rsOpts = append(rsOpts, redsync.WithRetryDelay(l.options.RetryInterval))
	}
	mutex := l.rs.NewMutex(l.options.KeyPrefix+key, rsOpts...)

	if err := mutex.TryLockContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var taken *redsync.ErrTaken
		if errors.As(err, &taken) || errors.Is(err, redsync.ErrFailed) {
			return nil, fmt.Errorf("%w: %w", ErrLockFailed, err)
		}
		return nil, classify("lock", err)
	}

	unlock := func(ctx context.Context) error {
		ok, err := mutex.UnlockContext(ctx)
		if err != nil {
			if errors.Is(err, redsync.ErrLockAlreadyExpired) {
				return ErrLockExpired
			}
			return classify("unlock", err)
		}
		if !ok {
			return ErrLockExpired
		}
		return nil
	}
	return unlock, nil
}
