package xremote

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

// redisStore 基于 go-redis 实现 Store 接口。
type redisStore struct {
	client  redis.UniversalClient
	options *Options
	breaker *gobreaker.CircuitBreaker[any] // nil 表示未启用
	closed  atomic.Bool
}

var _ Store = (*redisStore)(nil)

// NewRedis 创建 Redis 存储实例。
// client 必须是已初始化的 redis.UniversalClient。
//
// 生命周期说明：Close 会关闭传入的客户端连接，
// 如需复用客户端，应为本存储创建独立的客户端实例。
func NewRedis(client redis.UniversalClient, opts ...Option) (Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	s := &redisStore{
		client:  client,
		options: options,
	}
	if options.BreakerEnabled {
		s.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:    "xremote",
			Timeout: options.BreakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= options.BreakerFailures
			},
			// 未命中是正常业务结果，不计入失败
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, redis.Nil)
			},
		})
	}
	return s, nil
}

// do 执行一次远端调用：兜底超时、熔断（如启用）、错误分类。
func (s *redisStore) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if s.closed.Load() {
		return ErrClosed
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	if s.breaker == nil {
		return classify(op, fn(ctx))
	}
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	return classify(op, err)
}

// withDeadline 在调用方 context 没有截止时间时补上兜底超时。
func (s *redisStore) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.options.OpTimeout)
}

func (s *redisStore) Get(ctx context.Context, key string) (Item, error) {
	if key == "" {
		return Item{}, ErrEmptyKey
	}

	var item Item
	err := s.do(ctx, "get", func(ctx context.Context) error {
		// 一次往返同时取值和剩余 TTL
		var (
			getCmd *redis.StringCmd
			ttlCmd *redis.DurationCmd
		)
		_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			getCmd = pipe.Get(ctx, key)
			ttlCmd = pipe.PTTL(ctx, key)
			return nil
		})
		if err != nil {
			return err
		}
		val, err := getCmd.Bytes()
		if err != nil {
			return err
		}
		ttl := ttlCmd.Val()
		if ttl < 0 {
			// -1 为键无过期时间，-2 为键已消失（取值后的竞争），都按"未报告"处理
			ttl = 0
		}
		item = Item{Value: val, TTL: ttl}
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

func (s *redisStore) Set(ctx context.Context, key string, item Item) error {
	if key == "" {
		return ErrEmptyKey
	}

	expiration := item.TTL
	if expiration < 0 {
		expiration = 0
	}
	return s.do(ctx, "set", func(ctx context.Context) error {
		return s.client.Set(ctx, key, item.Value, expiration).Err()
	})
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	return s.do(ctx, "delete", func(ctx context.Context) error {
		return s.client.Del(ctx, key).Err()
	})
}

func (s *redisStore) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	var exists bool
	err := s.do(ctx, "exists", func(ctx context.Context) error {
		n, err := s.client.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		exists = n > 0
		return nil
	})
	return exists, err
}

func (s *redisStore) Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if key == "" {
		return 0, ErrEmptyKey
	}

	var value int64
	err := s.do(ctx, "incr", func(ctx context.Context) error {
		var incrCmd *redis.IntCmd
		_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			incrCmd = pipe.IncrBy(ctx, key, delta)
			if ttl > 0 {
				pipe.Expire(ctx, key, ttl)
			}
			return nil
		})
		if err != nil {
			// Redis 对非整数值的回复没有错误码，只能按消息文本识别
			if strings.Contains(err.Error(), "not an integer") {
				return ErrNotCounter
			}
			return err
		}
		value = incrCmd.Val()
		return nil
	})
	return value, err
}

func (s *redisStore) Scan(ctx context.Context, prefix string) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := s.do(ctx, "scan", func(ctx context.Context) error {
		match := escapeMatch(prefix) + "*"
		var cursor uint64
		for {
			keys, next, err := s.client.Scan(ctx, cursor, match, s.options.ScanCount).Result()
			if err != nil {
				return err
			}
			if len(keys) > 0 {
				vals, err := s.client.MGet(ctx, keys...).Result()
				if err != nil {
					return err
				}
				for i, v := range vals {
					// 键在 SCAN 与 MGET 之间消失时对应位置为 nil
					if str, ok := v.(string); ok {
						result[keys[i]] = []byte(str)
					}
				}
			}
			cursor = next
			if cursor == 0 {
				return nil
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *redisStore) Ping(ctx context.Context) error {
	return s.do(ctx, "ping", func(ctx context.Context) error {
		return s.client.Ping(ctx).Err()
	})
}

func (s *redisStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return s.client.Close()
}

// escapeMatch 转义 Redis glob 模式的特殊字符，使前缀按字面量匹配。
func escapeMatch(s string) string {
	if !strings.ContainsAny(s, `*?[]\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
