package xremote

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// WaitReady 阻塞等待远端存储可达，用于进程启动时等待依赖就绪。
// 以指数退避加抖动反复 Ping，直到成功或 ctx 结束。
// 额外的 retry 选项追加在默认值之后，可覆盖默认策略。
func WaitReady(ctx context.Context, store Store, opts ...retry.Option) error {
	if store == nil {
		return ErrNilClient
	}

	options := []retry.Option{
		retry.Context(ctx),
		retry.UntilSucceeded(), // 次数不设限，由 ctx 控制退出
		retry.Delay(100 * time.Millisecond),
		retry.MaxDelay(2 * time.Second),
		retry.MaxJitter(100 * time.Millisecond),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
	}
	options = append(options, opts...)

	return retry.New(options...).Do(func() error {
		return store.Ping(ctx)
	})
}
