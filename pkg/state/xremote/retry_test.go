package xremote

import (
	"context"
	"testing"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitReady_NilStore_ReturnsError(t *testing.T) {
	err := WaitReady(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestWaitReady_SucceedsAfterTransientFailures(t *testing.T) {
	// Given: 前 3 次 Ping 失败，之后恢复
	m := NewMemory()
	m.FailWith(ErrUnavailable, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// When
	err := WaitReady(ctx, m, retry.Delay(time.Millisecond), retry.MaxDelay(5*time.Millisecond))

	// Then
	require.NoError(t, err)
	assert.Equal(t, 4, m.CallCount("ping")) // 3 次失败 + 1 次成功
}

func TestWaitReady_ContextExpiry_StopsRetrying(t *testing.T) {
	m := NewMemory()
	m.FailWith(ErrUnavailable, -1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := WaitReady(ctx, m, retry.Delay(5*time.Millisecond), retry.MaxDelay(10*time.Millisecond))

	require.Error(t, err)
	// 上下文结束后不再重试
	calls := m.CallCount("ping")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, m.CallCount("ping"))
}
