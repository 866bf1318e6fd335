package xremote

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memClock 可手动推进的测试时钟。
type memClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMemClock() *memClock {
	return &memClock{now: time.Unix(1700000000, 0)}
}

func (c *memClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *memClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemory_SetGet_RoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", Item{Value: []byte("v"), TTL: time.Minute}))

	item, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), item.Value)
	assert.Greater(t, item.TTL, time.Duration(0))
}

func TestMemory_Get_Missing_ReturnsNotFound(t *testing.T) {
	m := NewMemory()

	_, err := m.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_TTL_Expiry(t *testing.T) {
	clk := newMemClock()
	m := NewMemory(WithMemoryClock(clk.Now))
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", Item{Value: []byte("v"), TTL: 100 * time.Millisecond}))
	clk.Advance(150 * time.Millisecond)

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_ZeroTTL_NeverExpires(t *testing.T) {
	clk := newMemClock()
	m := NewMemory(WithMemoryClock(clk.Now))
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", Item{Value: []byte("v")}))
	clk.Advance(1000 * time.Hour)

	item, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), item.Value)
	assert.Equal(t, time.Duration(0), item.TTL)
}

func TestMemory_FailureInjection(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	t.Run("fails for n calls then recovers", func(t *testing.T) {
		m.FailWith(ErrUnavailable, 2)

		_, err := m.Get(ctx, "k")
		assert.True(t, IsUnavailable(err))
		err = m.Set(ctx, "k", Item{Value: []byte("v")})
		assert.True(t, IsUnavailable(err))

		// 故障耗尽后恢复正常
		require.NoError(t, m.Set(ctx, "k", Item{Value: []byte("v")}))
	})

	t.Run("persistent failure until cleared", func(t *testing.T) {
		m.FailWith(ErrTimeout, -1)
		for i := 0; i < 3; i++ {
			_, err := m.Get(ctx, "k")
			assert.True(t, IsTimeout(err))
		}
		m.FailWith(nil, 0)

		_, err := m.Get(ctx, "k")
		require.NoError(t, err)
	})
}

func TestMemory_CallCount(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", Item{Value: []byte("v")}))
	_, _ = m.Get(ctx, "k")
	_, _ = m.Get(ctx, "k")
	_ = m.Delete(ctx, "k")

	assert.Equal(t, 1, m.CallCount("set"))
	assert.Equal(t, 2, m.CallCount("get"))
	assert.Equal(t, 1, m.CallCount("delete"))
	assert.Equal(t, 0, m.CallCount("scan"))
}

func TestMemory_Incr(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and accumulates", func(t *testing.T) {
		m := NewMemory()
		n, err := m.Incr(ctx, "c", 5, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)

		n, err = m.Incr(ctx, "c", -2, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("non-integer value", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Set(ctx, "c", Item{Value: []byte("abc")}))

		_, err := m.Incr(ctx, "c", 1, 0)
		assert.ErrorIs(t, err, ErrNotCounter)
	})

	t.Run("refreshes ttl when given", func(t *testing.T) {
		clk := newMemClock()
		m := NewMemory(WithMemoryClock(clk.Now))

		_, err := m.Incr(ctx, "c", 1, 100*time.Millisecond)
		require.NoError(t, err)
		clk.Advance(80 * time.Millisecond)
		_, err = m.Incr(ctx, "c", 1, 100*time.Millisecond)
		require.NoError(t, err)
		clk.Advance(80 * time.Millisecond)

		// 第二次递增刷新了 TTL
		n, err := m.Incr(ctx, "c", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestMemory_Scan(t *testing.T) {
	clk := newMemClock()
	m := NewMemory(WithMemoryClock(clk.Now))
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "user:1", Item{Value: []byte("a")}))
	require.NoError(t, m.Set(ctx, "user:2", Item{Value: []byte("b"), TTL: 50 * time.Millisecond}))
	require.NoError(t, m.Set(ctx, "session:1", Item{Value: []byte("c")}))
	clk.Advance(100 * time.Millisecond)

	result, err := m.Scan(ctx, "user:")
	require.NoError(t, err)

	// 已过期的 user:2 不出现在结果里
	assert.Len(t, result, 1)
	assert.Equal(t, []byte("a"), result["user:1"])
}

func TestMemory_ContextCancellation(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_Close(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", Item{Value: []byte("v")}))
	require.NoError(t, m.Close())

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Close(), ErrClosed)
	assert.Equal(t, 0, m.Len())
}
