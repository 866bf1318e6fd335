package xremote

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

// =============================================================================
// 通用错误
// =============================================================================

var (
	// ErrNilClient 表示传入的客户端为 nil。
	ErrNilClient = errors.New("xremote: nil client")

	// ErrEmptyKey 表示传入的 key 为空字符串。
	// 空字符串 key 在远端存储中合法但几乎总是使用错误，应在入口处 fail-fast。
	ErrEmptyKey = errors.New("xremote: empty key")

	// ErrClosed 表示存储已关闭。
	ErrClosed = errors.New("xremote: store closed")
)

// =============================================================================
// 远端调用错误分类
// =============================================================================

var (
	// ErrNotFound 表示键确定不存在。
	// 这是正常的未命中，与连接类故障严格区分："确定没有"不等于"不知道"。
	ErrNotFound = errors.New("xremote: key not found")

	// ErrUnavailable 表示远端存储不可达（连接拒绝、池耗尽、熔断开启等）。
	// 非致命：调用方应降级为仅本地操作。
	ErrUnavailable = errors.New("xremote: store unavailable")

	// ErrTimeout 表示远端调用超过了截止时间。
	// 处理方式与 ErrUnavailable 相同，单独成类便于观测归因。
	ErrTimeout = errors.New("xremote: operation timed out")

	// ErrNotCounter 表示对非整数值执行了递增操作。
	// 这是使用错误而非连接故障，调用方不应降级重试。
	ErrNotCounter = errors.New("xremote: value is not an integer")
)

// =============================================================================
// 分布式锁错误
// =============================================================================

var (
	// ErrLockFailed 表示获取分布式锁失败（锁被其他持有者占用）。
	ErrLockFailed = errors.New("xremote: failed to acquire lock")

	// ErrLockExpired 表示分布式锁已过期或被其他持有者抢走。
	ErrLockExpired = errors.New("xremote: lock expired or stolen")

	// ErrInvalidLockTTL 表示锁的 TTL 无效。
	ErrInvalidLockTTL = errors.New("xremote: lock TTL must be positive")
)

// classify 把驱动层错误归类为本包的类型化错误。
// 返回的错误同时包裹类型哨兵和底层错误，errors.Is 对两者都成立。
//
// 分类规则：
//   - redis.Nil → ErrNotFound（正常未命中）
//   - 截止时间超过、网络超时 → ErrTimeout
//   - 调用方主动取消 → 原样返回（不属于远端故障）
//   - 熔断开启/半开限流 → ErrUnavailable（未触网即拒绝）
//   - 其余一律视为 ErrUnavailable
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	// 已归类的错误只补操作前缀，不再二次归类
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUnavailable) || errors.Is(err, ErrNotCounter) {
		return fmt.Errorf("xremote: %s: %w", op, err)
	}
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("xremote: %s: %w", op, ErrNotFound)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("xremote: %s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("xremote: %s: %w: %w", op, ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("xremote: %s: %w: %w", op, ErrTimeout, err)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("xremote: %s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("xremote: %s: %w: %w", op, ErrUnavailable, err)
}

// IsNotFound 报告错误是否为"键不存在"。
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailable 报告错误是否为"远端不可达"。
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsTimeout 报告错误是否为"远端调用超时"。
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
