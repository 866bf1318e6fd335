package xstate

import "errors"

// =============================================================================
// 构造错误
// =============================================================================

var (
	// ErrInvalidConfig 表示构造参数无效。
	// 只在 New 时返回，运行期不会出现。
	ErrInvalidConfig = errors.New("xstate: invalid config")

	// ErrNilStore 表示传入的远端存储为 nil。
	// 无远端部署应显式传入 xremote.NewMemory() 作为降级后端。
	ErrNilStore = errors.New("xstate: nil store")
)

// =============================================================================
// 运行期错误
// =============================================================================

var (
	// ErrClosed 表示管理器已关闭。
	ErrClosed = errors.New("xstate: manager closed")

	// ErrEmptyKey 表示传入的 key 为空字符串。
	ErrEmptyKey = errors.New("xstate: empty key")

	// ErrNilComputeFn 表示 GetOrCompute 传入的计算函数为 nil。
	ErrNilComputeFn = errors.New("xstate: nil compute function")

	// ErrComputePanic 表示计算函数发生了 panic。
	// panic 被恢复后以本错误传播给同一 flight 的所有等待者，
	// 附带 panic 携带的值。
	ErrComputePanic = errors.New("xstate: compute function panicked")

	// ErrNotList 表示 Append 的目标现值不是 JSON 数组。
	ErrNotList = errors.New("xstate: value is not a JSON list")

	// ErrNotJSON 表示 Append 的元素不是合法 JSON。
	// 负载序列化由调用方负责，追加进 JSON 数组的元素必须已编码。
	ErrNotJSON = errors.New("xstate: element is not valid JSON")
)
