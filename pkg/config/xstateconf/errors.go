package xstateconf

import "errors"

// 配置加载和解析相关错误。
var (
	// ErrEmptyPath 表示配置文件路径为空。
	ErrEmptyPath = errors.New("xstateconf: empty config path")

	// ErrUnsupportedFormat 表示不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xstateconf: unsupported config format")

	// ErrLoadFailed 表示配置文件读取失败。
	ErrLoadFailed = errors.New("xstateconf: failed to load config")

	// ErrParseFailed 表示配置内容解析失败。
	ErrParseFailed = errors.New("xstateconf: failed to parse config")

	// ErrUnmarshalFailed 表示配置反序列化失败。
	ErrUnmarshalFailed = errors.New("xstateconf: failed to unmarshal config")

	// ErrInvalidConfig 表示配置值未通过校验。
	// 具体字段和取值范围在错误信息中给出。
	ErrInvalidConfig = errors.New("xstateconf: invalid config")
)

// 配置监视相关错误。
var (
	// ErrNilCallback 表示监视回调为 nil。
	ErrNilCallback = errors.New("xstateconf: nil watch callback")

	// ErrInvalidDebounce 表示防抖时间非法（必须为正值）。
	ErrInvalidDebounce = errors.New("xstateconf: invalid debounce duration")
)
