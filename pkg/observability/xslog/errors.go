package xslog

import "errors"

// 构建参数校验错误。
var (
	// ErrNilOutput 输出目标为 nil。
	ErrNilOutput = errors.New("xslog: nil output writer")

	// ErrNilLevelVar 级别变量为 nil。
	ErrNilLevelVar = errors.New("xslog: nil level var")
)

// 轮转配置校验错误。
var (
	// ErrEmptyFilename 轮转文件名为空。
	ErrEmptyFilename = errors.New("xslog: rotation filename is required")

	// ErrInvalidMaxSize MaxSizeMB 值无效（必须在 1~10240 范围内）。
	ErrInvalidMaxSize = errors.New("xslog: invalid rotation MaxSizeMB")

	// ErrInvalidMaxBackups MaxBackups 值无效（必须在 0~1024 范围内）。
	ErrInvalidMaxBackups = errors.New("xslog: invalid rotation MaxBackups")

	// ErrInvalidMaxAge MaxAgeDays 值无效（必须在 0~3650 范围内）。
	ErrInvalidMaxAge = errors.New("xslog: invalid rotation MaxAgeDays")

	// ErrNoCleanupPolicy MaxBackups 和 MaxAgeDays 不能同时为 0。
	ErrNoCleanupPolicy = errors.New("xslog: no rotation cleanup policy configured")
)
