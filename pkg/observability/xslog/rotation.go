package xslog

import (
	"fmt"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 轮转默认配置值。
const (
	// DefaultMaxSizeMB 默认单个日志文件最大大小（MB）。
	DefaultMaxSizeMB = 500

	// DefaultMaxBackups 默认保留的备份文件数量。
	DefaultMaxBackups = 7

	// DefaultMaxAgeDays 默认保留备份的天数。
	DefaultMaxAgeDays = 30

	// DefaultCompress 默认是否压缩备份。
	DefaultCompress = true
)

// 轮转配置上限。
const (
	// maxSizeMB 单个日志文件大小上限（10 GB）。
	maxSizeMB = 10240

	// maxBackups 备份文件数量上限。
	maxBackups = 1024

	// maxAgeDays 备份保留天数上限（约 10 年）。
	maxAgeDays = 3650
)

// rotationConfig 日志轮转配置。
type rotationConfig struct {
	// MaxSizeMB 单个日志文件最大大小（MB），超过时触发轮转。必须 > 0。
	MaxSizeMB int

	// MaxBackups 保留的备份文件数量。
	// 0 表示不按数量清理（但仍受 MaxAgeDays 约束）。
	MaxBackups int

	// MaxAgeDays 备份保留天数。
	// 0 表示不按天数清理（但仍受 MaxBackups 约束）。
	MaxAgeDays int

	// Compress 是否用 gzip 压缩备份文件。
	Compress bool

	// LocalTime 备份文件名是否使用本地时间，false 使用 UTC。
	LocalTime bool
}

// RotationOption 轮转配置选项函数。
type RotationOption func(*rotationConfig)

// WithMaxSize 设置单个日志文件最大大小（MB）。
func WithMaxSize(mb int) RotationOption {
	return func(c *rotationConfig) {
		c.MaxSizeMB = mb
	}
}

// WithMaxBackups 设置保留的备份文件数量。
func WithMaxBackups(n int) RotationOption {
	return func(c *rotationConfig) {
		c.MaxBackups = n
	}
}

// WithMaxAge 设置保留备份的天数。
func WithMaxAge(days int) RotationOption {
	return func(c *rotationConfig) {
		c.MaxAgeDays = days
	}
}

// WithCompress 设置是否压缩备份文件。
func WithCompress(compress bool) RotationOption {
	return func(c *rotationConfig) {
		c.Compress = compress
	}
}

// WithLocalTime 设置备份文件名是否使用本地时间。
func WithLocalTime(local bool) RotationOption {
	return func(c *rotationConfig) {
		c.LocalTime = local
	}
}

// newRotator 创建 lumberjack 轮转器。
// lumberjack 会自动创建不存在的父目录，延迟到首次写入时建文件。
func newRotator(filename string, opts ...RotationOption) (*lumberjack.Logger, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := rotationConfig{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
		Compress:   DefaultCompress,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	}, nil
}

// validate 校验轮转配置。
func (c *rotationConfig) validate() error {
	if c.MaxSizeMB <= 0 || c.MaxSizeMB > maxSizeMB {
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, c.MaxSizeMB, maxSizeMB)
	}
	if c.MaxBackups < 0 || c.MaxBackups > maxBackups {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxBackups, c.MaxBackups, maxBackups)
	}
	if c.MaxAgeDays < 0 || c.MaxAgeDays > maxAgeDays {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxAge, c.MaxAgeDays, maxAgeDays)
	}
	if c.MaxBackups == 0 && c.MaxAgeDays == 0 {
		return fmt.Errorf("%w: MaxBackups and MaxAgeDays cannot both be 0", ErrNoCleanupPolicy)
	}
	return nil
}
