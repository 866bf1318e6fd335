package xlocal

import "errors"

var (
	// ErrInvalidCapacity 表示容量必须大于 0。
	// 零容量缓存是配置错误，在构造时 fail-fast，而非插入时报错。
	ErrInvalidCapacity = errors.New("xlocal: capacity must be greater than 0")

	// ErrCapacityExceedsMax 表示容量超过上限。
	ErrCapacityExceedsMax = errors.New("xlocal: capacity exceeds maximum (16,777,216)")
)
