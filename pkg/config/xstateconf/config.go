package xstateconf

import (
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/statekit/pkg/observability/xslog"
	"github.com/omeyang/statekit/pkg/state/xremote"
	"github.com/omeyang/statekit/pkg/state/xstate"
)

// DefaultRedisAddr 默认的远端存储地址。
const DefaultRedisAddr = "localhost:6379"

// Config 是 statekit 的顶层配置。
//
// 各节与包一一对应：Local 对应 xlocal 层、Redis 对应 xremote 层、
// State 对应 xstate 门面、Log 对应 xslog 引导。
// 零值不可直接使用，请通过 Default 或 Load/LoadBytes 获取实例。
type Config struct {
	Local LocalConfig `koanf:"local"`
	Redis RedisConfig `koanf:"redis"`
	State StateConfig `koanf:"state"`
	Log   LogConfig   `koanf:"log"`
}

// LocalConfig 本地缓存层配置。
type LocalConfig struct {
	// MaxEntries 本地层最大条目数，必须为正。
	MaxEntries int `koanf:"max_entries"`

	// DefaultTTL 读穿透回填的兜底过期时间。
	// 0 表示回填条目永不过期，负值非法。
	DefaultTTL time.Duration `koanf:"default_ttl"`
}

// RedisConfig 远端存储连接配置。
type RedisConfig struct {
	// Addr 远端存储地址，host:port 形式。
	Addr string `koanf:"addr"`

	// Password 连接密码，为空表示无认证。
	Password string `koanf:"password"`

	// DB 数据库编号。
	DB int `koanf:"db"`

	// OpTimeout 单次远端操作的兜底超时。
	OpTimeout time.Duration `koanf:"op_timeout"`
}

// StateConfig 状态管理器行为配置。
type StateConfig struct {
	// SweepInterval 后台清理循环的执行间隔。
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// SweepBatch 后台清理单批检查的键数。
	SweepBatch int `koanf:"sweep_batch"`

	// ComputeTimeout 单次回源计算的超时时间。
	ComputeTimeout time.Duration `koanf:"compute_timeout"`

	// LockTTL 分布式计算锁的持有时间，必须大于 ComputeTimeout。
	LockTTL time.Duration `koanf:"lock_ttl"`

	// AsyncRemoteWrite 是否把写路径的远端镜像放到后台执行。
	AsyncRemoteWrite bool `koanf:"async_remote_write"`
}

// LogConfig 日志引导配置。
type LogConfig struct {
	// Level 日志级别：debug、info、warn、error。
	Level string `koanf:"level"`

	// Format 输出格式：text 或 json，为空使用 text。
	Format string `koanf:"format"`

	// AddSource 是否在日志中记录源码位置。
	AddSource bool `koanf:"add_source"`

	// File 日志文件路径，为空输出到标准错误（不轮转）。
	File string `koanf:"file"`

	// Rotation 轮转策略，仅当 File 非空时生效。
	Rotation RotationConfig `koanf:"rotation"`
}

// RotationConfig 日志轮转配置。
type RotationConfig struct {
	// MaxSizeMB 单个日志文件最大大小（MB）。
	MaxSizeMB int `koanf:"max_size_mb"`

	// MaxBackups 保留的备份文件数量，0 表示不按数量清理。
	MaxBackups int `koanf:"max_backups"`

	// MaxAgeDays 备份保留天数，0 表示不按天数清理。
	MaxAgeDays int `koanf:"max_age_days"`

	// Compress 是否压缩备份文件。
	Compress bool `koanf:"compress"`
}

// Default 返回带默认值的配置。
//
// 设计决策: 默认值直接引用各归属包导出的推荐常量（xstate、xremote、xslog），
// 而不在本包复写字面量。配置默认值与运行时默认值永远同源，不会悄悄漂移。
func Default() *Config {
	return &Config{
		Local: LocalConfig{
			MaxEntries: xstate.DefaultMaxEntries,
			DefaultTTL: xstate.DefaultTTL,
		},
		Redis: RedisConfig{
			Addr:      DefaultRedisAddr,
			DB:        0,
			OpTimeout: xremote.DefaultOpTimeout,
		},
		State: StateConfig{
			SweepInterval:  xstate.DefaultSweepInterval,
			SweepBatch:     xstate.DefaultSweepBatch,
			ComputeTimeout: xstate.DefaultComputeTimeout,
			LockTTL:        xstate.DefaultComputeLockTTL,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Rotation: RotationConfig{
				MaxSizeMB:  xslog.DefaultMaxSizeMB,
				MaxBackups: xslog.DefaultMaxBackups,
				MaxAgeDays: xslog.DefaultMaxAgeDays,
				Compress:   xslog.DefaultCompress,
			},
		},
	}
}

// Validate 校验配置值，返回第一个不合法的字段。
// 错误信息中的字段名使用配置文件里的键路径，便于直接定位。
func (c *Config) Validate() error {
	if err := c.Local.validate(); err != nil {
		return err
	}
	if err := c.Redis.validate(); err != nil {
		return err
	}
	if err := c.State.validate(); err != nil {
		return err
	}
	return c.Log.validate()
}

func (c *LocalConfig) validate() error {
	if c.MaxEntries <= 0 {
		return fmt.Errorf("%w: local.max_entries must be positive, got %d", ErrInvalidConfig, c.MaxEntries)
	}
	if c.DefaultTTL < 0 {
		return fmt.Errorf("%w: local.default_ttl cannot be negative, got %s", ErrInvalidConfig, c.DefaultTTL)
	}
	return nil
}

func (c *RedisConfig) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required", ErrInvalidConfig)
	}
	if c.DB < 0 {
		return fmt.Errorf("%w: redis.db cannot be negative, got %d", ErrInvalidConfig, c.DB)
	}
	if c.OpTimeout <= 0 {
		return fmt.Errorf("%w: redis.op_timeout must be positive, got %s", ErrInvalidConfig, c.OpTimeout)
	}
	return nil
}

func (c *StateConfig) validate() error {
	if c.SweepInterval <= 0 {
		return fmt.Errorf("%w: state.sweep_interval must be positive, got %s", ErrInvalidConfig, c.SweepInterval)
	}
	if c.SweepBatch <= 0 {
		return fmt.Errorf("%w: state.sweep_batch must be positive, got %d", ErrInvalidConfig, c.SweepBatch)
	}
	if c.ComputeTimeout <= 0 {
		return fmt.Errorf("%w: state.compute_timeout must be positive, got %s", ErrInvalidConfig, c.ComputeTimeout)
	}
	// 锁若在计算完成前过期，其他实例会并发回源，防击穿就失效了
	if c.LockTTL <= c.ComputeTimeout {
		return fmt.Errorf("%w: state.lock_ttl must exceed state.compute_timeout, got %s <= %s",
			ErrInvalidConfig, c.LockTTL, c.ComputeTimeout)
	}
	return nil
}

func (c *LogConfig) validate() error {
	if _, err := xslog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("%w: log.level %q not recognized", ErrInvalidConfig, c.Level)
	}
	switch strings.ToLower(strings.TrimSpace(c.Format)) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q not recognized, want text or json", ErrInvalidConfig, c.Format)
	}
	if c.File == "" {
		return nil
	}
	return c.Rotation.validate()
}

func (c *RotationConfig) validate() error {
	if c.MaxSizeMB <= 0 {
		return fmt.Errorf("%w: log.rotation.max_size_mb must be positive, got %d", ErrInvalidConfig, c.MaxSizeMB)
	}
	if c.MaxBackups < 0 {
		return fmt.Errorf("%w: log.rotation.max_backups cannot be negative, got %d", ErrInvalidConfig, c.MaxBackups)
	}
	if c.MaxAgeDays < 0 {
		return fmt.Errorf("%w: log.rotation.max_age_days cannot be negative, got %d", ErrInvalidConfig, c.MaxAgeDays)
	}
	if c.MaxBackups == 0 && c.MaxAgeDays == 0 {
		return fmt.Errorf("%w: log.rotation.max_backups and max_age_days cannot both be 0", ErrInvalidConfig)
	}
	return nil
}
