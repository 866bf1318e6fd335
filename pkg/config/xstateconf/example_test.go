package xstateconf_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/omeyang/statekit/pkg/config/xstateconf"
	"github.com/omeyang/statekit/pkg/state/xremote"
	"github.com/omeyang/statekit/pkg/state/xstate"
)

// ExampleLoad 演示从文件加载配置。
func ExampleLoad() {
	tmpDir, err := os.MkdirTemp("", "xstateconf-example")
	if err != nil {
		fmt.Printf("failed to create temp dir: %v\n", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }() //nolint:errcheck // 清理临时目录，错误无关紧要

	configPath := filepath.Join(tmpDir, "statekit.yaml")
	configContent := `
local:
  max_entries: 4096
redis:
  addr: redis.internal:6379
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		fmt.Printf("failed to write config file: %v\n", err)
		return
	}

	cfg, err := xstateconf.Load(configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		return
	}

	// 文件覆盖的字段
	fmt.Printf("local.max_entries: %d\n", cfg.Local.MaxEntries)
	fmt.Printf("redis.addr: %s\n", cfg.Redis.Addr)
	// 未覆盖的字段保持默认
	fmt.Printf("state.sweep_batch: %d\n", cfg.State.SweepBatch)

	// Output:
	// local.max_entries: 4096
	// redis.addr: redis.internal:6379
	// state.sweep_batch: 256
}

// ExampleLoadBytes 演示从字节数据加载配置（适用于 K8s ConfigMap）。
func ExampleLoadBytes() {
	configData := []byte(`
local:
  default_ttl: 10m
log:
  level: debug
`)

	cfg, err := xstateconf.LoadBytes(configData, xstateconf.FormatYAML)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		return
	}

	fmt.Printf("local.default_ttl: %s\n", cfg.Local.DefaultTTL)
	fmt.Printf("log.level: %s\n", cfg.Log.Level)
	fmt.Printf("redis.addr: %s\n", cfg.Redis.Addr)

	// Output:
	// local.default_ttl: 10m0s
	// log.level: debug
	// redis.addr: localhost:6379
}

// ExampleConfig_Validate 演示配置校验。
func ExampleConfig_Validate() {
	cfg := xstateconf.Default()
	cfg.Local.MaxEntries = -1

	err := cfg.Validate()
	fmt.Println("invalid:", errors.Is(err, xstateconf.ErrInvalidConfig))

	// Output:
	// invalid: true
}

// Example_wiring 演示把加载的配置接到状态管理器上。
func Example_wiring() {
	cfg, err := xstateconf.LoadBytes(nil, xstateconf.FormatYAML) // 纯默认值
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		return
	}

	// 生产环境用 xremote.NewRedis 包装 go-redis 客户端，
	// 客户端的 Addr/Password/DB 取自 cfg.Redis；示例用内存实现代替。
	store := xremote.NewMemory()

	mgr, err := xstate.New(store,
		xstate.WithMaxEntries(cfg.Local.MaxEntries),
		xstate.WithDefaultTTL(cfg.Local.DefaultTTL),
		xstate.WithSweepInterval(cfg.State.SweepInterval),
		xstate.WithSweepBatch(cfg.State.SweepBatch),
		xstate.WithComputeTimeout(cfg.State.ComputeTimeout),
		xstate.WithAsyncRemoteWrite(cfg.State.AsyncRemoteWrite),
	)
	if err != nil {
		fmt.Printf("failed to build manager: %v\n", err)
		return
	}
	defer func() { _ = mgr.Close() }() //nolint:errcheck // 示例中忽略关闭错误

	fmt.Println("manager ready")

	// Output:
	// manager ready
}
