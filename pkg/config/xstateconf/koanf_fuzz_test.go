package xstateconf

import (
	"strings"
	"testing"
)

func FuzzLoadBytes(f *testing.F) {
	f.Add([]byte("local:\n  max_entries: 500\n"), "yaml")
	f.Add([]byte(`{"redis":{"addr":"10.0.0.1:6379"}}`), "json")
	f.Add([]byte("state:\n  sweep_interval: 250ms\n"), "yaml")
	f.Add([]byte("log:\n  level: 调试\n"), "yaml")
	f.Add([]byte("\x00\xff"), "yaml")

	f.Fuzz(func(t *testing.T, data []byte, format string) {
		switch strings.ToLower(format) {
		case "yaml", "yml":
			format = string(FormatYAML)
		case "json":
			format = string(FormatJSON)
		default:
			return
		}

		cfg, err := LoadBytes(data, Format(format))
		if err != nil {
			return
		}

		// 返回成功则配置必然完整且合法
		if cfg == nil {
			t.Fatal("nil config without error")
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("loaded config fails its own validation: %v", err)
		}
	})
}
