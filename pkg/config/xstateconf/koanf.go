package xstateconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	// FormatYAML YAML 格式（推荐用于 K8s ConfigMap）。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// delim 配置键的分隔符。
const delim = "."

// Load 从文件加载配置。
// 根据文件扩展名自动检测格式（.yaml/.yml 或 .json），
// 文件未覆盖的字段保持 Default 中的默认值，加载后自动执行 Validate。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	return LoadBytes(data, format)
}

// LoadBytes 从字节数据加载配置。
// 需要显式指定格式，适用于 K8s ConfigMap 等场景。
//
// 空数据处理：
//   - 空数据（len(data) == 0）返回默认配置
//   - 与 Load 行为一致：Load 允许读取空文件
func LoadBytes(data []byte, format Format) (*Config, error) {
	if !isValidFormat(format) {
		return nil, ErrUnsupportedFormat
	}

	// 默认值打底，文件内容只覆盖显式给出的键
	cfg := Default()

	if len(data) > 0 {
		k := koanf.New(delim)
		if err := loadData(k, data, format); err != nil {
			return nil, err
		}
		if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
			Tag: "koanf",
		}); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// 内部辅助函数
// =============================================================================

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, ext)
	}
}

// isValidFormat 检查格式是否有效。
func isValidFormat(format Format) bool {
	switch format {
	case FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}

// loadData 加载数据到 koanf 实例。
func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return ErrUnsupportedFormat
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
