package xslog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ReplaceAttrFunc 属性替换函数类型。
//
// 用于日志治理场景：字段重命名、敏感信息脱敏、字段过滤等。
// 返回修改后的属性，返回空 Key 的 Attr 会移除该属性。
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// Builder 日志配置构建器。
// 链式调用配置，Build 时统一返回首个配置错误。
type Builder struct {
	output      io.Writer
	levelVar    *slog.LevelVar
	format      string
	addSource   bool
	replaceAttr ReplaceAttrFunc
	rotator     *lumberjack.Logger
	err         error
}

// New 创建配置构建器。
// 默认输出到标准错误、info 级别、text 格式。
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)

	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   "text",
	}
}

// SetOutput 设置日志输出目标。
// 与 SetRotation 互斥，后调用者生效。
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w == nil {
		b.err = ErrNilOutput
		return b
	}
	b.output = w
	return b
}

// SetLevel 设置日志级别。
func (b *Builder) SetLevel(level slog.Level) *Builder {
	b.levelVar.Set(level)
	return b
}

// SetLevelString 通过字符串设置日志级别。
// 支持 debug/info/warn/warning/error，大小写不敏感。
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		b.err = err
		return b
	}
	return b.SetLevel(level)
}

// SetLevelVar 使用调用方持有的级别变量。
// 构建后的 logger 共享此变量，调用方可在运行期动态调整级别。
func (b *Builder) SetLevelVar(v *slog.LevelVar) *Builder {
	if v == nil {
		b.err = ErrNilLevelVar
		return b
	}
	b.levelVar = v
	return b
}

// SetFormat 设置输出格式：text 或 json。
func (b *Builder) SetFormat(format string) *Builder {
	normalized := strings.ToLower(strings.TrimSpace(format))
	if normalized == "" {
		// 空值视为使用默认格式，避免误把“没填”变成配置错误。
		b.format = "text"
		return b
	}
	if normalized != "text" && normalized != "json" {
		b.err = fmt.Errorf("xslog: unknown format %q", format)
		return b
	}
	b.format = normalized
	return b
}

// SetAddSource 是否在日志中添加源码位置。
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetReplaceAttr 设置属性替换函数（日志治理）。
//
// 用于在日志输出前对属性进行处理：
//   - 敏感信息脱敏：隐藏密码、token 等
//   - 字段重命名：统一字段名规范
//   - 字段过滤：返回空 Key 移除属性
//
// 示例 - 脱敏密码：
//
//	logger, _, _ := xslog.New().
//		SetReplaceAttr(func(groups []string, a slog.Attr) slog.Attr {
//			if a.Key == "password" {
//				return slog.String("password", "***")
//			}
//			return a
//		}).
//		Build()
func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

// SetRotation 设置文件输出并启用按大小轮转。
// 默认策略：单文件 500 MB、保留 7 份备份、30 天、gzip 压缩。
// 与 SetOutput 互斥，后调用者生效。
func (b *Builder) SetRotation(filename string, opts ...RotationOption) *Builder {
	rotator, err := newRotator(filename, opts...)
	if err != nil {
		b.err = err
		return b
	}
	b.rotator = rotator
	b.output = rotator
	return b
}

// Build 构建 Logger 实例。
//
// 返回值：
//   - *slog.Logger: 日志实例
//   - func() error: 清理函数，释放轮转文件句柄，可重复调用
//   - error: 配置错误
func (b *Builder) Build() (*slog.Logger, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}
	if b.replaceAttr != nil {
		opts.ReplaceAttr = b.replaceAttr
	}

	var handler slog.Handler
	switch b.format {
	case "json":
		handler = slog.NewJSONHandler(b.output, opts)
	default:
		handler = slog.NewTextHandler(b.output, opts)
	}

	return slog.New(handler), b.createCleanup(), nil
}

// createCleanup 创建清理函数。
func (b *Builder) createCleanup() func() error {
	var once sync.Once
	rotator := b.rotator

	return func() error {
		var err error
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}
}
