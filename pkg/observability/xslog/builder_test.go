package xslog_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/omeyang/statekit/pkg/observability/xslog"
)

// testCleanup 测试辅助函数，在测试结束时执行 cleanup
func testCleanup(t *testing.T, cleanup func() error) {
	t.Helper()
	t.Cleanup(func() {
		if err := cleanup(); err != nil {
			t.Errorf("cleanup error: %v", err)
		}
	})
}

// =============================================================================
// 基本构建测试
// =============================================================================

func TestBuilder_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xslog.New().
		SetOutput(&buf).
		SetLevel(slog.LevelDebug).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	testCleanup(t, cleanup)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	for _, want := range []string{
		"debug message",
		"info message",
		"warn message",
		"error message",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\noutput: %s", want, output)
		}
	}
}

func TestBuilder_DefaultLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xslog.New().
		SetOutput(&buf).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	testCleanup(t, cleanup)

	logger.Debug("should be filtered")
	logger.Info("should appear")

	output := buf.String()
	if strings.Contains(output, "should be filtered") {
		t.Errorf("debug message leaked at default level\noutput: %s", output)
	}
	if !strings.Contains(output, "should appear") {
		t.Errorf("info message missing at default level\noutput: %s", output)
	}
}

func TestBuilder_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xslog.New().
		SetOutput(&buf).
		SetFormat("json").
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	testCleanup(t, cleanup)

	logger.Info("structured", slog.String("component", "manager"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, buf.String())
	}
	if record["msg"] != "structured" {
		t.Errorf("msg = %v, want structured", record["msg"])
	}
	if record["component"] != "manager" {
		t.Errorf("component = %v, want manager", record["component"])
	}
	if record["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", record["level"])
	}
}

func TestBuilder_EmptyFormatUsesText(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xslog.New().
		SetOutput(&buf).
		SetFormat("").
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	testCleanup(t, cleanup)

	logger.Info("plain")
	if !strings.Contains(buf.String(), "level=INFO") {
		t.Errorf("empty format should fall back to text\noutput: %s", buf.String())
	}
}

// =============================================================================
// 配置错误测试
// =============================================================================

func TestBuilder_UnknownFormat(t *testing.T) {
	_, _, err := xslog.New().SetFormat("xml").Build()
	if err == nil {
		t.Fatal("Build() should fail on unknown format")
	}
	if !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("error = %v, want unknown format", err)
	}
}

func TestBuilder_InvalidLevelString(t *testing.T) {
	_, _, err := xslog.New().SetLevelString("verbose").Build()
	if err == nil {
		t.Fatal("Build() should fail on unknown level")
	}
	if !strings.Contains(err.Error(), "unknown level") {
		t.Errorf("error = %v, want unknown level", err)
	}
}

func TestBuilder_NilOutput(t *testing.T) {
	_, _, err := xslog.New().SetOutput(nil).Build()
	if !errors.Is(err, xslog.ErrNilOutput) {
		t.Errorf("error = %v, want ErrNilOutput", err)
	}
}

func TestBuilder_NilLevelVar(t *testing.T) {
	_, _, err := xslog.New().SetLevelVar(nil).Build()
	if !errors.Is(err, xslog.ErrNilLevelVar) {
		t.Errorf("error = %v, want ErrNilLevelVar", err)
	}
}

// =============================================================================
// 动态级别测试
// =============================================================================

func TestBuilder_SetLevelVar_DynamicAdjustment(t *testing.T) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)

	var buf bytes.Buffer
	logger, cleanup, err := xslog.New().
		SetOutput(&buf).
		SetLevelVar(levelVar).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	testCleanup(t, cleanup)

	logger.Info("suppressed at warn")
	if strings.Contains(buf.String(), "suppressed at warn") {
		t.Errorf("info should be filtered at warn level\noutput: %s", buf.String())
	}

	// 运行期调低级别，同一 logger 立即生效
	levelVar.Set(slog.LevelDebug)
	logger.Info("visible at debug")
	if !strings.Contains(buf.String(), "visible at debug") {
		t.Errorf("info should appear after level change\noutput: %s", buf.String())
	}
}

func TestBuilder_SetLevelString_CaseInsensitive(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xslog.New().
		SetOutput(&buf).
		SetLevelString("  WARNING  ").
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	testCleanup(t, cleanup)

	logger.Info("filtered")
	logger.Warn("passes")

	output := buf.String()
	if strings.Contains(output, "filtered") {
		t.Errorf("info should be filtered at warning level\noutput: %s", output)
	}
	if !strings.Contains(output, "passes") {
		t.Errorf("warn should pass at warning level\noutput: %s", output)
	}
}

// =============================================================================
// 源码位置与属性治理
// =============================================================================

func TestBuilder_AddSource(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xslog.New().
		SetOutput(&buf).
		SetAddSource(true).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	testCleanup(t, cleanup)

	logger.Info("locate me")
	if !strings.Contains(buf.String(), "builder_test.go") {
		t.Errorf("output missing source location\noutput: %s", buf.String())
	}
}

func TestBuilder_SetReplaceAttr_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xslog.New().
		SetOutput(&buf).
		SetReplaceAttr(func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "password" {
				return slog.String("password", "***")
			}
			return a
		}).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	testCleanup(t, cleanup)

	logger.Info("login", slog.String("password", "hunter2"))

	output := buf.String()
	if strings.Contains(output, "hunter2") {
		t.Errorf("password leaked\noutput: %s", output)
	}
	if !strings.Contains(output, "***") {
		t.Errorf("redacted marker missing\noutput: %s", output)
	}
}

// =============================================================================
// 轮转测试
// =============================================================================

func TestBuilder_SetRotation_WritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "statekit.log")

	logger, cleanup, err := xslog.New().
		SetRotation(logPath, xslog.WithMaxSize(1), xslog.WithCompress(false)).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	logger.Info("rotated output")

	if err := cleanup(); err != nil {
		t.Fatalf("cleanup error: %v", err)
	}
	// cleanup 可重复调用，第二次为 no-op
	if err := cleanup(); err != nil {
		t.Errorf("second cleanup error: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "rotated output") {
		t.Errorf("log file missing message\ncontent: %s", data)
	}
}

func TestBuilder_SetRotation_EmptyFilename(t *testing.T) {
	_, _, err := xslog.New().SetRotation("").Build()
	if !errors.Is(err, xslog.ErrEmptyFilename) {
		t.Errorf("error = %v, want ErrEmptyFilename", err)
	}
}

func TestBuilder_SetRotation_InvalidOptions(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "statekit.log")

	tests := []struct {
		name    string
		opts    []xslog.RotationOption
		wantErr error
	}{
		{"零大小", []xslog.RotationOption{xslog.WithMaxSize(0)}, xslog.ErrInvalidMaxSize},
		{"超大大小", []xslog.RotationOption{xslog.WithMaxSize(20000)}, xslog.ErrInvalidMaxSize},
		{"负备份数", []xslog.RotationOption{xslog.WithMaxBackups(-1)}, xslog.ErrInvalidMaxBackups},
		{"负天数", []xslog.RotationOption{xslog.WithMaxAge(-1)}, xslog.ErrInvalidMaxAge},
		{
			"无清理策略",
			[]xslog.RotationOption{xslog.WithMaxBackups(0), xslog.WithMaxAge(0)},
			xslog.ErrNoCleanupPolicy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := xslog.New().SetRotation(logPath, tt.opts...).Build()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuilder_CleanupWithoutRotator(t *testing.T) {
	var buf bytes.Buffer
	_, cleanup, err := xslog.New().SetOutput(&buf).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if err := cleanup(); err != nil {
		t.Errorf("cleanup without rotator should be nil, got %v", err)
	}
}
