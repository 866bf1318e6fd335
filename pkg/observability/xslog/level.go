package xslog

import (
	"fmt"
	"log/slog"
	"strings"
)

// ParseLevel 解析字符串为日志级别。
// 支持 debug/info/warn/warning/error（大小写不敏感），输入自动 TrimSpace。
// 解析失败时返回 slog.LevelInfo 和错误。
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("xslog: unknown level %q", s)
	}
}
