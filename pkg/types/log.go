package types

import (
	"fmt"
	"strings"
)

// LogLevel 日志级别类型
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
)

// ParseLogLevel 解析日志级别字符串（大小写不敏感）
func ParseLogLevel(s string) (LogLevel, error) {
	switch LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case DebugLevel:
		return DebugLevel, nil
	case InfoLevel, "":
		return InfoLevel, nil
	case WarnLevel, "warning":
		return WarnLevel, nil
	case ErrorLevel:
		return ErrorLevel, nil
	case FatalLevel:
		return FatalLevel, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// UserLogConfig 用户日志配置
// 只包含配置文件中实际出现的字段
type UserLogConfig struct {
	Level         *string `json:"level,omitempty" yaml:"level,omitempty"`                   // 日志级别：debug, info, warn, error, fatal
	FilePath      *string `json:"file_path,omitempty" yaml:"file_path,omitempty"`           // 日志文件路径
	ToConsole     *bool   `json:"to_console,omitempty" yaml:"to_console,omitempty"`         // 是否输出到控制台（stderr）
	ConsoleFormat *string `json:"console_format,omitempty" yaml:"console_format,omitempty"` // console | json
}
