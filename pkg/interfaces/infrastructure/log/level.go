package log

import "github.com/expansion/v1/pkg/types"

// LogLevel 日志级别（定义位于 pkg/types）
type LogLevel = types.LogLevel

const (
	DebugLevel = types.DebugLevel
	InfoLevel  = types.InfoLevel
	WarnLevel  = types.WarnLevel
	ErrorLevel = types.ErrorLevel
	FatalLevel = types.FatalLevel
)
