package log

import (
	"go.uber.org/zap/zapcore"
)

// 日志配置默认值
const (
	// defaultLogLevel 默认日志级别
	defaultLogLevel = "info"

	// defaultToConsole 默认输出到 stderr
	// stdout 留给命令结果，日志不与结果混排
	defaultToConsole = true

	// defaultConsoleFormat 控制台默认可读格式
	defaultConsoleFormat = "console"

	// defaultMaxSize 单个日志文件最大大小(MB)
	defaultMaxSize = 50

	// defaultMaxBackups 最大备份文件数
	defaultMaxBackups = 5

	// defaultMaxAge 日志文件最大保留天数
	defaultMaxAge = 14

	// defaultCompress 默认压缩历史日志
	defaultCompress = true

	// defaultEnableCaller 默认启用调用者信息
	defaultEnableCaller = true

	// defaultEnableStacktrace 默认对Error级别启用堆栈跟踪
	defaultEnableStacktrace = false

	// defaultEnableMultiFile 默认单文件
	defaultEnableMultiFile = false

	// defaultSystemLogFile 基础设施日志（transport / wallet / bundle / config）
	defaultSystemLogFile = "client-system.log"

	// defaultBusinessLogFile 业务日志（contract / effects / expansion / cli）
	defaultBusinessLogFile = "client-business.log"
)

// 默认的日志级别映射
var defaultLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zapcore.PanicLevel,
	"fatal": zapcore.FatalLevel,
}
