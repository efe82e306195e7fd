// Package log 提供了一个通用的日志接口和基于zap的实现
// 它支持不同级别的日志记录、结构化日志、日志旋转等功能
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	logconfig "github.com/expansion/v1/internal/config/log"
	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 日志级别定义
const (
	DebugLevel = string(logInterface.DebugLevel)
	InfoLevel  = string(logInterface.InfoLevel)
	WarnLevel  = string(logInterface.WarnLevel)
	ErrorLevel = string(logInterface.ErrorLevel)
	FatalLevel = string(logInterface.FatalLevel)
)

var (
	// 全局日志实例，使用接口类型
	globalLogger logInterface.Logger
	// 用于保护全局日志实例的互斥锁
	mu sync.RWMutex

	// consoleWriter 控制台输出目标，测试中可替换
	consoleWriter io.Writer = os.Stderr
)

// Logger 是日志记录器的结构体，实现了log.Logger接口
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

// 初始化全局日志记录器
func init() {
	ResetDefault()
}

// ResetDefault 重置全局日志记录器为默认配置
func ResetDefault() {
	logger, err := New(logconfig.New(nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize default logger: %v\n", err)
		return
	}
	SetLogger(logger)
}

// moduleRoutingCore 基于 module 字段的路由 Core
// 根据日志中的 module 字段决定写入 system 还是 business 文件
type moduleRoutingCore struct {
	systemCore   zapcore.Core
	businessCore zapcore.Core
	fallbackCore zapcore.Core // 没有 module 字段时的默认 core
	module       string       // With 阶段绑定的 module
}

// Enabled 实现 zapcore.Core 接口
func (c *moduleRoutingCore) Enabled(level zapcore.Level) bool {
	return c.systemCore.Enabled(level) || c.businessCore.Enabled(level) || c.fallbackCore.Enabled(level)
}

// With 实现 zapcore.Core 接口
func (c *moduleRoutingCore) With(fields []zapcore.Field) zapcore.Core {
	module := c.module
	if m := moduleOf(fields); m != "" {
		module = m
	}
	return &moduleRoutingCore{
		systemCore:   c.systemCore.With(fields),
		businessCore: c.businessCore.With(fields),
		fallbackCore: c.fallbackCore.With(fields),
		module:       module,
	}
}

// Check 实现 zapcore.Core 接口
// Check 阶段拿不到字段，实际路由在 Write 中进行
func (c *moduleRoutingCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.systemCore.Enabled(entry.Level) || c.businessCore.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

// Write 实现 zapcore.Core 接口
func (c *moduleRoutingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	module := moduleOf(fields)
	if module == "" {
		module = c.module
	}

	switch {
	case isSystemModule(module):
		return c.systemCore.Write(entry, fields)
	case isBusinessModule(module):
		return c.businessCore.Write(entry, fields)
	default:
		// 没有 module 字段或未知 module，写入两个文件
		return c.fallbackCore.Write(entry, fields)
	}
}

// Sync 实现 zapcore.Core 接口
func (c *moduleRoutingCore) Sync() error {
	var errs []error
	if err := c.systemCore.Sync(); err != nil {
		errs = append(errs, err)
	}
	if err := c.businessCore.Sync(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("同步日志文件失败: %v", errs)
	}
	return nil
}

// moduleOf 提取字段中的 module 值
func moduleOf(fields []zapcore.Field) string {
	for _, field := range fields {
		if field.Key != "module" {
			continue
		}
		switch field.Type {
		case zapcore.StringType:
			return field.String
		case zapcore.StringerType:
			if s, ok := field.Interface.(fmt.Stringer); ok && s != nil {
				return s.String()
			}
		default:
			if str, ok := field.Interface.(string); ok {
				return str
			}
		}
	}
	return ""
}

// isSystemModule 基础设施模块：传输、钱包、构建、配置
func isSystemModule(module string) bool {
	switch module {
	case "transport", "retry", "wallet", "bundle", "config", "abi", "infra", "system":
		return true
	}
	return false
}

// isBusinessModule 业务模块：合约管道、效果解释、应用操作、命令行
func isBusinessModule(module string) bool {
	switch module {
	case "contract", "effects", "expansion", "cli", "app", "business":
		return true
	}
	return false
}

// createFileWriter 创建日志文件写入器
func createFileWriter(logPath string, config *logconfig.Config) zapcore.WriteSyncer {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "创建日志目录失败 %s: %v\n", logDir, err)
		return zapcore.AddSync(os.Stderr)
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    config.GetMaxSize(),
		MaxBackups: config.GetMaxBackups(),
		MaxAge:     config.GetMaxAge(),
		Compress:   config.IsCompressionEnabled(),
	})
}

// New 根据配置创建新的日志记录器
//
// 控制台输出固定写 stderr；文件输出按配置选择单文件或 system/business 双文件。
func New(config *logconfig.Config) (logInterface.Logger, error) {
	level := zap.NewAtomicLevelAt(config.GetZapLevel())

	var cores []zapcore.Core

	if config.IsConsoleEnabled() {
		cores = append(cores, zapcore.NewCore(config.CreateConsoleEncoder(), zapcore.AddSync(consoleWriter), level))
	}

	if outputPath := config.GetFilePath(); outputPath != "" {
		absPath, err := filepath.Abs(outputPath)
		if err != nil {
			return nil, fmt.Errorf("获取日志文件绝对路径失败: %w", err)
		}
		fileEncoder := config.CreateFileEncoder()

		if config.IsMultiFileEnabled() {
			logDir := filepath.Dir(absPath)
			systemCore := zapcore.NewCore(fileEncoder, createFileWriter(filepath.Join(logDir, config.GetSystemLogFile()), config), level)
			businessCore := zapcore.NewCore(fileEncoder, createFileWriter(filepath.Join(logDir, config.GetBusinessLogFile()), config), level)

			cores = append(cores, &moduleRoutingCore{
				systemCore:   systemCore,
				businessCore: businessCore,
				fallbackCore: zapcore.NewTee(systemCore, businessCore),
			})
		} else {
			cores = append(cores, zapcore.NewCore(fileEncoder, createFileWriter(absPath, config), level))
		}
	}

	core := zapcore.NewTee(cores...)

	var zapOptions []zap.Option
	if config.IsCallerEnabled() {
		zapOptions = append(zapOptions, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if config.IsStacktraceEnabled() {
		zapOptions = append(zapOptions, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zapLogger := zap.New(core, zapOptions...)
	return &Logger{
		zapLogger: zapLogger,
		sugar:     zapLogger.Sugar(),
	}, nil
}

// NewFromZap 包装已有的 zap.Logger（测试中配合 zaptest/observer 使用）
func NewFromZap(zapLogger *zap.Logger) logInterface.Logger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &Logger{zapLogger: zapLogger, sugar: zapLogger.Sugar()}
}

// NewNop 返回不输出任何内容的日志记录器
func NewNop() logInterface.Logger {
	return NewFromZap(zap.NewNop())
}

// GetZapLogger 获取底层的zap日志记录器
func (l *Logger) GetZapLogger() *zap.Logger {
	return l.zapLogger
}

// SetLogger 设置全局日志记录器
func SetLogger(logger logInterface.Logger) {
	if logger == nil {
		return
	}
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
}

// GetLogger 获取全局日志记录器
func GetLogger() logInterface.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// toZapFields 将键值对参数转换为zap字段
// 参数必须是偶数个：key1, value1, key2, value2, ...
func toZapFields(args ...interface{}) []zap.Field {
	if len(args)%2 != 0 {
		args = args[:len(args)-1]
	}

	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

// Debug 记录调试级别的日志
func (l *Logger) Debug(msg string) {
	l.sugar.Debug(msg)
}

// Debugf 使用格式化字符串记录调试级别的日志
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info 记录信息级别的日志
func (l *Logger) Info(msg string) {
	l.sugar.Info(msg)
}

// Infof 使用格式化字符串记录信息级别的日志
func (l *Logger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn 记录警告级别的日志
func (l *Logger) Warn(msg string) {
	l.sugar.Warn(msg)
}

// Warnf 使用格式化字符串记录警告级别的日志
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error 记录错误级别的日志
func (l *Logger) Error(msg string) {
	l.sugar.Error(msg)
}

// Errorf 使用格式化字符串记录错误级别的日志
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// With 返回一个带有额外字段的Logger
func (l *Logger) With(args ...interface{}) logInterface.Logger {
	zl := l.zapLogger.With(toZapFields(args...)...)
	return &Logger{
		zapLogger: zl,
		sugar:     zl.Sugar(),
	}
}

// Sync 同步日志缓冲区到输出
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}
