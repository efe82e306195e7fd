// Package log 定义客户端各模块共用的日志接口
//
// 实现位于 internal/core/infrastructure/log（zap + lumberjack）。
// 业务代码只依赖本接口，测试中可注入 NewNop 返回的空实现。
package log

import "go.uber.org/zap"

// Logger 结构化日志记录器
//
// 推荐写法是先 With 附加键值对再输出消息:
//
//	logger.With("digest", d, "gas", g).Info("transaction executed")
//
// 库代码不提供 Fatal 级别，进程退出由命令行入口决定。
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	// 格式化变体，只用于无结构字段的一次性消息
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	// With 返回附加了键值对的子记录器
	With(args ...interface{}) Logger

	// Sync 刷新缓冲区
	Sync() error

	// GetZapLogger 底层 zap 记录器
	GetZapLogger() *zap.Logger
}
