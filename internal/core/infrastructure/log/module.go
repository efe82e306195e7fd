package log

import (
	"context"
	"fmt"

	logconfig "github.com/expansion/v1/internal/config/log"
	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ModuleParams 定义日志模块的依赖参数
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Options   *logconfig.LogOptions `optional:"true"` // 未提供时使用默认配置
}

// ModuleOutput 定义日志模块的输出结构
type ModuleOutput struct {
	fx.Out

	Logger    logInterface.Logger // 日志记录器接口
	ZapLogger *zap.Logger         // zap.Logger 具体类型（供需要 zap 特性的模块使用）
}

// Module 返回日志模块
func Module() fx.Option {
	return fx.Module("log",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 根据配置初始化日志记录器并设置为全局记录器
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	var cfg *logconfig.Config
	if params.Options != nil {
		cfg = logconfig.New(params.Options)
	} else {
		cfg = logconfig.New(nil)
	}

	logger, err := New(cfg)
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("根据用户配置创建日志记录器失败: %w", err)
	}

	// 替换掉 init() 时用默认配置创建的日志器
	SetLogger(logger)

	if params.Lifecycle != nil {
		params.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				// stderr 上的 Sync 在部分平台返回 EINVAL，忽略
				_ = logger.Sync()
				return nil
			},
		})
	}

	return ModuleOutput{
		Logger:    logger,
		ZapLogger: logger.GetZapLogger(),
	}, nil
}

// NewModuleLogger 创建带 module 字段的 logger
//
// baseLogger 为 nil 时返回空实现，调用方无需判空。
func NewModuleLogger(baseLogger logInterface.Logger, module string) logInterface.Logger {
	if baseLogger == nil {
		return NewNop()
	}
	return baseLogger.With("module", module)
}
