// Package retry 为只读与构建类调用提供重试策略
//
// 交易提交不经过本包：提交失败直接返回给调用方。
package retry

import (
	"context"

	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
)

// Strategy 重试策略
type Strategy interface {
	// Execute 按策略执行操作
	Execute(ctx context.Context, operation Operation) error

	// Name 策略名称（日志用）
	Name() string
}

// Operation 可重试的操作
type Operation func() error

// NewStrategy 根据配置创建策略
func NewStrategy(config Config, logger logInterface.Logger) Strategy {
	if !config.Enabled || config.MaxRetries <= 0 {
		return NewNoRetryStrategy()
	}

	if logger != nil {
		logger.With(
			"max_retries", config.MaxRetries,
			"initial_delay", config.InitialDelay.String(),
			"max_delay", config.MaxDelay.String(),
		).Debug("retry enabled, using exponential backoff")
	}

	return NewExponentialBackoffStrategy(config.MaxRetries, config.InitialDelay, config.MaxDelay, logger)
}
