package retry

import "context"

// NoRetryStrategy 只执行一次
type NoRetryStrategy struct{}

// NewNoRetryStrategy 创建 NoRetryStrategy
func NewNoRetryStrategy() *NoRetryStrategy {
	return &NoRetryStrategy{}
}

// Execute 执行一次，不重试
func (s *NoRetryStrategy) Execute(ctx context.Context, operation Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return operation()
}

// Name 策略名称
func (s *NoRetryStrategy) Name() string {
	return "NoRetry"
}
