package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
)

// ErrRetryable 标记可重试的错误（如 HTTP 5xx、429）
var ErrRetryable = errors.New("retryable")

// Retryable 将错误标记为可重试
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}

// ExponentialBackoffStrategy 指数退避重试
type ExponentialBackoffStrategy struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	logger       logInterface.Logger
}

// NewExponentialBackoffStrategy 创建指数退避策略
func NewExponentialBackoffStrategy(maxRetries int, initialDelay, maxDelay time.Duration, logger logInterface.Logger) *ExponentialBackoffStrategy {
	if maxDelay < initialDelay {
		maxDelay = initialDelay
	}
	return &ExponentialBackoffStrategy{
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		logger:       logger,
	}
}

// Execute 执行操作，可恢复错误按指数退避重试
func (s *ExponentialBackoffStrategy) Execute(ctx context.Context, operation Operation) error {
	var lastErr error
	delay := s.initialDelay

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 0 && s.logger != nil {
				s.logger.With("attempt", attempt+1).Info("operation succeeded after retry")
			}
			return nil
		}

		lastErr = err

		if !IsRecoverable(err) {
			return err
		}
		if attempt >= s.maxRetries {
			break
		}

		if s.logger != nil {
			s.logger.With(
				"attempt", attempt+1,
				"max_attempts", s.maxRetries+1,
				"retry_in", delay.String(),
				"error", err.Error(),
			).Warn("operation failed, retrying")
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-timer.C:
			delay *= 2
			if delay > s.maxDelay {
				delay = s.maxDelay
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", s.maxRetries+1, lastErr)
}

// Name 策略名称
func (s *ExponentialBackoffStrategy) Name() string {
	return "ExponentialBackoff"
}

// recoverablePatterns 无法用类型判断时按错误文本匹配的网络错误
var recoverablePatterns = []string{
	"connection reset by peer",
	"connection refused",
	"temporary failure",
	"network is unreachable",
	"broken pipe",
	"i/o timeout",
	"tls handshake timeout",
	"no such host",
	"connection timed out",
}

// IsRecoverable 判断错误是否值得重试
//
// 上下文取消与超时不重试。
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRetryable) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range recoverablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
