package contract

import (
	"errors"
	"fmt"
)

// 流水线错误类别，均为终止性错误，用 errors.Is 判断
var (
	ErrBuildFailed       = errors.New("build failed")
	ErrNoSignerAddress   = errors.New("no signer address")
	ErrSigningFailed     = errors.New("signing failed")
	ErrSubmissionFailed  = errors.New("submission failed")
	ErrNoEffectsReturned = errors.New("no effects returned")
	ErrPublishIncomplete = errors.New("publish incomplete")
	ErrPublishAmbiguous  = errors.New("publish ambiguous")
	ErrFetch             = errors.New("fetch failed")
)

// PipelineError 流水线中止错误
type PipelineError struct {
	RunID string
	Stage Stage // 出错时所处阶段
	Kind  error // 错误类别（上面的哨兵之一）
	Err   error // 具体原因
}

// Error 实现 error 接口
func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v at %s", e.Kind, e.Stage)
	}
	return fmt.Sprintf("%v at %s: %v", e.Kind, e.Stage, e.Err)
}

// Unwrap 同时暴露类别与原因
func (e *PipelineError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ExecutionError 账本已执行但状态为失败
type ExecutionError struct {
	Digest string
	Reason string
}

// Error 实现 error 接口
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("transaction %s failed on ledger: %s", e.Digest, e.Reason)
}

// KindOf 返回错误类别，非流水线错误返回 nil
func KindOf(err error) error {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return nil
}
