package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedShape 输入不是由导出具名字段组成的结构体
	ErrUnsupportedShape = errors.New("unsupported parameter shape")

	// ErrFieldSerializationFailed 某个字段的值无法表示为调用参数
	ErrFieldSerializationFailed = errors.New("field serialization failed")
)

// FieldError 字段序列化失败
type FieldError struct {
	Field string // 字段名（嵌套元素形如 Stakes[2]）
	Err   error  // 具体原因
}

// Error 实现 error 接口
func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: field %s: %v", ErrFieldSerializationFailed, e.Field, e.Err)
}

// Unwrap 返回具体原因
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is 匹配 ErrFieldSerializationFailed
func (e *FieldError) Is(target error) bool {
	return target == ErrFieldSerializationFailed
}

// shapeError 形状错误
func shapeError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedShape, fmt.Sprintf(format, args...))
}
