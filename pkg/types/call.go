package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDescriptor 调用描述符无效
var ErrInvalidDescriptor = errors.New("invalid call descriptor")

// CallDescriptor 目标模块函数调用描述
//
// Package 保留调用方提供的原始字面量，在构建阶段解析。
type CallDescriptor struct {
	Package       string   `json:"package"`
	Module        string   `json:"module"`
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments,omitempty"`
	GasBudget     uint64   `json:"gas_budget,omitempty"` // 0 表示使用服务默认值
}

// Target 返回 package::module::function 形式
func (d CallDescriptor) Target() string {
	return fmt.Sprintf("%s::%s::%s", d.Package, d.Module, d.Function)
}

// Validate 校验描述符并返回解析后的包ID
func (d CallDescriptor) Validate() (ObjectID, error) {
	pkg, err := ParseObjectID(d.Package)
	if err != nil {
		return ObjectID{}, fmt.Errorf("%w: package: %v", ErrInvalidDescriptor, err)
	}
	if !isIdentifier(d.Module) {
		return ObjectID{}, fmt.Errorf("%w: module %q", ErrInvalidDescriptor, d.Module)
	}
	if !isIdentifier(d.Function) {
		return ObjectID{}, fmt.Errorf("%w: function %q", ErrInvalidDescriptor, d.Function)
	}
	for _, ta := range d.TypeArguments {
		if strings.TrimSpace(ta) == "" {
			return ObjectID{}, fmt.Errorf("%w: empty type argument", ErrInvalidDescriptor)
		}
	}
	return pkg, nil
}

// isIdentifier Move 标识符：字母或下划线开头，后接字母数字下划线
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
