package abi

import (
	"errors"
	"fmt"

	"github.com/expansion/v1/client/core/wire"
	"github.com/expansion/v1/pkg/types"
)

// ErrSignatureMismatch 参数与函数签名不符
var ErrSignatureMismatch = errors.New("arguments do not match function signature")

// MismatchError 参数不符的具体位置
type MismatchError struct {
	Target   string
	Index    int // -1 表示数量不符
	Expected string
	Actual   string
}

// Error 实现 error 接口
func (e *MismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s expects %s arguments, got %s", ErrSignatureMismatch, e.Target, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%v: %s argument %d expects %s, got %s", ErrSignatureMismatch, e.Target, e.Index, e.Expected, e.Actual)
}

// Is 匹配 ErrSignatureMismatch
func (e *MismatchError) Is(target error) bool {
	return target == ErrSignatureMismatch
}

// CheckArguments 核对参数数量与基本种类
func CheckArguments(target string, sig *Signature, args []wire.Value) error {
	params := sig.CallParameters()
	if len(params) != len(args) {
		return &MismatchError{
			Target:   target,
			Index:    -1,
			Expected: fmt.Sprint(len(params)),
			Actual:   fmt.Sprint(len(args)),
		}
	}
	for i := range params {
		if !accepts(params[i], args[i]) {
			return &MismatchError{
				Target:   target,
				Index:    i,
				Expected: params[i].String(),
				Actual:   wire.Kind(args[i]),
			}
		}
	}
	return nil
}

// accepts 参数值能否绑定到该类型
func accepts(t MoveType, v wire.Value) bool {
	switch t.Kind {
	case KindBool:
		_, ok := v.(wire.Bool)
		return ok
	case KindU8, KindU16, KindU32, KindU64:
		_, ok := v.(wire.Number)
		return ok
	case KindU128, KindU256:
		switch v.(type) {
		case wire.Number, wire.String:
			return true
		}
		return false
	case KindAddress:
		s, ok := v.(wire.String)
		return ok && isObjectID(string(s))
	case KindVector:
		switch val := v.(type) {
		case wire.Array:
			for _, e := range val {
				if !accepts(*t.Elem, e) {
					return false
				}
			}
			return true
		case wire.String:
			// vector<u8> 也接受字符串字面量
			return t.Elem.Kind == KindU8
		}
		return false
	case KindStruct:
		return acceptsStruct(t.Struct, v)
	case KindReference, KindMutableReference:
		// 对象引用以对象ID传递
		s, ok := v.(wire.String)
		return ok && isObjectID(string(s))
	case KindTypeParameter:
		return true
	default:
		return false
	}
}

func acceptsStruct(tag *StructTag, v wire.Value) bool {
	switch {
	case tag.Is("0x1", "string", "String"), tag.Is("0x1", "ascii", "String"):
		_, ok := v.(wire.String)
		return ok
	case tag.Is("0x1", "option", "Option"):
		arr, ok := v.(wire.Array)
		if !ok || len(arr) > 1 {
			return false
		}
		if len(arr) == 0 || len(tag.TypeArguments) == 0 {
			return true
		}
		return accepts(tag.TypeArguments[0], arr[0])
	default:
		// 按值传递的对象与 object::ID
		s, ok := v.(wire.String)
		return ok && isObjectID(string(s))
	}
}

func isObjectID(s string) bool {
	_, err := types.ParseObjectID(s)
	return err == nil
}
