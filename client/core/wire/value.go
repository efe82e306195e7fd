// Package wire 把本地参数结构体转换为有序的调用参数序列
//
// 每个导出字段按声明顺序产生一个 Value，输出长度等于字段数。
// 无法表示的字段值使整个转换失败，不返回部分结果。
package wire

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Value 调用参数的中间表示（封闭接口）
//
// 只有 Number、String、Bool、Array 实现该接口；没有浮点，也没有对象。
type Value interface {
	wireValue()
	json.Marshaler
}

// Number 非负整数，十进制文本（Move u8 ~ u64）
type Number string

func (Number) wireValue() {}

// NewNumber 由 uint64 构造
func NewNumber(n uint64) Number {
	return Number(strconv.FormatUint(n, 10))
}

// Uint64 解析为 uint64（超出范围时返回错误）
func (n Number) Uint64() (uint64, error) {
	return strconv.ParseUint(string(n), 10, 64)
}

// MarshalJSON 输出 JSON 数字
func (n Number) MarshalJSON() ([]byte, error) {
	if !isDecimal(string(n)) {
		return nil, fmt.Errorf("wire: invalid number %q", string(n))
	}
	return []byte(n), nil
}

// String 字符串参数（也用于对象ID、地址与 u128/u256）
type String string

func (String) wireValue() {}

// MarshalJSON 输出 JSON 字符串
func (s String) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// Bool 布尔参数
type Bool bool

func (Bool) wireValue() {}

// MarshalJSON 输出 JSON 布尔
func (b Bool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

// Array 向量参数（vector<T>，也用于 Option<T>）
type Array []Value

func (Array) wireValue() {}

// MarshalJSON 输出 JSON 数组，nil 输出 []
func (a Array) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Value(a))
}

// Kind 值的种类名称
func Kind(v Value) string {
	switch v.(type) {
	case Number:
		return "number"
	case String:
		return "string"
	case Bool:
		return "bool"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
