// Package abi 读取并缓存模块函数的规范化签名，在构建交易前核对调用参数
package abi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/expansion/v1/pkg/types"
)

// TypeKind Move 类型种类
type TypeKind string

const (
	KindBool             TypeKind = "Bool"
	KindU8               TypeKind = "U8"
	KindU16              TypeKind = "U16"
	KindU32              TypeKind = "U32"
	KindU64              TypeKind = "U64"
	KindU128             TypeKind = "U128"
	KindU256             TypeKind = "U256"
	KindAddress          TypeKind = "Address"
	KindSigner           TypeKind = "Signer"
	KindVector           TypeKind = "Vector"
	KindStruct           TypeKind = "Struct"
	KindReference        TypeKind = "Reference"
	KindMutableReference TypeKind = "MutableReference"
	KindTypeParameter    TypeKind = "TypeParameter"
)

// StructTag 结构体类型标识
type StructTag struct {
	Address       string     `json:"address"`
	Module        string     `json:"module"`
	Name          string     `json:"name"`
	TypeArguments []MoveType `json:"typeArguments"`
}

// Is 是否为 address::module::name（地址按对象ID规范比较）
func (s *StructTag) Is(address, module, name string) bool {
	if s == nil || s.Module != module || s.Name != name {
		return false
	}
	a, err := types.ParseObjectID(s.Address)
	if err != nil {
		return false
	}
	b, err := types.ParseObjectID(address)
	if err != nil {
		return false
	}
	return a == b
}

// String 可读表示
func (s *StructTag) String() string {
	if s == nil {
		return "<nil>"
	}
	base := fmt.Sprintf("%s::%s::%s", s.Address, s.Module, s.Name)
	if len(s.TypeArguments) == 0 {
		return base
	}
	args := make([]string, len(s.TypeArguments))
	for i := range s.TypeArguments {
		args[i] = s.TypeArguments[i].String()
	}
	return base + "<" + strings.Join(args, ", ") + ">"
}

// MoveType 规范化 Move 类型
//
// 账本 JSON 形式：
//
//	"U64"
//	{"Vector": T}
//	{"Struct": {"address":..,"module":..,"name":..,"typeArguments":[..]}}
//	{"Reference": T} / {"MutableReference": T}
//	{"TypeParameter": 0}
type MoveType struct {
	Kind      TypeKind
	Elem      *MoveType  // Vector / Reference / MutableReference
	Struct    *StructTag // Struct
	TypeParam int        // TypeParameter
}

// UnmarshalJSON 解析规范化类型
func (t *MoveType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = MoveType{Kind: TypeKind(s)}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse move type: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("parse move type: expected one key, got %d", len(raw))
	}

	for k, v := range raw {
		kind := TypeKind(k)
		switch kind {
		case KindVector, KindReference, KindMutableReference:
			var elem MoveType
			if err := json.Unmarshal(v, &elem); err != nil {
				return err
			}
			*t = MoveType{Kind: kind, Elem: &elem}
		case KindStruct:
			var tag StructTag
			if err := json.Unmarshal(v, &tag); err != nil {
				return fmt.Errorf("parse struct type: %w", err)
			}
			*t = MoveType{Kind: kind, Struct: &tag}
		case KindTypeParameter:
			var idx int
			if err := json.Unmarshal(v, &idx); err != nil {
				return fmt.Errorf("parse type parameter: %w", err)
			}
			*t = MoveType{Kind: kind, TypeParam: idx}
		default:
			return fmt.Errorf("parse move type: unknown kind %q", k)
		}
	}
	return nil
}

// MarshalJSON 输出账本形式
func (t MoveType) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case KindVector, KindReference, KindMutableReference:
		return json.Marshal(map[string]*MoveType{string(t.Kind): t.Elem})
	case KindStruct:
		return json.Marshal(map[string]*StructTag{string(t.Kind): t.Struct})
	case KindTypeParameter:
		return json.Marshal(map[string]int{string(t.Kind): t.TypeParam})
	default:
		return json.Marshal(string(t.Kind))
	}
}

// String 可读表示
func (t MoveType) String() string {
	switch t.Kind {
	case KindVector:
		return "vector<" + t.Elem.String() + ">"
	case KindReference:
		return "&" + t.Elem.String()
	case KindMutableReference:
		return "&mut " + t.Elem.String()
	case KindStruct:
		return t.Struct.String()
	case KindTypeParameter:
		return fmt.Sprintf("T%d", t.TypeParam)
	default:
		return strings.ToLower(string(t.Kind))
	}
}

// isTxContext 是否为 &TxContext / &mut TxContext
func (t MoveType) isTxContext() bool {
	if t.Kind != KindReference && t.Kind != KindMutableReference {
		return false
	}
	return t.Elem != nil && t.Elem.Kind == KindStruct && t.Elem.Struct.Is("0x2", "tx_context", "TxContext")
}

// Signature 函数签名
type Signature struct {
	Visibility     string            `json:"visibility"`
	IsEntry        bool              `json:"isEntry"`
	TypeParameters []json.RawMessage `json:"typeParameters"`
	Parameters     []MoveType        `json:"parameters"`
	Return         []MoveType        `json:"return"`
}

// CallParameters 调用方需要提供的参数（去掉末尾的 TxContext）
func (s *Signature) CallParameters() []MoveType {
	params := s.Parameters
	if n := len(params); n > 0 && params[n-1].isTxContext() {
		params = params[:n-1]
	}
	return params
}
