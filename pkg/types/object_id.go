// Package types 定义账本客户端使用的核心领域类型
//
// 包括对象ID/地址、所有权模式、执行效果、调用描述符以及签名。
// 这些类型不依赖任何传输实现，可被 wire / builder / contract / transport 共享。
package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ObjectIDLength 对象ID与地址的字节长度
const ObjectIDLength = 32

var (
	// ErrInvalidObjectID 无效的对象ID（非 0x 前缀十六进制或超长）
	ErrInvalidObjectID = errors.New("invalid object id")

	// ErrInvalidAddress 无效的地址
	ErrInvalidAddress = errors.New("invalid address")
)

// ObjectID 链上实体标识符（32字节，十六进制字面量表示）
type ObjectID [ObjectIDLength]byte

// ParseObjectID 从十六进制字面量解析对象ID
//
// 规则：
//   - 必须以 0x 或 0X 开头
//   - 1~64 个十六进制字符，不足 64 个时左侧补零（0x2 == 0x00..02）
func ParseObjectID(literal string) (ObjectID, error) {
	var id ObjectID

	s := strings.TrimSpace(literal)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return id, fmt.Errorf("%w: %q missing 0x prefix", ErrInvalidObjectID, literal)
	}
	s = s[2:]

	if len(s) == 0 || len(s) > ObjectIDLength*2 {
		return id, fmt.Errorf("%w: %q has %d hex digits", ErrInvalidObjectID, literal, len(s))
	}

	// 左侧补零到 64 位
	if len(s) < ObjectIDLength*2 {
		s = strings.Repeat("0", ObjectIDLength*2-len(s)) + s
	}

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("%w: %q: %v", ErrInvalidObjectID, literal, err)
	}

	copy(id[:], decoded)
	return id, nil
}

// MustParseObjectID 解析对象ID，失败时panic（仅用于常量与测试）
func MustParseObjectID(literal string) ObjectID {
	id, err := ParseObjectID(literal)
	if err != nil {
		panic(err)
	}
	return id
}

// String 返回完整的 0x 前缀十六进制字面量
func (id ObjectID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// ShortString 返回去掉前导零的短格式（0x2）
func (id ObjectID) ShortString() string {
	trimmed := strings.TrimLeft(hex.EncodeToString(id[:]), "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return "0x" + trimmed
}

// IsZero 是否为全零ID
func (id ObjectID) IsZero() bool {
	return id == ObjectID{}
}

// MarshalText 实现 encoding.TextMarshaler
func (id ObjectID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (id *ObjectID) UnmarshalText(text []byte) error {
	parsed, err := ParseObjectID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Address 账户地址（与对象ID同格式）
type Address [ObjectIDLength]byte

// ParseAddress 从十六进制字面量解析地址
func ParseAddress(literal string) (Address, error) {
	id, err := ParseObjectID(literal)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return Address(id), nil
}

// MustParseAddress 解析地址，失败时panic（仅用于常量与测试）
func MustParseAddress(literal string) Address {
	addr, err := ParseAddress(literal)
	if err != nil {
		panic(err)
	}
	return addr
}

// String 返回完整的 0x 前缀十六进制字面量
func (a Address) String() string {
	return ObjectID(a).String()
}

// IsZero 是否为零地址
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText 实现 encoding.TextMarshaler
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
