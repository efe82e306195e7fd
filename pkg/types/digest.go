package types

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// DigestLength 摘要字节长度（Blake2b-256）
const DigestLength = 32

// ErrInvalidDigest 无效的 base58 摘要
var ErrInvalidDigest = errors.New("invalid digest")

// Digest 交易或对象摘要，文本形式为 base58
type Digest [DigestLength]byte

// ParseDigest 解析 base58 摘要
func ParseDigest(s string) (Digest, error) {
	var d Digest
	raw, err := base58.Decode(s)
	if err != nil {
		return d, fmt.Errorf("%w: %q: %v", ErrInvalidDigest, s, err)
	}
	if len(raw) != DigestLength {
		return d, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidDigest, s, len(raw))
	}
	copy(d[:], raw)
	return d, nil
}

// String base58 文本
func (d Digest) String() string {
	return base58.Encode(d[:])
}

// IsZero 是否为空摘要
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// MarshalText 实现 encoding.TextMarshaler
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ============================================================================
//                              意图与交易摘要
// ============================================================================

// IntentScope 意图作用域
type IntentScope byte

const (
	// IntentScopeTransactionData 交易数据签名
	IntentScopeTransactionData IntentScope = 0
	// IntentScopePersonalMessage 个人消息签名
	IntentScopePersonalMessage IntentScope = 3
)

// intentPrefix 意图前缀：scope || version(V0) || app_id(Sui)
func intentPrefix(scope IntentScope) []byte {
	return []byte{byte(scope), 0x00, 0x00}
}

// IntentMessage 组装意图消息：prefix || payload
func IntentMessage(scope IntentScope, payload []byte) []byte {
	msg := make([]byte, 0, 3+len(payload))
	msg = append(msg, intentPrefix(scope)...)
	return append(msg, payload...)
}

// IntentDigest 计算交易字节的意图摘要，签名者对该摘要签名
func IntentDigest(txBytes []byte) [DigestLength]byte {
	return blake2b.Sum256(IntentMessage(IntentScopeTransactionData, txBytes))
}

// TransactionDigest 计算交易摘要（账本返回的 digest 字段）
func TransactionDigest(txBytes []byte) Digest {
	h, _ := blake2b.New256(nil)
	h.Write([]byte("TransactionData::"))
	h.Write(txBytes)

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
