// Package wallet 提供客户端签名能力
//
// 签名器只暴露两件事：列出持有的地址、用某个地址对意图摘要签名。
// 私钥由各实现自行保管，调用方拿不到。
package wallet

import (
	"errors"
	"time"

	"github.com/expansion/v1/pkg/types"
)

var (
	// ErrAddressNotFound 签名器不持有该地址
	ErrAddressNotFound = errors.New("address not held by signer")

	// ErrLocked 签名器已锁定
	ErrLocked = errors.New("signer is locked")

	// ErrInvalidDigest 待签名数据不是 32 字节摘要
	ErrInvalidDigest = errors.New("payload must be a 32-byte digest")
)

// Signer 签名器接口 - 统一的签名抽象
// 支持多种签名方式：sui.keystore 文件 / 加密 Keystore / 助记词
type Signer interface {
	// ListAddresses 按稳定顺序列出所有管理的地址
	ListAddresses() ([]types.Address, error)

	// Sign 用指定地址的私钥对意图摘要签名
	// payload: types.IntentDigest 的结果（32字节）
	Sign(addr types.Address, payload []byte) (types.Signature, error)
}

// LockableSigner 需要密码解锁的签名器
type LockableSigner interface {
	Signer

	// Unlock 解锁签名器
	// duration: 解锁时长，0表示永久解锁(直到调用Lock)
	Unlock(password string, duration time.Duration) error

	// Lock 锁定签名器并清除内存中的私钥
	Lock()

	// IsLocked 检查是否已锁定
	IsLocked() bool
}

// SignerType 签名器类型
type SignerType string

const (
	SignerTypeFile      SignerType = "file"      // sui.keystore（base64 私钥数组）
	SignerTypeEncrypted SignerType = "encrypted" // 加密Keystore文件
	SignerTypeMnemonic  SignerType = "mnemonic"  // BIP39助记词
)

// ParseSignerType 解析签名器类型，空字符串视为 file
func ParseSignerType(s string) (SignerType, error) {
	switch SignerType(s) {
	case "", SignerTypeFile:
		return SignerTypeFile, nil
	case SignerTypeEncrypted, SignerTypeMnemonic:
		return SignerType(s), nil
	default:
		return "", errors.New("unknown signer type: " + s)
	}
}

// checkDigest 校验待签名数据长度
func checkDigest(payload []byte) error {
	if len(payload) != types.DigestLength {
		return ErrInvalidDigest
	}
	return nil
}
