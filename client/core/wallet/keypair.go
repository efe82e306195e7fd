package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/expansion/v1/pkg/types"
)

// SecretKeySize 私钥长度（两种方案均为 32 字节）
const SecretKeySize = 32

// ErrInvalidKey 私钥格式错误
var ErrInvalidKey = errors.New("invalid private key")

// KeyPair 单个密钥对
type KeyPair interface {
	// Scheme 签名方案
	Scheme() types.SignatureScheme

	// PublicKey 序列化公钥
	PublicKey() []byte

	// Address 公钥推导的地址
	Address() types.Address

	// SignDigest 对 32 字节意图摘要签名
	SignDigest(digest []byte) (types.Signature, error)

	// Secret 32 字节私钥（导出/加密存储时使用）
	Secret() []byte

	// Zero 清除内存中的私钥
	Zero()
}

// ===== Ed25519 =====

// Ed25519KeyPair Ed25519 密钥对
type Ed25519KeyPair struct {
	priv ed25519.PrivateKey
}

// NewEd25519KeyPair 由 32 字节种子构造
func NewEd25519KeyPair(seed []byte) (*Ed25519KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: ed25519 seed length %d", ErrInvalidKey, len(seed))
	}
	return &Ed25519KeyPair{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// GenerateEd25519KeyPair 随机生成
func GenerateEd25519KeyPair() (*Ed25519KeyPair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return &Ed25519KeyPair{priv: priv}, nil
}

func (k *Ed25519KeyPair) Scheme() types.SignatureScheme { return types.SchemeEd25519 }

func (k *Ed25519KeyPair) PublicKey() []byte {
	return append([]byte(nil), k.priv.Public().(ed25519.PublicKey)...)
}

func (k *Ed25519KeyPair) Address() types.Address {
	return types.PublicKeyToAddress(types.SchemeEd25519, k.PublicKey())
}

func (k *Ed25519KeyPair) SignDigest(digest []byte) (types.Signature, error) {
	if len(k.priv) == 0 {
		return types.Signature{}, ErrLocked
	}
	if err := checkDigest(digest); err != nil {
		return types.Signature{}, err
	}
	return types.Signature{
		Scheme:    types.SchemeEd25519,
		Sig:       ed25519.Sign(k.priv, digest),
		PublicKey: k.PublicKey(),
	}, nil
}

func (k *Ed25519KeyPair) Secret() []byte {
	return append([]byte(nil), k.priv.Seed()...)
}

func (k *Ed25519KeyPair) Zero() {
	for i := range k.priv {
		k.priv[i] = 0
	}
	k.priv = nil
}

// ===== Secp256k1 =====

// Secp256k1KeyPair Secp256k1 密钥对
//
// 对摘要再做一次 sha256 后签名，签名为低 s 的 r || s。
type Secp256k1KeyPair struct {
	priv *btcec.PrivateKey
}

// NewSecp256k1KeyPair 由 32 字节私钥构造
func NewSecp256k1KeyPair(secret []byte) (*Secp256k1KeyPair, error) {
	if len(secret) != SecretKeySize {
		return nil, fmt.Errorf("%w: secp256k1 key length %d", ErrInvalidKey, len(secret))
	}
	priv, _ := btcec.PrivKeyFromBytes(secret)
	if priv.Key.IsZero() {
		return nil, fmt.Errorf("%w: zero scalar", ErrInvalidKey)
	}
	return &Secp256k1KeyPair{priv: priv}, nil
}

// newSecp256k1FromPrivKey 包装已派生的私钥
func newSecp256k1FromPrivKey(priv *btcec.PrivateKey) *Secp256k1KeyPair {
	return &Secp256k1KeyPair{priv: priv}
}

// GenerateSecp256k1KeyPair 随机生成
func GenerateSecp256k1KeyPair() (*Secp256k1KeyPair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate secp256k1 key: %w", err)
	}
	return &Secp256k1KeyPair{priv: priv}, nil
}

func (k *Secp256k1KeyPair) Scheme() types.SignatureScheme { return types.SchemeSecp256k1 }

func (k *Secp256k1KeyPair) PublicKey() []byte {
	return k.priv.PubKey().SerializeCompressed()
}

func (k *Secp256k1KeyPair) Address() types.Address {
	return types.PublicKeyToAddress(types.SchemeSecp256k1, k.PublicKey())
}

func (k *Secp256k1KeyPair) SignDigest(digest []byte) (types.Signature, error) {
	if k.priv == nil {
		return types.Signature{}, ErrLocked
	}
	if err := checkDigest(digest); err != nil {
		return types.Signature{}, err
	}
	hash := sha256.Sum256(digest)
	// SignCompact 输出 [recovery || r || s]，s 已规范为低值
	compact := ecdsa.SignCompact(k.priv, hash[:], true)
	return types.Signature{
		Scheme:    types.SchemeSecp256k1,
		Sig:       compact[1:],
		PublicKey: k.PublicKey(),
	}, nil
}

func (k *Secp256k1KeyPair) Secret() []byte {
	return k.priv.Serialize()
}

func (k *Secp256k1KeyPair) Zero() {
	if k.priv != nil {
		k.priv.Zero()
		k.priv = nil
	}
}

// ===== 编解码 =====

// GenerateKeyPair 按方案随机生成
func GenerateKeyPair(scheme types.SignatureScheme) (KeyPair, error) {
	switch scheme {
	case types.SchemeEd25519:
		return GenerateEd25519KeyPair()
	case types.SchemeSecp256k1:
		return GenerateSecp256k1KeyPair()
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedScheme, scheme)
	}
}

// NewKeyPair 按方案从私钥构造
func NewKeyPair(scheme types.SignatureScheme, secret []byte) (KeyPair, error) {
	switch scheme {
	case types.SchemeEd25519:
		return NewEd25519KeyPair(secret)
	case types.SchemeSecp256k1:
		return NewSecp256k1KeyPair(secret)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedScheme, scheme)
	}
}

// DecodeKeyPair 解析 flag || secret 字节
func DecodeKeyPair(raw []byte) (KeyPair, error) {
	if len(raw) != 1+SecretKeySize {
		return nil, fmt.Errorf("%w: %d bytes, want flag + 32", ErrInvalidKey, len(raw))
	}
	return NewKeyPair(types.SignatureScheme(raw[0]), raw[1:])
}

// EncodeKeyPair 序列化为 flag || secret
func EncodeKeyPair(kp KeyPair) []byte {
	out := make([]byte, 0, 1+SecretKeySize)
	out = append(out, byte(kp.Scheme()))
	return append(out, kp.Secret()...)
}

// DecodeKeyPairBase64 解析 sui.keystore 中的单个条目
func DecodeKeyPairBase64(s string) (KeyPair, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return DecodeKeyPair(raw)
}

// EncodeKeyPairBase64 序列化为 sui.keystore 条目
func EncodeKeyPairBase64(kp KeyPair) string {
	return base64.StdEncoding.EncodeToString(EncodeKeyPair(kp))
}

var (
	_ KeyPair = (*Ed25519KeyPair)(nil)
	_ KeyPair = (*Secp256k1KeyPair)(nil)
)
