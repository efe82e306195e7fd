package types

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/blake2b"
)

// SignatureScheme 签名方案标志字节
type SignatureScheme byte

const (
	// SchemeEd25519 Ed25519
	SchemeEd25519 SignatureScheme = 0x00
	// SchemeSecp256k1 Secp256k1 ECDSA
	SchemeSecp256k1 SignatureScheme = 0x01
)

// String 方案名称
func (s SignatureScheme) String() string {
	switch s {
	case SchemeEd25519:
		return "ed25519"
	case SchemeSecp256k1:
		return "secp256k1"
	default:
		return fmt.Sprintf("scheme(0x%02x)", byte(s))
	}
}

// PublicKeySize 公钥长度
func (s SignatureScheme) PublicKeySize() int {
	switch s {
	case SchemeEd25519:
		return ed25519.PublicKeySize
	case SchemeSecp256k1:
		return btcec.PubKeyBytesLenCompressed
	default:
		return 0
	}
}

// SignatureSize 原始签名长度（两种方案均为 64）
const SignatureSize = 64

var (
	// ErrInvalidSignature 签名格式或校验失败
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrUnsupportedScheme 不支持的签名方案
	ErrUnsupportedScheme = errors.New("unsupported signature scheme")

	// ErrSenderMismatch 签名公钥与发送者地址不一致
	ErrSenderMismatch = errors.New("signature does not belong to sender")
)

// Signature 序列化签名：flag || sig || pubkey
type Signature struct {
	Scheme    SignatureScheme
	Sig       []byte
	PublicKey []byte
}

// Bytes 序列化为 flag || sig || pubkey
func (s Signature) Bytes() []byte {
	out := make([]byte, 0, 1+len(s.Sig)+len(s.PublicKey))
	out = append(out, byte(s.Scheme))
	out = append(out, s.Sig...)
	return append(out, s.PublicKey...)
}

// Base64 标准 base64 文本（提交给账本的形式）
func (s Signature) Base64() string {
	return base64.StdEncoding.EncodeToString(s.Bytes())
}

// ParseSignature 解析 base64 序列化签名
func ParseSignature(b64 string) (Signature, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(raw) < 1+SignatureSize {
		return Signature{}, fmt.Errorf("%w: %d bytes", ErrInvalidSignature, len(raw))
	}

	scheme := SignatureScheme(raw[0])
	pkSize := scheme.PublicKeySize()
	if pkSize == 0 {
		return Signature{}, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}
	if len(raw) != 1+SignatureSize+pkSize {
		return Signature{}, fmt.Errorf("%w: %d bytes for %s", ErrInvalidSignature, len(raw), scheme)
	}

	return Signature{
		Scheme:    scheme,
		Sig:       append([]byte(nil), raw[1:1+SignatureSize]...),
		PublicKey: append([]byte(nil), raw[1+SignatureSize:]...),
	}, nil
}

// Address 由签名公钥推导的账户地址
func (s Signature) Address() Address {
	return PublicKeyToAddress(s.Scheme, s.PublicKey)
}

// VerifyDigest 校验签名是否对摘要有效
func (s Signature) VerifyDigest(digest []byte) error {
	if len(s.Sig) != SignatureSize {
		return fmt.Errorf("%w: signature length %d", ErrInvalidSignature, len(s.Sig))
	}

	switch s.Scheme {
	case SchemeEd25519:
		if len(s.PublicKey) != ed25519.PublicKeySize {
			return fmt.Errorf("%w: ed25519 public key length %d", ErrInvalidSignature, len(s.PublicKey))
		}
		if !ed25519.Verify(ed25519.PublicKey(s.PublicKey), digest, s.Sig) {
			return fmt.Errorf("%w: ed25519 verification failed", ErrInvalidSignature)
		}
		return nil

	case SchemeSecp256k1:
		pub, err := btcec.ParsePubKey(s.PublicKey)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		var r, sc btcec.ModNScalar
		if overflow := r.SetByteSlice(s.Sig[:32]); overflow {
			return fmt.Errorf("%w: r overflows", ErrInvalidSignature)
		}
		if overflow := sc.SetByteSlice(s.Sig[32:]); overflow {
			return fmt.Errorf("%w: s overflows", ErrInvalidSignature)
		}
		hash := sha256.Sum256(digest)
		if !ecdsa.NewSignature(&r, &sc).Verify(hash[:], pub) {
			return fmt.Errorf("%w: secp256k1 verification failed", ErrInvalidSignature)
		}
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedScheme, s.Scheme)
	}
}

// PublicKeyToAddress 地址 = blake2b256(flag || pubkey)
func PublicKeyToAddress(scheme SignatureScheme, publicKey []byte) Address {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{byte(scheme)})
	h.Write(publicKey)

	var addr Address
	copy(addr[:], h.Sum(nil))
	return addr
}

// SignedTransaction 已签名交易：一个发送者、一个签名
type SignedTransaction struct {
	Sender     Address
	TxBytes    []byte
	Signatures []Signature
}

// Digest 交易摘要
func (tx *SignedTransaction) Digest() Digest {
	return TransactionDigest(tx.TxBytes)
}

// Verify 校验交易只携带发送者的一个有效签名
func (tx *SignedTransaction) Verify(sender Address) error {
	if tx == nil || len(tx.TxBytes) == 0 {
		return fmt.Errorf("%w: empty transaction", ErrInvalidSignature)
	}
	if len(tx.Signatures) != 1 {
		return fmt.Errorf("%w: expected exactly one signature, got %d", ErrInvalidSignature, len(tx.Signatures))
	}

	sig := tx.Signatures[0]
	if derived := sig.Address(); derived != sender {
		return fmt.Errorf("%w: signer %s, sender %s", ErrSenderMismatch, derived, sender)
	}

	digest := IntentDigest(tx.TxBytes)
	return sig.VerifyDigest(digest[:])
}

// VerifySender 以 Sender 字段校验
func (tx *SignedTransaction) VerifySender() error {
	if tx == nil {
		return fmt.Errorf("%w: nil transaction", ErrInvalidSignature)
	}
	return tx.Verify(tx.Sender)
}

// SignaturesBase64 提交给账本的签名列表
func (tx *SignedTransaction) SignaturesBase64() []string {
	out := make([]string, len(tx.Signatures))
	for i, s := range tx.Signatures {
		out[i] = s.Base64()
	}
	return out
}

// TxBytesBase64 提交给账本的交易字节
func (tx *SignedTransaction) TxBytesBase64() string {
	return base64.StdEncoding.EncodeToString(tx.TxBytes)
}
