package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/expansion/v1/pkg/types"
	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
)

// ErrWrongPassword 密码错误或文件被篡改
var ErrWrongPassword = errors.New("wrong password or corrupted keystore")

// KeystoreV1 加密 Keystore 文件格式(v1.0.0)
type KeystoreV1 struct {
	Version string   `json:"version"` // "1.0.0"
	ID      string   `json:"id"`      // UUID
	Address string   `json:"address"` // 0x...
	Scheme  string   `json:"scheme"`  // ed25519 | secp256k1
	Crypto  CryptoV1 `json:"crypto"`

	// 元数据
	CreatedAt string `json:"created_at"`
	Label     string `json:"label,omitempty"`
}

// CryptoV1 加密参数
type CryptoV1 struct {
	Cipher       string       `json:"cipher"`     // "aes-256-gcm"
	Ciphertext   string       `json:"ciphertext"` // hex编码
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"` // "pbkdf2"
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"` // hex编码的MAC
}

// CipherParams 密码参数
type CipherParams struct {
	IV string `json:"iv"` // hex编码的初始化向量
}

// KDFParams 密钥派生参数
type KDFParams struct {
	DKLen int    `json:"dklen"` // 派生密钥长度(32)
	Salt  string `json:"salt"`  // hex编码的盐值
	C     int    `json:"c"`     // 迭代次数
	PRF   string `json:"prf"`   // "hmac-sha256"
}

// kdfIterations PBKDF2 迭代次数，测试中调低
var kdfIterations = 262144

// KeystoreSigner 加密 Keystore 签名器
//
// 单地址；解锁前 ListAddresses 可用，Sign 返回 ErrLocked。
type KeystoreSigner struct {
	keystorePath string
	file         KeystoreV1
	address      types.Address
	key          KeyPair // 解锁后的私钥(内存中)
	mu           sync.RWMutex
	unlockUntil  time.Time
	lockTimer    *time.Timer
}

// NewKeystoreSigner 创建Keystore签名器
func NewKeystoreSigner(keystorePath string) (*KeystoreSigner, error) {
	file, err := readKeystoreFile(keystorePath)
	if err != nil {
		return nil, err
	}

	addr, err := types.ParseAddress(file.Address)
	if err != nil {
		return nil, fmt.Errorf("keystore %s: %w", keystorePath, err)
	}

	return &KeystoreSigner{
		keystorePath: keystorePath,
		file:         *file,
		address:      addr,
	}, nil
}

func readKeystoreFile(path string) (*KeystoreV1, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	var file KeystoreV1
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse keystore: %w", err)
	}
	return &file, nil
}

// Label 用户标签
func (ks *KeystoreSigner) Label() string {
	return ks.file.Label
}

// ListAddresses 列出地址
func (ks *KeystoreSigner) ListAddresses() ([]types.Address, error) {
	return []types.Address{ks.address}, nil
}

// Sign 签名意图摘要
func (ks *KeystoreSigner) Sign(addr types.Address, payload []byte) (types.Signature, error) {
	if addr != ks.address {
		return types.Signature{}, fmt.Errorf("%w: %s", ErrAddressNotFound, addr)
	}

	ks.mu.RLock()
	defer ks.mu.RUnlock()

	if ks.lockedLocked() {
		return types.Signature{}, ErrLocked
	}
	return ks.key.SignDigest(payload)
}

// Unlock 解锁keystore
func (ks *KeystoreSigner) Unlock(password string, duration time.Duration) error {
	secret, err := decryptWithPassword(ks.file.Crypto, password)
	if err != nil {
		return err
	}

	scheme, err := ParseScheme(ks.file.Scheme)
	if err != nil {
		return err
	}
	kp, err := NewKeyPair(scheme, secret)
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}
	if kp.Address() != ks.address {
		kp.Zero()
		return fmt.Errorf("%w: key does not match address %s", ErrWrongPassword, ks.address)
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.key != nil {
		ks.key.Zero()
	}
	ks.key = kp

	if ks.lockTimer != nil {
		ks.lockTimer.Stop()
		ks.lockTimer = nil
	}
	if duration > 0 {
		ks.unlockUntil = time.Now().Add(duration)
		ks.lockTimer = time.AfterFunc(duration, ks.Lock)
	} else {
		ks.unlockUntil = time.Time{}
	}
	return nil
}

// Lock 锁定keystore并清除内存中的私钥
func (ks *KeystoreSigner) Lock() {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.key != nil {
		ks.key.Zero()
		ks.key = nil
	}
	if ks.lockTimer != nil {
		ks.lockTimer.Stop()
		ks.lockTimer = nil
	}
	ks.unlockUntil = time.Time{}
}

// IsLocked 检查是否锁定
func (ks *KeystoreSigner) IsLocked() bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.lockedLocked()
}

// lockedLocked 调用方需持有读锁
func (ks *KeystoreSigner) lockedLocked() bool {
	if ks.key == nil {
		return true
	}
	return !ks.unlockUntil.IsZero() && time.Now().After(ks.unlockUntil)
}

// Type 返回签名器类型
func (ks *KeystoreSigner) Type() SignerType {
	return SignerTypeEncrypted
}

// 确保实现了LockableSigner接口
var _ LockableSigner = (*KeystoreSigner)(nil)

// ===== Keystore加密/解密辅助函数 =====

// ParseScheme 解析签名方案名称（大小写不敏感，空串为 ed25519）
func ParseScheme(s string) (types.SignatureScheme, error) {
	switch strings.ToLower(s) {
	case "ed25519", "":
		return types.SchemeEd25519, nil
	case "secp256k1":
		return types.SchemeSecp256k1, nil
	default:
		return 0, fmt.Errorf("%w: %s", types.ErrUnsupportedScheme, s)
	}
}

// deriveKey 派生解密密钥
func deriveKey(password string, crypto CryptoV1) ([]byte, error) {
	salt, err := hex.DecodeString(crypto.KDFParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}

	switch crypto.KDF {
	case "pbkdf2":
		return pbkdf2.Key([]byte(password), salt, crypto.KDFParams.C, crypto.KDFParams.DKLen, sha256.New), nil
	default:
		return nil, fmt.Errorf("unsupported KDF: %s", crypto.KDF)
	}
}

// decryptWithPassword 派生密钥、校验MAC并解密
func decryptWithPassword(crypto CryptoV1, password string) ([]byte, error) {
	key, err := deriveKey(password, crypto)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	ciphertext, err := hex.DecodeString(crypto.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	iv, err := hex.DecodeString(crypto.CipherParams.IV)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}

	wantMAC, err := hex.DecodeString(crypto.MAC)
	if err != nil {
		return nil, fmt.Errorf("decode mac: %w", err)
	}
	mac := computeMAC(key, ciphertext)
	if subtle.ConstantTimeCompare(mac[:], wantMAC) != 1 {
		return nil, ErrWrongPassword
	}

	if crypto.Cipher != "aes-256-gcm" {
		return nil, fmt.Errorf("unsupported cipher: %s", crypto.Cipher)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}

// encrypt 加密明文
func encrypt(plaintext []byte, password string) (CryptoV1, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return CryptoV1{}, fmt.Errorf("generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, kdfIterations, 32, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return CryptoV1{}, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return CryptoV1{}, fmt.Errorf("new gcm: %w", err)
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return CryptoV1{}, fmt.Errorf("generate iv: %w", err)
	}

	ciphertext := gcm.Seal(nil, iv, plaintext, nil)
	mac := computeMAC(key, ciphertext)

	return CryptoV1{
		Cipher:       "aes-256-gcm",
		Ciphertext:   hex.EncodeToString(ciphertext),
		CipherParams: CipherParams{IV: hex.EncodeToString(iv)},
		KDF:          "pbkdf2",
		KDFParams: KDFParams{
			DKLen: 32,
			Salt:  hex.EncodeToString(salt),
			C:     kdfIterations,
			PRF:   "hmac-sha256",
		},
		MAC: hex.EncodeToString(mac[:]),
	}, nil
}

func computeMAC(key, ciphertext []byte) [32]byte {
	buf := make([]byte, 0, 16+len(ciphertext))
	buf = append(buf, key[16:]...)
	buf = append(buf, ciphertext...)
	return sha256.Sum256(buf)
}

// SaveKeystore 加密保存密钥对，返回文件路径
func SaveKeystore(keystoreDir string, kp KeyPair, password string, label string) (string, error) {
	if err := os.MkdirAll(keystoreDir, 0700); err != nil {
		return "", fmt.Errorf("create keystore dir: %w", err)
	}

	crypto, err := encrypt(kp.Secret(), password)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}

	address := kp.Address().String()
	keystore := KeystoreV1{
		Version:   "1.0.0",
		ID:        uuid.NewString(),
		Address:   address,
		Scheme:    kp.Scheme().String(),
		Crypto:    crypto,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Label:     label,
	}

	data, err := json.MarshalIndent(keystore, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json: %w", err)
	}

	// 文件名: UTC--<timestamp>--<address>
	filename := fmt.Sprintf("UTC--%s--%s",
		time.Now().UTC().Format("2006-01-02T15-04-05.000000000Z"),
		strings.TrimPrefix(address, "0x"),
	)
	filePath := filepath.Join(keystoreDir, filename)

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return "", fmt.Errorf("write keystore: %w", err)
	}
	return filePath, nil
}
