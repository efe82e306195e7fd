package wallet

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/expansion/v1/pkg/types"
)

// MnemonicSigner 助记词签名器
//
// 按 m/54'/784'/account'/0/i 派生 secp256k1 地址。
// 地址在构造时派生，私钥只在解锁期间保留在内存中。
type MnemonicSigner struct {
	mnemonic   string
	passphrase string
	paths      []*DerivationPath
	addresses  []types.Address
	index      map[types.Address]int
	keys       []*Secp256k1KeyPair // 解锁后填充
	mu         sync.RWMutex

	unlockUntil time.Time
	lockTimer   *time.Timer
}

// MnemonicSignerConfig 助记词签名器配置
type MnemonicSignerConfig struct {
	Mnemonic    string          // 助记词
	Passphrase  string          // BIP39 密码（可选）
	DefaultPath *DerivationPath // 起始路径（可选，默认 m/54'/784'/0'/0/0）
	Count       uint32          // 连续派生的地址数（默认 1）
}

// NewMnemonicSigner 创建助记词签名器（初始为锁定状态）
func NewMnemonicSigner(config MnemonicSignerConfig) (*MnemonicSigner, error) {
	if config.Mnemonic == "" {
		return nil, errors.New("mnemonic is required")
	}

	start := config.DefaultPath
	if start == nil {
		start = DefaultDerivationPath()
	}
	if err := start.Validate(); err != nil {
		return nil, err
	}
	count := config.Count
	if count == 0 {
		count = 1
	}

	s := &MnemonicSigner{
		mnemonic:   normalizeSpaces(config.Mnemonic),
		passphrase: config.Passphrase,
		index:      make(map[types.Address]int, count),
	}

	keys, err := s.deriveAll(start, count)
	if err != nil {
		return nil, err
	}
	for i, kp := range keys {
		s.paths = append(s.paths, start.WithAddressIndex(start.AddressIndex+uint32(i)))
		s.addresses = append(s.addresses, kp.Address())
		s.index[kp.Address()] = i
		kp.Zero()
	}
	return s, nil
}

// NewMnemonicSignerFromNew 生成新助记词并创建签名器
func NewMnemonicSignerFromNew(strength MnemonicStrength, passphrase string) (*MnemonicSigner, string, error) {
	mnemonic, err := NewMnemonicManager().GenerateMnemonic(strength)
	if err != nil {
		return nil, "", fmt.Errorf("generate mnemonic: %w", err)
	}

	signer, err := NewMnemonicSigner(MnemonicSignerConfig{
		Mnemonic:   mnemonic,
		Passphrase: passphrase,
	})
	if err != nil {
		return nil, "", err
	}
	return signer, mnemonic, nil
}

// deriveAll 从助记词派生 count 个连续地址的私钥
func (s *MnemonicSigner) deriveAll(start *DerivationPath, count uint32) ([]*Secp256k1KeyPair, error) {
	seed, err := NewMnemonicManager().MnemonicToSeed(s.mnemonic, s.passphrase)
	if err != nil {
		return nil, err
	}

	// chaincfg 参数只影响扩展密钥的序列化前缀，与派生结果无关
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}

	out := make([]*Secp256k1KeyPair, 0, count)
	for i := uint32(0); i < count; i++ {
		kp, err := deriveSecp256k1(master, start.WithAddressIndex(start.AddressIndex+i))
		if err != nil {
			return nil, err
		}
		out = append(out, kp)
	}
	return out, nil
}

// DeriveSecp256k1FromMnemonic 按路径派生单个密钥对
func DeriveSecp256k1FromMnemonic(mnemonic, passphrase string, path *DerivationPath) (*Secp256k1KeyPair, error) {
	seed, err := NewMnemonicManager().MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return deriveSecp256k1(master, path)
}

func deriveSecp256k1(master *hdkeychain.ExtendedKey, path *DerivationPath) (*Secp256k1KeyPair, error) {
	child := master
	var err error
	for _, idx := range path.ToUint32Array() {
		child, err = child.Derive(idx)
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", path, err)
		}
	}

	priv, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("get private key: %w", err)
	}
	return newSecp256k1FromPrivKey(priv), nil
}

// ListAddresses 按派生顺序列出地址
func (s *MnemonicSigner) ListAddresses() ([]types.Address, error) {
	out := make([]types.Address, len(s.addresses))
	copy(out, s.addresses)
	return out, nil
}

// PathFor 地址对应的派生路径
func (s *MnemonicSigner) PathFor(addr types.Address) (*DerivationPath, bool) {
	i, ok := s.index[addr]
	if !ok {
		return nil, false
	}
	return s.paths[i], true
}

// Sign 签名意图摘要
func (s *MnemonicSigner) Sign(addr types.Address, payload []byte) (types.Signature, error) {
	i, ok := s.index[addr]
	if !ok {
		return types.Signature{}, fmt.Errorf("%w: %s", ErrAddressNotFound, addr)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lockedLocked() {
		return types.Signature{}, ErrLocked
	}
	return s.keys[i].SignDigest(payload)
}

// Unlock 解锁签名器
//
// password 不参与派生（BIP39 密码在构造时给出），仅为满足 LockableSigner。
func (s *MnemonicSigner) Unlock(_ string, duration time.Duration) error {
	keys, err := s.deriveAll(s.paths[0], uint32(len(s.paths)))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.zeroKeys()
	s.keys = keys

	if s.lockTimer != nil {
		s.lockTimer.Stop()
		s.lockTimer = nil
	}
	if duration > 0 {
		s.unlockUntil = time.Now().Add(duration)
		s.lockTimer = time.AfterFunc(duration, s.Lock)
	} else {
		s.unlockUntil = time.Time{}
	}
	return nil
}

// Lock 锁定签名器并清除私钥
func (s *MnemonicSigner) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.zeroKeys()
	if s.lockTimer != nil {
		s.lockTimer.Stop()
		s.lockTimer = nil
	}
	s.unlockUntil = time.Time{}
}

func (s *MnemonicSigner) zeroKeys() {
	for _, kp := range s.keys {
		kp.Zero()
	}
	s.keys = nil
}

// IsLocked 检查是否锁定
func (s *MnemonicSigner) IsLocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lockedLocked()
}

func (s *MnemonicSigner) lockedLocked() bool {
	if s.keys == nil {
		return true
	}
	return !s.unlockUntil.IsZero() && time.Now().After(s.unlockUntil)
}

// Type 返回签名器类型
func (s *MnemonicSigner) Type() SignerType {
	return SignerTypeMnemonic
}

// 确保实现了LockableSigner接口
var _ LockableSigner = (*MnemonicSigner)(nil)
