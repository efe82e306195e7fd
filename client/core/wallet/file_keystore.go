package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/expansion/v1/pkg/types"
)

// FileKeystore sui.keystore 文件签名器
//
// 文件内容为 base64(flag || secret) 字符串的 JSON 数组，地址顺序即文件顺序。
type FileKeystore struct {
	path  string
	keys  []KeyPair
	index map[types.Address]int
	mu    sync.RWMutex
}

// LoadFileKeystore 读取 keystore 文件
func LoadFileKeystore(path string) (*FileKeystore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore %s: %w", path, err)
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse keystore %s: %w", path, err)
	}

	ks := &FileKeystore{path: path, index: make(map[types.Address]int, len(entries))}
	for i, entry := range entries {
		kp, err := DecodeKeyPairBase64(entry)
		if err != nil {
			return nil, fmt.Errorf("keystore entry %d: %w", i, err)
		}
		ks.add(kp)
	}
	return ks, nil
}

// NewFileKeystore 创建空 keystore（Save 时写入 path）
func NewFileKeystore(path string) *FileKeystore {
	return &FileKeystore{path: path, index: make(map[types.Address]int)}
}

// NewInMemoryKeystore 由已有密钥对构造（不落盘，测试与嵌入场景使用）
func NewInMemoryKeystore(keys ...KeyPair) *FileKeystore {
	ks := &FileKeystore{index: make(map[types.Address]int, len(keys))}
	for _, kp := range keys {
		ks.add(kp)
	}
	return ks
}

func (ks *FileKeystore) add(kp KeyPair) bool {
	addr := kp.Address()
	if _, dup := ks.index[addr]; dup {
		return false
	}
	ks.index[addr] = len(ks.keys)
	ks.keys = append(ks.keys, kp)
	return true
}

// Path 文件路径
func (ks *FileKeystore) Path() string {
	return ks.path
}

// ListAddresses 按文件顺序列出地址
func (ks *FileKeystore) ListAddresses() ([]types.Address, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	out := make([]types.Address, len(ks.keys))
	for i, kp := range ks.keys {
		out[i] = kp.Address()
	}
	return out, nil
}

// Sign 用指定地址签名
func (ks *FileKeystore) Sign(addr types.Address, payload []byte) (types.Signature, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	i, ok := ks.index[addr]
	if !ok {
		return types.Signature{}, fmt.Errorf("%w: %s", ErrAddressNotFound, addr)
	}
	return ks.keys[i].SignDigest(payload)
}

// Import 加入密钥对，返回是否为新地址
func (ks *FileKeystore) Import(kp KeyPair) bool {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.add(kp)
}

// Schemes 每个地址的签名方案
func (ks *FileKeystore) Schemes() map[types.Address]types.SignatureScheme {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	out := make(map[types.Address]types.SignatureScheme, len(ks.keys))
	for _, kp := range ks.keys {
		out[kp.Address()] = kp.Scheme()
	}
	return out
}

// Save 写回文件（0600）
func (ks *FileKeystore) Save() error {
	if ks.path == "" {
		return errors.New("in-memory keystore has no path")
	}

	ks.mu.RLock()
	entries := make([]string, len(ks.keys))
	for i, kp := range ks.keys {
		entries[i] = EncodeKeyPairBase64(kp)
	}
	ks.mu.RUnlock()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal keystore: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(ks.path), 0700); err != nil {
		return fmt.Errorf("create keystore dir: %w", err)
	}
	if err := os.WriteFile(ks.path, data, 0600); err != nil {
		return fmt.Errorf("write keystore: %w", err)
	}
	return nil
}

// Type 返回签名器类型
func (ks *FileKeystore) Type() SignerType {
	return SignerTypeFile
}

// DefaultKeystorePath ~/.sui/sui_config/sui.keystore
func DefaultKeystorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sui.keystore"
	}
	return filepath.Join(home, ".sui", "sui_config", "sui.keystore")
}

// 确保实现了Signer接口
var _ Signer = (*FileKeystore)(nil)
