package wallet

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// MnemonicStrength 助记词强度
type MnemonicStrength int

const (
	// Mnemonic12Words 12个助记词 (128 bits 熵)
	Mnemonic12Words MnemonicStrength = 128
	// Mnemonic15Words 15个助记词 (160 bits 熵)
	Mnemonic15Words MnemonicStrength = 160
	// Mnemonic18Words 18个助记词 (192 bits 熵)
	Mnemonic18Words MnemonicStrength = 192
	// Mnemonic21Words 21个助记词 (224 bits 熵)
	Mnemonic21Words MnemonicStrength = 224
	// Mnemonic24Words 24个助记词 (256 bits 熵)
	Mnemonic24Words MnemonicStrength = 256
)

// ErrInvalidMnemonic 助记词无效
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// MnemonicManager 助记词管理器
type MnemonicManager struct {
	wordSet map[string]struct{}
}

// NewMnemonicManager 创建新的助记词管理器
func NewMnemonicManager() *MnemonicManager {
	words := bip39.GetWordList()
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return &MnemonicManager{wordSet: set}
}

// GenerateMnemonic 生成助记词
func (m *MnemonicManager) GenerateMnemonic(strength MnemonicStrength) (string, error) {
	switch strength {
	case Mnemonic12Words, Mnemonic15Words, Mnemonic18Words, Mnemonic21Words, Mnemonic24Words:
	default:
		return "", fmt.Errorf("invalid mnemonic strength: %d, must be 128, 160, 192, 224, or 256", strength)
	}

	entropy := make([]byte, int(strength)/8)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic 验证助记词是否有效
func (m *MnemonicManager) ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(normalizeSpaces(mnemonic))
}

// ValidateMnemonicWithDetails 验证助记词并返回具体原因
func (m *MnemonicManager) ValidateMnemonicWithDetails(mnemonic string) error {
	mnemonic = normalizeSpaces(mnemonic)
	if mnemonic == "" {
		return fmt.Errorf("%w: empty", ErrInvalidMnemonic)
	}

	words := strings.Split(mnemonic, " ")
	switch len(words) {
	case 12, 15, 18, 21, 24:
	default:
		return fmt.Errorf("%w: %d words, want 12, 15, 18, 21 or 24", ErrInvalidMnemonic, len(words))
	}

	for i, word := range words {
		if _, ok := m.wordSet[word]; !ok {
			return fmt.Errorf("%w: word %d %q is not in the BIP39 wordlist", ErrInvalidMnemonic, i+1, word)
		}
	}

	if !bip39.IsMnemonicValid(mnemonic) {
		return fmt.Errorf("%w: checksum mismatch", ErrInvalidMnemonic)
	}
	return nil
}

// MnemonicToSeed 将助记词转换为种子
func (m *MnemonicManager) MnemonicToSeed(mnemonic, passphrase string) ([]byte, error) {
	if err := m.ValidateMnemonicWithDetails(mnemonic); err != nil {
		return nil, err
	}
	return bip39.NewSeed(normalizeSpaces(mnemonic), passphrase), nil
}

// normalizeSpaces 规范化空格
func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
