package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/expansion/v1/client/core/config"
	"github.com/expansion/v1/client/core/wallet"
)

// ErrPasswordRequired 加密 keystore 需要口令但未提供读取方式
var ErrPasswordRequired = errors.New("keystore password required")

// OpenSigner 按 profile 打开签名器
//
// file 直接读取 sui.keystore；encrypted 需要口令解锁；mnemonic 从文件读取助记词。
func OpenSigner(p config.KeystoreConfig, password PasswordFunc) (wallet.Signer, error) {
	kind, err := wallet.ParseSignerType(p.Kind)
	if err != nil {
		return nil, err
	}
	if p.Path == "" {
		return nil, fmt.Errorf("%s keystore: path is required", kind)
	}

	switch kind {
	case wallet.SignerTypeEncrypted:
		ks, err := wallet.NewKeystoreSigner(p.Path)
		if err != nil {
			return nil, err
		}
		if password == nil {
			return nil, ErrPasswordRequired
		}
		pw, err := password(fmt.Sprintf("口令 (%s): ", ks.Label()))
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		if err := ks.Unlock(pw, 0); err != nil {
			return nil, err
		}
		return ks, nil

	case wallet.SignerTypeMnemonic:
		//nolint:gosec // G304: 路径来自 profile
		data, err := os.ReadFile(p.Path)
		if err != nil {
			return nil, fmt.Errorf("read mnemonic: %w", err)
		}
		var start *wallet.DerivationPath
		if p.DerivationPath != "" {
			if start, err = wallet.ParseDerivationPath(p.DerivationPath); err != nil {
				return nil, err
			}
		}
		signer, err := wallet.NewMnemonicSigner(wallet.MnemonicSignerConfig{
			Mnemonic:    strings.TrimSpace(string(data)),
			Count:       p.Accounts,
			DefaultPath: start,
		})
		if err != nil {
			return nil, err
		}
		if err := signer.Unlock("", 0); err != nil {
			return nil, err
		}
		return signer, nil

	default:
		return wallet.LoadFileKeystore(p.Path)
	}
}
