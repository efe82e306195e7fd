package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/expansion/v1/client/core/output"
	"github.com/expansion/v1/client/core/wallet"
	"github.com/expansion/v1/internal/app"
	"github.com/expansion/v1/pkg/types"
)

var (
	keysScheme   string
	keysMnemonic bool
)

// keysCmd 密钥管理
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "密钥管理",
}

// keysListCmd 列出签名器持有的地址
var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出 keystore 中的地址",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := app.LoadProfile(appOptions()...)
		if err != nil {
			return err
		}
		signer, err := app.OpenSigner(profile.Keystore, promptPassword)
		if err != nil {
			return err
		}
		addrs, err := signer.ListAddresses()
		if err != nil {
			return err
		}

		var active types.Address
		if profile.Sender != "" {
			if active, err = types.ParseAddress(profile.Sender); err != nil {
				return fmt.Errorf("sender: %w", err)
			}
		} else if len(addrs) > 0 {
			active = addrs[0]
		}
		return formatter.Print(output.NewAddressesView(addrs, active))
	},
}

// keysNewCmd 生成新密钥
var keysNewCmd = &cobra.Command{
	Use:   "new",
	Short: "生成新密钥并写入 keystore",
	Long: `生成新密钥并追加到 sui.keystore 文件

--mnemonic 改为生成 BIP39 助记词 (secp256k1, m/54'/784'/0'/0/0)，只打印不落盘。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if keysMnemonic {
			signer, mnemonic, err := wallet.NewMnemonicSignerFromNew(wallet.Mnemonic24Words, "")
			if err != nil {
				return err
			}
			addrs, err := signer.ListAddresses()
			if err != nil {
				return err
			}
			formatter.PrintWarning("请离线妥善保存助记词，丢失后无法恢复")
			return formatter.Print(map[string]interface{}{
				"address":  addrs[0].String(),
				"mnemonic": mnemonic,
			})
		}

		scheme, err := wallet.ParseScheme(keysScheme)
		if err != nil {
			return err
		}

		profile, err := app.LoadProfile(appOptions()...)
		if err != nil {
			return err
		}
		if profile.Keystore.Kind != string(wallet.SignerTypeFile) {
			return fmt.Errorf("keys new 只支持 file 类型 keystore，当前为 %s", profile.Keystore.Kind)
		}

		ks, err := wallet.LoadFileKeystore(profile.Keystore.Path)
		if errors.Is(err, os.ErrNotExist) {
			ks = wallet.NewFileKeystore(profile.Keystore.Path)
		} else if err != nil {
			return err
		}

		kp, err := wallet.GenerateKeyPair(scheme)
		if err != nil {
			return err
		}
		ks.Import(kp)
		if err := ks.Save(); err != nil {
			return err
		}

		formatter.PrintSuccess(fmt.Sprintf("已写入 %s", profile.Keystore.Path))
		return formatter.Print(map[string]interface{}{
			"address": kp.Address().String(),
			"scheme":  scheme.String(),
		})
	},
}

func init() {
	keysNewCmd.Flags().StringVar(&keysScheme, "scheme", "ed25519", "签名方案: ed25519|secp256k1")
	keysNewCmd.Flags().BoolVar(&keysMnemonic, "mnemonic", false, "生成助记词")

	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysNewCmd)
}
