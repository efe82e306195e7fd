package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/expansion/v1/client/core/config"
	"github.com/expansion/v1/client/core/output"
)

var profileDeleteYes bool

// profileCmd Profile管理命令
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile管理",
	Long:  "管理配置Profile，支持多环境切换(local/devnet/testnet)",
}

func openProfiles() (*config.ProfileManager, error) {
	return config.NewProfileManager(globalFlags.ConfigDir, nil)
}

// profileListCmd 列出所有profiles
var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		pm, err := openProfiles()
		if err != nil {
			return err
		}

		var result []map[string]interface{}
		for _, name := range pm.ListProfiles() {
			profile, err := pm.GetProfile(name)
			if err != nil {
				continue
			}
			endpoint := ""
			if len(profile.Endpoints) > 0 {
				endpoint = profile.Endpoints[0].JSONRPC
				if endpoint == "" {
					endpoint = profile.Endpoints[0].WS
				}
			}
			result = append(result, map[string]interface{}{
				"name":     name,
				"chain_id": profile.ChainID,
				"endpoint": endpoint,
				"current":  name == pm.CurrentName(),
			})
		}
		return formatter.Print(result)
	},
}

// profileShowCmd 显示profile详情
var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "显示profile详情(不指定则显示当前profile)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pm, err := openProfiles()
		if err != nil {
			return err
		}

		var profile *config.Profile
		if len(args) > 0 {
			profile, err = pm.GetProfile(args[0])
		} else {
			profile, err = pm.GetCurrentProfile()
		}
		if err != nil {
			return err
		}
		if formatter.Format() == output.FormatTable || formatter.Format() == output.FormatText {
			data, err := yaml.Marshal(profile)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		}
		return formatter.Print(profile)
	},
}

// profileSwitchCmd 切换profile
var profileSwitchCmd = &cobra.Command{
	Use:     "switch <name>",
	Aliases: []string{"use"},
	Short:   "切换profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pm, err := openProfiles()
		if err != nil {
			return err
		}
		if err := pm.SwitchProfile(args[0]); err != nil {
			return err
		}
		formatter.PrintSuccess(fmt.Sprintf("已切换到 profile '%s'", args[0]))
		return nil
	},
}

// profileCurrentCmd 显示当前profile
var profileCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "显示当前profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		pm, err := openProfiles()
		if err != nil {
			return err
		}
		profile, err := pm.GetCurrentProfile()
		if err != nil {
			return err
		}
		return formatter.Print(map[string]interface{}{
			"name":     profile.Name,
			"chain_id": profile.ChainID,
		})
	},
}

// profileImportCmd 导入profile
var profileImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "从 JSON/YAML 文件导入profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pm, err := openProfiles()
		if err != nil {
			return err
		}
		profile, err := config.LoadProfileFile(args[0])
		if err != nil {
			return err
		}
		if _, err := pm.GetProfile(profile.Name); err == nil {
			return fmt.Errorf("profile '%s' 已存在", profile.Name)
		}
		if err := pm.SaveProfile(profile); err != nil {
			return fmt.Errorf("保存 profile 失败: %w", err)
		}
		formatter.PrintSuccess(fmt.Sprintf("Profile '%s' 导入成功", profile.Name))
		return nil
	},
}

// profileExportCmd 导出profile
var profileExportCmd = &cobra.Command{
	Use:   "export <name> [file]",
	Short: "导出profile为YAML文件",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pm, err := openProfiles()
		if err != nil {
			return err
		}
		profile, err := pm.GetProfile(args[0])
		if err != nil {
			return err
		}

		outputFile := args[0] + "-profile.yaml"
		if len(args) > 1 {
			outputFile = args[1]
		}
		data, err := yaml.Marshal(profile)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outputFile, data, 0600); err != nil {
			return fmt.Errorf("写入文件失败: %w", err)
		}

		abs, _ := filepath.Abs(outputFile)
		formatter.PrintSuccess(fmt.Sprintf("Profile '%s' 已导出到 %s", args[0], abs))
		return nil
	},
}

// profileDeleteCmd 删除profile
var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "删除profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pm, err := openProfiles()
		if err != nil {
			return err
		}
		name := args[0]
		if name == pm.CurrentName() {
			return fmt.Errorf("不能删除当前正在使用的 profile")
		}

		if !profileDeleteYes {
			fmt.Fprintf(os.Stderr, "确认删除 profile '%s'? (yes/no): ", name)
			var confirm string
			if _, err := fmt.Scanln(&confirm); err != nil {
				return fmt.Errorf("读取输入失败: %w", err)
			}
			if strings.ToLower(confirm) != "yes" {
				formatter.PrintInfo("取消删除")
				return nil
			}
		}

		if err := pm.DeleteProfile(name); err != nil {
			return fmt.Errorf("删除 profile 失败: %w", err)
		}
		formatter.PrintSuccess(fmt.Sprintf("Profile '%s' 已删除", name))
		return nil
	},
}

func init() {
	profileDeleteCmd.Flags().BoolVarP(&profileDeleteYes, "yes", "y", false, "跳过确认")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSwitchCmd)
	profileCmd.AddCommand(profileCurrentCmd)
	profileCmd.AddCommand(profileImportCmd)
	profileCmd.AddCommand(profileExportCmd)
	profileCmd.AddCommand(profileDeleteCmd)
}
