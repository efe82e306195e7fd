package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/expansion/v1/client/core/config"
	"github.com/expansion/v1/client/core/output"
	"github.com/expansion/v1/internal/app"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	Profile      string // Profile名称
	ProfileFile  string // 直接指定 profile 文件
	ConfigDir    string // 配置目录
	OutputFormat string // 输出格式
	Silent       bool   // 静默模式
	Verbose      bool   // 详细模式

	// 覆盖 profile 的连接与交易参数
	KeystorePath      string
	RPCServerURL      string
	Sender            string
	GasBudget         uint64
	SubmissionTimeout time.Duration
	Compiler          string

	MetricsOut string // 退出时写出 prometheus 文本格式指标
}

var (
	globalFlags GlobalFlags
	formatter   *output.Formatter
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "expansion",
	Short: "expansion 账本客户端",
	Long: `expansion - 发布 Move 包并驱动 scenes / xcoin 合约的命令行客户端

每条命令执行一条流水线: 构建交易 -> 签名 -> 提交 -> 解析执行效果。
连接参数来自 profile (~/.expansion/profiles)，可用全局标志覆盖。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(globalFlags.OutputFormat)
		if err != nil {
			return err
		}
		formatter = output.NewFormatter(format, os.Stdout)
		formatter.SetSilent(globalFlags.Silent)
		return nil
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if formatter != nil {
			formatter.PrintError(err)
		} else {
			fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globalFlags.Profile, "profile", "", "使用指定的Profile (默认使用当前Profile)")
	pf.StringVar(&globalFlags.ProfileFile, "config", "", "profile 文件路径 (.json/.yaml)，优先于 --profile")
	pf.StringVar(&globalFlags.ConfigDir, "config-dir", "", "配置目录 (默认: ~/.expansion)")
	pf.StringVarP(&globalFlags.OutputFormat, "output", "o", "table", "输出格式: json|pretty|table|text")
	pf.BoolVar(&globalFlags.Silent, "silent", false, "静默模式 (仅输出结果)")
	pf.BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "输出调试日志")

	pf.StringVar(&globalFlags.KeystorePath, "keystore-path", "", "keystore 路径 (默认 ~/.sui/sui_config/sui.keystore)")
	pf.StringVar(&globalFlags.RPCServerURL, "rpc-server-url", "", "节点地址 (http(s):// 或 ws(s)://)")
	pf.StringVar(&globalFlags.Sender, "sender", "", "发送方地址 (默认 keystore 中第一个地址)")
	pf.Uint64Var(&globalFlags.GasBudget, "gas-budget", 0, "gas 预算 (默认 publish 20000, call 300000)")
	pf.DurationVar(&globalFlags.SubmissionTimeout, "submission-timeout", 0, "提交等待上限，0 表示不限")
	pf.StringVar(&globalFlags.Compiler, "compiler", "", "Move 包编译器 (默认 sui)")
	pf.StringVar(&globalFlags.MetricsOut, "metrics-out", "", "退出时写出指标文件")

	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(mintXCoinCmd)
	rootCmd.AddCommand(enterCmd)
	rootCmd.AddCommand(objectCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(versionCmd)
}

// appOptions 由全局标志生成应用选项
func appOptions() []app.Option {
	ov := config.Overrides{
		RPCServerURL:      globalFlags.RPCServerURL,
		KeystorePath:      globalFlags.KeystorePath,
		Sender:            globalFlags.Sender,
		GasBudget:         globalFlags.GasBudget,
		SubmissionTimeout: globalFlags.SubmissionTimeout,
	}
	if globalFlags.Verbose {
		ov.LogLevel = "debug"
	}

	opts := []app.Option{
		app.WithConfigDir(globalFlags.ConfigDir),
		app.WithProfileName(globalFlags.Profile),
		app.WithOverrides(ov),
		app.WithPassword(promptPassword),
		app.WithCompiler(globalFlags.Compiler),
	}
	if globalFlags.ProfileFile != "" {
		opts = append(opts, app.WithProfileFile(globalFlags.ProfileFile))
	}
	return opts
}

// withApp 启动应用执行 fn，结束后写出指标并停止应用
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) (err error) {
	a, err := app.Start(ctx, appOptions()...)
	if err != nil {
		return fmt.Errorf("初始化客户端: %w", err)
	}
	defer func() {
		if globalFlags.MetricsOut != "" {
			if werr := a.Metrics.WriteToTextfile(globalFlags.MetricsOut); werr != nil && err == nil {
				err = fmt.Errorf("写出指标: %w", werr)
			}
		}
		if serr := a.Stop(); serr != nil && err == nil {
			err = serr
		}
	}()
	return fn(ctx, a)
}

// promptPassword 从终端读取口令（不回显）
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		if pw := os.Getenv("EXPANSION_KEYSTORE_PASSWORD"); pw != "" {
			return pw, nil
		}
		return "", fmt.Errorf("标准输入不是终端，请设置 EXPANSION_KEYSTORE_PASSWORD")
	}
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
