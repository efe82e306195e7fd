package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/expansion/v1/internal/app"
)

// chainCmd 链相关命令
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "查询账本信息",
}

// chainInfoCmd 查询链标识与节点延迟
var chainInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "查询链标识",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			start := time.Now()
			chainID, err := a.Client.ChainIdentifier(ctx)
			if err != nil {
				return err
			}
			latency := time.Since(start)

			return formatter.Print(map[string]interface{}{
				"profile":  a.Profile.Name,
				"chain_id": chainID,
				"latency":  latency.Round(time.Millisecond).String(),
			})
		})
	},
}

// chainPingCmd 检查节点可达性
var chainPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "检查节点是否可达",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			if err := a.Client.Ping(ctx); err != nil {
				return err
			}
			formatter.PrintSuccess("节点可达")
			return nil
		})
	},
}

func init() {
	chainCmd.AddCommand(chainInfoCmd)
	chainCmd.AddCommand(chainPingCmd)
}
