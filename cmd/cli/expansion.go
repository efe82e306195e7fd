package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expansion/v1/client/core/expansion"
	"github.com/expansion/v1/client/core/output"
	"github.com/expansion/v1/internal/app"
	"github.com/expansion/v1/pkg/types"
)

var (
	publishPackagePath string
	expansionPackageID string
	xcoinObjectID      string
	mintAmount         uint64
	mintTarget         string
)

// publishCmd 发布 expansion 包
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "发布 expansion Move 包",
	Long: `发布 expansion Move 包，输出包 ID 与 xcoin 托管对象 ID

--package-path 可以是:
  - Move 包目录 (含 Move.toml，调用编译器生成字节码)
  - 仅含 .mv 文件的目录
  - 编译器输出的 JSON 文件 ({"modules": [...], "dependencies": [...]})`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			formatter.PrintInfo(fmt.Sprintf("发布包: %s", publishPackagePath))
			res, err := a.Expansion.Publish(ctx, publishPackagePath)
			if err != nil {
				return err
			}
			formatter.PrintSuccess("包已发布")
			return formatter.Print(output.NewPublishView(res))
		})
	},
}

// startCmd 创建演示场景
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "创建演示场景 (scenes::create_scene)",
	RunE: func(cmd *cobra.Command, args []string) error {
		pkg, err := types.ParseObjectID(expansionPackageID)
		if err != nil {
			return fmt.Errorf("--expansion-package-id: %w", err)
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			sceneID, out, err := a.Expansion.CreateScene(ctx, pkg, expansion.MockScene())
			if err != nil {
				return err
			}
			formatter.PrintSuccess(fmt.Sprintf("场景已创建: %s", sceneID))
			return formatter.Print(output.NewOutcomeView(callName(expansion.ModuleScenes, expansion.FunctionCreateScene), out))
		})
	},
}

// mintXCoinCmd 铸造 xcoin
var mintXCoinCmd = &cobra.Command{
	Use:   "mint-xcoin",
	Short: "铸造 xcoin (xcoin::mint)",
	RunE: func(cmd *cobra.Command, args []string) error {
		pkg, err := types.ParseObjectID(expansionPackageID)
		if err != nil {
			return fmt.Errorf("--expansion-package-id: %w", err)
		}
		state, err := types.ParseObjectID(xcoinObjectID)
		if err != nil {
			return fmt.Errorf("--xcoin-object-id: %w", err)
		}
		target, err := types.ParseAddress(mintTarget)
		if err != nil {
			return fmt.Errorf("--target: %w", err)
		}

		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			out, err := a.Expansion.MintXCoin(ctx, pkg, expansion.CoinMintParameter{
				ObjectID:  state,
				Amount:    mintAmount,
				Recipient: target,
			})
			if err != nil {
				return err
			}
			return formatter.Print(output.NewOutcomeView(callName(expansion.ModuleXCoin, expansion.FunctionMint), out))
		})
	},
}

// enterCmd 质押进入场景
var enterCmd = &cobra.Command{
	Use:   "enter <expansion_package_id> <scene_object_id> <stake_xcoin_id> <participant>",
	Short: "质押 xcoin 进入场景 (scenes::participant_enter)",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]types.ObjectID, 3)
		for i, name := range []string{"expansion_package_id", "scene_object_id", "stake_xcoin_id"} {
			id, err := types.ParseObjectID(args[i])
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			ids[i] = id
		}
		participant, err := types.ParseAddress(args[3])
		if err != nil {
			return fmt.Errorf("participant: %w", err)
		}

		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			out, err := a.Expansion.Enter(ctx, ids[0], expansion.EnterParameter{
				SceneObjectID: ids[1],
				StakeXCoinID:  ids[2],
				Participant:   participant,
			})
			if err != nil {
				return err
			}
			return formatter.Print(output.NewOutcomeView(callName(expansion.ModuleScenes, expansion.FunctionParticipantEnter), out))
		})
	},
}

func callName(module, function string) string {
	return module + "::" + function
}

func init() {
	publishCmd.Flags().StringVar(&publishPackagePath, "package-path", "", "Move 包路径")
	_ = publishCmd.MarkFlagRequired("package-path")

	startCmd.Flags().StringVar(&expansionPackageID, "expansion-package-id", "", "expansion 包 ID")
	_ = startCmd.MarkFlagRequired("expansion-package-id")

	mintXCoinCmd.Flags().StringVar(&expansionPackageID, "expansion-package-id", "", "expansion 包 ID")
	mintXCoinCmd.Flags().StringVar(&xcoinObjectID, "xcoin-object-id", "", "xcoin 托管对象 ID (publish 输出的 state)")
	mintXCoinCmd.Flags().Uint64Var(&mintAmount, "amount", 0, "铸造数量")
	mintXCoinCmd.Flags().StringVar(&mintTarget, "target", "", "接收地址")
	for _, name := range []string{"expansion-package-id", "xcoin-object-id", "amount", "target"} {
		_ = mintXCoinCmd.MarkFlagRequired(name)
	}
}
