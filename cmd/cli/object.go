package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expansion/v1/client/core/output"
	"github.com/expansion/v1/internal/app"
	"github.com/expansion/v1/pkg/types"
)

var objectAsScene bool

// objectCmd 读取链上实体
var objectCmd = &cobra.Command{
	Use:   "object <object_id>",
	Short: "读取链上实体",
	Long:  "读取链上实体的类型、所有者与字段；--scene 按场景结构解码字段",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := types.ParseObjectID(args[0])
		if err != nil {
			return fmt.Errorf("object_id: %w", err)
		}

		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			if objectAsScene {
				scene, err := a.Expansion.Scene(ctx, id)
				if err != nil {
					return err
				}
				return formatter.Print(map[string]interface{}{
					"id":               scene.ID.ID,
					"power":            uint64(scene.Power),
					"radius":           uint64(scene.Radius),
					"equilibrium":      uint64(scene.Equilibrium),
					"frames":           uint64(scene.Frames),
					"frame_interval":   uint64(scene.FrameInterval),
					"next_frame_block": uint64(scene.NextFrameBlock),
					"max_participant":  uint64(scene.MaxParticipant),
					"min_stake_amount": uint64(scene.MinStakeAmount),
				})
			}

			obj, err := a.Expansion.Object(ctx, id)
			if err != nil {
				return err
			}
			return formatter.Print(output.NewObjectView(obj))
		})
	},
}

func init() {
	objectCmd.Flags().BoolVar(&objectAsScene, "scene", false, "按 scenes::Scene 解码")
}
