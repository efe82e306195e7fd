package main

import (
	"github.com/spf13/cobra"

	"github.com/expansion/v1/client/core/output"
	"github.com/expansion/v1/internal/app/version"
)

// versionCmd 版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	RunE: func(cmd *cobra.Command, args []string) error {
		if formatter.Format() == output.FormatTable || formatter.Format() == output.FormatText {
			cmd.Println(version.GetFullVersion())
			return nil
		}
		return formatter.Print(version.GetBuildInfo())
	},
}
