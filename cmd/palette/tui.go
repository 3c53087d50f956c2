package main

import (
	"github.com/aretw0/palette/internal/cli"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [actions]",
	Short: "Open the full-screen interactive palette",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.RunInteractive(ctx, cli.RunOptions{Config: cfg, Debug: debugFlag(cmd)})
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
