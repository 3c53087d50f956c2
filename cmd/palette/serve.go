package main

import (
	"github.com/aretw0/palette/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [actions]",
	Short: "Start the HTTP server",
	Long: `Exposes search, navigation sessions and shortcut handling as a JSON API, with
server-sent events for state changes and Prometheus metrics on /metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.Serve(ctx, cfg, debugFlag(cmd))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default :8080)")
	serveCmd.Flags().String("metrics-addr", "", "Serve /metrics on a separate address")
	serveCmd.Flags().Int("limit", 0, "Maximum number of results (0 for all)")
}
