package main

import (
	"github.com/aretw0/palette/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [actions]",
	Short: "Run the palette as a line-oriented prompt",
	Long: `Starts the palette over the given definitions and reads one command per line:
plain text sets the query, :up/:down move, :enter commits, :back goes back,
:drill <id> drills in, :key <token> feeds a key, :open/:close toggle, q quits.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		headless, _ := cmd.Flags().GetBool("headless")
		watchMode, _ := cmd.Flags().GetBool("watch")
		jsonMode, _ := cmd.Flags().GetBool("json")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.Execute(ctx, cli.RunOptions{
			Config:   cfg,
			Headless: headless,
			Watch:    watchMode,
			JSON:     jsonMode,
			Debug:    debugFlag(cmd),
			In:       cmd.InOrStdin(),
			Out:      cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("headless", false, "Run in headless mode (no prompts, strict IO)")
	runCmd.Flags().Bool("json", false, "Write every view as one JSON line")
	runCmd.Flags().BoolP("watch", "w", false, "Reload definitions when they change")
	runCmd.Flags().Int("limit", 0, "Maximum number of results (0 for all)")
	runCmd.Flags().Duration("shortcut-timeout", 0, "Maximum gap between keys of one shortcut")

	rootCmd.Args = runCmd.Args
	rootCmd.RunE = runCmd.RunE
}
