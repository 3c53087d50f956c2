package main

import (
	"fmt"

	"github.com/aretw0/palette/internal/validator"
	"github.com/aretw0/palette/pkg/adapters/file"
	"github.com/aretw0/palette/pkg/adapters/process"
	"github.com/aretw0/palette/pkg/registry"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [actions]",
	Short: "Check action definitions for consistency",
	Long: `Reports duplicate ids, unknown parents, cycles, invalid shortcuts and perform
names missing from the tools file. Shortcut conflicts are warnings unless --strict is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		strict, _ := cmd.Flags().GetBool("strict")

		tools, err := process.LoadTools(cfg.Tools)
		if err != nil {
			return err
		}
		reg := registry.NewRegistry()
		process.NewRunner(process.WithRegistry(tools)).Bind(reg)

		report, err := validator.ValidateActions(cmd.Context(), file.New(cfg.Actions), reg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, w := range report.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		if err := report.Err(strict); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(out, "%d actions are valid! ✅\n", report.Actions)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Treat shortcut conflicts as errors")
}
