package main

import (
	"fmt"

	"github.com/aretw0/palette/internal/cli"
	"github.com/aretw0/palette/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [actions]",
	Short: "Export the action tree visualization",
	Long:  `Loads the definitions and outputs a Mermaid diagram (graph TD) of the action tree.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		engine, err := cli.NewEngine(cmd.Context(), cli.EngineOptions{Config: cfg})
		if err != nil {
			return err
		}
		defer engine.Close()

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(engine.Actions(), nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
