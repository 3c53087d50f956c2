package main

import (
	"fmt"
	"os"

	"github.com/aretw0/palette/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "palette",
	Short:        "Palette is a keyboard-driven command palette engine",
	Long:         `Palette loads actions from YAML or JSON files and lets you search, drill into and trigger them by name or key sequence.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default: palette.yaml in . or ~/.config/palette)")
	pf.String("actions", "", "Action definition file or directory")
	pf.String("tools", "", "Allow-listed tools file")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.Bool("debug", false, "Shorthand for --log-level=debug")
	pf.String("redis", "", "Redis address for shared sessions")
}

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"actions":          "actions",
	"tools":            "tools",
	"log.level":        "log-level",
	"redis.addr":       "redis",
	"http.addr":        "addr",
	"metrics.addr":     "metrics-addr",
	"search.limit":     "limit",
	"shortcut.timeout": "shortcut-timeout",
}

// loadConfig resolves the configuration for cmd. A positional argument, when
// given, names the action definitions.
func loadConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	v, err := config.New(file)
	if err != nil {
		return config.Config{}, err
	}
	if err := config.BindFlags(v, cmd.Flags(), flagKeys); err != nil {
		return config.Config{}, err
	}
	if len(args) > 0 && !cmd.Flags().Changed("actions") {
		v.Set("actions", args[0])
	}
	return config.Load(v)
}

func debugFlag(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}
