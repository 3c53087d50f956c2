package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/palette/internal/cli"
	"github.com/aretw0/palette/internal/logging"
	"github.com/aretw0/palette/pkg/session"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage shared palette sessions",
	Long:  `List, inspect, and remove the sessions that serve and mcp keep in Redis.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, closeFn, err := sessionManager(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		sessions, err := mgr.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No active sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Active Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the navigation state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, closeFn, err := sessionManager(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		state, err := mgr.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, closeFn, err := sessionManager(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		var errs []error
		for _, sessionID := range args {
			if err := mgr.Delete(cmd.Context(), sessionID); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", sessionID, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}

func sessionManager(cmd *cobra.Command) (*session.Manager, func() error, error) {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Redis.Addr == "" {
		return nil, nil, errors.New("sessions are only persisted in redis; set --redis or redis.addr")
	}
	return cli.NewSessionManager(cmd.Context(), cfg, logging.NewNop())
}
