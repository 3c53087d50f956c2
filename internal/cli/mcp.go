package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/palette"
	"github.com/aretw0/palette/internal/config"
	"github.com/aretw0/palette/pkg/adapters/mcp"
)

// MCPOptions selects the MCP transport.
type MCPOptions struct {
	Config config.Config
	Debug  bool
	// Transport is "stdio" or "sse".
	Transport string
	Addr      string
}

// ServeMCP exposes the palette as MCP tools until ctx is done or stdin closes.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	// Logs go to stderr; stdout carries JSON-RPC in stdio mode.
	logger, err := NewLogger(opts.Config.Log, opts.Debug)
	if err != nil {
		return err
	}
	engine, err := NewEngine(ctx, EngineOptions{Config: opts.Config, Logger: logger})
	if err != nil {
		return err
	}
	defer engine.Close()

	sessions, closeStore, err := NewSessionManager(ctx, opts.Config, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	go reloadOnChange(ctx, engine, nil)

	srv := mcp.NewServer(engine, sessions, NavigatorFactory(engine), palette.Version, mcp.WithLogger(logger))
	switch opts.Transport {
	case "", "stdio":
		logger.Info("starting MCP server", "transport", "stdio")
		return srv.ServeStdio()
	case "sse":
		logger.Info("starting MCP server", "transport", "sse", "addr", opts.Addr)
		if err := srv.ServeSSE(ctx, opts.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", opts.Transport)
	}
}
