package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/palette"
	"github.com/aretw0/palette/internal/config"
	"github.com/aretw0/palette/internal/presentation/tui"
	"github.com/muesli/termenv"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Config   config.Config
	Headless bool
	Watch    bool
	JSON     bool
	Debug    bool

	In  io.Reader
	Out io.Writer
}

func (o *RunOptions) defaults() {
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
}

// Execute handles the run command, dispatching to session or watch mode.
func Execute(ctx context.Context, opts RunOptions) error {
	if opts.Watch && (opts.Headless || opts.JSON) {
		return fmt.Errorf("--watch cannot be combined with --headless or --json")
	}
	opts.defaults()

	logger, err := NewLogger(opts.Config.Log, opts.Debug)
	if err != nil {
		return err
	}
	engine, err := NewEngine(ctx, EngineOptions{Config: opts.Config, Logger: logger, Output: opts.Out})
	if err != nil {
		return err
	}
	defer engine.Close()

	if opts.Watch {
		return RunWatch(ctx, engine, opts)
	}
	return RunSession(ctx, engine, opts)
}

// RunSession drives the engine's default session from line input until quit or EOF.
func RunSession(ctx context.Context, engine *palette.Engine, opts RunOptions) error {
	opts.defaults()
	quiet := opts.Headless || opts.JSON
	if !quiet {
		tui.PrintBanner(opts.Out, palette.Version)
	}

	r := palette.NewRunner(opts.In, opts.Out)
	r.Headless = opts.Headless
	r.JSON = opts.JSON
	if out := terminalOf(opts.Out); !quiet && tui.IsTerminal(out) {
		r.Renderer = tui.NewRenderer(termenv.NewOutput(out))
	}
	return handleExecutionError(r.Run(ctx, engine))
}

// RunInteractive starts the full-screen palette.
func RunInteractive(ctx context.Context, opts RunOptions) error {
	logger, err := NewLogger(opts.Config.Log, opts.Debug)
	if err != nil {
		return err
	}
	engine, err := NewEngine(ctx, EngineOptions{Config: opts.Config, Logger: logger})
	if err != nil {
		return err
	}
	defer engine.Close()

	go reloadOnChange(ctx, engine, nil)
	return tui.Run(ctx, engine)
}
