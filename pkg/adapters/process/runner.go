// Package process runs allow-listed local commands as palette perform handlers.
//
// Actions never carry a command line. A definition file names a handler
// (`perform: deploy`) and the handler must have been registered from a trusted tools
// file. Arguments reach the process as PALETTE_ARG_* environment variables, never as
// flags, so action args cannot inject options.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/registry"
)

// DefaultGracePeriod is how long a cancelled process may take to exit after
// being interrupted before it is killed.
const DefaultGracePeriod = 5 * time.Second

// Runner executes registered processes.
// It follows a Strict Registry pattern for security (Allow-Listing).
type Runner struct {
	registry map[string]Tool
	baseDir  string
	grace    time.Duration
	logger   *slog.Logger
	stdout   io.Writer
}

// Result is the captured output of one run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// JSON holds Stdout decoded when it is a JSON object or array.
	JSON any
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(tools map[string]Tool) RunnerOption {
	return func(r *Runner) {
		for name, tool := range tools {
			tool.Name = name
			r.registry[name] = tool
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithGracePeriod overrides DefaultGracePeriod.
func WithGracePeriod(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.grace = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOutput copies the stdout of every successful run to w.
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdout = w
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]Tool),
		grace:    DefaultGracePeriod,
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted script/command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = Tool{
		Name:    name,
		Command: command,
		Args:    args,
	}
}

// Names returns the registered tool names, sorted.
func (r *Runner) Names() []string {
	return slices.Sorted(maps.Keys(r.registry))
}

// Bind registers every tool as a perform handler of the same name.
func (r *Runner) Bind(reg *registry.Registry) {
	for name := range r.registry {
		reg.Register(name, r.Handler(name))
	}
}

// Handler returns a perform handler running tool name for the committed action.
func (r *Runner) Handler(name string) registry.HandlerFunc {
	return func(ctx context.Context, node domain.ActionNode, args map[string]any) error {
		res, err := r.Execute(ctx, name, node, args)
		if err != nil {
			return err
		}
		if r.stdout != nil && res.Stdout != "" {
			fmt.Fprintln(r.stdout, res.Stdout)
		}
		return nil
	}
}

// Execute runs tool name on behalf of node. A non-zero exit is an error carrying
// the exit code and stderr.
func (r *Runner) Execute(ctx context.Context, name string, node domain.ActionNode, args map[string]any) (Result, error) {
	proc, ok := r.registry[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: process tool %q is not registered", domain.ErrHandlerNotFound, name)
	}

	if proc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, proc.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.grace
	cmd.Env = append(cmd.Environ(), environment(proc, node, args)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		r.logger.Warn("process failed", "tool", name, "action_id", node.ID, "exit_code", res.ExitCode, "error", err)
		return res, fmt.Errorf("process %q failed: %w: %s", name, err, res.Stderr)
	}

	r.logger.Debug("process finished", "tool", name, "action_id", node.ID, "duration", time.Since(start))
	if looksLikeJSON(res.Stdout) {
		var v any
		if json.Unmarshal([]byte(res.Stdout), &v) == nil {
			res.JSON = v
		}
	}
	return res, nil
}

// environment renders the action and its args as PALETTE_* variables.
// Primitives are formatted directly; maps and slices are JSON encoded.
func environment(proc Tool, node domain.ActionNode, args map[string]any) []string {
	env := make([]string, 0, len(proc.Environment)+len(args)+2)
	for k, v := range proc.Environment {
		env = append(env, k+"="+v)
	}
	env = append(env,
		"PALETTE_ACTION_ID="+node.ID,
		"PALETTE_ACTION_NAME="+node.Name,
	)
	for _, k := range slices.Sorted(maps.Keys(args)) {
		var val string
		switch v := args[k].(type) {
		case nil:
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		default:
			if b, err := json.Marshal(v); err == nil {
				val = string(b)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, fmt.Sprintf("PALETTE_ARG_%s=%s", envKey(k), val))
	}
	return env
}

func envKey(k string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, k)
}

func looksLikeJSON(s string) bool {
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}
