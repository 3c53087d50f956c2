package palette

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/shortcut"
)

// DefaultToggleKey opens and closes the palette when no action binds it.
const DefaultToggleKey = "ctrl+k"

// View is what a runner shows after every command.
type View struct {
	State   domain.NavigationState `json:"state"`
	Results []domain.Result        `json:"results"`
	// Scope is the breadcrumb of the current root, root first.
	Scope []domain.Crumb `json:"scope,omitempty"`
	// Message is feedback about the last command.
	Message string `json:"message,omitempty"`
}

// ViewRenderer turns a View into text. This keeps colour and layout out of the
// core package.
type ViewRenderer func(View) string

// Runner drives the engine's default session from line-oriented input.
// One command per line: plain text sets the query, ":up"/":down" move the
// highlight, ":enter" commits, ":back" goes back, ":drill <id>" drills in,
// ":key <token>" feeds a key event, ":open"/":close" toggle the palette and
// "q", "quit" or "exit" stop the loop.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	// JSON writes each View as one JSON line instead of text.
	JSON      bool
	Renderer  ViewRenderer
	ToggleKey string
}

// NewRunner creates a Runner over the given IO.
func NewRunner(in io.Reader, out io.Writer) *Runner {
	return &Runner{
		Input:     in,
		Output:    out,
		ToggleKey: DefaultToggleKey,
	}
}

// Run executes the command loop until quit, EOF or ctx is done.
func (r *Runner) Run(ctx context.Context, engine *Engine) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewScanner(r.Input)
	sess := engine.Session()

	if !r.Headless && !r.JSON {
		fmt.Fprintln(r.Output, "--- palette ---")
	}
	if err := sess.Open(ctx, ""); err != nil {
		return err
	}
	if err := r.show(ctx, engine, ""); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		if !r.Headless && !r.JSON {
			fmt.Fprint(r.Output, "> ")
		}
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			return nil
		}

		line := strings.TrimRight(lines.Text(), "\r\n")
		msg, quit, err := r.Exec(ctx, engine, line)
		if err != nil {
			msg = "error: " + err.Error()
		}
		if quit {
			if !r.Headless && !r.JSON {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return nil
		}
		if err := r.show(ctx, engine, msg); err != nil {
			return err
		}
	}
}

// Exec applies a single command line to the default session.
func (r *Runner) Exec(ctx context.Context, engine *Engine, line string) (msg string, quit bool, err error) {
	sess := engine.Session()
	trimmed := strings.TrimSpace(line)

	switch trimmed {
	case "q", "quit", "exit":
		return "", true, nil
	}
	if !strings.HasPrefix(trimmed, ":") {
		if !sess.IsOpen() {
			if err := sess.Open(ctx, ""); err != nil {
				return "", false, err
			}
		}
		sess.SetQuery(ctx, line)
		if trimmed != "" && len(sess.Visible(ctx)) == 0 {
			if hints := engine.Suggest(trimmed, 3); len(hints) > 0 {
				return "did you mean: " + strings.Join(hints, ", "), false, nil
			}
			return "no matches", false, nil
		}
		return "", false, nil
	}

	cmd, arg, _ := strings.Cut(trimmed[1:], " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "up":
		sess.MoveActive(ctx, -1)
	case "down":
		sess.MoveActive(ctx, 1)
	case "enter":
		out, err := sess.Commit(ctx)
		if err != nil {
			return "", false, err
		}
		return describe(out), false, nil
	case "back":
		if sess.Back(ctx) {
			return "closed", false, nil
		}
	case "drill":
		if arg == "" {
			return "", false, errors.New("usage: :drill <id>")
		}
		return "", false, sess.DrillInto(ctx, arg)
	case "key":
		return r.key(ctx, sess, arg)
	case "open":
		return "", false, sess.Open(ctx, arg)
	case "close":
		sess.Close(ctx)
		return "closed", false, nil
	default:
		return "", false, fmt.Errorf("unknown command %q", ":"+cmd)
	}
	return "", false, nil
}

func (r *Runner) key(ctx context.Context, sess *Session, token string) (string, bool, error) {
	if token == "" {
		return "", false, errors.New("usage: :key <token>")
	}
	tok, err := domain.ParseKeyToken(token)
	if err != nil {
		return "", false, err
	}
	out, err := sess.HandleKey(ctx, domain.KeyEvent{Key: tok})
	if err != nil {
		return "", false, err
	}
	if out.Kind == domain.OutcomeNone && r.ToggleKey != "" && tok == r.ToggleKey && sess.Matcher().State() == shortcut.Idle {
		if err := sess.Toggle(ctx); err != nil {
			return "", false, err
		}
		if !sess.IsOpen() {
			return "closed", false, nil
		}
		return "", false, nil
	}
	return describe(out), false, nil
}

func describe(out domain.Outcome) string {
	switch out.Kind {
	case domain.OutcomePerformed:
		if out.Err != nil {
			return fmt.Sprintf("%s failed: %v", out.ActionID, out.Err)
		}
		return "performed " + out.ActionID
	case domain.OutcomeOpened:
		return "opened " + out.ActionID
	case domain.OutcomeClosed:
		return "closed"
	}
	return ""
}

// CurrentView assembles the View of the default session.
func (e *Engine) CurrentView(ctx context.Context, msg string) View {
	sess := e.Session()
	v := View{
		Results: sess.Visible(ctx),
		State:   sess.State(),
		Message: msg,
	}
	if root := v.State.CurrentRootID; root != "" {
		if chain, err := e.tree.Ancestors(root); err == nil {
			for _, a := range chain {
				v.Scope = append(v.Scope, domain.Crumb{ID: a.ID, Name: a.Name})
			}
		}
		if n, ok := e.tree.Get(root); ok {
			v.Scope = append(v.Scope, domain.Crumb{ID: n.ID, Name: n.Name})
		}
	}
	return v
}

func (r *Runner) show(ctx context.Context, engine *Engine, msg string) error {
	v := engine.CurrentView(ctx, msg)
	if r.JSON {
		return json.NewEncoder(r.Output).Encode(v)
	}
	render := r.Renderer
	if render == nil {
		render = PlainRenderer
	}
	_, err := fmt.Fprint(r.Output, render(v))
	return err
}

// PlainRenderer renders a View without colour. Section labels are printed
// whenever the section changes between consecutive results.
func PlainRenderer(v View) string {
	var sb strings.Builder
	if v.Message != "" {
		sb.WriteString(v.Message)
		sb.WriteByte('\n')
	}
	if !v.State.Open {
		sb.WriteString("(palette closed)\n")
		return sb.String()
	}
	if len(v.Scope) > 0 {
		names := make([]string, len(v.Scope))
		for i, c := range v.Scope {
			names[i] = c.Name
		}
		sb.WriteString("[" + strings.Join(names, " > ") + "]\n")
	}
	section := ""
	for i, res := range v.Results {
		if res.Section != section {
			section = res.Section
			if section != "" {
				sb.WriteString(section + "\n")
			}
		}
		marker := "  "
		if i == v.State.ActiveIndex {
			marker = "> "
		}
		sb.WriteString(marker + res.Node.Name)
		if res.Node.HasChildren() {
			sb.WriteString(" …")
		}
		if res.Node.Subtitle != "" {
			sb.WriteString(" - " + res.Node.Subtitle)
		}
		if len(res.Node.Shortcut) > 0 {
			sb.WriteString(" [" + strings.Join(res.Node.Shortcut, " ") + "]")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
