// Package tui renders palette views for terminals: a colour line renderer for the
// command runner and an interactive bubbletea program.
package tui

import (
	"io"
	"os"
	"strings"

	"github.com/aretw0/palette"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewRenderer returns a ViewRenderer that colours its output for out's profile.
// Ascii profiles produce the same text as palette.PlainRenderer.
func NewRenderer(out *termenv.Output) palette.ViewRenderer {
	p := out.ColorProfile()
	accent := p.Color("#c084fc")
	muted := p.Color("#94a3b8")

	return func(v palette.View) string {
		var sb strings.Builder
		if v.Message != "" {
			sb.WriteString(out.String(v.Message).Foreground(muted).String())
			sb.WriteByte('\n')
		}
		if !v.State.Open {
			sb.WriteString(out.String("(palette closed)").Faint().String())
			sb.WriteByte('\n')
			return sb.String()
		}
		if len(v.Scope) > 0 {
			names := make([]string, len(v.Scope))
			for i, c := range v.Scope {
				names[i] = c.Name
			}
			sb.WriteString(out.String("[" + strings.Join(names, " > ") + "]").Foreground(accent).String())
			sb.WriteByte('\n')
		}

		section := ""
		for i, res := range v.Results {
			if res.Section != section {
				section = res.Section
				if section != "" {
					sb.WriteString(out.String(section).Bold().String())
					sb.WriteByte('\n')
				}
			}

			name := res.Node.Name
			if res.Node.HasChildren() {
				name += " …"
			}
			if i == v.State.ActiveIndex {
				sb.WriteString(out.String("> " + name).Foreground(accent).Bold().String())
			} else {
				sb.WriteString("  " + name)
			}
			if res.Node.Subtitle != "" {
				sb.WriteString(out.String(" - " + res.Node.Subtitle).Foreground(muted).String())
			}
			if len(res.Node.Shortcut) > 0 {
				sb.WriteString(out.String(" [" + strings.Join(res.Node.Shortcut, " ") + "]").Faint().String())
			}
			sb.WriteByte('\n')
		}
		return sb.String()
	}
}
