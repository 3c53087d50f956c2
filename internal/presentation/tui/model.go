package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/palette"
	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/shortcut"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles groups the lipgloss styles of the interactive palette.
type Styles struct {
	Frame    lipgloss.Style
	Crumb    lipgloss.Style
	Section  lipgloss.Style
	Item     lipgloss.Style
	Active   lipgloss.Style
	Subtitle lipgloss.Style
	Keycap   lipgloss.Style
	Status   lipgloss.Style
}

// DefaultStyles returns the built-in theme.
func DefaultStyles() Styles {
	return Styles{
		Frame:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#a78bfa")).Padding(0, 1),
		Crumb:    lipgloss.NewStyle().Foreground(lipgloss.Color("#c084fc")),
		Section:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#94a3b8")).MarginTop(1),
		Item:     lipgloss.NewStyle().PaddingLeft(2),
		Active:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f8fafc")).Background(lipgloss.Color("#6d28d9")).PaddingLeft(2),
		Subtitle: lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8")),
		Keycap:   lipgloss.NewStyle().Foreground(lipgloss.Color("#e2e8f0")).Background(lipgloss.Color("#334155")).Padding(0, 1),
		Status:   lipgloss.NewStyle().Faint(true),
	}
}

// Model is the bubbletea model of an interactive palette over the engine's
// default session. While the palette is closed, keys are fed to the shortcut
// matcher; while it is open, they edit the query.
type Model struct {
	ctx       context.Context
	engine    *palette.Engine
	sess      *palette.Session
	input     textinput.Model
	styles    Styles
	toggleKey string
	maxRows   int

	message  string
	width    int
	quitting bool
}

// NewModel creates a Model with the palette open at the root.
func NewModel(ctx context.Context, engine *palette.Engine) Model {
	in := textinput.New()
	in.Placeholder = "Type a command or search…"
	in.Prompt = "› "
	in.Focus()

	m := Model{
		ctx:       ctx,
		engine:    engine,
		sess:      engine.Session(),
		input:     in,
		styles:    DefaultStyles(),
		toggleKey: palette.DefaultToggleKey,
		maxRows:   12,
	}
	if err := m.sess.Open(ctx, ""); err != nil {
		m.message = err.Error()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if !m.sess.IsOpen() {
			return m.updateClosed(msg)
		}
		return m.updateOpen(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateClosed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tok, err := domain.ParseKeyToken(msg.String())
	if err != nil {
		return m, nil
	}
	out, err := m.sess.HandleKey(m.ctx, domain.KeyEvent{Key: tok})
	if err != nil {
		m.message = err.Error()
		return m, nil
	}
	if out.Kind != domain.OutcomeNone {
		m.message = Describe(out)
		m.syncInput()
		return m, nil
	}
	if m.sess.Matcher().State() != shortcut.Idle {
		return m, nil
	}

	switch tok {
	case m.toggleKey:
		m.message = ""
		if err := m.sess.Open(m.ctx, ""); err != nil {
			m.message = err.Error()
		}
		m.syncInput()
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateOpen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "ctrl+p", "shift+tab":
		m.sess.MoveActive(m.ctx, -1)
		return m, nil
	case "down", "ctrl+n", "tab":
		m.sess.MoveActive(m.ctx, 1)
		return m, nil
	case "enter":
		out, err := m.sess.Commit(m.ctx)
		if err != nil {
			m.message = err.Error()
		} else {
			m.message = Describe(out)
		}
		m.syncInput()
		return m, nil
	case "esc":
		m.back()
		return m, nil
	case "backspace":
		if m.input.Value() == "" {
			m.back()
			return m, nil
		}
	case m.toggleKey:
		m.sess.Close(m.ctx)
		m.message = ""
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.sess.SetQuery(m.ctx, after)
		m.message = ""
		if strings.TrimSpace(after) != "" && len(m.sess.Visible(m.ctx)) == 0 {
			if hints := m.engine.Suggest(after, 3); len(hints) > 0 {
				m.message = "did you mean: " + strings.Join(hints, ", ")
			}
		}
	}
	return m, cmd
}

func (m *Model) back() {
	if m.sess.Back(m.ctx) {
		m.message = ""
	}
	m.syncInput()
}

// syncInput mirrors the session query after scope changes reset it.
func (m *Model) syncInput() {
	m.input.SetValue(m.sess.State().Query)
	m.input.CursorEnd()
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.styles
	status := s.Status.Render(fmt.Sprintf("%s to open · q to quit", m.toggleKey))

	if !m.sess.IsOpen() {
		var sb strings.Builder
		if m.message != "" {
			sb.WriteString(m.message + "\n")
		}
		sb.WriteString(status)
		return sb.String()
	}

	v := m.engine.CurrentView(m.ctx, m.message)
	var rows []string
	if len(v.Scope) > 0 {
		names := make([]string, len(v.Scope))
		for i, c := range v.Scope {
			names[i] = c.Name
		}
		rows = append(rows, s.Crumb.Render(strings.Join(names, " › ")))
	}
	rows = append(rows, m.input.View())

	start, end := window(len(v.Results), v.State.ActiveIndex, m.maxRows)
	section := ""
	for i := start; i < end; i++ {
		res := v.Results[i]
		if res.Section != section {
			section = res.Section
			if section != "" {
				rows = append(rows, s.Section.Render(section))
			}
		}
		rows = append(rows, m.renderItem(res, i == v.State.ActiveIndex))
	}
	if len(v.Results) == 0 {
		rows = append(rows, s.Status.Render("no matches"))
	}

	frame := s.Frame
	if m.width > 4 {
		frame = frame.Width(min(m.width-4, 72))
	}
	out := frame.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	if v.Message != "" {
		out += "\n" + s.Status.Render(v.Message)
	}
	return out + "\n" + s.Status.Render("↑/↓ move · enter select · esc back · ctrl+c quit")
}

func (m Model) renderItem(res domain.Result, active bool) string {
	s := m.styles
	name := res.Node.Name
	if res.Node.HasChildren() {
		name += " …"
	}
	line := name
	if res.Node.Subtitle != "" {
		line += " " + s.Subtitle.Render(res.Node.Subtitle)
	}
	for _, k := range res.Node.Shortcut {
		line += " " + s.Keycap.Render(k)
	}
	if active {
		return s.Active.Render(line)
	}
	return s.Item.Render(line)
}

// window returns the slice bounds of at most n rows that keep active visible.
func window(total, active, n int) (int, int) {
	if n <= 0 || total <= n {
		return 0, total
	}
	start := max(active-n/2, 0)
	end := start + n
	if end > total {
		end = total
		start = end - n
	}
	return start, end
}

// Describe summarises an outcome for status lines.
func Describe(out domain.Outcome) string {
	switch out.Kind {
	case domain.OutcomePerformed:
		if out.Err != nil {
			return fmt.Sprintf("%s failed: %v", out.ActionID, out.Err)
		}
		return "performed " + out.ActionID
	case domain.OutcomeOpened:
		return "opened " + out.ActionID
	case domain.OutcomeDrilled:
		return ""
	case domain.OutcomeClosed:
		return "closed"
	}
	return ""
}

// Run starts the interactive palette and blocks until the user quits or ctx is done.
func Run(ctx context.Context, engine *palette.Engine, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(NewModel(ctx, engine), opts...).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
