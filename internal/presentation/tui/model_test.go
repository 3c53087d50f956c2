package tui

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/palette"
	"github.com/aretw0/palette/pkg/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, performed *[]string) *palette.Engine {
	t.Helper()
	record := func(id string) domain.Perform {
		return domain.Do(func(context.Context) error {
			*performed = append(*performed, id)
			return nil
		})
	}
	eng := palette.New()
	require.NoError(t, eng.Register(
		domain.ActionNode{ID: "home", Name: "Home", Shortcut: []string{"g", "h"}, Perform: record("home")},
		domain.ActionNode{ID: "theme", Name: "Change theme", Section: "Preferences"},
		domain.ActionNode{ID: "dark", Name: "Dark", ParentID: "theme", Perform: record("dark")},
		domain.ActionNode{ID: "light", Name: "Light", ParentID: "theme", Perform: record("light")},
	))
	t.Cleanup(eng.Close)
	return eng
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func TestModel_SearchAndCommit(t *testing.T) {
	var performed []string
	eng := newEngine(t, &performed)
	m := NewModel(context.Background(), eng)

	assert.Contains(t, m.View(), "Home")
	assert.Contains(t, m.View(), "Preferences")

	m, _ = send(t, m, runes("d"), runes("a"), runes("r"))
	assert.Equal(t, "dar", eng.Session().State().Query)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"dark"}, performed)
	assert.False(t, eng.Session().IsOpen())
	assert.Contains(t, m.View(), "performed dark")
	assert.Empty(t, m.input.Value())
}

func TestModel_DrillAndBack(t *testing.T) {
	var performed []string
	eng := newEngine(t, &performed)
	m := NewModel(context.Background(), eng)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "theme", eng.Session().State().CurrentRootID)
	assert.Contains(t, m.View(), "Change theme")
	assert.Contains(t, m.View(), "Light")

	// Backspace on an empty query pops the scope.
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Empty(t, eng.Session().State().CurrentRootID)
	assert.True(t, eng.Session().IsOpen())

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, eng.Session().IsOpen())
	assert.Contains(t, m.View(), "ctrl+k to open")
	assert.Empty(t, performed)
}

func TestModel_ShortcutsWhileClosed(t *testing.T) {
	var performed []string
	eng := newEngine(t, &performed)
	m := NewModel(context.Background(), eng)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	require.False(t, eng.Session().IsOpen())

	m, _ = send(t, m, runes("g"), runes("h"))
	assert.Equal(t, []string{"home"}, performed)
	assert.Contains(t, m.View(), "performed home")

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	assert.True(t, eng.Session().IsOpen())

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	m, cmd := send(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}

func TestModel_Suggestion(t *testing.T) {
	var performed []string
	eng := newEngine(t, &performed)
	m := NewModel(context.Background(), eng)

	m, _ = send(t, m, runes("h"), runes("m"), runes("o"), runes("e"))
	assert.Contains(t, m.View(), "did you mean: Home")
}

func TestWindow(t *testing.T) {
	start, end := window(5, 4, 10)
	assert.Equal(t, [2]int{0, 5}, [2]int{start, end})

	start, end = window(30, 0, 10)
	assert.Equal(t, [2]int{0, 10}, [2]int{start, end})

	start, end = window(30, 29, 10)
	assert.Equal(t, [2]int{20, 30}, [2]int{start, end})

	start, end = window(30, 15, 10)
	assert.Equal(t, [2]int{10, 20}, [2]int{start, end})
}

func TestRenderer_AsciiMatchesPlain(t *testing.T) {
	var buf bytes.Buffer
	render := NewRenderer(termenv.NewOutput(&buf, termenv.WithProfile(termenv.Ascii)))

	var performed []string
	eng := newEngine(t, &performed)
	ctx := context.Background()
	require.NoError(t, eng.Session().Open(ctx, ""))

	v := eng.CurrentView(ctx, "hello")
	assert.Equal(t, palette.PlainRenderer(v), render(v))

	eng.Session().Close(ctx)
	v = eng.CurrentView(ctx, "")
	assert.Equal(t, "(palette closed)\n", render(v))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3\n")
	assert.Contains(t, buf.String(), "v1.2.3")
	assert.Contains(t, buf.String(), "|_|")
}
