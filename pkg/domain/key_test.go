package domain_test

import (
	"testing"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"g", "g"},
		{"G", "G"},
		{"Ctrl+K", "ctrl+k"},
		{"control+k", "ctrl+k"},
		{"shift+ctrl+P", "ctrl+shift+p"},
		{"Cmd+Shift+p", "shift+meta+p"},
		{"Escape", "esc"},
		{"ArrowUp", "up"},
		{" ", "space"},
		{"+", "+"},
		{"ctrl++", "ctrl++"},
		{"F5", "f5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseKeyToken(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeyToken_Invalid(t *testing.T) {
	for _, in := range []string{"", "ctrl+", "hyper+k", "ctrl++k"} {
		t.Run(in, func(t *testing.T) {
			_, err := domain.ParseKeyToken(in)
			assert.ErrorIs(t, err, domain.ErrInvalidShortcut)
		})
	}
}

func TestNormalizeShortcut(t *testing.T) {
	got, err := domain.NormalizeShortcut([]string{"G", "Ctrl+D"})
	require.NoError(t, err)
	assert.Equal(t, []string{"G", "ctrl+d"}, got)

	_, err = domain.NormalizeShortcut([]string{"g", ""})
	assert.ErrorIs(t, err, domain.ErrInvalidShortcut)

	got, err = domain.NormalizeShortcut(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestKeyEvent(t *testing.T) {
	assert.Equal(t, "ctrl+k", domain.KeyEvent{Key: "k", Modifiers: domain.ModCtrl}.Token())
	assert.Equal(t, "ctrl+alt+k", domain.KeyEvent{Key: "alt+K", Modifiers: domain.ModCtrl}.Token())
	assert.Equal(t, "g", domain.KeyEvent{Key: "g"}.Token())

	assert.True(t, domain.KeyEvent{Key: "Shift"}.IsModifierOnly())
	assert.True(t, domain.KeyEvent{Key: "Control", Modifiers: domain.ModCtrl}.IsModifierOnly())
	assert.False(t, domain.KeyEvent{Key: "s"}.IsModifierOnly())
}

func TestSplitShortcut(t *testing.T) {
	assert.Equal(t, []string{"g", "d"}, domain.SplitShortcut("g d"))
	assert.Empty(t, domain.SplitShortcut("   "))
}

func TestModifierBits(t *testing.T) {
	assert.Equal(t, domain.Modifier(0), domain.ModNone)
	assert.Equal(t, domain.Modifier(1), domain.ModCtrl)
	assert.Equal(t, domain.Modifier(2), domain.ModAlt)
	assert.Equal(t, domain.Modifier(4), domain.ModShift)
	assert.Equal(t, domain.Modifier(8), domain.ModMeta)

	assert.Equal(t, "ctrl+k", domain.KeyEvent{Key: "k", Modifiers: 1}.Token())
	assert.Equal(t, "ctrl+shift+k", domain.KeyEvent{Key: "k", Modifiers: 5}.Token())
}
