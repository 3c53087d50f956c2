package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Modifier represents keyboard modifier flags.
type Modifier uint8

// Hosts send these bits in KeyEvent.Modifiers: ctrl=1, alt=2, shift=4, meta=8.
const (
	ModCtrl Modifier = 1 << iota
	ModAlt
	ModShift
	ModMeta
)

// ModNone is the absence of modifiers.
const ModNone Modifier = 0

// modifierNames is the canonical order used when rendering tokens.
var modifierNames = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "ctrl"},
	{ModAlt, "alt"},
	{ModShift, "shift"},
	{ModMeta, "meta"},
}

var modifierAliases = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"shift":   ModShift,
	"meta":    ModMeta,
	"cmd":     ModMeta,
	"command": ModMeta,
	"super":   ModMeta,
	"$mod":    ModMeta,
}

var keyAliases = map[string]string{
	"escape":     "esc",
	"return":     "enter",
	" ":          "space",
	"spacebar":   "space",
	"del":        "delete",
	"arrowup":    "up",
	"arrowdown":  "down",
	"arrowleft":  "left",
	"arrowright": "right",
	"pageup":     "pgup",
	"page_up":    "pgup",
	"pagedown":   "pgdown",
	"page_down":  "pgdown",
	"plus":       "+",
}

// KeyEvent is a raw key press forwarded by the host.
// Time may be zero, in which case the matcher uses its own clock.
type KeyEvent struct {
	Key       string    `json:"key"`
	Modifiers Modifier  `json:"modifiers,omitempty"`
	Time      time.Time `json:"time,omitempty"`
}

// IsModifierOnly reports whether the event is a bare Shift/Ctrl/Alt/Meta press.
func (e KeyEvent) IsModifierOnly() bool {
	_, ok := modifierAliases[strings.ToLower(strings.TrimSpace(e.Key))]
	return ok
}

// Token renders the event as a canonical shortcut token.
func (e KeyEvent) Token() string {
	tok, err := ParseKeyToken(e.Key)
	if err != nil {
		return ""
	}
	if e.Modifiers == ModNone {
		return tok
	}
	mods, key := splitToken(tok)
	return joinToken(mods|e.Modifiers, key)
}

// ParseKeyToken converts a token like "Ctrl+K" into its canonical form ("ctrl+k").
// Modifiers are ordered ctrl, alt, shift, meta. A bare printable character keeps its case
// so "G" and "g" stay distinct.
func ParseKeyToken(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty token", ErrInvalidShortcut)
	}
	if s == "+" || s == " " {
		return normalizeKeyName(s), nil
	}

	parts := strings.Split(s, "+")
	// A trailing "+" means the key itself is plus, e.g. "ctrl++".
	if strings.HasSuffix(s, "++") {
		parts = append(strings.Split(strings.TrimSuffix(s, "++"), "+"), "+")
	}

	var mods Modifier
	key := ""
	for i, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" && part != " " {
			return "", fmt.Errorf("%w: %q", ErrInvalidShortcut, s)
		}
		if m, ok := modifierAliases[strings.ToLower(trimmed)]; ok && i < len(parts)-1 {
			mods |= m
			continue
		}
		if i != len(parts)-1 {
			return "", fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidShortcut, trimmed, s)
		}
		key = part
	}

	if key == "" {
		return "", fmt.Errorf("%w: %q has no key", ErrInvalidShortcut, s)
	}
	key = normalizeKeyName(key)
	if mods != ModNone && utf8.RuneCountInString(key) == 1 {
		key = strings.ToLower(key)
	}
	return joinToken(mods, key), nil
}

// NormalizeShortcut canonicalizes every token of a shortcut sequence.
func NormalizeShortcut(keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		tok, err := ParseKeyToken(k)
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, nil
}

// SplitShortcut turns "g d" into ["g", "d"].
func SplitShortcut(s string) []string {
	return strings.Fields(s)
}

func normalizeKeyName(key string) string {
	if key == " " {
		return "space"
	}
	key = strings.TrimSpace(key)
	if utf8.RuneCountInString(key) == 1 {
		return key
	}
	lower := strings.ToLower(key)
	if alias, ok := keyAliases[lower]; ok {
		return alias
	}
	return lower
}

func splitToken(tok string) (Modifier, string) {
	if tok == "+" {
		return ModNone, tok
	}
	var mods Modifier
	parts := strings.Split(tok, "+")
	if strings.HasSuffix(tok, "++") {
		parts = append(strings.Split(strings.TrimSuffix(tok, "++"), "+"), "+")
	}
	for _, p := range parts[:len(parts)-1] {
		mods |= modifierAliases[p]
	}
	return mods, parts[len(parts)-1]
}

func joinToken(mods Modifier, key string) string {
	if mods == ModNone {
		return key
	}
	var sb strings.Builder
	for _, m := range modifierNames {
		if mods&m.mod != 0 {
			sb.WriteString(m.name)
			sb.WriteByte('+')
		}
	}
	if utf8.RuneCountInString(key) == 1 {
		key = strings.ToLower(key)
	}
	sb.WriteString(key)
	return sb.String()
}
