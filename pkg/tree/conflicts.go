package tree

import (
	"strings"

	"github.com/aretw0/palette/pkg/domain"
)

// detectConflicts finds bindings that can never fire.
//
// Two bindings with the same sequence: the later registration wins.
// A binding whose strict prefix is itself an exact binding is shadowed, since the
// matcher resolves the shorter sequence first.
func detectConflicts(bindings []domain.Binding) []domain.ShortcutConflict {
	var out []domain.ShortcutConflict

	owner := make(map[string]string, len(bindings))
	for _, b := range bindings {
		k := seqKey(b.Keys)
		if prev, ok := owner[k]; ok && prev != b.ActionID {
			out = append(out, domain.ShortcutConflict{
				Kind:     domain.ConflictDuplicate,
				Keys:     b.Keys,
				Winner:   b.ActionID,
				Shadowed: prev,
			})
		}
		owner[k] = b.ActionID
	}

	for _, b := range bindings {
		if owner[seqKey(b.Keys)] != b.ActionID {
			continue
		}
		for i := 1; i < len(b.Keys); i++ {
			if w, ok := owner[seqKey(b.Keys[:i])]; ok {
				out = append(out, domain.ShortcutConflict{
					Kind:     domain.ConflictShadowed,
					Keys:     b.Keys,
					Winner:   w,
					Shadowed: b.ActionID,
				})
				break
			}
		}
	}
	return out
}

// seqKey joins tokens with a space, which never appears inside a canonical token.
func seqKey(keys []string) string {
	return strings.Join(keys, " ")
}

func conflictKey(c domain.ShortcutConflict) string {
	return string(c.Kind) + "|" + seqKey(c.Keys) + "|" + c.Winner + "|" + c.Shadowed
}
