// Package graph renders the action tree as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/palette/pkg/domain"
)

// Overlay highlights navigation state on the diagram.
type Overlay struct {
	// ScopeIDs are the scopes on the stack, root excluded.
	ScopeIDs []string
	// ActiveID is the highlighted result.
	ActiveID string
}

// OverlayFrom builds an Overlay from a session state and its active result.
func OverlayFrom(state domain.NavigationState, activeID string) *Overlay {
	o := &Overlay{ActiveID: activeID}
	for _, id := range state.ScopeStack {
		if id != "" {
			o.ScopeIDs = append(o.ScopeIDs, id)
		}
	}
	if state.CurrentRootID != "" {
		o.ScopeIDs = append(o.ScopeIDs, state.CurrentRootID)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart from nodes in display order.
// It applies semantic styling:
// - Group: ([Stadium])
// - Leaf: [Rectangle]
// Root actions sharing a section are wrapped in a subgraph, and shortcuts are
// appended to the label.
func GenerateMermaid(nodes []domain.ActionNode, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	// Root sections in first-seen order.
	var sections []string
	bySection := make(map[string][]domain.ActionNode)
	for _, n := range nodes {
		if n.ParentID != "" || n.Section == "" {
			continue
		}
		if _, ok := bySection[n.Section]; !ok {
			sections = append(sections, n.Section)
		}
		bySection[n.Section] = append(bySection[n.Section], n)
	}

	for i, section := range sections {
		fmt.Fprintf(&sb, "    subgraph section_%d[\"%s\"]\n", i, escapeLabel(section))
		for _, n := range bySection[section] {
			sb.WriteString("    " + nodeLine(n))
		}
		sb.WriteString("    end\n")
	}
	for _, n := range nodes {
		if n.ParentID == "" && n.Section != "" {
			continue
		}
		sb.WriteString(nodeLine(n))
	}

	for _, n := range nodes {
		if n.ParentID == "" {
			continue
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(n.ParentID), sanitizeMermaidID(n.ID))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef scope fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef active fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		seen := make(map[string]bool)
		for _, id := range overlay.ScopeIDs {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s scope;\n", safeID)
			}
		}
		if overlay.ActiveID != "" {
			fmt.Fprintf(&sb, "    class %s active;\n", sanitizeMermaidID(overlay.ActiveID))
		}
	}
	return sb.String()
}

func nodeLine(n domain.ActionNode) string {
	opener, closer := "[", "]"
	if n.HasChildren() {
		opener, closer = "([", "])"
	}
	label := escapeLabel(n.Name)
	if len(n.Shortcut) > 0 {
		label += " <br/> ⌨ " + escapeLabel(strings.Join(n.Shortcut, " "))
	}
	return fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(n.ID), opener, label, closer)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
