package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/palette/internal/presentation/graph"
	"github.com/aretw0/palette/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []domain.ActionNode
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Group And Leaf Shapes",
			nodes: []domain.ActionNode{
				{ID: "theme", Name: "Theme", ChildrenIDs: []string{"dark"}},
				{ID: "dark", Name: "Dark", ParentID: "theme"},
			},
			contains: []string{
				`theme(["Theme"])`,
				`dark["Dark"]`,
				"theme --> dark",
			},
		},
		{
			name: "ID Sanitization",
			nodes: []domain.ActionNode{
				{ID: "path/to/file.md", Name: "File"},
				{ID: "hyphen-ated", Name: "Hyphen"},
			},
			contains: []string{
				`path_to_file_md["File"]`,
				`hyphen_ated["Hyphen"]`,
			},
		},
		{
			name: "Shortcut And Quote Escaping",
			nodes: []domain.ActionNode{
				{ID: "say", Name: `Say "hi"`, Shortcut: []string{"g", "s"}},
			},
			contains: []string{
				`say["Say 'hi' <br/> ⌨ g s"]`,
			},
		},
		{
			name: "Root Sections Become Subgraphs",
			nodes: []domain.ActionNode{
				{ID: "home", Name: "Home", Section: "Navigation"},
				{ID: "blog", Name: "Blog", Section: "Navigation"},
				{ID: "quit", Name: "Quit"},
			},
			contains: []string{
				`subgraph section_0["Navigation"]`,
				"    end\n",
				`quit["Quit"]`,
			},
		},
		{
			name: "Overlay",
			nodes: []domain.ActionNode{
				{ID: "theme", Name: "Theme", ChildrenIDs: []string{"dark"}},
				{ID: "dark", Name: "Dark", ParentID: "theme"},
			},
			overlay: graph.OverlayFrom(domain.NavigationState{
				CurrentRootID: "theme",
				ScopeStack:    []string{""},
			}, "dark"),
			contains: []string{
				"class theme scope;",
				"class dark active;",
			},
			excludes: []string{
				"class  scope;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.nodes, tt.overlay)
			if !strings.HasPrefix(got, "graph TD\n") {
				t.Errorf("GenerateMermaid() missing header:\n%v", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, bad)
				}
			}
		})
	}
}
