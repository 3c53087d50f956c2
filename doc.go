/*
Package palette is the non-visual engine behind a command palette: a registry of
user-invocable actions organised as a tree, searchable by fuzzy text match, navigable
by drilling into sub-menus and triggerable by keyboard shortcuts.

# Concept

Actions live in a single tree owned by the Engine. Hosts (a terminal, an HTTP server,
an MCP agent) open Sessions over that tree; every session has its own scope stack,
query, highlighted result and shortcut state. The engine never paints anything: it
hands ranked results to the host and calls back into the host when an action is
performed.

# Key Features

  - Action tree with atomic registration, subtree removal and cycle-safe reparenting.
  - Tiered ranking: exact name, prefix, word prefix, substring, subsequence, keyword, section.
  - Multi-key shortcuts ("g d") with a timeout window and conflict reporting.
  - Declarative action files loaded through ports.ActionLoader, with hot reload.

# Usage

	eng := palette.New(palette.WithLogger(logger))
	_ = eng.Register(
		domain.ActionNode{ID: "theme", Name: "Change theme…", Shortcut: []string{"t"}},
		domain.ActionNode{ID: "dark", Name: "Dark", ParentID: "theme", Perform: domain.Do(setDark)},
	)

	sess := eng.Session()
	_ = sess.Open(ctx, "")
	sess.SetQuery(ctx, "dark")
	outcome, _ := sess.Commit(ctx)
*/
package palette
