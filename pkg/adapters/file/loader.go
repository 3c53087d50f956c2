// Package file loads action definitions from YAML or JSON files.
//
// A file holds either a list of actions or a mapping with an "actions" list.
// Actions nest through "children" or reference a parent by id:
//
//	actions:
//	  - id: theme
//	    name: Change theme…
//	    shortcut: t
//	    children:
//	      - name: Dark
//	        perform: set-theme
//	        args: {theme: dark}
//	  - name: Blog
//	    section: Navigation
//	    shortcut: g b
//	    perform: open-url
//
// Actions without an id get one derived from their file, parent and name.
package file

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/palette/pkg/domain"
)

// Loader implements ports.ActionLoader and ports.Watchable over a file or a
// directory of *.yaml, *.yml and *.json files.
type Loader struct {
	path string
}

// New creates a Loader for path.
func New(path string) *Loader {
	return &Loader{path: filepath.Clean(path)}
}

// Path returns the watched file or directory.
func (l *Loader) Path() string {
	return l.path
}

// LoadActions reads every definition file and returns the specs parents first.
func (l *Loader) LoadActions(ctx context.Context) ([]domain.ActionSpec, error) {
	files, err := l.files()
	if err != nil {
		return nil, err
	}

	var all []domain.ActionSpec
	seen := make(map[string]string)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		source := l.source(f)
		specs, err := decodeFile(source, data)
		if err != nil {
			return nil, err
		}
		for _, s := range specs {
			if prev, dup := seen[s.ID]; dup {
				return nil, &domain.ActionError{
					Op:  "load",
					ID:  s.ID,
					Err: fmt.Errorf("%w (declared in %s and %s)", domain.ErrDuplicateActionID, prev, source),
				}
			}
			seen[s.ID] = source
		}
		all = append(all, specs...)
	}
	return parentsFirst(all), nil
}

// files lists the definition files under the loader path in lexical order.
func (l *Loader) files() ([]string, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to access actions path: %w", err)
	}
	if !info.IsDir() {
		return []string{l.path}, nil
	}

	var files []string
	err = filepath.WalkDir(l.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if isDefinitionFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", l.path, err)
	}
	return files, nil
}

func (l *Loader) source(f string) string {
	if rel, err := filepath.Rel(l.path, f); err == nil && rel != "." {
		return filepath.ToSlash(rel)
	}
	return filepath.Base(f)
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// parentsFirst reorders specs so every parent precedes its children, keeping the
// declared order otherwise. Specs whose parent is never declared keep their place;
// registration reports them.
func parentsFirst(specs []domain.ActionSpec) []domain.ActionSpec {
	declared := make(map[string]bool, len(specs))
	for _, s := range specs {
		declared[s.ID] = true
	}

	out := make([]domain.ActionSpec, 0, len(specs))
	placed := make(map[string]bool, len(specs))
	pending := specs
	for len(pending) > 0 {
		var next []domain.ActionSpec
		for _, s := range pending {
			if s.Parent == "" || placed[s.Parent] || !declared[s.Parent] {
				out = append(out, s)
				placed[s.ID] = true
				continue
			}
			next = append(next, s)
		}
		if len(next) == len(pending) {
			// Only cycles are left.
			return append(out, next...)
		}
		pending = next
	}
	return out
}
