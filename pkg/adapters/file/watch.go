package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce coalesces the bursts of events editors produce for a single save.
const debounce = 100 * time.Millisecond

// Watch signals on the returned channel whenever a definition file changes.
// The channel is closed once ctx is done or the watcher fails.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to access actions path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Editors often replace files by rename, so single files are watched through
	// their directory.
	dirs := []string{filepath.Dir(l.path)}
	if info.IsDir() {
		dirs, err = l.dirs()
		if err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}
	for _, d := range dirs {
		if err := watcher.Add(d); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}

	out := make(chan struct{}, 1)
	signal := func() {
		select {
		case out <- struct{}{}:
		default:
			// A reload is already pending.
		}
	}

	go func() {
		var mu sync.Mutex
		var timer *time.Timer
		done := false
		defer func() {
			_ = watcher.Close()
			mu.Lock()
			done = true
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			close(out)
		}()
		schedule := func() {
			mu.Lock()
			defer mu.Unlock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				mu.Lock()
				defer mu.Unlock()
				if !done {
					signal()
				}
			})
		}

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				schedule()
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create && info.IsDir() {
					if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
						_ = watcher.Add(ev.Name)
						continue
					}
				}
				if l.relevant(ev.Name, info.IsDir()) {
					schedule()
				}
			}
		}
	}()

	return out, nil
}

func (l *Loader) relevant(name string, dir bool) bool {
	if !dir {
		return filepath.Clean(name) == l.path
	}
	return isDefinitionFile(name)
}

func (l *Loader) dirs() ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(l.path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.path && len(d.Name()) > 0 && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", l.path, err)
	}
	return dirs, nil
}
