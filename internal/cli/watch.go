package cli

import (
	"context"
	"io"
	"sync"

	"github.com/aretw0/palette"
)

// RunWatch runs the line session and reloads the definitions whenever they change.
// The session keeps its scope and query across reloads; a scope whose action
// disappeared is rescued to its nearest surviving ancestor.
func RunWatch(ctx context.Context, engine *palette.Engine, opts RunOptions) error {
	opts.defaults()
	opts.Out = &syncWriter{w: opts.Out}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := startWatch(ctx, engine, opts.Out); err != nil {
		return err
	}
	printSystemMessage(opts.Out, "Watching for changes.")
	return RunSession(ctx, engine, opts)
}

func startWatch(ctx context.Context, engine *palette.Engine, out io.Writer) error {
	ch, err := engine.Watch(ctx)
	if err != nil {
		return err
	}
	go reloadLoop(ctx, engine, ch, out)
	return nil
}

// reloadOnChange reloads the engine on every change signal until ctx is done.
// It is a no-op when the loader cannot be watched.
func reloadOnChange(ctx context.Context, engine *palette.Engine, out io.Writer) {
	ch, err := engine.Watch(ctx)
	if err != nil {
		engine.Logger().Debug("hot reload disabled", "err", err)
		return
	}
	reloadLoop(ctx, engine, ch, out)
}

func reloadLoop(ctx context.Context, engine *palette.Engine, ch <-chan struct{}, out io.Writer) {
	logger := engine.Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if err := engine.Load(ctx); err != nil {
				logger.Error("reload failed", "err", err)
				if out != nil {
					printSystemMessage(out, "Reload failed: %v", err)
				}
				continue
			}
			logger.Info("actions reloaded", "count", engine.Tree().Len())
			if out != nil {
				printSystemMessage(out, "Change detected, %d actions loaded.", engine.Tree().Len())
			}
		}
	}
}

// syncWriter serializes writes from the session and the reload goroutine so
// their lines never interleave.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// terminalOf returns the writer terminal detection should look at.
func terminalOf(w io.Writer) io.Writer {
	if s, ok := w.(*syncWriter); ok {
		return s.w
	}
	return w
}
