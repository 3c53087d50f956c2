package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/palette/internal/config"
	"github.com/aretw0/palette/internal/logging"
	"github.com/aretw0/palette/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const actionsYAML = `
actions:
  - id: theme
    name: Change theme
    shortcut: t
    children:
      - id: dark
        name: Dark
      - id: light
        name: Light
  - id: blog
    name: Blog
    section: Navigation
    shortcut: g b
`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	actions := filepath.Join(dir, "actions.yaml")
	require.NoError(t, os.WriteFile(actions, []byte(actionsYAML), 0o644))
	return config.Config{
		Actions:  actions,
		Tools:    filepath.Join(dir, "tools.yaml"),
		Log:      config.LogConfig{Level: "error"},
		Shortcut: config.ShortcutConfig{Timeout: time.Second},
	}
}

func TestNewEngine_LoadsDefinitions(t *testing.T) {
	eng, err := NewEngine(context.Background(), EngineOptions{Config: testConfig(t)})
	require.NoError(t, err)
	defer eng.Close()

	assert.Equal(t, 4, eng.Tree().Len())
	blog, ok := eng.Get("blog")
	require.True(t, ok)
	assert.Equal(t, []string{"g", "b"}, blog.Shortcut)
}

func TestNewEngine_BindsTools(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Tools, []byte(`
tools:
  - name: say
    command: echo
    args: ["hello"]
`), 0o644))
	require.NoError(t, os.WriteFile(cfg.Actions, []byte(`
- id: greet
  name: Greet
  perform: say
`), 0o644))

	eng, err := NewEngine(context.Background(), EngineOptions{Config: cfg})
	require.NoError(t, err)
	defer eng.Close()
	assert.True(t, eng.Registry().Has("say"))
}

func TestNewEngine_UnknownHandler(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Actions, []byte(`- {id: x, name: X, perform: nope}`), 0o644))

	_, err := NewEngine(context.Background(), EngineOptions{Config: cfg})
	assert.ErrorIs(t, err, domain.ErrHandlerNotFound)
}

func TestExecute_Headless(t *testing.T) {
	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		Config:   testConfig(t),
		Headless: true,
		In:       strings.NewReader("blo\n:enter\nquit\n"),
		Out:      &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "> Blog")
	assert.Contains(t, out.String(), "performed blog")
	assert.NotContains(t, out.String(), "Bye!")
}

func TestExecute_WatchWithHeadless(t *testing.T) {
	err := Execute(context.Background(), RunOptions{Config: testConfig(t), Watch: true, Headless: true})
	assert.Error(t, err)
}

func TestReloadLoop(t *testing.T) {
	cfg := testConfig(t)
	eng, err := NewEngine(context.Background(), EngineOptions{Config: cfg})
	require.NoError(t, err)
	defer eng.Close()

	require.NoError(t, os.WriteFile(cfg.Actions, []byte(`- {id: blog, name: Blog}`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		reloadLoop(ctx, eng, ch, nil)
		close(done)
	}()

	ch <- struct{}{}
	assert.Eventually(t, func() bool { return eng.Tree().Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestSyncWriter_KeepsLinesWhole(t *testing.T) {
	var buf bytes.Buffer
	out := &syncWriter{w: &buf}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				printSystemMessage(out, "writer %d line %d", i, j)
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 400)
	for _, l := range lines {
		var i, j int
		_, err := fmt.Sscanf(l, ">>> writer %d line %d", &i, &j)
		assert.NoError(t, err, "mangled line %q", l)
	}
	assert.Same(t, &buf, terminalOf(out))
	assert.Same(t, &buf, terminalOf(&buf))
}

func TestReloadLoop_ReportsThroughSyncWriter(t *testing.T) {
	cfg := testConfig(t)
	eng, err := NewEngine(context.Background(), EngineOptions{Config: cfg})
	require.NoError(t, err)
	defer eng.Close()

	require.NoError(t, os.WriteFile(cfg.Actions, []byte(`- {id: blog, name: Blog}`), 0o644))

	var buf bytes.Buffer
	out := &syncWriter{w: &buf}
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		reloadLoop(ctx, eng, ch, out)
		close(done)
	}()

	ch <- struct{}{}
	printSystemMessage(out, "session line")
	assert.Eventually(t, func() bool { return eng.Tree().Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	text := buf.String()
	assert.Contains(t, text, ">>> session line\n")
	assert.Contains(t, text, ">>> Change detected, 1 actions loaded.\n")
}

func TestNewSessionManager(t *testing.T) {
	ctx := context.Background()

	mgr, closeFn, err := NewSessionManager(ctx, config.Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, closeFn())
	_, err = mgr.LoadOrStart(ctx, "local")
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	mgr, closeFn, err = NewSessionManager(ctx, config.Config{Redis: config.RedisConfig{Addr: mr.Addr(), Prefix: "test:", TTL: time.Minute}}, discardLogger())
	require.NoError(t, err)
	defer closeFn()
	_, err = mgr.LoadOrStart(ctx, "remote")
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:remote"))

	_, _, err = NewSessionManager(ctx, config.Config{Redis: config.RedisConfig{Addr: "127.0.0.1:1"}}, discardLogger())
	assert.Error(t, err)
}

func TestNewSessionManager_SealedQueries(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	cfg := config.Config{
		Redis:   config.RedisConfig{Addr: mr.Addr(), Prefix: "sealed:", TTL: time.Minute},
		Session: config.SessionConfig{EncryptionKey: key, Redact: []string{"password"}},
	}

	mgr, closeFn, err := NewSessionManager(ctx, cfg, discardLogger())
	require.NoError(t, err)
	defer closeFn()

	state := domain.NewNavigationState("s")
	state.Open = true
	state.ActiveIndex = 0
	state.Query = "blog drafts"
	require.NoError(t, mgr.Save(ctx, "s", state))

	raw, err := mr.Get("sealed:s")
	require.NoError(t, err)
	assert.NotContains(t, raw, "blog drafts")

	loaded, err := mgr.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "blog drafts", loaded.Query)

	state.Query = "reset password"
	require.NoError(t, mgr.Save(ctx, "s", state))
	loaded, err = mgr.Load(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, loaded.Query)

	cfg.Session.EncryptionKey = "short"
	_, _, err = NewSessionManager(ctx, cfg, discardLogger())
	assert.Error(t, err)
}

func TestServeHandler_MetricsAndAPI(t *testing.T) {
	ctx := context.Background()
	reg, metrics := newMetrics()
	eng, err := NewEngine(ctx, EngineOptions{Config: testConfig(t), Hooks: metrics.Hooks()})
	require.NoError(t, err)
	defer eng.Close()

	sessions, _, err := NewSessionManager(ctx, config.Config{}, discardLogger())
	require.NoError(t, err)
	srv := httptest.NewServer(newServeHandler(eng, metrics, reg, sessions, discardLogger(), false))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/search?q=blog")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Searches.WithLabelValues("hit")))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "palette_searches_total")
	assert.Contains(t, body.String(), "go_goroutines")
}

func discardLogger() *slog.Logger {
	return logging.NewNop()
}
