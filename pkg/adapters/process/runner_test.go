package process

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

func TestRunner_Execute(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner()
	r.Register("greet", "sh", "-c", `echo "$PALETTE_ACTION_NAME:$PALETTE_ARG_WHO:$PALETTE_ARG_MY_TAGS"`)
	node := domain.ActionNode{ID: "hello", Name: "Say hello"}

	t.Run("Executes Registered Command", func(t *testing.T) {
		res, err := r.Execute(context.Background(), "greet", node, map[string]any{
			"who":     "world",
			"my-tags": []string{"a", "b"},
		})
		require.NoError(t, err)
		assert.Equal(t, `Say hello:world:["a","b"]`, res.Stdout)
		assert.Equal(t, 0, res.ExitCode)
	})

	t.Run("Fails For Unregistered Command", func(t *testing.T) {
		_, err := r.Execute(context.Background(), "hacker_script", node, nil)
		assert.ErrorIs(t, err, domain.ErrHandlerNotFound)
	})

	t.Run("Reports Exit Code And Stderr", func(t *testing.T) {
		r.Register("crashy", "sh", "-c", "echo 'Something went terribly wrong' >&2; exit 123")
		res, err := r.Execute(context.Background(), "crashy", node, nil)
		require.Error(t, err)
		assert.Equal(t, 123, res.ExitCode)
		assert.Contains(t, err.Error(), "exit status 123")
		assert.Contains(t, err.Error(), "Something went terribly wrong")
	})

	t.Run("Decodes JSON Output", func(t *testing.T) {
		r.Register("json", "sh", "-c", `echo '{"ok": true}'`)
		res, err := r.Execute(context.Background(), "json", node, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"ok": true}, res.JSON)
	})
}

func TestRunner_Timeout(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(WithGracePeriod(100*time.Millisecond), WithRegistry(map[string]Tool{
		"sleepy": {Command: "sh", Args: []string{"-c", "sleep 5"}, Timeout: 100 * time.Millisecond},
	}))

	start := time.Now()
	_, err := r.Execute(context.Background(), "sleepy", domain.ActionNode{ID: "z"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRunner_BindPerformsThroughRegistry(t *testing.T) {
	skipOnWindows(t)
	var out bytes.Buffer
	r := NewRunner(WithOutput(&out))
	r.Register("echo_id", "sh", "-c", "echo $PALETTE_ACTION_ID")

	reg := registry.NewRegistry()
	r.Bind(reg)
	require.True(t, reg.Has("echo_id"))

	perform, err := reg.Resolve("echo_id", nil)
	require.NoError(t, err)
	inv, ok := perform.(domain.Invoke)
	require.True(t, ok)

	require.NoError(t, inv.Run(context.Background(), domain.ActionNode{ID: "deploy"}))
	assert.Equal(t, "deploy\n", out.String())
	assert.Equal(t, []string{"echo_id"}, r.Names())
}

func TestLoadTools(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	tools, err := LoadTools(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, tools)

	tools, err = LoadTools(write("tools.yaml", `
tools:
  - name: deploy
    command: ./deploy.sh
    args: [--prod]
    timeout: 30s
`))
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, []string{"--prod"}, tools["deploy"].Args)
	assert.Equal(t, 30*time.Second, tools["deploy"].Timeout)

	tools, err = LoadTools(write("tools.json", `{"tools":[{"name":"say","command":"echo"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "echo", tools["say"].Command)

	tests := []struct {
		body string
		want string
	}{
		{`{"tools":[{"name":"x"}]}`, "no command"},
		{"tools:\n  - command: echo\n", "has no name"},
		{"tools:\n  - {name: a, command: echo}\n  - {name: a, command: ls}\n", "defined twice"},
		{"tools:\n  - {name: a, command: echo, timeout: -1s}\n", "negative timeout"},
	}
	for _, tt := range tests {
		_, err := LoadTools(write("bad.yaml", tt.body))
		assert.ErrorContains(t, err, tt.want)
	}
}
