package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/palette/internal/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	v, err := config.New("")
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "actions.yaml", cfg.Actions)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Positive(t, cfg.Shortcut.Timeout)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "palette.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
actions: ./defs
log:
  level: debug
shortcut:
  timeout: 500ms
search:
  limit: 7
redis:
  addr: localhost:6379
`), 0o644))

	t.Setenv("PALETTE_HTTP_ADDR", ":9999")
	t.Setenv("PALETTE_REDIS_PREFIX", "env:")

	v, err := config.New(path)
	require.NoError(t, err)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--log-level=error"}))
	require.NoError(t, config.BindFlags(v, flags, map[string]string{
		"log.level": "log-level",
		"missing":   "nope",
	}))

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, "./defs", cfg.Actions)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 500*time.Millisecond, cfg.Shortcut.Timeout)
	assert.Equal(t, 7, cfg.Search.Limit)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "env:", cfg.Redis.Prefix)
}

func TestNew_ExplicitFileMissing(t *testing.T) {
	_, err := config.New(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_NegativeLimit(t *testing.T) {
	t.Setenv("PALETTE_SEARCH_LIMIT", "-1")
	t.Chdir(t.TempDir())
	v, err := config.New("")
	require.NoError(t, err)
	_, err = config.Load(v)
	assert.Error(t, err)
}
