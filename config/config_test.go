package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "workflows.db", cfg.Database.Path)
	assert.Equal(t, 60*time.Millisecond, cfg.Editor.BumpDelay.Std())
	assert.Empty(t, cfg.Redis.Addr, "cache disabled by default")
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
database:
  path: "/tmp/wf.db"
editor:
  bump_delay: 100ms
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/tmp/wf.db", cfg.Database.Path)
	assert.Equal(t, 100*time.Millisecond, cfg.Editor.BumpDelay.Std())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout.Std(), "unset fields keep defaults")
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("CANVASFLOW_SERVER_ADDR", ":7070")
	t.Setenv("CANVASFLOW_REDIS_ADDR", "localhost:6379")
	t.Setenv("CANVASFLOW_REDIS_DB", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Development: true})
	require.NoError(t, err)
	logger.Debug("ok")

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
