package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	return dir
}

func TestLoadWritesDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	dataDir := t.TempDir()

	cfg, err := Load(dir, dataDir)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "config.yaml"))
	require.NoError(t, statErr)
	assert.Equal(t, types.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, dataDir, cfg.Store.DataDir)
	assert.Equal(t, 15*time.Minute, cfg.PendingTTL)
	assert.Equal(t, 40.0, cfg.RequestsPerSecond)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.Guilds)
	assert.ErrorIs(t, cfg.RequireToken(), ErrTokenEmpty)
}

func TestLoadGuilds(t *testing.T) {
	dir := writeConfig(t, `
backend: sqlite
discord:
  token: abc
guilds:
  "981234567890123456":
    forum_channel: 981234567890123457
    ask_here_channel: 981234567890123458
    log_channel: 981234567890123459
    primary_color: 0x112233
`)
	cfg, err := Load(dir, t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cfg.RequireToken())
	gc := cfg.Guilds.Lookup(snowflake.ID(981234567890123456))
	assert.Equal(t, snowflake.ID(981234567890123457), gc.ForumChannel)
	assert.Equal(t, snowflake.ID(981234567890123458), gc.AskHereChannel)
	assert.Equal(t, snowflake.ID(981234567890123459), gc.LogChannel)
	assert.Equal(t, 0x112233, gc.Primary())
	assert.Equal(t, types.DefaultSecondaryColor, gc.Secondary())
}

func TestLoadRejectsBadGuildKey(t *testing.T) {
	dir := writeConfig(t, `
guilds:
  general:
    forum_channel: 1
`)
	_, err := Load(dir, t.TempDir())
	assert.Error(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := writeConfig(t, `
backend: sqlite
log:
  level: info
submission:
  pending_ttl: 5m
`)
	t.Setenv("HEAPOVERFLOW_LOG_LEVEL", "debug")
	t.Setenv("HEAPOVERFLOW_DISCORD_TOKEN", "from-env")
	t.Setenv("HEAPOVERFLOW_SUBMISSION_PENDING_TTL", "30m")

	cfg, err := Load(dir, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "from-env", cfg.DiscordToken)
	assert.Equal(t, 30*time.Minute, cfg.PendingTTL)
}

func TestDotEnvInConfigDir(t *testing.T) {
	dir := writeConfig(t, "backend: sqlite\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HEAPOVERFLOW_REDIS_URL=redis://cache:6379/1\n"), 0o644))
	t.Setenv("HEAPOVERFLOW_REDIS_URL", "")
	os.Unsetenv("HEAPOVERFLOW_REDIS_URL")

	cfg, err := Load(dir, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
}

func TestLoadValidatesBackend(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{name: "unknown backend", yaml: "backend: mongodb\n", wantErr: types.ErrBackendUnknown},
		{name: "postgres without url", yaml: "backend: postgres\n", wantErr: types.ErrDatabaseURLEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml), t.TempDir())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEnsureConfigFileKeepsExisting(t *testing.T) {
	dir := writeConfig(t, "backend: postgres\n")
	require.NoError(t, EnsureConfigFile(dir))

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "backend: postgres\n", string(data))
}
