package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 1000.0, cfg.Positions.Increment)
	assert.True(t, cfg.Positions.AutoRenormalize)
	assert.Equal(t, 64, cfg.Sync.QueueSize)
}

func TestLoadConfigReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `user_id: alice
database:
  driver: postgres
  dsn: postgres://localhost/planner
calendar:
  missed_floor: "2026-03-01"
  week_start: Monday
positions:
  increment: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.UserID)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/planner", cfg.Database.DSN)
	assert.Equal(t, 10.0, cfg.Positions.Increment)

	floor, err := cfg.Calendar.Floor()
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", floor.Format("2006-01-02"))

	wd, err := cfg.Calendar.FirstWeekday()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, wd)
}

func TestLoadConfigRejectsBadWeekStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("calendar:\n  week_start: funday\n"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PLANNER_USER_ID", "bob")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.UserID)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultAppConfig()
	cfg.UserID = "carol"
	cfg.Server.Addr = ":9999"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "carol", loaded.UserID)
	assert.Equal(t, ":9999", loaded.Server.Addr)
}
