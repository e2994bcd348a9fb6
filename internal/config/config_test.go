package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every config variable for the duration of the test.
// t.Setenv registers the restore; Unsetenv then clears the value.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MERGEBOARD_LISTEN_ADDR",
		"MERGEBOARD_DB_PATH",
		"MERGEBOARD_MASTER_KEY",
		"MERGEBOARD_CACHE_TTL",
		"MERGEBOARD_CACHE_CAPACITY",
		"MERGEBOARD_SWEEP_INTERVAL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "mergeboard.db", cfg.DBPath)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 128, cfg.CacheCapacity)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.True(t, cfg.UsingDefaultKey)
	assert.NotEmpty(t, cfg.MasterKey)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MERGEBOARD_LISTEN_ADDR", "0.0.0.0:9999")
	t.Setenv("MERGEBOARD_DB_PATH", "/tmp/test.db")
	t.Setenv("MERGEBOARD_MASTER_KEY", "a-real-master-key")
	t.Setenv("MERGEBOARD_CACHE_TTL", "30s")
	t.Setenv("MERGEBOARD_CACHE_CAPACITY", "16")
	t.Setenv("MERGEBOARD_SWEEP_INTERVAL", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "a-real-master-key", cfg.MasterKey)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 16, cfg.CacheCapacity)
	assert.Equal(t, 45*time.Second, cfg.SweepInterval)
	assert.False(t, cfg.UsingDefaultKey)
}

func TestLoad_InvalidCacheTTL(t *testing.T) {
	clearEnv(t)
	t.Setenv("MERGEBOARD_CACHE_TTL", "ten minutes")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MERGEBOARD_CACHE_TTL")
}

func TestLoad_InvalidCacheCapacity(t *testing.T) {
	clearEnv(t)

	for _, v := range []string{"zero", "0", "-3"} {
		t.Setenv("MERGEBOARD_CACHE_CAPACITY", v)
		_, err := Load()
		assert.Error(t, err, "capacity %q", v)
	}
}

func TestLoad_InvalidSweepInterval(t *testing.T) {
	clearEnv(t)
	t.Setenv("MERGEBOARD_SWEEP_INTERVAL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MERGEBOARD_SWEEP_INTERVAL")
}
