package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, BackendSQLite, cfg.CacheBackend)
	assert.Equal(t, "data/scrapconnect.db", cfg.DatabasePath)
	assert.Equal(t, "scrapconnect", cfg.MQTTTopicPrefix)
	assert.Equal(t, "91", cfg.CountryCode)
	assert.Empty(t, cfg.RemoteURL)
	assert.False(t, cfg.MDNSEnabled)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SCRAPCONNECT_HTTP_PORT", "9191")
	t.Setenv("SCRAPCONNECT_REMOTE_URL", "https://script.example.com/exec")
	t.Setenv("SCRAPCONNECT_REMOTE_TIMEOUT", "5s")
	t.Setenv("SCRAPCONNECT_CACHE_BACKEND", "Redis")
	t.Setenv("SCRAPCONNECT_MDNS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.HTTPPort)
	assert.Equal(t, "https://script.example.com/exec", cfg.RemoteURL)
	assert.Equal(t, 5*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, BackendRedis, cfg.CacheBackend)
	assert.True(t, cfg.MDNSEnabled)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SCRAPCONNECT_CACHE_BACKEND", "localstorage")

	_, err := Load()
	assert.ErrorContains(t, err, "CACHE_BACKEND")
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SCRAPCONNECT_REMOTE_TIMEOUT", "0s")

	_, err := Load()
	assert.ErrorContains(t, err, "REMOTE_TIMEOUT")
}

func TestLoadRejectsZeroBurstWithRate(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SCRAPCONNECT_REMOTE_RATE", "2")
	t.Setenv("SCRAPCONNECT_REMOTE_BURST", "0")

	_, err := Load()
	assert.ErrorContains(t, err, "REMOTE_BURST")
}

func TestLoadAllowsZeroBurstWithoutRate(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SCRAPCONNECT_REMOTE_RATE", "0")
	t.Setenv("SCRAPCONNECT_REMOTE_BURST", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.RemoteRate)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
