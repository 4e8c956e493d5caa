package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDatabaseURLPrefersEnvValue(t *testing.T) {
	cfg := DatabaseConfig{URL: "postgres://env-host/db", OverrideFile: "does-not-exist"}
	url, ok := cfg.ResolveDatabaseURL()
	require.True(t, ok)
	assert.Equal(t, "postgres://env-host/db", url)
}

func TestResolveDatabaseURLFallsBackToOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dburl")
	require.NoError(t, os.WriteFile(path, []byte("postgres://override-host/db\n"), 0o600))

	cfg := DatabaseConfig{OverrideFile: path}
	url, ok := cfg.ResolveDatabaseURL()
	require.True(t, ok)
	assert.Equal(t, "postgres://override-host/db", url)
}

func TestResolveDatabaseURLNothingConfigured(t *testing.T) {
	cfg := DatabaseConfig{OverrideFile: filepath.Join(t.TempDir(), "missing")}
	_, ok := cfg.ResolveDatabaseURL()
	assert.False(t, ok)
}

func TestSaveOverrideRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dburl")
	cfg := DatabaseConfig{OverrideFile: path}
	require.NoError(t, cfg.SaveOverride("  postgres://saved-host/db  "))

	url, ok := cfg.ResolveDatabaseURL()
	require.True(t, ok)
	assert.Equal(t, "postgres://saved-host/db", url)
}
