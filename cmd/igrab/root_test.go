package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores the persistent-flag globals after a test mutates them.
func resetFlags(t *testing.T) {
	t.Helper()
	prevConfig, prevAPI := configPath, apiURL
	t.Cleanup(func() {
		configPath, apiURL = prevConfig, prevAPI
	})
	configPath, apiURL = "", ""
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	resetFlags(t)
	t.Chdir(t.TempDir())

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.API.URL)
	assert.Equal(t, "proxy", cfg.Fetch.Strategy)
}

func TestLoadConfig_ReadsLocalFile(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	t.Chdir(dir)

	content := `[api]
url = "http://api.example.com:8000"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "igrab.toml"), []byte(content), 0o644))

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com:8000", cfg.API.URL)
}

func TestLoadConfig_ExplicitPathMustExist(t *testing.T) {
	resetFlags(t)
	configPath = filepath.Join(t.TempDir(), "missing.toml")

	_, err := loadConfig()
	require.Error(t, err)
}

func TestLoadConfig_APIFlagOverride(t *testing.T) {
	resetFlags(t)
	t.Chdir(t.TempDir())
	apiURL = "http://override.example.com"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://override.example.com", cfg.API.URL)
}
