package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/kabuka/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "json", config.Storage.Type)
	assert.Equal(t, "./data/events_cache.json", config.Storage.JSON.Path)
	assert.Equal(t, 183, config.Events.CacheMaxAgeDays)
	assert.Equal(t, 31, config.Events.RecentCacheDays)
	assert.Equal(t, "cache_first", config.Events.DefaultMode)
	assert.Equal(t, 3*time.Minute, config.Events.LookupTimeoutDuration())
	assert.Equal(t, "gpt-4o-search-preview", config.OpenAI.Model)
	assert.NoError(t, config.Validate())
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.toml", `
[server]
port = 9000

[events]
recent_cache_days = 10
lookup_timeout = "45s"
`)
	override := writeFile(t, dir, "override.toml", `
[events]
recent_cache_days = 7

[storage]
type = "badger"
`)

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, 7, config.Events.RecentCacheDays)
	assert.Equal(t, 45*time.Second, config.Events.LookupTimeoutDuration())
	assert.Equal(t, "badger", config.Storage.Type)
	assert.Equal(t, 183, config.Events.CacheMaxAgeDays, "unset values keep defaults")
}

func TestLoadFromFiles_Errors(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	bad := writeFile(t, t.TempDir(), "bad.toml", "[server\nport=")
	_, err = LoadFromFiles(bad)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KABUKA_SERVER_PORT", "9191")
	t.Setenv("KABUKA_STORAGE_TYPE", "BADGER")
	t.Setenv("KABUKA_CACHE_MAX_AGE_DAYS", "90")
	t.Setenv("KABUKA_LOG_OUTPUT", "stdout, file")
	t.Setenv("KABUKA_LLM_PROVIDER", "Gemini")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 9191, config.Server.Port)
	assert.Equal(t, "badger", config.Storage.Type)
	assert.Equal(t, 90, config.Events.CacheMaxAgeDays)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
	assert.Equal(t, LLMProviderGemini, config.LLM.DefaultProvider)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, 0, "", "")
	assert.Equal(t, 8080, config.Server.Port)

	ApplyFlagOverrides(config, 7070, "0.0.0.0", "cache_only")
	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, "cache_only", config.Events.DefaultMode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown storage", func(c *Config) { c.Storage.Type = "sqlite" }},
		{"zero max age", func(c *Config) { c.Events.CacheMaxAgeDays = 0 }},
		{"notice before warn", func(c *Config) { c.Events.AlertNoticeDays = 3 }},
		{"bad provider", func(c *Config) { c.LLM.DefaultProvider = "mistral" }},
		{"bad period", func(c *Config) { c.Market.DefaultPeriod = "2w" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "KABUKA_TEST_DOTENV=from-file\n")
	t.Setenv("KABUKA_TEST_DOTENV", "")
	os.Unsetenv("KABUKA_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("KABUKA_TEST_DOTENV"))
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("KABUKA_OPENAI_API_KEY", "")

	_, err := ResolveAPIKey("openai_api_key", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExternalUnavailable))
	assert.Equal(t, models.ErrorCodeExternalUnavailable, ErrorCodeOf(err))

	key, err := ResolveAPIKey("openai_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)

	t.Setenv("KABUKA_OPENAI_API_KEY", "from-env")
	key, err = ResolveAPIKey("openai_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}
