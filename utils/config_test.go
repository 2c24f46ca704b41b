package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDefaultConfig_CreatesAndLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	require.NoError(t, EnsureDefaultConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Data.SettingsBackend)
	assert.Equal(t, 8000, cfg.Processing.ChunkSize)
	assert.Equal(t, "text-embedding-3-large", cfg.Processing.EmbeddingModel)
	assert.Equal(t, time.Duration(0), cfg.Processing.Timeout())
	assert.True(t, filepath.IsAbs(cfg.Data.DBPath), "db path should be expanded")
}

func TestEnsureDefaultConfig_KeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ui":{"theme":"dark"}}`), 0644))

	require.NoError(t, EnsureDefaultConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.UI.Theme)
	// Sections absent from the file fall back to defaults
	assert.Equal(t, 3, cfg.Processing.EmbeddingAttempts)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestProcessingConfig_Durations(t *testing.T) {
	p := ProcessingConfig{TimeoutSeconds: 90, RetryDelaySeconds: 2}
	assert.Equal(t, 90*time.Second, p.Timeout())
	assert.Equal(t, 2*time.Second, p.RetryDelay())
}

func TestProxyConfig_HTTPClient(t *testing.T) {
	client, err := ProxyConfig{}.HTTPClient()
	require.NoError(t, err)
	assert.Nil(t, client.Transport)

	client, err = ProxyConfig{Enabled: true, URL: "http://127.0.0.1:8080"}.HTTPClient()
	require.NoError(t, err)
	assert.NotNil(t, client.Transport)

	_, err = ProxyConfig{Enabled: true, URL: "://bad"}.HTTPClient()
	assert.Error(t, err)
}
