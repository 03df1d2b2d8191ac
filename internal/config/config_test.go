package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8787", cfg.Addr)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 5*time.Minute, cfg.SectionsCacheTTL)
	assert.Equal(t, "portfolio", cfg.AssetUploadFolder)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.AssetsConfigured())
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "API_ADDR: \":9000\"\nCORS_ORIGIN: https://file.example\nASSET_UPLOAD_FOLDER: /site/\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	t.Setenv("CORS_ORIGIN", "https://env.example")
	t.Setenv("ACCESS_TTL_SECONDS", "60")
	t.Setenv("ASSET_ENDPOINT", "s3.example")
	t.Setenv("ASSET_ACCESS_KEY", "key")
	t.Setenv("ASSET_SECRET_KEY", "secret")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "https://env.example", cfg.CORSOrigin)
	assert.Equal(t, time.Minute, cfg.AccessTTL)
	assert.Equal(t, "site", cfg.AssetUploadFolder)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.AssetsConfigured())
}

func TestLoadMissingConfigFileIsFine(t *testing.T) {
	_, err := Load(t.TempDir())
	require.NoError(t, err)
}

func TestLoadRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("REFRESH_TTL_SECONDS", "0")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TTL")
}
