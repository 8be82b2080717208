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

	assert.Equal(t, "8082", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, 2.0, cfg.Server.RateLimitRPS)
	assert.Equal(t, 10, cfg.Crawler.MaxPages)
	assert.Equal(t, 30*time.Second, cfg.Crawler.PageTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Crawler.CacheTTL)
	assert.False(t, cfg.Crawler.CheckLinks)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SEOAUDIT_SERVER_PORT", "9000")
	t.Setenv("SEOAUDIT_CRAWLER_MAX_PAGES", "25")
	t.Setenv("SEOAUDIT_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 25, cfg.Crawler.MaxPages)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "seoaudit.yaml")
	content := `server:
  port: "7070"
crawler:
  max_pages: 3
  check_links: true
logging:
  format: json
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Crawler.MaxPages)
	assert.True(t, cfg.Crawler.CheckLinks)
	assert.Equal(t, "json", cfg.Logging.Format)
	// Untouched settings keep their defaults.
	assert.Equal(t, "release", cfg.Server.GinMode)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load("/nonexistent/seoaudit.yaml")
	assert.Error(t, err)
}
