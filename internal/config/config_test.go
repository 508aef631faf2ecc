package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "poi.db", cfg.Store.Path)
	assert.Equal(t, 30, cfg.Store.CacheTTLDays)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.InDelta(t, 50, cfg.Resolver.MinChangeMeters, 0.001)
	assert.InDelta(t, 0.3, cfg.Resolver.FallbackConfidence, 0.001)
	assert.Equal(t, 25, cfg.Resolver.ScrapeBudget)
	assert.True(t, cfg.Resolver.CacheEnabled)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, 20, cfg.Batch.CheckpointEvery)
	assert.Equal(t, 250, cfg.Batch.DelayMs)
	assert.InDelta(t, 5, cfg.Batch.RatePerSec, 0.001)
	assert.True(t, cfg.Adapters.Photon.Enabled)
	assert.True(t, cfg.Adapters.Nominatim.Enabled)
	assert.InDelta(t, 1, cfg.Adapters.Nominatim.RatePerSec, 0.001)
	assert.True(t, cfg.Adapters.ArcGIS.Enabled)
	assert.False(t, cfg.Adapters.MapScrape.Enabled)
	assert.InDelta(t, 0.05, cfg.Audit.MaxUnresolvedFraction, 0.001)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/poi
log:
  level: debug
  format: console
resolver:
  min_change_meters: 25
adapters:
  nominatim_contact: ops@example.ky
  map_scrape:
    enabled: true
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/poi", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.InDelta(t, 25, cfg.Resolver.MinChangeMeters, 0.001)
	assert.Equal(t, "ops@example.ky", cfg.Adapters.NominatimContact)
	assert.True(t, cfg.Adapters.MapScrape.Enabled)
	// Defaults still apply for unset values.
	assert.Equal(t, 8, cfg.Batch.Workers)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0o644))

	t.Setenv("POI_STORE_DRIVER", "sqlite")
	t.Setenv("POI_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chTempDir(t)

	t.Setenv("POI_BATCH_WORKERS", "16")
	t.Setenv("POI_RESOLVER_SCRAPE_BUDGET", "100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Batch.Workers)
	assert.Equal(t, 100, cfg.Resolver.ScrapeBudget)
}

func TestLoadMalformedYAML(t *testing.T) {
	chTempDir(t)

	require.NoError(t, os.WriteFile("config.yaml", []byte("store: [not: a map"), 0o644))
	_, err := Load()
	assert.Error(t, err)
}

func TestStoreCacheTTL(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, cfg.Store.CacheTTL())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	assert.Error(t, err)
}

func TestLoadIgnoresUnrelatedFiles(t *testing.T) {
	chTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(".", "config.json"), []byte(`{"server":{"port":1}}`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
