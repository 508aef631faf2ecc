// Package config loads the application configuration from YAML file,
// environment, and defaults, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/coral-atlas/poi-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store     store.Config    `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Resolver  ResolverConfig  `yaml:"resolver" mapstructure:"resolver"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Adapters  AdaptersConfig  `yaml:"adapters" mapstructure:"adapters"`
	Audit     AuditConfig     `yaml:"audit" mapstructure:"audit"`
	Bounds    BoundsConfig    `yaml:"bounds" mapstructure:"bounds"`
	Tables    TablesConfig    `yaml:"tables" mapstructure:"tables"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ResolverConfig tunes the resolution chain.
type ResolverConfig struct {
	MinChangeMeters    float64 `yaml:"min_change_meters" mapstructure:"min_change_meters"`
	FallbackConfidence float64 `yaml:"fallback_confidence" mapstructure:"fallback_confidence"`
	ScrapeBudget       int     `yaml:"scrape_budget" mapstructure:"scrape_budget"`
	CacheEnabled       bool    `yaml:"cache_enabled" mapstructure:"cache_enabled"`
}

// BatchConfig tunes the worker pool and checkpoint cadence.
type BatchConfig struct {
	Workers         int     `yaml:"workers" mapstructure:"workers"`
	CheckpointEvery int     `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
	DelayMs         int     `yaml:"delay_ms" mapstructure:"delay_ms"`
	RatePerSec      float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// AdapterConfig configures one geocoding adapter.
type AdapterConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// AdaptersConfig configures the adapter set in chain priority order.
type AdaptersConfig struct {
	Photon    AdapterConfig `yaml:"photon" mapstructure:"photon"`
	Nominatim AdapterConfig `yaml:"nominatim" mapstructure:"nominatim"`
	ArcGIS    AdapterConfig `yaml:"arcgis" mapstructure:"arcgis"`
	MapScrape AdapterConfig `yaml:"map_scrape" mapstructure:"map_scrape"`

	// NominatimContact is the identifying contact the Nominatim usage
	// policy requires; the adapter stays out of the chain without it.
	NominatimContact string `yaml:"nominatim_contact" mapstructure:"nominatim_contact"`
}

// AuditConfig tunes the quality audit.
type AuditConfig struct {
	// MaxUnresolvedFraction is the failure threshold: the audit command
	// exits non-zero when more than this fraction of records still has
	// error-severity issues.
	MaxUnresolvedFraction float64 `yaml:"max_unresolved_fraction" mapstructure:"max_unresolved_fraction"`
}

// BoundsConfig points at optional geometry overrides.
type BoundsConfig struct {
	TerritoryPath      string `yaml:"territory_path" mapstructure:"territory_path"`
	CoastlineShapefile string `yaml:"coastline_shapefile" mapstructure:"coastline_shapefile"`
}

// TablesConfig points at the curated lookup tables.
type TablesConfig struct {
	VerifiedPath string `yaml:"verified_path" mapstructure:"verified_path"`
}

// ServerConfig configures the report server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("POI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "poi.db")
	v.SetDefault("store.cache_ttl_days", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("resolver.min_change_meters", 50)
	v.SetDefault("resolver.fallback_confidence", 0.3)
	v.SetDefault("resolver.scrape_budget", 25)
	v.SetDefault("resolver.cache_enabled", true)
	v.SetDefault("batch.workers", 8)
	v.SetDefault("batch.checkpoint_every", 20)
	v.SetDefault("batch.delay_ms", 250)
	v.SetDefault("batch.rate_per_sec", 5)
	v.SetDefault("adapters.photon.enabled", true)
	v.SetDefault("adapters.photon.rate_per_sec", 5)
	v.SetDefault("adapters.nominatim.enabled", true)
	v.SetDefault("adapters.nominatim.rate_per_sec", 1)
	v.SetDefault("adapters.arcgis.enabled", true)
	v.SetDefault("adapters.arcgis.rate_per_sec", 2)
	v.SetDefault("adapters.map_scrape.enabled", false)
	v.SetDefault("adapters.map_scrape.rate_per_sec", 0.5)
	v.SetDefault("audit.max_unresolved_fraction", 0.05)
	v.SetDefault("server.port", 8080)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
