// Package store persists the geocode cache and the canonical place set,
// backed by SQLite for local runs or Postgres for the hosted knowledge
// base.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/coral-atlas/poi-cli/internal/model"
	"github.com/coral-atlas/poi-cli/pkg/geocode"
)

// Store is the persistence interface shared by both drivers. Cache lookups
// return (nil, nil) on miss.
type Store interface {
	// Geocode cache, satisfies geocode.Cache.
	GetCachedGeocode(ctx context.Context, key string) (*geocode.Result, error)
	PutCachedGeocode(ctx context.Context, key string, res *geocode.Result) error

	// Canonical place set.
	UpsertPlaces(ctx context.Context, places []model.CanonicalPlace) error
	ListPlaces(ctx context.Context) ([]model.CanonicalPlace, error)

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and tunes the storage backend.
type Config struct {
	Driver       string        `yaml:"driver" mapstructure:"driver"`
	Path         string        `yaml:"path" mapstructure:"path"`
	DatabaseURL  string        `yaml:"database_url" mapstructure:"database_url"`
	CacheTTLDays int           `yaml:"cache_ttl_days" mapstructure:"cache_ttl_days"`
	cacheTTL     time.Duration // derived
}

// CacheTTL converts the configured TTL to a duration; zero disables expiry.
func (c Config) CacheTTL() time.Duration {
	if c.cacheTTL != 0 {
		return c.cacheTTL
	}
	return time.Duration(c.CacheTTLDays) * 24 * time.Hour
}

// Open constructs the configured store and runs migrations.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = "poi.db"
		}
		s, err = NewSQLite(path, cfg.CacheTTL())
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, cfg.CacheTTL())
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}
