package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/coral-atlas/poi-cli/internal/bounds"
	"github.com/coral-atlas/poi-cli/internal/config"
	"github.com/coral-atlas/poi-cli/internal/resolve"
	"github.com/coral-atlas/poi-cli/internal/store"
	"github.com/coral-atlas/poi-cli/pkg/geocode"
)

// buildValidator loads the territory definition (built-in default unless a
// YAML overlay is configured) and the optional coastline shapefile.
func buildValidator() (*bounds.Validator, error) {
	t := bounds.DefaultTerritory()
	if cfg.Bounds.TerritoryPath != "" {
		loaded, err := bounds.LoadTerritory(cfg.Bounds.TerritoryPath)
		if err != nil {
			return nil, eris.Wrapf(err, "setup: load territory %s", cfg.Bounds.TerritoryPath)
		}
		t = loaded
	}

	var opts []bounds.Option
	if cfg.Bounds.CoastlineShapefile != "" {
		poly, err := bounds.LoadCoastlinePolygon(cfg.Bounds.CoastlineShapefile)
		if err != nil {
			return nil, eris.Wrapf(err, "setup: load coastline %s", cfg.Bounds.CoastlineShapefile)
		}
		opts = append(opts, bounds.WithCoastlinePolygon(poly))
	}

	return bounds.NewValidator(t, opts...), nil
}

// loadVerifiedTable returns the configured verified-location table, or the
// built-in one when no path is set.
func loadVerifiedTable() (*geocode.Table, error) {
	if cfg.Tables.VerifiedPath == "" {
		return geocode.DefaultTable(), nil
	}
	t, err := geocode.LoadTable(cfg.Tables.VerifiedPath)
	if err != nil {
		return nil, eris.Wrapf(err, "setup: load verified table %s", cfg.Tables.VerifiedPath)
	}
	zap.L().Info("loaded verified table",
		zap.String("path", cfg.Tables.VerifiedPath),
		zap.Int("entries", t.Len()),
	)
	return t, nil
}

// buildProviders assembles the fast adapters in priority order (highest
// nominal confidence first; slice order breaks confidence ties) plus the
// optional budget-capped scrape provider.
func buildProviders(outer bounds.Box) (fast []geocode.Provider, scrape geocode.Provider) {
	ad := cfg.Adapters

	if ad.Nominatim.Enabled && ad.NominatimContact != "" {
		fast = append(fast, geocode.NewNominatim(outer, ad.NominatimContact, adapterOpts(ad.Nominatim)...))
	}
	if ad.Photon.Enabled {
		fast = append(fast, geocode.NewPhoton(outer, adapterOpts(ad.Photon)...))
	}
	if ad.ArcGIS.Enabled {
		fast = append(fast, geocode.NewArcGIS(outer, adapterOpts(ad.ArcGIS)...))
	}

	if ad.MapScrape.Enabled && cfg.Resolver.ScrapeBudget > 0 {
		scrape = geocode.NewMapScrape(outer, cfg.Resolver.ScrapeBudget, adapterOpts(ad.MapScrape)...)
	}

	return fast, scrape
}

func adapterOpts(ac config.AdapterConfig) []geocode.AdapterOption {
	var opts []geocode.AdapterOption
	if ac.BaseURL != "" {
		opts = append(opts, geocode.WithBaseURL(ac.BaseURL))
	}
	if ac.RatePerSec > 0 {
		opts = append(opts, geocode.WithRateLimit(ac.RatePerSec))
	}
	return opts
}

// openStore opens the configured persistence layer (sqlite by default) and
// runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "setup: open store")
	}
	return st, nil
}

// buildResolver wires the full resolution chain from config. The store is
// optional; when nil the resolver runs without a geocode cache.
func buildResolver(validator *bounds.Validator, st store.Store) (*resolve.Resolver, error) {
	table, err := loadVerifiedTable()
	if err != nil {
		return nil, err
	}

	fast, scrape := buildProviders(validator.Territory().Outer)

	opts := []resolve.ResolverOption{
		resolve.WithMinChangeMeters(cfg.Resolver.MinChangeMeters),
		resolve.WithFallbackConfidence(cfg.Resolver.FallbackConfidence),
	}
	if scrape != nil {
		opts = append(opts, resolve.WithScrape(scrape))
	}
	if st != nil && cfg.Resolver.CacheEnabled {
		opts = append(opts, resolve.WithCache(st))
	}

	return resolve.NewResolver(table, fast, validator, opts...), nil
}

func batchDelay() time.Duration {
	return time.Duration(cfg.Batch.DelayMs) * time.Millisecond
}
