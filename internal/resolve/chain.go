// Package resolve implements the geocode resolution chain: verified table,
// adapter fan-out per query rung, territory validation of every candidate,
// and the district-centroid fallback that guarantees every record ends with
// an in-territory coordinate.
package resolve

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coral-atlas/poi-cli/internal/bounds"
	"github.com/coral-atlas/poi-cli/internal/geo"
	"github.com/coral-atlas/poi-cli/internal/model"
	"github.com/coral-atlas/poi-cli/pkg/geocode"
)

// Fallback and write-back tuning.
const (
	defaultMinChangeMeters    = 50
	defaultFallbackConfidence = 0.3
	fallbackJitterDeg         = 0.001 // ~110 m, keeps stacked fallbacks apart
)

// SourceFallback marks results produced by the centroid fallback rather
// than any geocoder.
const SourceFallback = "district-centroid"

// Resolver runs the resolution chain. All lookup tables are injected at
// construction and never mutated, so a Resolver is safe for concurrent use
// by the batch workers.
type Resolver struct {
	table     *geocode.Table
	fast      []geocode.Provider
	scrape    geocode.Provider
	validator *bounds.Validator
	cache     geocode.Cache
	rng       *rand.Rand

	minChangeMeters    float64
	fallbackConfidence float64
}

// ResolverOption configures the Resolver.
type ResolverOption func(*Resolver)

// WithScrape adds the last-resort scrape provider after the fast adapters.
func WithScrape(p geocode.Provider) ResolverOption {
	return func(r *Resolver) { r.scrape = p }
}

// WithCache adds a query-result cache consulted before any adapter call.
func WithCache(c geocode.Cache) ResolverOption {
	return func(r *Resolver) { r.cache = c }
}

// WithRand sets the random source for fallback jitter.
func WithRand(rng *rand.Rand) ResolverOption {
	return func(r *Resolver) { r.rng = rng }
}

// WithMinChangeMeters sets the write-back threshold; movements below it are
// discarded to keep re-runs churn-free.
func WithMinChangeMeters(m float64) ResolverOption {
	return func(r *Resolver) {
		if m > 0 {
			r.minChangeMeters = m
		}
	}
}

// WithFallbackConfidence overrides the centroid-fallback confidence.
func WithFallbackConfidence(c float64) ResolverOption {
	return func(r *Resolver) {
		if c > 0 {
			r.fallbackConfidence = c
		}
	}
}

// NewResolver wires the chain. The fast provider slice is the priority
// order used for tie-breaking.
func NewResolver(table *geocode.Table, fast []geocode.Provider, validator *bounds.Validator, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		table:              table,
		fast:               fast,
		validator:          validator,
		rng:                rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		minChangeMeters:    defaultMinChangeMeters,
		fallbackConfidence: defaultFallbackConfidence,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the chain for one record. It always returns a result: the
// district-centroid fallback cannot fail. The error return is reserved for
// context cancellation.
func (r *Resolver) Resolve(ctx context.Context, rec model.PlaceRecord) (*model.GeocodeResult, error) {
	// Steps 1-2: verified table, no network.
	if res := r.table.Exact(rec.Name); res != nil {
		if ok := r.accept(rec, toModel(res)); ok != nil {
			return ok, nil
		}
	}
	if res := r.table.Partial(rec.Name); res != nil {
		if ok := r.accept(rec, toModel(res)); ok != nil {
			return ok, nil
		}
	}

	territory := r.validator.Territory().Name

	// Step 3: query ladder over the fast adapters.
	for _, query := range BuildQueries(rec, territory) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res := r.lookup(ctx, query); res != nil {
			if ok := r.accept(rec, toModel(res)); ok != nil {
				return ok, nil
			}
		}
	}

	// Step 4: last-resort scrape on the most specific query.
	if r.scrape != nil && r.scrape.Available() {
		queries := BuildQueries(rec, territory)
		if len(queries) > 0 {
			if res, _ := r.scrape.Geocode(ctx, queries[0]); res != nil {
				if ok := r.accept(rec, toModel(res)); ok != nil {
					return ok, nil
				}
			}
		}
	}

	// Step 5: district centroid, always succeeds.
	return r.fallback(rec), nil
}

// accept runs a candidate result through the territory validator before it
// may win the chain. Points west of the coastline are moved to the
// validator's suggested fix; results the validator rejects without a fix
// are dropped so the chain keeps looking.
func (r *Resolver) accept(rec model.PlaceRecord, res *model.GeocodeResult) *model.GeocodeResult {
	verdict := r.validator.Validate(res.Lat, res.Lng, rec.Category)
	if verdict.Valid {
		return res
	}
	if verdict.SuggestedFix != nil {
		zap.L().Debug("resolve: nudging result onto land",
			zap.String("record", rec.ID),
			zap.String("source", res.Source),
			zap.Float64("lng", res.Lng),
			zap.Float64("fixedLng", verdict.SuggestedFix.Lng),
		)
		res.Lat = verdict.SuggestedFix.Lat
		res.Lng = verdict.SuggestedFix.Lng
		return res
	}
	zap.L().Debug("resolve: dropping result outside territory",
		zap.String("record", rec.ID),
		zap.String("source", res.Source),
		zap.String("reason", verdict.Reason),
	)
	return nil
}

// lookup checks the cache, then fans the query out over the available fast
// adapters concurrently. The highest confidence wins; equal confidence
// goes to the earlier adapter in priority order, keeping the outcome
// deterministic.
func (r *Resolver) lookup(ctx context.Context, query string) *geocode.Result {
	key := geocode.CacheKey(query)
	if r.cache != nil {
		if cached, err := r.cache.GetCachedGeocode(ctx, key); err == nil && cached != nil {
			return cached
		}
	}

	results := make([]*geocode.Result, len(r.fast))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range r.fast {
		if !p.Available() {
			continue
		}
		g.Go(func() error {
			res, err := p.Geocode(gctx, query)
			if err == nil {
				results[i] = res
			}
			return nil
		})
	}
	_ = g.Wait()

	var best *geocode.Result
	for _, res := range results {
		if res == nil {
			continue
		}
		if best == nil || res.Confidence > best.Confidence {
			best = res
		}
	}

	if best != nil && r.cache != nil {
		if err := r.cache.PutCachedGeocode(ctx, key, best); err != nil {
			zap.L().Debug("resolve: cache write failed", zap.Error(err))
		}
	}
	return best
}

// fallback places the record at its district centroid with a small jitter
// so repeated fallbacks don't stack on one point. Unknown districts fall
// back to the declared island's centroid, then the main island's.
func (r *Resolver) fallback(rec model.PlaceRecord) *model.GeocodeResult {
	t := r.validator.Territory()

	centroid, ok := t.DistrictCentroids[districtKey(rec.Location.District)]
	if !ok {
		centroid, ok = t.IslandCentroids[districtKey(rec.Location.Island)]
	}
	if !ok {
		centroid = t.IslandCentroids[t.MainIsland]
	}
	if centroid.IsZero() {
		// Overlay tables may omit centroids; the island box still anchors.
		centroid = t.Islands[t.MainIsland].Center()
	}

	lat := centroid.Lat + (r.rng.Float64()*2-1)*fallbackJitterDeg
	lng := centroid.Lng + (r.rng.Float64()*2-1)*fallbackJitterDeg
	if !r.validator.InTerritory(lat, lng) {
		lat, lng = centroid.Lat, centroid.Lng
	}

	res := &model.GeocodeResult{
		Lat:        lat,
		Lng:        lng,
		Confidence: r.fallbackConfidence,
		Source:     SourceFallback,
	}
	zap.L().Debug("resolve: centroid fallback",
		zap.String("record", rec.ID),
		zap.String("district", rec.Location.District),
	)
	return res
}

// ApplyResult writes a resolution back onto a copy of the record, honoring
// the minimum-change threshold: an existing coordinate within the
// threshold of the new one is left untouched so re-runs are no-ops. The
// threshold only protects coordinates that pass the territory check; a
// stored point the validator rejects is always replaced.
// Returns the (possibly updated) record and a non-nil Correction when the
// coordinate actually moved.
func (r *Resolver) ApplyResult(rec model.PlaceRecord, res *model.GeocodeResult) (model.PlaceRecord, *model.Correction) {
	out := rec.Clone()
	old := rec.Location.Coordinates
	next := res.Coordinates()

	if !old.IsZero() && geo.HaversineMeters(old, next) <= r.minChangeMeters &&
		r.validator.Validate(old.Lat, old.Lng, rec.Category).Valid {
		return out, nil
	}

	out.Location.Coordinates = next
	out.Precision = geo.CoordinatePrecision(next)
	out.SetProvenance("coordinates", model.Provenance{
		Source:     res.Source,
		Confidence: res.Confidence,
		RecordedAt: time.Now().UTC(),
	})

	return out, &model.Correction{
		RecordID:   rec.ID,
		Name:       rec.Name,
		OldCoord:   old,
		NewCoord:   next,
		DistanceKm: geo.HaversineKm(old, next),
		Source:     res.Source,
	}
}

func toModel(res *geocode.Result) *model.GeocodeResult {
	return &model.GeocodeResult{
		Lat:         res.Lat,
		Lng:         res.Lng,
		Confidence:  res.Confidence,
		Source:      res.Source,
		MatchedName: res.MatchedName,
	}
}
