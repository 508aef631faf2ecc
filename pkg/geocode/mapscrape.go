package geocode

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/coral-atlas/poi-cli/internal/bounds"
	"github.com/coral-atlas/poi-cli/internal/resilience"
)

const mapScrapeDefaultURL = "https://www.google.com/maps/search/"

// coordPattern matches the "@lat,lng" fragment embedded in consumer map
// search pages.
var coordPattern = regexp.MustCompile(`@(-?\d{1,2}\.\d{4,}),(-?\d{1,3}\.\d{4,})`)

// MapScrapeProvider extracts an embedded coordinate from a consumer map
// search page. Slow and fragile, so it carries a hard per-run call budget
// and sits last in the chain; when the page does resolve, the position is
// usually excellent.
type MapScrapeProvider struct {
	httpAdapter
	confidence float64
	budget     atomic.Int64
}

// NewMapScrape creates the last-resort scrape provider with a per-run call
// budget.
func NewMapScrape(outer bounds.Box, budget int, opts ...AdapterOption) *MapScrapeProvider {
	p := &MapScrapeProvider{
		httpAdapter: newHTTPAdapter(mapScrapeDefaultURL, outer, 0.5, 0),
		confidence:  0.95,
	}
	p.budget.Store(int64(budget))
	for _, opt := range opts {
		opt(&p.httpAdapter)
	}
	return p
}

// Name implements Provider.
func (p *MapScrapeProvider) Name() string { return "map-scrape" }

// Confidence implements Provider.
func (p *MapScrapeProvider) Confidence() float64 { return p.confidence }

// Available implements Provider. The provider withdraws once its call
// budget is spent.
func (p *MapScrapeProvider) Available() bool { return p.budget.Load() > 0 }

// Geocode implements Provider.
func (p *MapScrapeProvider) Geocode(ctx context.Context, query string) (*Result, error) {
	if p.budget.Add(-1) < 0 {
		return nil, nil
	}

	body, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) ([]byte, error) {
		return p.fetch(ctx, query)
	})
	if err != nil {
		zap.L().Debug("map-scrape: request failed", zap.String("query", query), zap.Error(err))
		return nil, nil //nolint:nilerr // adapter failures are misses, not errors
	}

	m := coordPattern.FindSubmatch(body)
	if m == nil {
		return nil, nil
	}
	lat, latErr := strconv.ParseFloat(string(m[1]), 64)
	lng, lngErr := strconv.ParseFloat(string(m[2]), 64)
	if latErr != nil || lngErr != nil {
		return nil, nil
	}
	if !p.inBox(lat, lng) {
		return nil, nil
	}

	return &Result{
		Lat:        lat,
		Lng:        lng,
		Confidence: p.confidence,
		Source:     p.Name(),
	}, nil
}

func (p *MapScrapeProvider) fetch(ctx context.Context, query string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "map-scrape: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+url.PathEscape(query), nil)
	if err != nil {
		return nil, eris.Wrap(err, "map-scrape: build request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "map-scrape: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("map-scrape: status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	// Cap the read; the coordinate fragment appears early in the page.
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
