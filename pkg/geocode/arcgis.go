package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/coral-atlas/poi-cli/internal/bounds"
	"github.com/coral-atlas/poi-cli/internal/resilience"
)

const arcgisDefaultURL = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"

// ArcGISProvider is a backup geocoder using the public World Geocoder's
// findAddressCandidates endpoint.
type ArcGISProvider struct {
	httpAdapter
	confidence float64
}

// NewArcGIS creates the backup provider.
func NewArcGIS(outer bounds.Box, opts ...AdapterOption) *ArcGISProvider {
	p := &ArcGISProvider{
		httpAdapter: newHTTPAdapter(arcgisDefaultURL, outer, 2, 0),
		confidence:  0.80,
	}
	for _, opt := range opts {
		opt(&p.httpAdapter)
	}
	return p
}

// Name implements Provider.
func (p *ArcGISProvider) Name() string { return "arcgis" }

// Confidence implements Provider.
func (p *ArcGISProvider) Confidence() float64 { return p.confidence }

// Available implements Provider.
func (p *ArcGISProvider) Available() bool { return true }

type arcgisResponse struct {
	Candidates []struct {
		Address  string `json:"address"`
		Location struct {
			X float64 `json:"x"` // longitude
			Y float64 `json:"y"` // latitude
		} `json:"location"`
		Score float64 `json:"score"`
	} `json:"candidates"`
}

// Geocode implements Provider.
func (p *ArcGISProvider) Geocode(ctx context.Context, query string) (*Result, error) {
	body, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) ([]byte, error) {
		return p.fetch(ctx, query)
	})
	if err != nil {
		zap.L().Debug("arcgis: request failed", zap.String("query", query), zap.Error(err))
		return nil, nil //nolint:nilerr // adapter failures are misses, not errors
	}

	var resp arcgisResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		zap.L().Debug("arcgis: malformed payload", zap.String("query", query), zap.Error(err))
		return nil, nil //nolint:nilerr
	}
	if len(resp.Candidates) == 0 {
		return nil, nil
	}

	c := resp.Candidates[0]
	lat, lng := c.Location.Y, c.Location.X
	if !p.inBox(lat, lng) {
		return nil, nil
	}

	return &Result{
		Lat:         lat,
		Lng:         lng,
		Confidence:  p.confidence,
		Source:      p.Name(),
		MatchedName: c.Address,
	}, nil
}

func (p *ArcGISProvider) fetch(ctx context.Context, query string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "arcgis: rate limit wait")
	}

	params := url.Values{
		"f":            {"json"},
		"singleLine":   {query},
		"maxLocations": {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "arcgis: build request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "arcgis: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("arcgis: status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	return io.ReadAll(resp.Body)
}
