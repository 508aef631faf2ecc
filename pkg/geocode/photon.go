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

const photonDefaultURL = "https://photon.komoot.io/api"

// PhotonProvider is the fast open geocoder: free text search, generous rate
// limits, moderate accuracy.
type PhotonProvider struct {
	httpAdapter
	confidence float64
}

// NewPhoton creates a Photon provider bounded to the territory box.
func NewPhoton(outer bounds.Box, opts ...AdapterOption) *PhotonProvider {
	p := &PhotonProvider{
		httpAdapter: newHTTPAdapter(photonDefaultURL, outer, 5, 0),
		confidence:  0.85,
	}
	for _, opt := range opts {
		opt(&p.httpAdapter)
	}
	return p
}

// Name implements Provider.
func (p *PhotonProvider) Name() string { return "photon" }

// Confidence implements Provider.
func (p *PhotonProvider) Confidence() float64 { return p.confidence }

// Available implements Provider.
func (p *PhotonProvider) Available() bool { return true }

// photonResponse is the GeoJSON FeatureCollection Photon returns.
type photonResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [lng, lat]
		} `json:"geometry"`
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode implements Provider.
func (p *PhotonProvider) Geocode(ctx context.Context, query string) (*Result, error) {
	body, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) ([]byte, error) {
		return p.fetch(ctx, query)
	})
	if err != nil {
		zap.L().Debug("photon: request failed", zap.String("query", query), zap.Error(err))
		return nil, nil //nolint:nilerr // adapter failures are misses, not errors
	}

	var resp photonResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		zap.L().Debug("photon: malformed payload", zap.String("query", query), zap.Error(err))
		return nil, nil //nolint:nilerr
	}
	if len(resp.Features) == 0 || len(resp.Features[0].Geometry.Coordinates) < 2 {
		return nil, nil
	}

	f := resp.Features[0]
	lng, lat := f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
	if !p.inBox(lat, lng) {
		zap.L().Debug("photon: result outside territory",
			zap.String("query", query),
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
		)
		return nil, nil
	}

	return &Result{
		Lat:         lat,
		Lng:         lng,
		Confidence:  p.confidence,
		Source:      p.Name(),
		MatchedName: f.Properties.Name,
	}, nil
}

func (p *PhotonProvider) fetch(ctx context.Context, query string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "photon: rate limit wait")
	}

	params := url.Values{
		"q":     {query},
		"limit": {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "photon: build request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "photon: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("photon: status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	return io.ReadAll(resp.Body)
}
