package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/coral-atlas/poi-cli/internal/bounds"
	"github.com/coral-atlas/poi-cli/internal/resilience"
)

const nominatimDefaultURL = "https://nominatim.openstreetmap.org/search"

// NominatimProvider is the authoritative open geocoder. Its usage policy
// requires an identifying contact in the User-Agent and at most one request
// per second, so the provider is unavailable until a contact is configured.
type NominatimProvider struct {
	httpAdapter
	contact    string
	confidence float64
}

// NewNominatim creates a Nominatim provider. The contact string (an email
// or project URL) is mandatory per the service's usage policy.
func NewNominatim(outer bounds.Box, contact string, opts ...AdapterOption) *NominatimProvider {
	p := &NominatimProvider{
		httpAdapter: newHTTPAdapter(nominatimDefaultURL, outer, 1, 0),
		contact:     contact,
		confidence:  0.90,
	}
	for _, opt := range opts {
		opt(&p.httpAdapter)
	}
	return p
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return "nominatim" }

// Confidence implements Provider.
func (p *NominatimProvider) Confidence() float64 { return p.confidence }

// Available implements Provider. Without a contact header the service
// blocks traffic, so the adapter takes itself out of the chain.
func (p *NominatimProvider) Available() bool { return p.contact != "" }

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode implements Provider.
func (p *NominatimProvider) Geocode(ctx context.Context, query string) (*Result, error) {
	body, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) ([]byte, error) {
		return p.fetch(ctx, query)
	})
	if err != nil {
		zap.L().Debug("nominatim: request failed", zap.String("query", query), zap.Error(err))
		return nil, nil //nolint:nilerr // adapter failures are misses, not errors
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		zap.L().Debug("nominatim: malformed payload", zap.String("query", query), zap.Error(err))
		return nil, nil //nolint:nilerr
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		return nil, nil
	}
	if !p.inBox(lat, lng) {
		return nil, nil
	}

	return &Result{
		Lat:         lat,
		Lng:         lng,
		Confidence:  p.confidence,
		Source:      p.Name(),
		MatchedName: results[0].DisplayName,
	}, nil
}

func (p *NominatimProvider) fetch(ctx context.Context, query string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit wait")
	}

	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", "poi-cli/1.0 ("+p.contact+")")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("nominatim: status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	return io.ReadAll(resp.Body)
}
