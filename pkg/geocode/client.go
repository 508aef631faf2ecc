// Package geocode provides name-to-coordinate resolution adapters with a
// uniform interface. Every adapter converts network failures, timeouts, and
// malformed payloads into a nil result so the resolution chain can fall
// through; results outside the territory's outer box are rejected the same
// way.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/coral-atlas/poi-cli/internal/bounds"
	"github.com/coral-atlas/poi-cli/internal/resilience"
)

// Result is one adapter's answer for a query.
type Result struct {
	Lat         float64
	Lng         float64
	Confidence  float64
	Source      string
	MatchedName string
}

// Provider is a single geocoding backend. Geocode returns (nil, nil) for
// "no usable answer"; a non-nil error is reserved for context cancellation
// and is still treated as a miss by the chain.
type Provider interface {
	Name() string
	Confidence() float64
	Geocode(ctx context.Context, query string) (*Result, error)
	Available() bool
}

// httpAdapter carries the shared plumbing of the HTTP-backed providers:
// client with a short timeout, a token-bucket limiter, the outer territory
// box for result rejection, and retry tuning for 429s.
type httpAdapter struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	outer      bounds.Box
	retry      resilience.RetryConfig
	baseURL    string
}

func newHTTPAdapter(baseURL string, outer bounds.Box, rps float64, timeout time.Duration) httpAdapter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	retry := resilience.DefaultRetryConfig()
	retry.ShouldRetry = resilience.IsRateLimited
	return httpAdapter{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		outer:      outer,
		retry:      retry,
		baseURL:    baseURL,
	}
}

// inBox reports whether the result is inside the outer territory box.
// Out-of-territory answers are filtered, not errors.
func (a *httpAdapter) inBox(lat, lng float64) bool {
	return a.outer.Contains(lat, lng)
}

// AdapterOption configures an HTTP-backed provider.
type AdapterOption func(*httpAdapter)

// WithHTTPClient sets a custom HTTP client (tests point it at a stub
// server's client).
func WithHTTPClient(hc *http.Client) AdapterOption {
	return func(a *httpAdapter) {
		a.httpClient = hc
	}
}

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(u string) AdapterOption {
	return func(a *httpAdapter) {
		a.baseURL = u
	}
}

// WithRateLimit overrides the requests-per-second limit.
func WithRateLimit(rps float64) AdapterOption {
	return func(a *httpAdapter) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}
