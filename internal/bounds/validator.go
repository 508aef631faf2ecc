package bounds

import (
	"fmt"
	"math/rand/v2"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/coral-atlas/poi-cli/internal/model"
)

// Nudge offsets applied when suggesting a fix east of the coastline, in
// degrees of longitude. Randomized so corrected points don't stack on the
// exact same spot.
const (
	nudgeMin = 0.002
	nudgeMax = 0.005
)

// Verdict is the outcome of validating a single coordinate.
type Verdict struct {
	Valid        bool
	Reason       string // issue kind when invalid
	Warning      string // non-fatal finding, e.g. island mismatch
	SuggestedFix *model.Coordinates
}

// Validator checks coordinates against the territory geometry. Construct
// with NewValidator; the random source drives fix jitter and is injectable
// for deterministic tests.
type Validator struct {
	territory *Territory
	coastline *geom.Polygon
	offshore  map[string]bool
	rng       *rand.Rand
}

// Option configures the Validator.
type Option func(*Validator)

// WithCoastlinePolygon switches land/water decisions from the band table to
// point-in-polygon against a real coastline ring.
func WithCoastlinePolygon(p *geom.Polygon) Option {
	return func(v *Validator) {
		v.coastline = p
	}
}

// WithRand sets the random source used for suggested-fix jitter.
func WithRand(rng *rand.Rand) Option {
	return func(v *Validator) {
		v.rng = rng
	}
}

// NewValidator creates a Validator over the given territory tables.
func NewValidator(t *Territory, opts ...Option) *Validator {
	v := &Validator{
		territory: t,
		offshore:  make(map[string]bool, len(t.OffshoreAllowlist)),
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, c := range t.OffshoreAllowlist {
		v.offshore[c] = true
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Territory exposes the validator's tables to collaborators (resolver
// fallback, auditor).
func (v *Validator) Territory() *Territory {
	return v.territory
}

// OffshoreAllowed reports whether the category may legitimately sit in the
// water (dive sites, sandbars, boat tours).
func (v *Validator) OffshoreAllowed(category string) bool {
	return v.offshore[category]
}

// IslandFor returns the island containing the point, or "".
func (v *Validator) IslandFor(lat, lng float64) string {
	return v.territory.IslandFor(lat, lng)
}

// InTerritory reports whether the point is inside the outer territory box.
func (v *Validator) InTerritory(lat, lng float64) bool {
	return v.territory.Outer.Contains(lat, lng)
}

// Validate checks one coordinate. Zero coordinates and points outside the
// outer box are invalid without a suggested fix (they need a re-geocode,
// not a nudge). Points west of the main island's coastline get a fix just
// east of the boundary, unless the category is on the offshore allowlist.
func (v *Validator) Validate(lat, lng float64, category string) Verdict {
	if (model.Coordinates{Lat: lat, Lng: lng}).IsZero() {
		return Verdict{
			Valid:  false,
			Reason: model.IssueMissingCoordinates,
		}
	}

	if !v.territory.Outer.Contains(lat, lng) {
		return Verdict{
			Valid:  false,
			Reason: model.IssueOutOfTerritory,
		}
	}

	// Offshore categories are exempt from the coastline check but were
	// already held to the outer box above.
	if v.offshore[category] {
		return Verdict{Valid: true}
	}

	if v.coastline != nil {
		return v.validateAgainstPolygon(lat, lng)
	}

	if band := v.territory.bandFor(lat); band != nil && lng < band.WestLimit {
		fix := model.Coordinates{Lat: lat, Lng: band.WestLimit + v.nudge()}
		return Verdict{
			Valid:        false,
			Reason:       model.IssueWestOfCoastline,
			SuggestedFix: &fix,
		}
	}

	return Verdict{Valid: true}
}

// ValidateRecord validates a record's stored coordinate and additionally
// cross-checks the declared island against the island computed from the
// point. A mismatch is a warning, never an invalidation.
func (v *Validator) ValidateRecord(rec model.PlaceRecord) Verdict {
	c := rec.Location.Coordinates
	verdict := v.Validate(c.Lat, c.Lng, rec.Category)

	if verdict.Valid && rec.Location.Island != "" {
		computed := v.territory.IslandFor(c.Lat, c.Lng)
		if computed != "" && computed != rec.Location.Island {
			verdict.Warning = fmt.Sprintf("declared island %q but point is on %q", rec.Location.Island, computed)
		}
	}
	return verdict
}

// validateAgainstPolygon uses the configured coastline ring. Only points
// west of the polygon get a band-based fix; the bands still provide the
// eastward boundary to nudge to.
func (v *Validator) validateAgainstPolygon(lat, lng float64) Verdict {
	ring := v.coastline.LinearRing(0).FlatCoords()
	if xy.IsPointInRing(geom.XY, geom.Coord{lng, lat}, ring) {
		return Verdict{Valid: true}
	}

	// Off the main island's polygon. Points on the sister islands are fine;
	// the polygon covers the main island only.
	if island := v.territory.IslandFor(lat, lng); island != "" && island != v.territory.MainIsland {
		return Verdict{Valid: true}
	}

	verdict := Verdict{
		Valid:  false,
		Reason: model.IssueWestOfCoastline,
	}
	if band := v.territory.bandFor(lat); band != nil {
		fix := model.Coordinates{Lat: lat, Lng: band.WestLimit + v.nudge()}
		verdict.SuggestedFix = &fix
	}
	return verdict
}

func (v *Validator) nudge() float64 {
	return nudgeMin + v.rng.Float64()*(nudgeMax-nudgeMin)
}
