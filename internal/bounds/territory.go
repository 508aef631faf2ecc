// Package bounds validates and corrects coordinates against the territory's
// island geometry: named bounding boxes, a latitude-banded west-coastline
// approximation for the main island, and optionally a real coastline polygon.
package bounds

import (
	"os"
	"sort"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/coral-atlas/poi-cli/internal/model"
)

// Box is an axis-aligned lat/lng bounding box.
type Box struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLng float64 `yaml:"min_lng"`
	MaxLng float64 `yaml:"max_lng"`
}

// Contains reports whether the point falls inside the box (inclusive).
func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// Center returns the geometric center of the box.
func (b Box) Center() model.Coordinates {
	return model.Coordinates{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lng: (b.MinLng + b.MaxLng) / 2,
	}
}

// CoastBand maps a latitude band to the westernmost permitted longitude on
// the main island. Points west of WestLimit inside the band are in the sea.
type CoastBand struct {
	MinLat    float64 `yaml:"min_lat"`
	MaxLat    float64 `yaml:"max_lat"`
	WestLimit float64 `yaml:"west_limit"`
}

// Territory bundles the curated geographic tables: island boxes, the outer
// territory box, the main-island coastline bands, district centroids, and
// points known to be placeholder defaults rather than real positions.
type Territory struct {
	Name              string                       `yaml:"name"`
	MainIsland        string                       `yaml:"main_island"`
	Outer             Box                          `yaml:"outer"`
	Islands           map[string]Box               `yaml:"islands"`
	CoastBands        []CoastBand                  `yaml:"coast_bands"`
	OffshoreAllowlist []string                     `yaml:"offshore_allowlist"`
	DistrictCentroids map[string]model.Coordinates `yaml:"district_centroids"`
	IslandCentroids   map[string]model.Coordinates `yaml:"island_centroids"`
	SuspiciousPoints  []model.Coordinates          `yaml:"suspicious_points"`
}

// DefaultTerritory returns the built-in Cayman Islands tables. The coastline
// bands are a hand-tuned approximation of Grand Cayman's non-convex west
// coast; when a coastline polygon is configured it takes precedence.
func DefaultTerritory() *Territory {
	return &Territory{
		Name:       "Cayman Islands",
		MainIsland: "grand-cayman",
		// The western edge sits well past Grand Cayman so misplaced points
		// in the sea off West Bay stay inside the territory check and get a
		// coastline verdict with a usable fix instead of a blanket reject.
		Outer: Box{MinLat: 19.20, MaxLat: 19.80, MinLng: -82.00, MaxLng: -79.70},
		Islands: map[string]Box{
			"grand-cayman":  {MinLat: 19.245, MaxLat: 19.400, MinLng: -81.433, MaxLng: -81.080},
			"little-cayman": {MinLat: 19.640, MaxLat: 19.760, MinLng: -80.135, MaxLng: -79.935},
			"cayman-brac":   {MinLat: 19.670, MaxLat: 19.770, MinLng: -79.905, MaxLng: -79.715},
		},
		CoastBands: []CoastBand{
			{MinLat: 19.245, MaxLat: 19.270, WestLimit: -81.400},
			{MinLat: 19.270, MaxLat: 19.310, WestLimit: -81.393},
			{MinLat: 19.310, MaxLat: 19.345, WestLimit: -81.389},
			{MinLat: 19.345, MaxLat: 19.380, WestLimit: -81.420},
			{MinLat: 19.380, MaxLat: 19.400, WestLimit: -81.425},
		},
		OffshoreAllowlist: []string{
			"dive_site", "snorkel_site", "water_sport", "boat_tour", "sandbar",
		},
		DistrictCentroids: map[string]model.Coordinates{
			"george-town":   {Lat: 19.2866, Lng: -81.3744},
			"west-bay":      {Lat: 19.3762, Lng: -81.4089},
			"bodden-town":   {Lat: 19.2802, Lng: -81.2545},
			"north-side":    {Lat: 19.3450, Lng: -81.1960},
			"east-end":      {Lat: 19.3033, Lng: -81.1080},
			"cayman-brac":   {Lat: 19.7206, Lng: -79.8128},
			"little-cayman": {Lat: 19.6897, Lng: -80.0637},
		},
		IslandCentroids: map[string]model.Coordinates{
			"grand-cayman":  {Lat: 19.3133, Lng: -81.2546},
			"little-cayman": {Lat: 19.6967, Lng: -80.0455},
			"cayman-brac":   {Lat: 19.7197, Lng: -79.8103},
		},
		SuspiciousPoints: []model.Coordinates{
			{Lat: 19.50, Lng: -80.575},   // v1 importer default, open sea
			{Lat: 19.3133, Lng: -81.2546}, // island centroid seeded by the v1 importer
		},
	}
}

// LoadTerritory reads a YAML territory table, overlaying it on the built-in
// defaults. An empty path returns the defaults unchanged.
func LoadTerritory(path string) (*Territory, error) {
	t := DefaultTerritory()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "bounds: read territory table %s", path)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, eris.Wrapf(err, "bounds: parse territory table %s", path)
	}

	sort.Slice(t.CoastBands, func(i, j int) bool {
		return t.CoastBands[i].MinLat < t.CoastBands[j].MinLat
	})
	return t, nil
}

// bandFor returns the coastline band containing lat, or nil when the
// latitude is outside all bands.
func (t *Territory) bandFor(lat float64) *CoastBand {
	for i := range t.CoastBands {
		if lat >= t.CoastBands[i].MinLat && lat < t.CoastBands[i].MaxLat {
			return &t.CoastBands[i]
		}
	}
	return nil
}

// IslandFor returns the name of the island whose box contains the point,
// or "" when the point is over water or outside the territory.
func (t *Territory) IslandFor(lat, lng float64) string {
	for name, box := range t.Islands {
		if box.Contains(lat, lng) {
			return name
		}
	}
	return ""
}

// LoadCoastlinePolygon reads the first polygon from a shapefile as the
// main-island coastline ring. The returned polygon replaces the band table
// for land/water decisions.
func LoadCoastlinePolygon(path string) (*geom.Polygon, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "bounds: open coastline shapefile %s", path)
	}
	defer r.Close() //nolint:errcheck

	for r.Next() {
		_, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || len(poly.Points) == 0 {
			continue
		}

		// First ring only. Shapefile points are (X=lng, Y=lat).
		end := len(poly.Points)
		if poly.NumParts > 1 {
			end = int(poly.Parts[1])
		}
		flat := make([]float64, 0, end*2)
		for _, p := range poly.Points[:end] {
			flat = append(flat, p.X, p.Y)
		}

		g := geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}).SetSRID(4326)
		zap.L().Info("loaded coastline polygon",
			zap.String("path", path),
			zap.Int("vertices", end),
		)
		return g, nil
	}

	return nil, eris.Errorf("bounds: no polygon found in %s", path)
}
