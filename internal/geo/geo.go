// Package geo provides great-circle distance and coordinate precision
// helpers used throughout the pipeline.
package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/coral-atlas/poi-cli/internal/model"
)

const earthRadiusMeters = 6371e3

// HaversineMeters returns the great-circle distance between two points in
// meters.
func HaversineMeters(a, b model.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// HaversineKm returns the great-circle distance in kilometers.
func HaversineKm(a, b model.Coordinates) float64 {
	return HaversineMeters(a, b) / 1000
}

// DecimalPlaces returns the number of significant decimal digits in the
// stored value, capped at 8. A coordinate stored as 19.33 has 2; the
// pipeline targets at least 4 (~11 m).
func DecimalPlaces(f float64) int {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	n := len(s) - i - 1
	if n > 8 {
		n = 8
	}
	return n
}

// CoordinatePrecision returns the lower of the two axes' decimal
// resolutions, which is what bounds the positional accuracy of the pair.
func CoordinatePrecision(c model.Coordinates) int {
	latP := DecimalPlaces(c.Lat)
	lngP := DecimalPlaces(c.Lng)
	if lngP < latP {
		return lngP
	}
	return latP
}
