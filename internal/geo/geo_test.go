package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coral-atlas/poi-cli/internal/model"
)

func TestHaversineMetersZeroDistance(t *testing.T) {
	p := model.Coordinates{Lat: 19.2869, Lng: -81.3674}
	assert.Equal(t, 0.0, HaversineMeters(p, p))
}

func TestHaversineMetersKnownDistance(t *testing.T) {
	// George Town to Rum Point, roughly 22 km across the North Sound.
	gt := model.Coordinates{Lat: 19.2869, Lng: -81.3674}
	rp := model.Coordinates{Lat: 19.3697, Lng: -81.2732}
	d := HaversineMeters(gt, rp)
	assert.InDelta(t, 13400, d, 500)
}

func TestHaversineMetersSmallOffset(t *testing.T) {
	// 0.001 degrees of latitude is about 111 m anywhere on Earth.
	a := model.Coordinates{Lat: 19.3000, Lng: -81.3000}
	b := model.Coordinates{Lat: 19.3010, Lng: -81.3000}
	assert.InDelta(t, 111, HaversineMeters(a, b), 2)
}

func TestHaversineSymmetric(t *testing.T) {
	a := model.Coordinates{Lat: 19.3894, Lng: -81.2740}
	b := model.Coordinates{Lat: 19.2728, Lng: -81.3865}
	assert.Equal(t, HaversineMeters(a, b), HaversineMeters(b, a))
}

func TestHaversineKm(t *testing.T) {
	a := model.Coordinates{Lat: 19.3, Lng: -81.3}
	b := model.Coordinates{Lat: 19.4, Lng: -81.3}
	assert.InDelta(t, HaversineMeters(a, b)/1000, HaversineKm(a, b), 1e-9)
}

func TestDecimalPlaces(t *testing.T) {
	tests := []struct {
		f    float64
		want int
	}{
		{19, 0},
		{19.3, 1},
		{19.33, 2},
		{19.3894, 4},
		{-81.2740, 3}, // trailing zero is not stored
		{19.123456789, 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DecimalPlaces(tt.f), "value %v", tt.f)
	}
}

func TestCoordinatePrecision(t *testing.T) {
	// Bounded by the coarser axis.
	c := model.Coordinates{Lat: 19.3894, Lng: -81.27}
	assert.Equal(t, 2, CoordinatePrecision(c))

	c = model.Coordinates{Lat: 19.3894, Lng: -81.2741}
	assert.Equal(t, 4, CoordinatePrecision(c))
}
