package bounds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxContains(t *testing.T) {
	b := Box{MinLat: 19.245, MaxLat: 19.400, MinLng: -81.433, MaxLng: -81.080}

	assert.True(t, b.Contains(19.30, -81.30))
	assert.True(t, b.Contains(19.245, -81.433)) // inclusive edges
	assert.False(t, b.Contains(19.50, -81.30))
	assert.False(t, b.Contains(19.30, -81.50))
}

func TestBoxCenter(t *testing.T) {
	b := Box{MinLat: 19.20, MaxLat: 19.80, MinLng: -81.45, MaxLng: -79.70}
	c := b.Center()
	assert.InDelta(t, 19.50, c.Lat, 1e-9)
	assert.InDelta(t, -80.575, c.Lng, 1e-9)
}

func TestDefaultTerritoryConsistency(t *testing.T) {
	terr := DefaultTerritory()

	// Every island box sits inside the outer box.
	for name, box := range terr.Islands {
		assert.True(t, terr.Outer.Contains(box.MinLat, box.MinLng), "island %s min corner", name)
		assert.True(t, terr.Outer.Contains(box.MaxLat, box.MaxLng), "island %s max corner", name)
	}

	// Every district centroid lands on an island.
	for district, c := range terr.DistrictCentroids {
		assert.NotEmpty(t, terr.IslandFor(c.Lat, c.Lng), "district %s centroid off-island", district)
	}

	// Island centroids belong to their own island box.
	for island, c := range terr.IslandCentroids {
		assert.Equal(t, island, terr.IslandFor(c.Lat, c.Lng), "centroid of %s", island)
	}

	assert.Contains(t, terr.OffshoreAllowlist, "dive_site")
	assert.Equal(t, "grand-cayman", terr.MainIsland)
}

func TestDefaultTerritoryOuterCoversWestCoastSea(t *testing.T) {
	terr := DefaultTerritory()

	// Sea points west of the bands remain inside the outer box so the
	// coastline check, not the territory check, decides them.
	assert.True(t, terr.Outer.Contains(19.33, -81.50))
	assert.False(t, terr.Outer.Contains(19.33, -85.0))

	for _, band := range terr.CoastBands {
		assert.Greater(t, band.WestLimit, terr.Outer.MinLng, "band at %.3f", band.MinLat)
	}
}

func TestBandForCoversMainIslandLatitudes(t *testing.T) {
	terr := DefaultTerritory()

	band := terr.bandFor(19.33)
	require.NotNil(t, band)
	assert.InDelta(t, -81.389, band.WestLimit, 1e-9)

	// Sister island latitudes are outside the band table.
	assert.Nil(t, terr.bandFor(19.70))
}

func TestIslandFor(t *testing.T) {
	terr := DefaultTerritory()

	assert.Equal(t, "grand-cayman", terr.IslandFor(19.30, -81.30))
	assert.Equal(t, "cayman-brac", terr.IslandFor(19.72, -79.81))
	assert.Equal(t, "little-cayman", terr.IslandFor(19.69, -80.06))
	assert.Empty(t, terr.IslandFor(19.50, -80.575)) // open sea
}

func TestLoadTerritoryOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "territory.yaml")
	yaml := `
name: Test Territory
coast_bands:
  - min_lat: 19.30
    max_lat: 19.40
    west_limit: -81.40
  - min_lat: 19.20
    max_lat: 19.30
    west_limit: -81.39
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	terr, err := LoadTerritory(path)
	require.NoError(t, err)

	assert.Equal(t, "Test Territory", terr.Name)
	// Defaults survive the overlay.
	assert.Equal(t, "grand-cayman", terr.MainIsland)
	// Bands come back sorted by latitude.
	require.Len(t, terr.CoastBands, 2)
	assert.Less(t, terr.CoastBands[0].MinLat, terr.CoastBands[1].MinLat)
}

func TestLoadTerritoryEmptyPath(t *testing.T) {
	terr, err := LoadTerritory("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTerritory().Name, terr.Name)
}

func TestLoadTerritoryMissingFile(t *testing.T) {
	_, err := LoadTerritory(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
