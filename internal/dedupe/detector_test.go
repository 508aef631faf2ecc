package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-atlas/poi-cli/internal/model"
)

func place(id, name, category string, lat, lng float64) model.PlaceRecord {
	return model.PlaceRecord{
		ID:       id,
		Name:     name,
		Category: category,
		Location: model.Location{Coordinates: model.Coordinates{Lat: lat, Lng: lng}},
	}
}

func TestCompareNameProximityDuplicate(t *testing.T) {
	// Same beach, apostrophe variant, ~80 m apart.
	a := place("p1", "Smith's Cove", "beach", 19.2728, -81.3865)
	b := place("p2", "Smiths Cove", "beach", 19.2735, -81.3866)

	cand := Compare(a, b)
	require.NotNil(t, cand)
	assert.Equal(t, model.DupReasonNameProximity, cand.Reason)
	assert.Equal(t, 1.0, cand.NameSimilarity)
	assert.Less(t, cand.DistanceKm*1000, 100.0)
}

func TestCompareTooFarApart(t *testing.T) {
	// Identical names but 500 m apart: different physical entries.
	a := place("p1", "Coral Reef Bar", "bar", 19.2728, -81.3865)
	b := place("p2", "Coral Reef Bar", "bar", 19.2773, -81.3865)

	assert.Nil(t, Compare(a, b))
}

func TestCompareDifferentCategory(t *testing.T) {
	a := place("p1", "Rum Point", "beach", 19.3727, -81.2733)
	b := place("p2", "Rum Point", "restaurant", 19.3727, -81.2733)

	assert.Nil(t, Compare(a, b))
}

func TestCompareLowSimilarity(t *testing.T) {
	a := place("p1", "Stingray City", "dive_site", 19.3894, -81.2740)
	b := place("p2", "Coral Gardens", "dive_site", 19.3894, -81.2740)

	assert.Nil(t, Compare(a, b))
}

func TestCompareSharedExternalID(t *testing.T) {
	// Shared identifier is certain, regardless of name or distance.
	a := place("p1", "Calico Jack's", "bar", 19.3400, -81.3850)
	b := place("p2", "Calico Jacks Beach Bar", "bar", 19.3500, -81.3000)
	a.ExternalIDs = map[string]string{"osm": "node/12345"}
	b.ExternalIDs = map[string]string{"osm": "node/12345"}

	cand := Compare(a, b)
	require.NotNil(t, cand)
	assert.Equal(t, model.DupReasonSharedID, cand.Reason)
}

func TestCompareSharedIDNotDoubleFlagged(t *testing.T) {
	// Would also match on name+proximity; the identifier rule wins and the
	// pair is reported once.
	a := place("p1", "Smith's Cove", "beach", 19.2728, -81.3865)
	b := place("p2", "Smiths Cove", "beach", 19.2729, -81.3865)
	a.ExternalIDs = map[string]string{"google": "place-abc"}
	b.ExternalIDs = map[string]string{"google": "place-abc"}

	cands := Detect([]model.PlaceRecord{a, b})
	require.Len(t, cands, 1)
	assert.Equal(t, model.DupReasonSharedID, cands[0].Reason)
}

func TestCompareDifferentSourceIDsNoMatch(t *testing.T) {
	a := place("p1", "Smith's Cove", "beach", 19.2728, -81.3865)
	b := place("p2", "Pedro St. James", "attraction", 19.2633, -81.2550)
	a.ExternalIDs = map[string]string{"osm": "node/1"}
	b.ExternalIDs = map[string]string{"osm": "node/2"}

	assert.Nil(t, Compare(a, b))
}

func TestCompareSymmetric(t *testing.T) {
	a := place("p1", "Smith's Cove", "beach", 19.2728, -81.3865)
	b := place("p2", "Smiths Cove", "beach", 19.2735, -81.3866)

	ab := Compare(a, b)
	ba := Compare(b, a)
	require.NotNil(t, ab)
	require.NotNil(t, ba)
	assert.Equal(t, ab.Reason, ba.Reason)
	assert.Equal(t, ab.NameSimilarity, ba.NameSimilarity)
	assert.InDelta(t, ab.DistanceKm, ba.DistanceKm, 1e-12)
}

func TestDetectPairsOnce(t *testing.T) {
	a := place("p1", "Smith's Cove", "beach", 19.2728, -81.3865)
	b := place("p2", "Smiths Cove", "beach", 19.2729, -81.3865)
	c := place("p3", "Rum Point", "beach", 19.3727, -81.2733)

	cands := Detect([]model.PlaceRecord{a, b, c})
	require.Len(t, cands, 1)
	assert.Equal(t, "p1", cands[0].AID)
	assert.Equal(t, "p2", cands[0].BID)
}

func TestDetectEmptyAndSingle(t *testing.T) {
	assert.Empty(t, Detect(nil))
	assert.Empty(t, Detect([]model.PlaceRecord{place("p1", "Solo", "bar", 19.3, -81.3)}))
}
