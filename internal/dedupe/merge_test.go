package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-atlas/poi-cli/internal/model"
)

func canonical(id, name, category string, lat, lng float64) model.CanonicalPlace {
	return model.CanonicalPlace{
		PlaceRecord: place(id, name, category, lat, lng),
		CanonicalID: "canon-" + id,
	}
}

func TestAdmitNewRecords(t *testing.T) {
	existing := []model.CanonicalPlace{
		canonical("p1", "Smith's Cove", "beach", 19.2728, -81.3865),
	}
	incoming := []model.PlaceRecord{
		place("p2", "Rum Point", "beach", 19.3727, -81.2733),
		place("p3", "Hell", "attraction", 19.3832, -81.4107),
	}

	out, dropped := Admit(existing, incoming)
	assert.Len(t, out, 3)
	assert.Empty(t, dropped)

	// New entities get fresh canonical IDs and track their source record.
	assert.NotEmpty(t, out[1].CanonicalID)
	assert.NotEqual(t, out[1].CanonicalID, out[2].CanonicalID)
	assert.Equal(t, []string{"p2"}, out[1].MergedFrom)
}

func TestAdmitDropsDuplicates(t *testing.T) {
	existing := []model.CanonicalPlace{
		canonical("p1", "Smith's Cove", "beach", 19.2728, -81.3865),
	}
	incoming := []model.PlaceRecord{
		place("p9", "Smiths Cove", "beach", 19.2729, -81.3865), // duplicate
		place("p2", "Rum Point", "beach", 19.3727, -81.2733),
	}

	out, dropped := Admit(existing, incoming)
	assert.Len(t, out, 2)
	require.Len(t, dropped, 1)
	assert.Equal(t, model.DupReasonNameProximity, dropped[0].Reason)

	// The duplicate is recorded on the surviving canonical, fields untouched.
	assert.Contains(t, out[0].MergedFrom, "p9")
	assert.Equal(t, "Smith's Cove", out[0].Name)
}

func TestAdmitNeverShrinks(t *testing.T) {
	existing := []model.CanonicalPlace{
		canonical("p1", "Smith's Cove", "beach", 19.2728, -81.3865),
		canonical("p2", "Rum Point", "beach", 19.3727, -81.2733),
	}
	incoming := []model.PlaceRecord{
		place("p3", "Smiths Cove", "beach", 19.2729, -81.3865),
		place("p4", "Starfish Point", "beach", 19.3669, -81.2655),
		place("p5", "Rum Pointe", "beach", 19.3727, -81.2734),
	}

	out, _ := Admit(existing, incoming)
	assert.GreaterOrEqual(t, len(out), len(existing))
	assert.LessOrEqual(t, len(out), len(existing)+len(incoming))
}

func TestAdmitIncomingDuplicateOfEarlierIncoming(t *testing.T) {
	// Second incoming duplicates the first, which was just admitted.
	incoming := []model.PlaceRecord{
		place("p1", "Starfish Point", "beach", 19.3669, -81.2655),
		place("p2", "Starfish Pointe", "beach", 19.3669, -81.2656),
	}

	out, dropped := Admit(nil, incoming)
	assert.Len(t, out, 1)
	assert.Len(t, dropped, 1)
	assert.ElementsMatch(t, []string{"p1", "p2"}, out[0].MergedFrom)
}

func TestEnrichRequiresSharedID(t *testing.T) {
	canon := canonical("p1", "Smith's Cove", "beach", 19.2728, -81.3865)
	sec := place("s1", "Smith's Cove", "beach", 19.2728, -81.3865)
	sec.Phone = "+1-345-555-0100"

	assert.False(t, Enrich(&canon, sec, "tripadvisor"))
	assert.Empty(t, canon.Phone)
}

func TestEnrichFillsAbsentFields(t *testing.T) {
	canon := canonical("p1", "Smith's Cove", "beach", 19.2728, -81.3865)
	canon.ExternalIDs = map[string]string{"osm": "node/1"}

	sec := place("s1", "Smith Cove Beach", "beach", 19.2728, -81.3865)
	sec.ExternalIDs = map[string]string{"osm": "node/1", "google": "place-xyz"}
	sec.Phone = "+1-345-555-0100"
	sec.Website = "https://example.ky"
	sec.Description = "Small sheltered beach south of George Town."
	sec.Rating = 4.7

	require.True(t, Enrich(&canon, sec, "tripadvisor"))

	assert.Equal(t, "+1-345-555-0100", canon.Phone)
	assert.Equal(t, "https://example.ky", canon.Website)
	assert.Equal(t, 4.7, canon.Rating)
	// New external IDs are merged in.
	assert.Equal(t, "place-xyz", canon.ExternalIDs["google"])

	// Provenance marks the enriched fields.
	prov, ok := canon.Provenance["phone"]
	require.True(t, ok)
	assert.Equal(t, "tripadvisor", prov.Source)
}

func TestEnrichNeverOverwritesRealValues(t *testing.T) {
	canon := canonical("p1", "Smith's Cove", "beach", 19.2728, -81.3865)
	canon.ExternalIDs = map[string]string{"osm": "node/1"}
	canon.Phone = "+1-345-555-0001"
	canon.Rating = 4.2
	canon.PhotoURL = "https://cdn.example.ky/real-photo.jpg"

	sec := place("s1", "Smith Cove", "beach", 19.2728, -81.3865)
	sec.ExternalIDs = map[string]string{"osm": "node/1"}
	sec.Phone = "+1-345-555-9999"
	sec.Rating = 3.0
	sec.PhotoURL = "https://other.example/photo.jpg"

	Enrich(&canon, sec, "tripadvisor")

	assert.Equal(t, "+1-345-555-0001", canon.Phone)
	assert.Equal(t, 4.2, canon.Rating)
	assert.Equal(t, "https://cdn.example.ky/real-photo.jpg", canon.PhotoURL)
}

func TestEnrichReplacesPlaceholderPhoto(t *testing.T) {
	canon := canonical("p1", "Smith's Cove", "beach", 19.2728, -81.3865)
	canon.ExternalIDs = map[string]string{"osm": "node/1"}
	canon.PhotoURL = "https://cdn.example.ky/images/placeholder.png"

	sec := place("s1", "Smith Cove", "beach", 19.2728, -81.3865)
	sec.ExternalIDs = map[string]string{"osm": "node/1"}
	sec.PhotoURL = "https://photos.example.ky/smiths-cove.jpg"

	require.True(t, Enrich(&canon, sec, "tripadvisor"))
	assert.Equal(t, "https://photos.example.ky/smiths-cove.jpg", canon.PhotoURL)
}

func TestEnrichIgnoresIncomingPlaceholderPhoto(t *testing.T) {
	canon := canonical("p1", "Smith's Cove", "beach", 19.2728, -81.3865)
	canon.ExternalIDs = map[string]string{"osm": "node/1"}

	sec := place("s1", "Smith Cove", "beach", 19.2728, -81.3865)
	sec.ExternalIDs = map[string]string{"osm": "node/1"}
	sec.PhotoURL = "https://maps.gstatic.com/tactile/pane/default_geocode.png"

	Enrich(&canon, sec, "google")
	assert.Empty(t, canon.PhotoURL)
}

func TestIsPlaceholderPhoto(t *testing.T) {
	assert.True(t, IsPlaceholderPhoto("https://site/images/PLACEHOLDER.png"))
	assert.True(t, IsPlaceholderPhoto("https://cdn/no-image.jpg"))
	assert.True(t, IsPlaceholderPhoto("https://maps.gstatic.com/x/default.png"))
	assert.False(t, IsPlaceholderPhoto("https://photos.example.ky/smiths-cove.jpg"))
	assert.False(t, IsPlaceholderPhoto(""))
}
