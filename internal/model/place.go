// Package model defines the core domain types shared across the pipeline.
package model

import "time"

// Coordinates is a WGS84 lat/lng pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero reports whether the pair is the unset (0,0) null island value.
func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// Location is the address block of a place record. District and Island are
// declared by the source and may be wrong; the pipeline cross-checks them
// against the coordinates.
type Location struct {
	Address     string      `json:"address,omitempty"`
	District    string      `json:"district,omitempty"`
	Island      string      `json:"island,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
}

// Provenance records where a field's current value came from.
type Provenance struct {
	Source     string    `json:"source"`
	Confidence float64   `json:"confidence,omitempty"`
	RecordedAt time.Time `json:"recorded_at,omitempty"`
}

// PlaceRecord is a raw point-of-interest record as delivered by a source.
// Records are never mutated in place; the pipeline produces transformed
// copies.
type PlaceRecord struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Category    string                `json:"category"`
	Location    Location              `json:"location"`
	ExternalIDs map[string]string     `json:"external_ids,omitempty"`
	Rating      float64               `json:"rating,omitempty"`
	PhotoURL    string                `json:"photo_url,omitempty"`
	Phone       string                `json:"phone,omitempty"`
	Website     string                `json:"website,omitempty"`
	Description string                `json:"description,omitempty"`
	Precision   int                   `json:"precision,omitempty"`
	Provenance  map[string]Provenance `json:"provenance,omitempty"`
}

// SharedExternalID returns the first external-source identifier the two
// records have in common, or "" when there is none.
func (r PlaceRecord) SharedExternalID(other PlaceRecord) string {
	for source, id := range r.ExternalIDs {
		if id == "" {
			continue
		}
		if otherID, ok := other.ExternalIDs[source]; ok && otherID == id {
			return source + ":" + id
		}
	}
	return ""
}

// Clone returns a deep copy of the record so callers can transform it
// without touching the original.
func (r PlaceRecord) Clone() PlaceRecord {
	out := r
	if r.ExternalIDs != nil {
		out.ExternalIDs = make(map[string]string, len(r.ExternalIDs))
		for k, v := range r.ExternalIDs {
			out.ExternalIDs[k] = v
		}
	}
	if r.Provenance != nil {
		out.Provenance = make(map[string]Provenance, len(r.Provenance))
		for k, v := range r.Provenance {
			out.Provenance[k] = v
		}
	}
	return out
}

// SetProvenance records provenance for a field, allocating the map lazily.
func (r *PlaceRecord) SetProvenance(field string, p Provenance) {
	if r.Provenance == nil {
		r.Provenance = make(map[string]Provenance)
	}
	r.Provenance[field] = p
}

// GeocodeResult is the ephemeral output of one geocode resolution. It is
// consumed immediately by the caller and only persisted inside checkpoints.
type GeocodeResult struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Confidence  float64 `json:"confidence"`
	Source      string  `json:"source"`
	MatchedName string  `json:"matched_name,omitempty"`
}

// Coordinates returns the result's position as a Coordinates value.
func (g GeocodeResult) Coordinates() Coordinates {
	return Coordinates{Lat: g.Lat, Lng: g.Lng}
}

// CanonicalPlace is the single deduplicated entity representing one
// real-world place after merging.
type CanonicalPlace struct {
	PlaceRecord
	CanonicalID     string   `json:"canonical_id"`
	MergedFrom      []string `json:"merged_from,omitempty"`
	CoordSource     string   `json:"coord_source,omitempty"`
	CoordConfidence float64  `json:"coord_confidence,omitempty"`
}

// DuplicateCandidate is a transient pairing of two records suspected to be
// the same place. It is reported but never persisted with the records.
type DuplicateCandidate struct {
	AID            string  `json:"a_id"`
	BID            string  `json:"b_id"`
	AName          string  `json:"a_name"`
	BName          string  `json:"b_name"`
	NameSimilarity float64 `json:"name_similarity"`
	DistanceKm     float64 `json:"distance_km"`
	Reason         string  `json:"reason"`
}

// Duplicate pair reasons.
const (
	DupReasonSharedID      = "shared-id"
	DupReasonNameProximity = "name-proximity"
)
