// Package dedupe finds duplicate place records and merges them into
// canonical entities.
package dedupe

import (
	"github.com/coral-atlas/poi-cli/internal/geo"
	"github.com/coral-atlas/poi-cli/internal/model"
	"github.com/coral-atlas/poi-cli/internal/names"
)

// Merge thresholds: two records are the same place when their normalized
// names are this similar AND they sit within this distance, or when they
// share an external-source identifier.
const (
	SimilarityThreshold = 0.8
	ProximityMeters     = 100
)

// Detect returns all candidate duplicate pairs among the records. Each
// unordered pair is evaluated once; pairs caught by the shared-identifier
// rule are not re-flagged by the name/proximity rule. O(n^2) is fine at
// this corpus size.
func Detect(records []model.PlaceRecord) []model.DuplicateCandidate {
	var out []model.DuplicateCandidate
	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			if cand := Compare(records[i], records[j]); cand != nil {
				out = append(out, *cand)
			}
		}
	}
	return out
}

// Compare evaluates one pair, returning nil when the records are distinct
// places. The check is symmetric: Compare(a,b) and Compare(b,a) agree.
func Compare(a, b model.PlaceRecord) *model.DuplicateCandidate {
	distKm := geo.HaversineKm(a.Location.Coordinates, b.Location.Coordinates)

	if shared := a.SharedExternalID(b); shared != "" {
		return &model.DuplicateCandidate{
			AID:            a.ID,
			BID:            b.ID,
			AName:          a.Name,
			BName:          b.Name,
			NameSimilarity: names.Similarity(a.Name, b.Name),
			DistanceKm:     distKm,
			Reason:         model.DupReasonSharedID,
		}
	}

	if a.Category != b.Category {
		return nil
	}
	sim := names.Similarity(a.Name, b.Name)
	if sim < SimilarityThreshold {
		return nil
	}
	if distKm*1000 > ProximityMeters {
		return nil
	}

	return &model.DuplicateCandidate{
		AID:            a.ID,
		BID:            b.ID,
		AName:          a.Name,
		BName:          b.Name,
		NameSimilarity: sim,
		DistanceKm:     distKm,
		Reason:         model.DupReasonNameProximity,
	}
}
