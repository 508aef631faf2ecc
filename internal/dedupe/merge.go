package dedupe

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coral-atlas/poi-cli/internal/model"
)

// placeholderPhotoFragments mark stock or default images that any real
// photo should replace. Heuristic; misses are flagged by the auditor, not
// silently overwritten.
var placeholderPhotoFragments = []string{
	"placeholder", "default", "no-image", "noimage", "stock-photo", "gstatic",
}

// Admit folds incoming records into the canonical set. A record that
// duplicates an existing canonical entity is dropped from admission (its
// richer fields are left for an explicit Enrich pass) and recorded on the
// canonical's MergedFrom list; the rest become new canonical entities.
// The returned set never shrinks: |out| >= |existing|.
func Admit(existing []model.CanonicalPlace, incoming []model.PlaceRecord) ([]model.CanonicalPlace, []model.DuplicateCandidate) {
	out := make([]model.CanonicalPlace, len(existing))
	copy(out, existing)

	var dropped []model.DuplicateCandidate
	for _, rec := range incoming {
		dup := findDuplicate(out, rec)
		if dup >= 0 {
			cand := Compare(out[dup].PlaceRecord, rec)
			if cand != nil {
				dropped = append(dropped, *cand)
			}
			out[dup].MergedFrom = append(out[dup].MergedFrom, rec.ID)
			zap.L().Info("duplicate dropped from admission",
				zap.String("incoming", rec.ID),
				zap.String("canonical", out[dup].CanonicalID),
				zap.String("name", rec.Name),
			)
			continue
		}

		out = append(out, model.CanonicalPlace{
			PlaceRecord: rec.Clone(),
			CanonicalID: uuid.New().String(),
			MergedFrom:  []string{rec.ID},
		})
	}
	return out, dropped
}

func findDuplicate(canon []model.CanonicalPlace, rec model.PlaceRecord) int {
	for i := range canon {
		if Compare(canon[i].PlaceRecord, rec) != nil {
			return i
		}
	}
	return -1
}

// Enrich layers a secondary source's record onto a canonical place matched
// by shared external identifier. Field precedence: the incoming value wins
// only when the existing one is absent, a recognized placeholder, or a
// known-worse default; numeric fields only move off zero. Higher-precedence
// values are never overwritten.
func Enrich(canon *model.CanonicalPlace, sec model.PlaceRecord, source string) bool {
	if canon.SharedExternalID(sec) == "" {
		return false
	}

	now := time.Now().UTC()
	changed := false
	mark := func(field string) {
		canon.SetProvenance(field, model.Provenance{Source: source, RecordedAt: now})
		changed = true
	}

	if canon.Location.Address == "" && sec.Location.Address != "" {
		canon.Location.Address = sec.Location.Address
		mark("address")
	}
	if canon.Phone == "" && sec.Phone != "" {
		canon.Phone = sec.Phone
		mark("phone")
	}
	if canon.Website == "" && sec.Website != "" {
		canon.Website = sec.Website
		mark("website")
	}
	if canon.Description == "" && sec.Description != "" {
		canon.Description = sec.Description
		mark("description")
	}
	if sec.PhotoURL != "" && (canon.PhotoURL == "" || IsPlaceholderPhoto(canon.PhotoURL)) && !IsPlaceholderPhoto(sec.PhotoURL) {
		canon.PhotoURL = sec.PhotoURL
		mark("photo_url")
	}
	if canon.Rating == 0 && sec.Rating != 0 {
		canon.Rating = sec.Rating
		mark("rating")
	}

	for src, id := range sec.ExternalIDs {
		if id == "" {
			continue
		}
		if _, ok := canon.ExternalIDs[src]; !ok {
			if canon.ExternalIDs == nil {
				canon.ExternalIDs = make(map[string]string)
			}
			canon.ExternalIDs[src] = id
			changed = true
		}
	}

	return changed
}

// IsPlaceholderPhoto reports whether the URL looks like a stock or default
// image rather than a real photo of the place.
func IsPlaceholderPhoto(u string) bool {
	lower := strings.ToLower(u)
	for _, frag := range placeholderPhotoFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
