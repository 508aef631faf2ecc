package resolve

import (
	"strings"

	"github.com/coral-atlas/poi-cli/internal/model"
)

// BuildQueries returns the ordered query ladder for a record, most specific
// first. Empty address parts collapse and duplicate rungs are dropped, so a
// record with no address still produces a usable ladder.
func BuildQueries(rec model.PlaceRecord, territory string) []string {
	name := strings.TrimSpace(rec.Name)
	addr := strings.TrimSpace(rec.Location.Address)
	district := strings.TrimSpace(rec.Location.District)
	island := strings.TrimSpace(rec.Location.Island)

	combos := [][]string{
		{name, addr, district, island, territory},
		{name, addr, territory},
		{name, district, island, territory},
		{name, island, territory},
		{name, territory},
	}

	seen := make(map[string]bool, len(combos))
	queries := make([]string, 0, len(combos))
	for _, parts := range combos {
		var nonEmpty []string
		for _, p := range parts {
			if p != "" {
				nonEmpty = append(nonEmpty, p)
			}
		}
		q := strings.Join(nonEmpty, ", ")
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}
	return queries
}

// districtKey normalizes a declared district name to the centroid table's
// key form: "George Town" and "george town" both map to "george-town".
func districtKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, ".", "")
	return strings.Join(strings.Fields(s), "-")
}
