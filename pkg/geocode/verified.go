package geocode

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/coral-atlas/poi-cli/internal/names"
)

// VerifiedLocation is one curator-confirmed coordinate. These corrections
// outrank every geocoder.
type VerifiedLocation struct {
	Name    string   `yaml:"name"`
	Lat     float64  `yaml:"lat"`
	Lng     float64  `yaml:"lng"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// Table is the verified-location lookup used by the resolution chain's
// first two steps. Lookups are network-free and deterministic. The table
// is immutable after construction.
type Table struct {
	entries []VerifiedLocation
	exact   map[string]*Result // normalized name/alias -> result
}

// NewTable builds the lookup index over the given entries.
func NewTable(entries []VerifiedLocation) *Table {
	t := &Table{
		entries: entries,
		exact:   make(map[string]*Result, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		res := &Result{
			Lat:         e.Lat,
			Lng:         e.Lng,
			Confidence:  1.0,
			Source:      "verified",
			MatchedName: e.Name,
		}
		t.exact[names.Normalize(e.Name)] = res
		for _, alias := range e.Aliases {
			t.exact[names.Normalize(alias)] = res
		}
	}
	delete(t.exact, "")
	return t
}

// LoadTable reads verified locations from a YAML file. An empty path
// yields an empty table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return NewTable(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "verified: read table %s", path)
	}
	var entries []VerifiedLocation
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, eris.Wrapf(err, "verified: parse table %s", path)
	}
	return NewTable(entries), nil
}

// Len returns the entry count.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns the table contents, for export.
func (t *Table) Entries() []VerifiedLocation { return t.entries }

// Exact returns the verified coordinate for a name that normalizes to a
// table entry, confidence 1.0, or nil.
func (t *Table) Exact(name string) *Result {
	res, ok := t.exact[names.Normalize(name)]
	if !ok {
		return nil
	}
	out := *res
	return &out
}

// Partial returns a verified coordinate whose normalized name contains (or
// is contained by) the query's normalized form, at reduced confidence.
// The shortest key wins so "stingraycitybar" prefers "stingraycity" over a
// longer coincidental match.
func (t *Table) Partial(name string) *Result {
	n := names.Normalize(name)
	if len(n) < 4 {
		return nil
	}

	var best *Result
	bestKey := ""
	for key, res := range t.exact {
		if !strings.Contains(n, key) && !strings.Contains(key, n) {
			continue
		}
		// Shortest key wins; equal lengths break lexicographically so the
		// pick does not depend on map iteration order.
		if best == nil || len(key) < len(bestKey) || (len(key) == len(bestKey) && key < bestKey) {
			best = res
			bestKey = key
		}
	}
	if best == nil {
		return nil
	}

	out := *best
	out.Confidence = 0.95
	return &out
}

// ImportXLSX reads a curator spreadsheet of verified locations. Expected
// columns: name, lat, lng, aliases (semicolon-separated); the first row is
// a header.
func ImportXLSX(path string) ([]VerifiedLocation, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "verified: open spreadsheet %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("verified: %s has no sheets", path)
	}

	var entries []VerifiedLocation
	for i, row := range f.Sheets[0].Rows {
		if i == 0 || len(row.Cells) < 3 {
			continue
		}
		name := strings.TrimSpace(row.Cells[0].String())
		if name == "" {
			continue
		}
		lat, latErr := row.Cells[1].Float()
		lng, lngErr := row.Cells[2].Float()
		if latErr != nil || lngErr != nil {
			return nil, eris.Errorf("verified: row %d of %s has non-numeric coordinates", i+1, path)
		}
		e := VerifiedLocation{Name: name, Lat: lat, Lng: lng}
		if len(row.Cells) > 3 {
			for _, a := range strings.Split(row.Cells[3].String(), ";") {
				if a = strings.TrimSpace(a); a != "" {
					e.Aliases = append(e.Aliases, a)
				}
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteTable saves verified locations as YAML, for the import command.
func WriteTable(path string, entries []VerifiedLocation) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return eris.Wrap(err, "verified: marshal table")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "verified: write table %s", path)
	}
	return nil
}
