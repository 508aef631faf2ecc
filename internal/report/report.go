// Package report handles the pipeline's file interfaces: the input record
// array, the corrected output, the companion machine-readable report, and
// the human summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/coral-atlas/poi-cli/internal/model"
)

// ReadRecords loads the input JSON array of place records.
func ReadRecords(path string) ([]model.PlaceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read input %s", path)
	}
	var records []model.PlaceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrapf(err, "report: parse input %s", path)
	}
	return records, nil
}

// WriteRecords writes records atomically (temp file + rename).
func WriteRecords(path string, records []model.PlaceRecord) error {
	return writeJSON(path, records)
}

// WritePlaces writes the canonical set atomically.
func WritePlaces(path string, places []model.CanonicalPlace) error {
	return writeJSON(path, places)
}

// WriteReport writes the companion run report atomically.
func WriteReport(path string, r *model.RunReport) error {
	return writeJSON(path, r)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "report: marshal")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "report: rename %s into place", path)
	}
	return nil
}

// PrintSummary writes the human-readable outcome counts. It is printed
// even on partial failure, so review always has something to look at.
func PrintSummary(w io.Writer, r *model.RunReport) {
	fmt.Fprintf(w, "records:      %d\n", r.Stats.Total)
	fmt.Fprintf(w, "resolved:     %d\n", r.Stats.Resolved)
	fmt.Fprintf(w, "corrected:    %d\n", r.Stats.Corrected)
	fmt.Fprintf(w, "unchanged:    %d\n", r.Stats.Unchanged)
	fmt.Fprintf(w, "fallbacks:    %d\n", r.Stats.Fallbacks)
	fmt.Fprintf(w, "skipped:      %d\n", r.Stats.Skipped)
	fmt.Fprintf(w, "duplicates:   %d\n", len(r.Duplicates))
	fmt.Fprintf(w, "issues:       %d\n", len(r.Issues))

	if len(r.Stats.BySource) > 0 {
		fmt.Fprintln(w, "by source:")
		sources := make([]string, 0, len(r.Stats.BySource))
		for s := range r.Stats.BySource {
			sources = append(sources, s)
		}
		sort.Strings(sources)
		for _, s := range sources {
			fmt.Fprintf(w, "  %-20s %d\n", s, r.Stats.BySource[s])
		}
	}
}
