package model

import "time"

// Issue severities.
const (
	SeverityError = "error"
	SeverityWarn  = "warn"
)

// Issue kinds produced by the quality auditor and the bounds validator.
const (
	IssueMissingCoordinates = "missing-coordinates"
	IssueOutOfTerritory     = "out-of-territory"
	IssueWestOfCoastline    = "west-of-coastline"
	IssueLowPrecision       = "low-precision"
	IssueIslandMismatch     = "island-mismatch"
	IssueSuspiciousDefault  = "suspicious-default"
)

// QualityIssue flags one record for human review. Issues feed the review
// loop and are never auto-applied.
type QualityIssue struct {
	RecordID string `json:"record_id"`
	Name     string `json:"name,omitempty"`
	Severity string `json:"severity"`
	Kind     string `json:"kind"`
	Evidence string `json:"evidence,omitempty"`
}

// Correction documents one coordinate write-back performed by a run.
type Correction struct {
	RecordID   string      `json:"record_id"`
	Name       string      `json:"name"`
	OldCoord   Coordinates `json:"old_coord"`
	NewCoord   Coordinates `json:"new_coord"`
	DistanceKm float64     `json:"distance_km"`
	Source     string      `json:"source"`
}

// RunStats aggregates per-run outcome counts.
type RunStats struct {
	Total     int            `json:"total"`
	Resolved  int            `json:"resolved"`
	Corrected int            `json:"corrected"`
	Unchanged int            `json:"unchanged"`
	Fallbacks int            `json:"fallbacks"`
	Skipped   int            `json:"skipped"`
	BySource  map[string]int `json:"by_source,omitempty"`
}

// RunReport is the machine-readable companion output of a pipeline run.
type RunReport struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Stats       RunStats             `json:"stats"`
	Corrections []Correction         `json:"corrections"`
	Duplicates  []DuplicateCandidate `json:"duplicates"`
	Issues      []QualityIssue       `json:"issues"`
}
