// Package audit re-checks resolved records and produces the issue report
// that drives the human review loop. The audit never mutates data.
package audit

import (
	"fmt"
	"sort"

	"github.com/coral-atlas/poi-cli/internal/bounds"
	"github.com/coral-atlas/poi-cli/internal/geo"
	"github.com/coral-atlas/poi-cli/internal/model"
)

// minPrecisionDigits is the target stored decimal resolution (~11 m).
const minPrecisionDigits = 4

// suspiciousRadiusMeters is how close a coordinate must sit to a known
// placeholder point to be flagged as never properly geocoded.
const suspiciousRadiusMeters = 25

// severityWeight ranks issue kinds for the reprocessing queue.
var severityWeight = map[string]int{
	model.IssueMissingCoordinates: 100,
	model.IssueOutOfTerritory:     90,
	model.IssueSuspiciousDefault:  70,
	model.IssueWestOfCoastline:    60,
	model.IssueIslandMismatch:     30,
	model.IssueLowPrecision:       20,
}

// CategoryStats aggregates issue counts for one place category.
type CategoryStats struct {
	Records int `json:"records"`
	Issues  int `json:"issues"`
	Errors  int `json:"errors"`
}

// Report is the auditor's output. Reprocess lists record IDs ranked by
// severity, the input for the next resolution run.
type Report struct {
	Issues             []model.QualityIssue     `json:"issues"`
	ByCategory         map[string]CategoryStats `json:"by_category"`
	Reprocess          []string                 `json:"reprocess"`
	UnresolvedFraction float64                  `json:"unresolved_fraction"`
}

// Auditor validates records against the territory geometry and the known
// placeholder points.
type Auditor struct {
	validator *bounds.Validator
}

// New creates an Auditor over the given validator.
func New(v *bounds.Validator) *Auditor {
	return &Auditor{validator: v}
}

// Audit re-checks every record independently of how it was resolved.
func (a *Auditor) Audit(records []model.PlaceRecord) *Report {
	report := &Report{
		ByCategory: make(map[string]CategoryStats),
	}

	weights := make(map[string]int) // record ID -> accumulated weight
	unresolved := 0

	for _, rec := range records {
		stats := report.ByCategory[rec.Category]
		stats.Records++

		issues := a.auditRecord(rec)
		for _, issue := range issues {
			stats.Issues++
			if issue.Severity == model.SeverityError {
				stats.Errors++
			}
			weights[rec.ID] += severityWeight[issue.Kind]
		}
		if hasError(issues) {
			unresolved++
		}

		report.Issues = append(report.Issues, issues...)
		report.ByCategory[rec.Category] = stats
	}

	if len(records) > 0 {
		report.UnresolvedFraction = float64(unresolved) / float64(len(records))
	}

	report.Reprocess = rankByWeight(weights)
	return report
}

func (a *Auditor) auditRecord(rec model.PlaceRecord) []model.QualityIssue {
	var issues []model.QualityIssue
	add := func(severity, kind, evidence string) {
		issues = append(issues, model.QualityIssue{
			RecordID: rec.ID,
			Name:     rec.Name,
			Severity: severity,
			Kind:     kind,
			Evidence: evidence,
		})
	}

	c := rec.Location.Coordinates
	if c.IsZero() {
		add(model.SeverityError, model.IssueMissingCoordinates, "coordinates are zero/unset")
		return issues
	}

	verdict := a.validator.ValidateRecord(rec)
	if !verdict.Valid {
		severity := model.SeverityError
		if verdict.Reason == model.IssueWestOfCoastline {
			// A nudge fixes these; no re-geocode needed.
			severity = model.SeverityWarn
		}
		add(severity, verdict.Reason, fmt.Sprintf("point (%.5f, %.5f)", c.Lat, c.Lng))
	}
	if verdict.Warning != "" {
		add(model.SeverityWarn, model.IssueIslandMismatch, verdict.Warning)
	}

	if p := geo.CoordinatePrecision(c); p < minPrecisionDigits {
		add(model.SeverityWarn, model.IssueLowPrecision,
			fmt.Sprintf("%d decimal digits, want >= %d", p, minPrecisionDigits))
	}

	for _, sus := range a.validator.Territory().SuspiciousPoints {
		if geo.HaversineMeters(c, sus) <= suspiciousRadiusMeters {
			add(model.SeverityError, model.IssueSuspiciousDefault,
				fmt.Sprintf("within %dm of placeholder point (%.4f, %.4f)", suspiciousRadiusMeters, sus.Lat, sus.Lng))
			break
		}
	}

	return issues
}

func hasError(issues []model.QualityIssue) bool {
	for _, i := range issues {
		if i.Severity == model.SeverityError {
			return true
		}
	}
	return false
}

func rankByWeight(weights map[string]int) []string {
	ids := make([]string, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if weights[ids[i]] != weights[ids[j]] {
			return weights[ids[i]] > weights[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}
