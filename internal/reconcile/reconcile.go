// Package reconcile merges the three normalized record sets into the
// unified course dataset. The run is a fixed sequence of stages, each a
// plain function over the previous stage's snapshot: seed from legacy,
// merge modern (first-writer-wins on identity collision), attach time-entry
// category breakdowns by normalized name, then synthesize in-progress
// instances for time entries no course record claimed.
package reconcile

import (
	"fmt"
	"time"

	"github.com/coursedash/coursedash/internal/dashcore"
	"github.com/coursedash/coursedash/internal/fields"
)

// Options configures the reconciliation run. The fallback years are
// deliberate placeholders for rows whose reporting date is missing; every
// actual use of one is surfaced as a warning diagnostic so missing-date
// data cannot silently pile up in a default bucket.
type Options struct {
	LegacyFallbackYear int // applied to legacy rows with no resolvable year
	ModernFallbackYear int // applied to modern rows with no resolvable year
	InProgressYear     int // reporting year for synthesized in-progress instances
}

// DefaultOptions returns the stock fallbacks: 2024 for legacy, 2026 for
// modern, and the current calendar year for synthesized instances.
func DefaultOptions() Options {
	return Options{
		LegacyFallbackYear: 2024,
		ModernFallbackYear: 2026,
		InProgressYear:     time.Now().Year(),
	}
}

// Result is the reconciled dataset plus the diagnostics accumulated across
// stages, in stage order.
type Result struct {
	Unified []dashcore.UnifiedCourse
	Errors  []dashcore.ValidationError
}

// courseMap holds the in-flight unified instances keyed by identity, with
// insertion order tracked so output and tie-breaking are deterministic.
type courseMap struct {
	byKey map[string]*dashcore.UnifiedCourse
	order []string
}

func newCourseMap() *courseMap {
	return &courseMap{byKey: make(map[string]*dashcore.UnifiedCourse)}
}

func (m *courseMap) insert(key string, c *dashcore.UnifiedCourse) {
	m.byKey[key] = c
	m.order = append(m.order, key)
}

func (m *courseMap) snapshot() []dashcore.UnifiedCourse {
	out := make([]dashcore.UnifiedCourse, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, *m.byKey[key])
	}
	return out
}

// Reconcile runs all four stages over the normalized inputs.
func Reconcile(legacy, modern []dashcore.CourseRecord, entries []dashcore.TimeEntry, opts Options) Result {
	courses := newCourseMap()
	var diags []dashcore.ValidationError

	diags = append(diags, seedLegacy(courses, legacy, opts)...)
	diags = append(diags, mergeModern(courses, modern, opts)...)

	pending := groupEntries(entries)
	attachEntries(courses, pending)
	synthesizeInProgress(courses, pending, entries, opts)

	return Result{Unified: courses.snapshot(), Errors: diags}
}

// seedLegacy inserts every legacy record unconditionally; the legacy file is
// processed first, so no collision is possible within this stage beyond
// duplicates inside the file itself, which also resolve first-wins.
func seedLegacy(courses *courseMap, legacy []dashcore.CourseRecord, opts Options) []dashcore.ValidationError {
	var diags []dashcore.ValidationError

	for i := range legacy {
		rec := legacy[i]
		year, fellBack := reportingYear(rec, opts.LegacyFallbackYear)
		if fellBack {
			diags = append(diags, fallbackDiag(dashcore.FileLegacy, rec, year))
		}

		key := dashcore.CourseKey(rec.CourseName, year)
		if _, exists := courses.byKey[key]; exists {
			diags = append(diags, duplicateDiag(dashcore.FileLegacy, rec, year))
			continue
		}
		courses.insert(key, newUnified(rec, year, dashcore.ClassificationLegacy))
	}

	return diags
}

// mergeModern applies the cross-source precedence rule: when a modern
// record computes a key a legacy record already claimed, the modern record
// is discarded with a warning. First writer wins, never last.
func mergeModern(courses *courseMap, modern []dashcore.CourseRecord, opts Options) []dashcore.ValidationError {
	var diags []dashcore.ValidationError

	for i := range modern {
		rec := modern[i]
		year, fellBack := reportingYear(rec, opts.ModernFallbackYear)
		if fellBack {
			diags = append(diags, fallbackDiag(dashcore.FileModern, rec, year))
		}

		key := dashcore.CourseKey(rec.CourseName, year)
		if _, exists := courses.byKey[key]; exists {
			diags = append(diags, duplicateDiag(dashcore.FileModern, rec, year))
			continue
		}
		courses.insert(key, newUnified(rec, year, dashcore.ClassificationModern))
	}

	return diags
}

// entryGroup collects the time entries sharing one normalized course name.
type entryGroup struct {
	displayName string // first-seen casing
	entries     []dashcore.TimeEntry
}

// groupEntries buckets time entries by normalized course name only. Year is
// deliberately not part of this match: a time entry carries no year of its
// own, so attachment is name-wide.
func groupEntries(entries []dashcore.TimeEntry) map[string]*entryGroup {
	groups := make(map[string]*entryGroup)
	for _, e := range entries {
		norm := dashcore.NormalizeCourseName(e.CourseName)
		if norm == "" {
			continue
		}
		g, ok := groups[norm]
		if !ok {
			g = &entryGroup{displayName: e.CourseName}
			groups[norm] = g
		}
		g.entries = append(g.entries, e)
	}
	return groups
}

// attachEntries sums hours per category onto every unified instance whose
// normalized name has a matching entry group, then removes the group from
// the pending pool so it cannot also spawn a synthetic instance.
func attachEntries(courses *courseMap, pending map[string]*entryGroup) {
	for _, key := range courses.order {
		c := courses.byKey[key]
		g, ok := pending[c.NormalizedCourseName]
		if !ok {
			continue
		}

		breakdown := make(map[string]float64, len(g.entries))
		for _, e := range g.entries {
			breakdown[e.Category] += e.Hours
		}
		c.CategoryBreakdown = breakdown
		c.TimeEntries = append(c.TimeEntries, g.entries...)

		delete(pending, c.NormalizedCourseName)
	}
}

// synthesizeInProgress materializes a unified instance for every entry
// group left unclaimed: no contributing course record, empty metadata,
// total time summed from the entries, and the configured in-progress year.
// Groups are emitted in first-appearance order of the underlying entries so
// the output is stable.
func synthesizeInProgress(courses *courseMap, pending map[string]*entryGroup, entries []dashcore.TimeEntry, opts Options) {
	seen := make(map[string]bool)
	for _, e := range entries {
		norm := dashcore.NormalizeCourseName(e.CourseName)
		if seen[norm] {
			continue
		}
		seen[norm] = true

		g, ok := pending[norm]
		if !ok {
			continue
		}

		total := 0.0
		breakdown := make(map[string]float64, len(g.entries))
		for _, ge := range g.entries {
			total += ge.Hours
			breakdown[ge.Category] += ge.Hours
		}

		key := dashcore.CourseKey(g.displayName, opts.InProgressYear)
		courses.insert(key, &dashcore.UnifiedCourse{
			CourseName:           g.displayName,
			NormalizedCourseName: norm,
			ReportingYear:        opts.InProgressYear,
			Year:                 opts.InProgressYear,
			TotalTime:            total,
			Status:               dashcore.StatusInProgress,
			Classification:       dashcore.ClassificationInProgress,
			CategoryBreakdown:    breakdown,
			Metadata:             map[string]any{},
			TimeEntries:          append([]dashcore.TimeEntry(nil), g.entries...),
		})
		delete(pending, norm)
	}
}

// reportingYear resolves the identity-bearing year for a course record:
// a reporting-named column first, then the year the normalizer already
// resolved, then the configured fallback. fellBack reports whether the
// fallback was actually applied.
func reportingYear(rec dashcore.CourseRecord, fallback int) (year int, fellBack bool) {
	if h, ok := fields.Find(rec.Row.Headers, fields.Reporting); ok {
		if y, ok := fields.YearValue(rec.Row.Get(h)); ok {
			return y, false
		}
	}
	if rec.Year != 0 {
		return rec.Year, false
	}
	return fallback, true
}

// newUnified builds the unified instance for a legacy or modern record.
func newUnified(rec dashcore.CourseRecord, year int, class dashcore.Classification) *dashcore.UnifiedCourse {
	recCopy := rec
	meta := cleanMetadata(rec.Row)

	status := dashcore.StatusCompleted
	if s, ok := statusFromMetadata(meta); ok {
		status = s
	}

	return &dashcore.UnifiedCourse{
		CourseName:           rec.CourseName,
		NormalizedCourseName: dashcore.NormalizeCourseName(rec.CourseName),
		ReportingYear:        year,
		Year:                 year,
		TotalTime:            rec.TotalTime,
		Status:               status,
		Classification:       class,
		Metadata:             meta,
		RawRecord:            &recCopy,
	}
}

func fallbackDiag(file string, rec dashcore.CourseRecord, year int) dashcore.ValidationError {
	return dashcore.ValidationError{
		File:     file,
		Row:      rec.RowNum,
		Field:    fields.Reporting.Name,
		Message:  fmt.Sprintf("course %q has no reporting year, defaulted to %d", rec.CourseName, year),
		Severity: dashcore.SeverityWarning,
	}
}

func duplicateDiag(file string, rec dashcore.CourseRecord, year int) dashcore.ValidationError {
	return dashcore.ValidationError{
		File:     file,
		Row:      rec.RowNum,
		Message:  fmt.Sprintf("duplicate course instance %q for year %d, keeping the first occurrence", rec.CourseName, year),
		Severity: dashcore.SeverityWarning,
	}
}
