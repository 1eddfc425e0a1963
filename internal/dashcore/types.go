// Package dashcore defines the canonical data model shared by the course
// time-tracking pipeline: raw decoded rows, per-source records, the unified
// course record produced by reconciliation, and validation diagnostics.
package dashcore

// File labels used in diagnostics, in source-processing order.
const (
	FileLegacy    = "Legacy Course Data"
	FileModern    = "Modern Course Data"
	FileTimeSpent = "Time Spent Category Data"
	FileReconcile = "Reconciliation"
)

// Severity classifies a validation diagnostic.
type Severity string

const (
	// SeverityError excludes the offending row from normalized output and,
	// if still present after normalization, blocks reconciliation.
	SeverityError Severity = "error"
	// SeverityWarning is informational; the row is still included.
	SeverityWarning Severity = "warning"
)

// ValidationError is a single diagnostic produced while normalizing or
// reconciling uploaded data. Diagnostics are accumulated as values and
// returned alongside data; they are never raised as panics.
type ValidationError struct {
	File     string   `json:"file"`
	Row      int      `json:"row,omitempty"` // 1-based data row, 0 when not row-scoped
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// HasErrors reports whether any diagnostic in the list carries error severity.
func HasErrors(diags []ValidationError) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// RawRow is one decoded spreadsheet row: a mapping from the original column
// header to its cell value, plus the header order as it appeared in the file.
// Header order matters because several matching rules are first-match-wins.
type RawRow struct {
	Headers []string       `json:"headers"`
	Cells   map[string]any `json:"cells"`
}

// Get returns the cell value for a header, or nil when absent.
func (r RawRow) Get(header string) any {
	if r.Cells == nil {
		return nil
	}
	return r.Cells[header]
}

// Clone returns a deep-enough copy of the row (cell values are shared).
func (r RawRow) Clone() RawRow {
	out := RawRow{
		Headers: make([]string, len(r.Headers)),
		Cells:   make(map[string]any, len(r.Cells)),
	}
	copy(out.Headers, r.Headers)
	for k, v := range r.Cells {
		out.Cells[k] = v
	}
	return out
}

// CourseRecord is a normalized row from the legacy or modern course file.
// TotalTime is authoritative for the record's own file: reconciliation never
// recomputes it from time entries when a course record exists.
type CourseRecord struct {
	CourseName string  `json:"courseName"`
	TotalTime  float64 `json:"totalTime"`
	Year       int     `json:"year,omitempty"` // 0 when no year could be resolved
	RowNum     int     `json:"rowNum"`         // 1-based data row in the source file
	Row        RawRow  `json:"row"`            // every original column, recognized or not
}

// TimeEntry is a normalized row from the time-spent category file.
type TimeEntry struct {
	CourseName string  `json:"courseName"`
	Category   string  `json:"category"`
	Hours      float64 `json:"hours"`
	User       string  `json:"user,omitempty"`
	RowNum     int     `json:"rowNum"`
	Row        RawRow  `json:"row"`
}

// Classification tags the provenance of a unified course record. It is
// distinct from the free-text Status string.
type Classification string

const (
	ClassificationLegacy     Classification = "Legacy"
	ClassificationModern     Classification = "Modern"
	ClassificationInProgress Classification = "In Progress"
)

// Default status strings.
const (
	StatusCompleted  = "Completed"
	StatusInProgress = "In Progress"
)

// UnifiedCourse is the merged, canonical representation of one course
// instance across all three sources. Instances are identified by
// normalized course name plus reporting year; see CourseKey.
type UnifiedCourse struct {
	CourseName           string         `json:"courseName"` // first-seen display casing
	NormalizedCourseName string         `json:"normalizedCourseName"`
	ReportingYear        int            `json:"reportingYear"`
	// Year duplicates ReportingYear for consumers that predate the rename.
	Year              int                `json:"year"`
	TotalTime         float64            `json:"totalTime"`
	Status            string             `json:"status"`
	Classification    Classification     `json:"classification"`
	CategoryBreakdown map[string]float64 `json:"categoryBreakdown,omitempty"`
	Metadata          map[string]any     `json:"metadata"`

	// RawRecord is the contributing legacy/modern record, nil for
	// synthesized in-progress instances.
	RawRecord   *CourseRecord `json:"rawRecord,omitempty"`
	TimeEntries []TimeEntry   `json:"timeEntries,omitempty"`
}

// Key returns the course identity key for this instance.
func (u UnifiedCourse) Key() string {
	return CourseKey(u.CourseName, u.ReportingYear)
}
