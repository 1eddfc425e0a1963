package reconcile

import (
	"reflect"
	"testing"

	"github.com/coursedash/coursedash/internal/dashcore"
)

func testOptions() Options {
	return Options{LegacyFallbackYear: 2024, ModernFallbackYear: 2026, InProgressYear: 2026}
}

func courseRecord(name string, total float64, year int, extra ...any) dashcore.CourseRecord {
	row := dashcore.RawRow{Cells: make(map[string]any)}
	row.Headers = append(row.Headers, "Course Name")
	row.Cells["Course Name"] = name
	for i := 0; i < len(extra); i += 2 {
		h := extra[i].(string)
		row.Headers = append(row.Headers, h)
		row.Cells[h] = extra[i+1]
	}
	return dashcore.CourseRecord{CourseName: name, TotalTime: total, Year: year, RowNum: 1, Row: row}
}

func entry(name, category string, hours float64) dashcore.TimeEntry {
	return dashcore.TimeEntry{CourseName: name, Category: category, Hours: hours}
}

func TestReconcileSeedsLegacy(t *testing.T) {
	legacy := []dashcore.CourseRecord{
		courseRecord("Fire Safety 101", 2.5, 0, "Reporting", "2023-05-01"),
	}

	res := Reconcile(legacy, nil, nil, testOptions())
	if len(res.Unified) != 1 {
		t.Fatalf("expected 1 unified course, got %d", len(res.Unified))
	}
	c := res.Unified[0]
	if c.CourseName != "Fire Safety 101" || c.TotalTime != 2.5 {
		t.Errorf("unexpected course: %+v", c)
	}
	if c.ReportingYear != 2023 || c.Year != 2023 {
		t.Errorf("reporting year = %d/%d, want 2023", c.ReportingYear, c.Year)
	}
	if c.Classification != dashcore.ClassificationLegacy {
		t.Errorf("classification = %q", c.Classification)
	}
	if c.Status != dashcore.StatusCompleted {
		t.Errorf("status = %q, want default Completed", c.Status)
	}
	if c.RawRecord == nil {
		t.Error("legacy-sourced instance must keep its raw record")
	}
}

func TestReconcileModernDiscardedOnCollision(t *testing.T) {
	legacy := []dashcore.CourseRecord{
		courseRecord("Fire Safety 101", 2.5, 2023),
	}
	modern := []dashcore.CourseRecord{
		courseRecord("fire safety 101", 9.0, 2023),
	}

	res := Reconcile(legacy, modern, nil, testOptions())
	if len(res.Unified) != 1 {
		t.Fatalf("collision must leave exactly one instance, got %d", len(res.Unified))
	}
	c := res.Unified[0]
	if c.Classification != dashcore.ClassificationLegacy || c.TotalTime != 2.5 {
		t.Errorf("legacy must win the collision untouched: %+v", c)
	}

	var warnings int
	for _, d := range res.Errors {
		if d.Severity == dashcore.SeverityWarning && d.File == dashcore.FileModern {
			warnings++
		}
	}
	if warnings != 1 {
		t.Errorf("expected exactly one duplicate warning, got %d (%+v)", warnings, res.Errors)
	}
}

func TestReconcileModernDistinctYearKept(t *testing.T) {
	legacy := []dashcore.CourseRecord{courseRecord("Fire Safety 101", 2.5, 2023)}
	modern := []dashcore.CourseRecord{courseRecord("Fire Safety 101", 4.0, 2025)}

	res := Reconcile(legacy, modern, nil, testOptions())
	if len(res.Unified) != 2 {
		t.Fatalf("same name in a different year is a different instance, got %d", len(res.Unified))
	}
	if res.Unified[1].Classification != dashcore.ClassificationModern {
		t.Errorf("unexpected second instance: %+v", res.Unified[1])
	}
}

func TestReconcileAttachesEntriesNameOnly(t *testing.T) {
	legacy := []dashcore.CourseRecord{courseRecord("Fire Safety 101", 2.5, 2023)}
	entries := []dashcore.TimeEntry{
		entry("Fire Safety 101", "LP Development", 3),
		entry("fire safety 101 ", "Testing", 1),
	}

	res := Reconcile(legacy, nil, entries, testOptions())
	if len(res.Unified) != 1 {
		t.Fatalf("entries matching a course must not spawn instances, got %d", len(res.Unified))
	}
	c := res.Unified[0]

	want := map[string]float64{"LP Development": 3, "Testing": 1}
	if !reflect.DeepEqual(c.CategoryBreakdown, want) {
		t.Errorf("categoryBreakdown = %v, want %v", c.CategoryBreakdown, want)
	}
	// Headline time comes from the course file, never from the entries.
	if c.TotalTime != 2.5 {
		t.Errorf("totalTime = %v, must stay sourced from the course file", c.TotalTime)
	}
	if len(c.TimeEntries) != 2 {
		t.Errorf("raw entries not attached: %d", len(c.TimeEntries))
	}
}

func TestReconcileSynthesizesInProgress(t *testing.T) {
	entries := []dashcore.TimeEntry{
		entry("Brand New Course", "LP Development", 2),
		entry("Brand New Course", "Testing", 1.5),
	}

	res := Reconcile(nil, nil, entries, testOptions())
	if len(res.Unified) != 1 {
		t.Fatalf("expected one synthesized instance, got %d", len(res.Unified))
	}
	c := res.Unified[0]
	if c.Classification != dashcore.ClassificationInProgress || c.Status != dashcore.StatusInProgress {
		t.Errorf("unexpected synthesized instance: %+v", c)
	}
	if c.TotalTime != 3.5 {
		t.Errorf("totalTime = %v, want summed 3.5", c.TotalTime)
	}
	if c.ReportingYear != 2026 || c.Year != 2026 {
		t.Errorf("synthesized year = %d/%d, want configured 2026", c.ReportingYear, c.Year)
	}
	if c.RawRecord != nil {
		t.Error("synthesized instance must not carry a course raw record")
	}
	if len(c.Metadata) != 0 {
		t.Errorf("synthesized instance must have empty metadata: %v", c.Metadata)
	}
}

func TestReconcileNoOrphans(t *testing.T) {
	legacy := []dashcore.CourseRecord{courseRecord("Known", 1, 2023)}
	entries := []dashcore.TimeEntry{
		entry("Known", "Testing", 1),
		entry("Unknown A", "Testing", 2),
		entry("Unknown A", "LP Development", 1),
		entry("Unknown B", "Testing", 4),
	}

	res := Reconcile(legacy, nil, entries, testOptions())
	if len(res.Unified) != 3 {
		t.Fatalf("expected 3 instances (1 known, 2 synthesized), got %d", len(res.Unified))
	}

	attached := 0
	for _, c := range res.Unified {
		attached += len(c.TimeEntries)
	}
	if attached != len(entries) {
		t.Errorf("every entry must attach exactly once: attached %d of %d", attached, len(entries))
	}
}

func TestReconcileFallbackYearWarns(t *testing.T) {
	legacy := []dashcore.CourseRecord{courseRecord("Dateless", 1, 0)}

	res := Reconcile(legacy, nil, nil, testOptions())
	if res.Unified[0].ReportingYear != 2024 {
		t.Errorf("expected legacy fallback year 2024, got %d", res.Unified[0].ReportingYear)
	}
	if len(res.Errors) == 0 || res.Errors[0].Severity != dashcore.SeverityWarning {
		t.Fatalf("fallback use must surface a warning, got %+v", res.Errors)
	}
}

func TestReconcileStatusFromMetadata(t *testing.T) {
	legacy := []dashcore.CourseRecord{
		courseRecord("Paused Course", 1, 2023, "Status", "On Hold"),
	}

	res := Reconcile(legacy, nil, nil, testOptions())
	if res.Unified[0].Status != "On Hold" {
		t.Errorf("status = %q, want On Hold", res.Unified[0].Status)
	}
}

func TestReconcileDeterministic(t *testing.T) {
	legacy := []dashcore.CourseRecord{
		courseRecord("A", 1, 2023),
		courseRecord("B", 2, 2023),
	}
	modern := []dashcore.CourseRecord{courseRecord("C", 3, 2025)}
	entries := []dashcore.TimeEntry{
		entry("B", "Testing", 1),
		entry("Z1", "Testing", 1),
		entry("Z2", "Testing", 1),
	}

	first := Reconcile(legacy, modern, entries, testOptions())
	for i := 0; i < 20; i++ {
		again := Reconcile(legacy, modern, entries, testOptions())
		if !reflect.DeepEqual(first, again) {
			t.Fatal("identical inputs must reconcile identically")
		}
	}
}

func TestCleanFieldName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"[Q3] Course Name", "Course Name"},
		{"Total Time (legacy)", "Total Time"},
		{"Total Time (Modern export)", "Total Time"},
		{"Owner (primary)", "Owner (primary)"}, // unrelated parenthetical stays
		{"Plain", "Plain"},
	}
	for _, tt := range tests {
		if got := CleanFieldName(tt.in); got != tt.want {
			t.Errorf("CleanFieldName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
