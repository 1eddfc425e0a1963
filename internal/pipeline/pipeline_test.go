package pipeline

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/coursedash/coursedash/internal/dashcore"
	"github.com/coursedash/coursedash/internal/reconcile"
)

func csvInput(name, content string) Input {
	return Input{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func testFileSet() FileSet {
	return FileSet{
		Legacy: csvInput("legacy.csv", strings.Join([]string{
			"Course Name,Time spent,Reporting",
			"Fire Safety 101,2:30,2023-05-01",
		}, "\n")),
		Modern: csvInput("modern.csv", strings.Join([]string{
			"Course Name,Total Time,Reporting",
			"Ladder Basics,4,2025-02-01",
		}, "\n")),
		TimeSpent: csvInput("timespent.csv", strings.Join([]string{
			"Course Name,Category,Hours",
			"Fire Safety 101,LP Development,3",
			"New Thing,Testing,1",
		}, "\n")),
	}
}

func testOptions() Options {
	return Options{
		Reconcile: reconcile.Options{LegacyFallbackYear: 2024, ModernFallbackYear: 2026, InProgressYear: 2026},
	}
}

func TestRun(t *testing.T) {
	res, err := Run(context.Background(), testFileSet(), testOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Unified) != 3 {
		t.Fatalf("expected 3 unified courses, got %d", len(res.Unified))
	}
	if res.Analytics == nil || res.Analytics.Summary.TotalCourses != 3 {
		t.Errorf("analytics not computed: %+v", res.Analytics)
	}

	fire := res.Unified[0]
	if fire.CourseName != "Fire Safety 101" || fire.TotalTime != 2.5 || fire.Year != 2023 {
		t.Errorf("unexpected first course: %+v", fire)
	}
	if fire.CategoryBreakdown["LP Development"] != 3 {
		t.Errorf("breakdown not attached: %v", fire.CategoryBreakdown)
	}

	synth := res.Unified[2]
	if synth.Classification != dashcore.ClassificationInProgress || synth.TotalTime != 1 {
		t.Errorf("unexpected synthesized course: %+v", synth)
	}

	if c := res.Counts[dashcore.FileLegacy]; c.Decoded != 1 || c.Normalized != 1 {
		t.Errorf("unexpected legacy counts: %+v", c)
	}
}

func TestRunDecodeFailureFailsWholeUpload(t *testing.T) {
	files := testFileSet()
	files.Modern = Input{
		Name: "modern.csv",
		Open: func() (io.ReadCloser, error) { return nil, errors.New("disk gone") },
	}

	res, err := Run(context.Background(), files, testOptions())
	if err == nil {
		t.Fatal("expected decode failure to fail the run")
	}
	if res != nil {
		t.Errorf("no partial dataset may be produced, got %+v", res)
	}
}

func TestRunCriticalGate(t *testing.T) {
	files := testFileSet()
	// A legacy row without a course name produces an error-severity
	// diagnostic, which must halt the run before reconciliation.
	files.Legacy = csvInput("legacy.csv", strings.Join([]string{
		"Course Name,Time spent",
		",3",
		"Fine Course,2",
	}, "\n"))

	res, err := Run(context.Background(), files, testOptions())
	if !errors.Is(err, ErrCriticalDiagnostics) {
		t.Fatalf("expected ErrCriticalDiagnostics, got %v", err)
	}
	if res == nil || len(res.Errors) == 0 {
		t.Fatal("diagnostics must still be returned for display")
	}
	if res.Unified != nil || res.Analytics != nil {
		t.Error("reconciliation and aggregation must not run past the gate")
	}
}

func TestRunDiagnosticOrder(t *testing.T) {
	files := testFileSet()
	// Warnings from every source: legacy zero time, modern zero time,
	// timespent missing name, then a reconciliation fallback-year warning.
	files.Legacy = csvInput("legacy.csv", "Course Name,Time spent\nLegacy Course,0\n")
	files.Modern = csvInput("modern.csv", "Course Name,Total Time\nModern Course,0\n")
	files.TimeSpent = csvInput("timespent.csv", "Course Name,Category,Hours\n,Testing,1\n")

	res, err := Run(context.Background(), files, testOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var order []string
	for _, d := range res.Errors {
		if len(order) == 0 || order[len(order)-1] != d.File {
			order = append(order, d.File)
		}
	}
	want := []string{dashcore.FileLegacy, dashcore.FileModern, dashcore.FileTimeSpent, dashcore.FileLegacy, dashcore.FileModern}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("diagnostic file order = %v, want %v", order, want)
	}
}

func TestRunIdempotent(t *testing.T) {
	first, err := Run(context.Background(), testFileSet(), testOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Run(context.Background(), testFileSet(), testOptions())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if !reflect.DeepEqual(first.Unified, again.Unified) {
			t.Fatal("identical inputs must produce identical unified datasets")
		}
		if !reflect.DeepEqual(first.Errors, again.Errors) {
			t.Fatal("identical inputs must produce identical diagnostics")
		}
	}
}

func TestHooksChain(t *testing.T) {
	var stages []string
	files := testFileSet()
	opts := testOptions()
	opts.Hooks = Chain(Hooks{
		StageStarted: func(stage string) { stages = append(stages, stage) },
	})

	if _, err := Run(context.Background(), files, opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"decode", "normalize", "reconcile", "aggregate"}
	if !reflect.DeepEqual(stages, want) {
		t.Errorf("stages = %v, want %v", stages, want)
	}
}
