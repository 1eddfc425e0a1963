// Package pipeline orchestrates one full processing run: decode the three
// uploads concurrently, normalize each source, gate on error-severity
// diagnostics, reconcile, and aggregate. A run is a single synchronous
// burst producing an immutable Result; re-running replaces the previous
// result wholesale, there is no incremental recomputation.
package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coursedash/coursedash/internal/analytics"
	"github.com/coursedash/coursedash/internal/dashcore"
	"github.com/coursedash/coursedash/internal/dashlog"
	"github.com/coursedash/coursedash/internal/decode"
	"github.com/coursedash/coursedash/internal/reconcile"
	"github.com/coursedash/coursedash/internal/sources/coursefile"
	"github.com/coursedash/coursedash/internal/sources/timespent"
)

// ErrCriticalDiagnostics is returned when normalization leaves
// error-severity diagnostics outstanding. Reconciliation never runs over
// such data; the caller surfaces the diagnostics and asks for a re-upload.
var ErrCriticalDiagnostics = errors.New("upload has unresolved validation errors")

// Input is one uploaded file: its name (used to pick the decoder) and an
// open function producing its content.
type Input struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSet names the three uploads of one run.
type FileSet struct {
	Legacy    Input
	Modern    Input
	TimeSpent Input
}

// Options configures a run.
type Options struct {
	Reconcile reconcile.Options
	Hooks     Hooks
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{Reconcile: reconcile.DefaultOptions()}
}

// Result is the full output of one run, handed to the presentation layer.
type Result struct {
	Unified   []dashcore.UnifiedCourse   `json:"unified"`
	Errors    []dashcore.ValidationError `json:"errors"`
	Analytics *analytics.Analytics       `json:"analytics,omitempty"`
	Counts    map[string]SourceCounts    `json:"counts"`
	RanAt     time.Time                  `json:"ranAt"`
}

// SourceCounts records how one source fared during normalization.
type SourceCounts struct {
	Decoded    int `json:"decoded"`
	Normalized int `json:"normalized"`
	Excluded   int `json:"excluded"`
}

// Run executes the pipeline over a file set. The three decodes proceed
// concurrently and the run only continues once all three have succeeded:
// a single decode failure fails the whole upload and no partial dataset is
// produced. A Result is returned together with ErrCriticalDiagnostics when
// normalization produced error-severity diagnostics, so callers can still
// show them.
func Run(ctx context.Context, files FileSet, opts Options) (*Result, error) {
	start := time.Now()
	opts.Hooks.stageStarted("decode")

	var legacyRows, modernRows, entryRows []dashcore.RawRow

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return decodeInto(ctx, files.Legacy, &legacyRows) })
	g.Go(func() error { return decodeInto(ctx, files.Modern, &modernRows) })
	g.Go(func() error { return decodeInto(ctx, files.TimeSpent, &entryRows) })
	if err := g.Wait(); err != nil {
		dashlog.Log.Error("Decode failed", "error", err)
		return nil, err
	}
	opts.Hooks.stageCompleted("decode", time.Since(start))

	normStart := time.Now()
	opts.Hooks.stageStarted("normalize")

	legacy, legacyDiags := coursefile.Normalize(legacyRows, dashcore.FileLegacy)
	modern, modernDiags := coursefile.Normalize(modernRows, dashcore.FileModern)
	entries, entryDiags := timespent.Normalize(entryRows)

	counts := map[string]SourceCounts{
		dashcore.FileLegacy:    {Decoded: len(legacyRows), Normalized: len(legacy), Excluded: len(legacyRows) - len(legacy)},
		dashcore.FileModern:    {Decoded: len(modernRows), Normalized: len(modern), Excluded: len(modernRows) - len(modern)},
		dashcore.FileTimeSpent: {Decoded: len(entryRows), Normalized: len(entries), Excluded: len(entryRows) - len(entries)},
	}
	for file, c := range counts {
		opts.Hooks.rowsNormalized(file, c.Normalized, c.Decoded)
	}

	// Diagnostics concatenate in source-processing order.
	diags := make([]dashcore.ValidationError, 0, len(legacyDiags)+len(modernDiags)+len(entryDiags))
	diags = append(diags, legacyDiags...)
	diags = append(diags, modernDiags...)
	diags = append(diags, entryDiags...)
	opts.Hooks.diagnostics(diags)
	opts.Hooks.stageCompleted("normalize", time.Since(normStart))

	result := &Result{Errors: diags, Counts: counts, RanAt: start}

	if dashcore.HasErrors(diags) {
		dashlog.Log.Warn("Run halted before reconciliation", "diagnostics", len(diags))
		return result, ErrCriticalDiagnostics
	}

	recStart := time.Now()
	opts.Hooks.stageStarted("reconcile")
	rec := reconcile.Reconcile(legacy, modern, entries, opts.Reconcile)
	result.Unified = rec.Unified
	result.Errors = append(result.Errors, rec.Errors...)
	opts.Hooks.diagnostics(rec.Errors)
	opts.Hooks.stageCompleted("reconcile", time.Since(recStart))

	aggStart := time.Now()
	opts.Hooks.stageStarted("aggregate")
	agg := analytics.Compute(rec.Unified)
	result.Analytics = &agg
	opts.Hooks.stageCompleted("aggregate", time.Since(aggStart))

	dashlog.Log.Info("Run complete",
		"unified", len(result.Unified),
		"diagnostics", len(result.Errors),
		"elapsed", time.Since(start))
	return result, nil
}

func decodeInto(ctx context.Context, in Input, dst *[]dashcore.RawRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rc, err := in.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	rows, err := decode.Reader(rc, in.Name)
	if err != nil {
		return err
	}
	*dst = rows
	return nil
}

// FileInput builds an Input from a filesystem path.
func FileInput(path string) Input {
	return Input{Name: path, Open: func() (io.ReadCloser, error) { return os.Open(path) }}
}
