// Package coursefile normalizes rows from the legacy and modern course
// exports. The two files recognize the same fields and differ only in their
// diagnostic label and in the fallback reporting year applied later during
// reconciliation, so they share one normalizer.
package coursefile

import (
	"fmt"
	"strings"

	"github.com/coursedash/coursedash/internal/dashcore"
	"github.com/coursedash/coursedash/internal/fields"
)

// Normalize converts decoded rows into course records. Failure is row-local:
// a row missing its course name is excluded with an error diagnostic, a row
// with a zero or unparseable total time is kept with a warning, and the rest
// of the file always processes. Every original column is preserved on the
// record for later metadata display.
func Normalize(rows []dashcore.RawRow, file string) ([]dashcore.CourseRecord, []dashcore.ValidationError) {
	records := make([]dashcore.CourseRecord, 0, len(rows))
	var diags []dashcore.ValidationError

	for i, row := range rows {
		rowNum := i + 1

		name := ""
		if h, ok := fields.Find(row.Headers, fields.CourseName); ok {
			name = fields.Text(row.Get(h))
		}
		if name == "" {
			diags = append(diags, dashcore.ValidationError{
				File:     file,
				Row:      rowNum,
				Field:    fields.CourseName.Name,
				Message:  fmt.Sprintf("missing course name (columns: %s)", strings.Join(row.Headers, ", ")),
				Severity: dashcore.SeverityError,
			})
			continue
		}

		total := 0.0
		if h, ok := fields.Find(row.Headers, fields.TotalTime); ok {
			total = fields.Number(row.Get(h))
		}
		if total == 0 {
			diags = append(diags, dashcore.ValidationError{
				File:     file,
				Row:      rowNum,
				Field:    fields.TotalTime.Name,
				Message:  fmt.Sprintf("course %q has zero total time", name),
				Severity: dashcore.SeverityWarning,
			})
		}

		records = append(records, dashcore.CourseRecord{
			CourseName: name,
			TotalTime:  total,
			Year:       ResolveYear(row),
			RowNum:     rowNum,
			Row:        row.Clone(),
		})
	}

	return records, diags
}

// ResolveYear applies the year resolution order: an explicit year-named
// column first, then every date/completed/reporting-named column in file
// order, taking the first that yields a parseable year. Returns 0 when no
// column resolves; the caller applies its own default.
func ResolveYear(row dashcore.RawRow) int {
	if h, ok := fields.Find(row.Headers, fields.Year); ok {
		if y, ok := fields.YearValue(row.Get(h)); ok {
			return y
		}
	}
	for _, h := range fields.FindAll(row.Headers, fields.DateLike) {
		if y, ok := fields.YearValue(row.Get(h)); ok {
			return y
		}
	}
	return 0
}
