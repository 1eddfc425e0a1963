// Package timespent normalizes rows from the granular time-entry export:
// one row per chunk of work, carrying a course name, a work category, an
// hour amount, and optionally the user who logged it.
package timespent

import (
	"fmt"
	"strings"

	"github.com/coursedash/coursedash/internal/dashcore"
	"github.com/coursedash/coursedash/internal/fields"
)

// DefaultCategory is applied when a row carries no category column or an
// empty category cell.
const DefaultCategory = "Uncategorized"

// maxMissingNameDiags caps how many missing-course-name warnings one file
// can emit. Beyond the cap rows are still dropped, silently, so a mostly
// blank trailing region cannot flood the diagnostic list.
const maxMissingNameDiags = 5

// Normalize converts decoded rows into time entries. A missing course name
// drops the row with a warning (capped; see maxMissingNameDiags); category
// defaults to Uncategorized, hours to 0, and user stays empty when absent.
func Normalize(rows []dashcore.RawRow) ([]dashcore.TimeEntry, []dashcore.ValidationError) {
	entries := make([]dashcore.TimeEntry, 0, len(rows))
	var diags []dashcore.ValidationError
	missingNames := 0

	for i, row := range rows {
		rowNum := i + 1

		nameHeader := ""
		name := ""
		if h, ok := fields.Find(row.Headers, fields.CourseName); ok {
			nameHeader = h
			name = fields.Text(row.Get(h))
		}
		if name == "" {
			missingNames++
			if missingNames <= maxMissingNameDiags {
				diags = append(diags, dashcore.ValidationError{
					File:     dashcore.FileTimeSpent,
					Row:      rowNum,
					Field:    fields.CourseName.Name,
					Message:  fmt.Sprintf("time entry without course name skipped (columns: %s)", strings.Join(row.Headers, ", ")),
					Severity: dashcore.SeverityWarning,
				})
			}
			continue
		}

		category := DefaultCategory
		if h, ok := fields.Find(row.Headers, fields.Category); ok {
			if c := fields.Text(row.Get(h)); c != "" {
				category = c
			}
		}

		// The course name column is off the table for the remaining
		// fields so a header like "Course Length Time" cannot shadow
		// the real hours cell.
		hours := 0.0
		if h, ok := fields.FindExcluding(row.Headers, fields.TotalTime, nameHeader); ok {
			hours = fields.Number(row.Get(h))
		}

		user := ""
		if h, ok := fields.FindExcluding(row.Headers, fields.User, nameHeader); ok {
			user = fields.Text(row.Get(h))
		}

		entries = append(entries, dashcore.TimeEntry{
			CourseName: name,
			Category:   category,
			Hours:      hours,
			User:       user,
			RowNum:     rowNum,
			Row:        row.Clone(),
		})
	}

	return entries, diags
}
