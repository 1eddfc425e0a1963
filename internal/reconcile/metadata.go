package reconcile

import (
	"regexp"
	"sort"
	"strings"

	"github.com/coursedash/coursedash/internal/dashcore"
)

// Column headers in the course exports carry decorations added by the
// reporting tool: a leading bracketed tag and a trailing parenthetical
// legacy/modern marker. Both are stripped before the column lands in the
// metadata map shown in detail views.
var (
	leadingTagRe     = regexp.MustCompile(`^\s*\[[^\]]*\]\s*`)
	trailingMarkerRe = regexp.MustCompile(`(?i)\s*\((?:[^)]*\b(?:legacy|modern)\b[^)]*)\)\s*$`)
)

// CleanFieldName strips the known header decorations, leaving the
// display-worthy field name.
func CleanFieldName(name string) string {
	s := leadingTagRe.ReplaceAllString(name, "")
	s = trailingMarkerRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// cleanMetadata copies every original column into a metadata map under its
// cleaned field name. Later columns win when cleaning collapses two headers
// onto the same name.
func cleanMetadata(row dashcore.RawRow) map[string]any {
	meta := make(map[string]any, len(row.Headers))
	for _, h := range row.Headers {
		meta[CleanFieldName(h)] = row.Get(h)
	}
	return meta
}

// statusFromMetadata reads the free-text status from a metadata field
// literally named Status (case-insensitive after cleaning). Keys are
// scanned in sorted order so the result is stable when cleaning collapses
// more than one header onto a status-named field.
func statusFromMetadata(meta map[string]any) (string, bool) {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !strings.EqualFold(k, "status") {
			continue
		}
		if s, ok := meta[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}
