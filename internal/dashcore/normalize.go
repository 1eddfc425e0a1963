package dashcore

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Pre-compiled expressions for course name normalization.
var (
	punctuationRe = regexp.MustCompile(`[^\p{L}\p{N}\s-]+`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// NormalizeCourseName produces the matching form of a course name:
// Unicode-normalized, lower-cased, trimmed, internal whitespace collapsed,
// and punctuation stripped except hyphens. Two rows whose normalized names
// and reporting years agree are treated as the same course instance. The
// mapping is heuristic: inconsistent naming across files can split one
// course into two instances, and coincidentally similar names can merge
// two courses into one.
func NormalizeCourseName(name string) string {
	s := norm.NFKC.String(name)
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctuationRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CourseKey builds the identity key that unifies records referring to the
// same course instance across sources. Same normalized name in a different
// year is a different instance: a course re-run later is tracked separately.
func CourseKey(name string, year int) string {
	return NormalizeCourseName(name) + "__" + strconv.Itoa(year)
}
