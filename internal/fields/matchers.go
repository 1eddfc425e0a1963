// Package fields locates semantically named values inside rows whose column
// headers vary between exports, and coerces cell values into typed Go values.
// Header matching is a declarative table: each semantic field carries an
// ordered list of matchers (exact, then all-substrings, then any-substring)
// evaluated in fixed priority order, so the heuristics can be tested
// field-by-field. These rules are deliberately purpose-built for the course
// export shape, not a general header-mapping facility.
package fields

import "strings"

// Matcher matches a single lower-cased, trimmed header. Exactly one of the
// three forms is set per matcher.
type Matcher struct {
	Exact string   // header equals this string
	All   []string // header contains every substring
	Any   []string // header contains at least one substring
}

// Match reports whether the normalized header satisfies this matcher.
func (m Matcher) Match(header string) bool {
	switch {
	case m.Exact != "":
		return header == m.Exact
	case len(m.All) > 0:
		for _, sub := range m.All {
			if !strings.Contains(header, sub) {
				return false
			}
		}
		return true
	case len(m.Any) > 0:
		for _, sub := range m.Any {
			if strings.Contains(header, sub) {
				return true
			}
		}
		return false
	}
	return false
}

// Spec names a semantic field and the matchers that locate it, in priority
// order: earlier matchers win over later ones regardless of column position.
type Spec struct {
	Name     string
	Matchers []Matcher
}

// Recognized fields. Matcher order is the contract: an exact header beats a
// substring hit even when the substring column appears first in the file.
var (
	CourseName = Spec{
		Name: "course name",
		Matchers: []Matcher{
			{Exact: "course name"},
			{All: []string{"course", "name"}},
			{All: []string{"course", "title"}},
			{Any: []string{"course", "title"}},
		},
	}

	TotalTime = Spec{
		Name: "total time",
		Matchers: []Matcher{
			{Exact: "total time"},
			{Exact: "time spent"},
			{All: []string{"time", "spent"}},
			{All: []string{"course", "length"}},
			{All: []string{"total", "hours"}},
			{Any: []string{"hours", "duration", "time"}},
		},
	}

	Year = Spec{
		Name: "year",
		Matchers: []Matcher{
			{Exact: "year"},
			{Any: []string{"year"}},
		},
	}

	Reporting = Spec{
		Name: "reporting",
		Matchers: []Matcher{
			{Exact: "reporting"},
			{Any: []string{"reporting"}},
		},
	}

	Category = Spec{
		Name: "category",
		Matchers: []Matcher{
			{Exact: "category"},
			{Any: []string{"category", "type of work", "work type"}},
		},
	}

	User = Spec{
		Name: "user",
		Matchers: []Matcher{
			{Exact: "user"},
			{Any: []string{"user", "employee", "designer", "developer"}},
		},
	}

	Status = Spec{
		Name: "status",
		Matchers: []Matcher{
			{Exact: "status"},
		},
	}
)

// DateLike matches the headers scanned, in column order, when no explicit
// year column exists.
var DateLike = Spec{
	Name: "date",
	Matchers: []Matcher{
		{Any: []string{"date", "completed", "reporting"}},
	},
}

// NormalizeHeader lower-cases and trims a header for matching.
func NormalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

// Find returns the first original header in the row matched by the spec.
// Matchers are tried in priority order; within one matcher, columns are
// scanned in file order. ok is false when no header matches.
func Find(headers []string, spec Spec) (header string, ok bool) {
	return FindExcluding(headers, spec, "")
}

// FindExcluding is Find with one header taken out of consideration, for
// callers that have already claimed a column for another field and must not
// let a broad matcher rediscover it.
func FindExcluding(headers []string, spec Spec, exclude string) (header string, ok bool) {
	for _, m := range spec.Matchers {
		for _, h := range headers {
			if h == exclude {
				continue
			}
			if m.Match(NormalizeHeader(h)) {
				return h, true
			}
		}
	}
	return "", false
}

// FindAll returns, in column order, every header matched by the spec.
func FindAll(headers []string, spec Spec) []string {
	var out []string
	for _, h := range headers {
		norm := NormalizeHeader(h)
		for _, m := range spec.Matchers {
			if m.Match(norm) {
				out = append(out, h)
				break
			}
		}
	}
	return out
}
