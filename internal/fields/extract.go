package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	meridiemRe   = regexp.MustCompile(`(?i)\s*(am|pm)\s*$`)
	clockRe      = regexp.MustCompile(`^(\d+):(\d{1,2})(?::(\d{1,2}))?$`)
	yearRe       = regexp.MustCompile(`20\d{2}`)
	nonNumericRe = regexp.MustCompile(`[^0-9.]`)
	rangeRe      = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s+to\s+(\d+(?:\.\d+)?)$`)
	minutesRe    = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*min(?:ute)?s?$`)
	hoursRe      = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(?:h|hr|hrs|hour|hours)$`)
)

// dateLayouts tried, in order, when a year has to be pulled out of a full
// date string.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// Year bounds considered plausible for a bare integer cell.
const (
	minPlausibleYear = 2022
	maxPlausibleYear = 2100
)

// Excel stores dates as days since 1899-12-30. Serials in this window cover
// roughly 2009-2119, which is the only range worth treating as a date.
const (
	excelSerialMin = 40000
	excelSerialMax = 80000
)

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Number coerces a cell into fractional hours. It accepts plain numerics,
// H:MM and H:MM:SS clock strings (converted to h + m/60 + s/3600), and
// falls back to stripping non-numeric characters. A trailing AM/PM marker
// is stripped and the remainder is treated as a duration; whether such
// cells are durations or times of day is genuinely ambiguous in the source
// exports, and this chooses duration. Unparseable input yields 0, never an
// error: one malformed cell must not abort a file.
func Number(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		return numberFromString(n)
	}
	return 0
}

func numberFromString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	s = meridiemRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if m := clockRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.ParseFloat(m[1], 64)
		min, _ := strconv.ParseFloat(m[2], 64)
		out := h + min/60
		if m[3] != "" {
			sec, _ := strconv.ParseFloat(m[3], 64)
			out += sec / 3600
		}
		return out
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}

	stripped := nonNumericRe.ReplaceAllString(s, "")
	if n, err := strconv.ParseFloat(stripped, 64); err == nil {
		return n
	}
	return 0
}

// YearValue coerces a cell into a calendar year. Plain integers in
// [2022, 2100] are taken as-is; Excel date serials are converted through the
// 1899-12-30 epoch; otherwise the string is searched for a 20xx substring,
// then parsed against common date layouts. Returns (0, false) when nothing
// yields a year.
func YearValue(v any) (int, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case time.Time:
		return n.Year(), true
	case int:
		return yearFromNumber(float64(n))
	case int64:
		return yearFromNumber(float64(n))
	case float64:
		return yearFromNumber(n)
	case float32:
		return yearFromNumber(float64(n))
	case string:
		return yearFromString(n)
	}
	return 0, false
}

func yearFromNumber(n float64) (int, bool) {
	i := int(n)
	if i >= minPlausibleYear && i <= maxPlausibleYear {
		return i, true
	}
	if n >= excelSerialMin && n <= excelSerialMax {
		return excelEpoch.AddDate(0, 0, int(n)).Year(), true
	}
	return 0, false
}

func yearFromString(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if i, err := strconv.Atoi(s); err == nil {
		if y, ok := yearFromNumber(float64(i)); ok {
			return y, true
		}
	}

	if m := yearRe.FindString(s); m != "" {
		y, _ := strconv.Atoi(m)
		return y, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

// DurationPhrase parses free-text duration phrases used in downstream
// views: "less than an hour" / "under an hour" (0.5), H:MM[:SS] clock
// strings, "X to Y" ranges (midpoint), "N mins" (N/60), "N hrs" (N), and
// bare numerics. ok is false when the phrase is unrecognized.
func DurationPhrase(s string) (hours float64, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	if strings.Contains(s, "less than") && strings.Contains(s, "hour") {
		return 0.5, true
	}
	if strings.Contains(s, "under an hour") {
		return 0.5, true
	}

	if clockRe.MatchString(s) {
		return numberFromString(s), true
	}

	if m := rangeRe.FindStringSubmatch(s); m != nil {
		lo, _ := strconv.ParseFloat(m[1], 64)
		hi, _ := strconv.ParseFloat(m[2], 64)
		return (lo + hi) / 2, true
	}

	if m := minutesRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.ParseFloat(m[1], 64)
		return n / 60, true
	}

	if m := hoursRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.ParseFloat(m[1], 64)
		return n, true
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n, true
	}
	return 0, false
}

// Text coerces a cell into a trimmed string.
func Text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	case time.Time:
		return s.Format("2006-01-02")
	}
	return ""
}
