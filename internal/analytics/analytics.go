// Package analytics computes grouped summary statistics over the unified
// course dataset. Everything here is a pure function of its input and is
// recomputed wholesale per pipeline run; hour sums are plain float64
// addition and are returned unrounded, rounding is a presentation concern.
package analytics

import (
	"sort"

	"github.com/coursedash/coursedash/internal/dashcore"
)

// TopCourseCount is how many courses the top-courses view carries.
const TopCourseCount = 20

// Summary holds the headline counts and totals.
type Summary struct {
	TotalCourses int     `json:"totalCourses"`
	Completed    int     `json:"completed"` // any non-in-progress classification
	InProgress   int     `json:"inProgress"`
	LegacyCount  int     `json:"legacyCount"`
	ModernCount  int     `json:"modernCount"`
	TotalHours   float64 `json:"totalHours"`
	AvgHours     float64 `json:"avgHours"`
}

// YearStat is one by-year bucket.
type YearStat struct {
	Year      int     `json:"year"`
	Count     int     `json:"count"`
	TotalTime float64 `json:"totalTime"`
	AvgTime   float64 `json:"avgTime"`
}

// StatusStat groups by the literal status string, not classification.
type StatusStat struct {
	Status    string  `json:"status"`
	Count     int     `json:"count"`
	TotalTime float64 `json:"totalTime"`
}

// CategoryStat is one category bucket across every instance's breakdown.
// CourseCount is distinct courses: a course contributing to the category
// several times counts once.
type CategoryStat struct {
	Category    string  `json:"category"`
	TotalTime   float64 `json:"totalTime"`
	CourseCount int     `json:"courseCount"`
}

// YearClassStat splits one year's hours by provenance.
type YearClassStat struct {
	Year       int     `json:"year"`
	Legacy     float64 `json:"legacy"`
	Modern     float64 `json:"modern"`
	InProgress float64 `json:"inProgress"`
}

// Analytics is the aggregator's full output, computed once per run.
type Analytics struct {
	Summary    Summary                  `json:"summary"`
	ByYear     []YearStat               `json:"byYear"`
	ByStatus   []StatusStat             `json:"byStatus"`
	ByCategory []CategoryStat           `json:"byCategory"`
	TopCourses []dashcore.UnifiedCourse `json:"topCourses"`
	TimeByYear []YearClassStat          `json:"timeByYearAndClassification"`
}

// Compute derives all dashboard aggregates from the unified dataset.
func Compute(unified []dashcore.UnifiedCourse) Analytics {
	return Analytics{
		Summary:    computeSummary(unified),
		ByYear:     computeByYear(unified),
		ByStatus:   computeByStatus(unified),
		ByCategory: computeByCategory(unified),
		TopCourses: computeTopCourses(unified),
		TimeByYear: computeTimeByYear(unified),
	}
}

func computeSummary(unified []dashcore.UnifiedCourse) Summary {
	s := Summary{TotalCourses: len(unified)}
	for _, c := range unified {
		s.TotalHours += c.TotalTime
		switch c.Classification {
		case dashcore.ClassificationLegacy:
			s.LegacyCount++
			s.Completed++
		case dashcore.ClassificationModern:
			s.ModernCount++
			s.Completed++
		case dashcore.ClassificationInProgress:
			s.InProgress++
		}
	}
	if s.TotalCourses > 0 {
		s.AvgHours = s.TotalHours / float64(s.TotalCourses)
	}
	return s
}

func computeByYear(unified []dashcore.UnifiedCourse) []YearStat {
	byYear := make(map[int]*YearStat)
	for _, c := range unified {
		st, ok := byYear[c.Year]
		if !ok {
			st = &YearStat{Year: c.Year}
			byYear[c.Year] = st
		}
		st.Count++
		st.TotalTime += c.TotalTime
	}

	out := make([]YearStat, 0, len(byYear))
	for _, st := range byYear {
		if st.Count > 0 {
			st.AvgTime = st.TotalTime / float64(st.Count)
		}
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func computeByStatus(unified []dashcore.UnifiedCourse) []StatusStat {
	byStatus := make(map[string]*StatusStat)
	for _, c := range unified {
		st, ok := byStatus[c.Status]
		if !ok {
			st = &StatusStat{Status: c.Status}
			byStatus[c.Status] = st
		}
		st.Count++
		st.TotalTime += c.TotalTime
	}

	out := make([]StatusStat, 0, len(byStatus))
	for _, st := range byStatus {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}

func computeByCategory(unified []dashcore.UnifiedCourse) []CategoryStat {
	type bucket struct {
		total   float64
		courses map[string]bool
	}
	byCategory := make(map[string]*bucket)

	for _, c := range unified {
		for category, hours := range c.CategoryBreakdown {
			b, ok := byCategory[category]
			if !ok {
				b = &bucket{courses: make(map[string]bool)}
				byCategory[category] = b
			}
			b.total += hours
			b.courses[c.Key()] = true
		}
	}

	out := make([]CategoryStat, 0, len(byCategory))
	for category, b := range byCategory {
		out = append(out, CategoryStat{
			Category:    category,
			TotalTime:   b.total,
			CourseCount: len(b.courses),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalTime != out[j].TotalTime {
			return out[i].TotalTime > out[j].TotalTime
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func computeTopCourses(unified []dashcore.UnifiedCourse) []dashcore.UnifiedCourse {
	top := make([]dashcore.UnifiedCourse, len(unified))
	copy(top, unified)
	sort.SliceStable(top, func(i, j int) bool { return top[i].TotalTime > top[j].TotalTime })
	if len(top) > TopCourseCount {
		top = top[:TopCourseCount]
	}
	return top
}

func computeTimeByYear(unified []dashcore.UnifiedCourse) []YearClassStat {
	byYear := make(map[int]*YearClassStat)
	for _, c := range unified {
		st, ok := byYear[c.Year]
		if !ok {
			st = &YearClassStat{Year: c.Year}
			byYear[c.Year] = st
		}
		switch c.Classification {
		case dashcore.ClassificationLegacy:
			st.Legacy += c.TotalTime
		case dashcore.ClassificationModern:
			st.Modern += c.TotalTime
		case dashcore.ClassificationInProgress:
			st.InProgress += c.TotalTime
		}
	}

	out := make([]YearClassStat, 0, len(byYear))
	for _, st := range byYear {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
