// Package grading assigns grades to normalized records.
//
// Grading is a two-pass computation. ComputeConstants derives the
// dataset-wide maxima once over every record; Grade is then a pure function
// of a single record and those constants, so records may be graded in any
// order or in parallel without changing the result.
package grading

import (
	"gradeflow/internal/models"
	"gradeflow/pkg/utils"
)

// Grade values produced by the default rule table.
const (
	GradeHighestStipend  = 10
	GradePaidStipend     = 9
	GradeLongInternship  = 8
	GradeShortInternship = 7
	GradeLongestCourse   = 7
	GradeCourse          = 6
	GradeInternAndCourse = 8

	// LongInternshipWeeks is the inclusive lower bound of a long internship.
	LongInternshipWeeks = 8
)

// Constants are the dataset-wide values shared by every record in a run.
type Constants struct {
	HighestStipend models.Optional[float64]
	MaxCourseWeeks models.Optional[int]
}

// ComputeConstants scans all records, ignoring missing values. It must see
// the whole dataset: maxima computed over a subset would change which
// records earn the top stipend and longest-course grades.
func ComputeConstants(records []models.Record) Constants {
	var c Constants

	for _, r := range records {
		if v, ok := r.Stipend.Get(); ok {
			if cur, set := c.HighestStipend.Get(); !set || v > cur {
				c.HighestStipend = models.Some(v)
			}
		}

		if w, ok := r.CourseWeeks.Get(); ok {
			if cur, set := c.MaxCourseWeeks.Get(); !set || w > cur {
				c.MaxCourseWeeks = models.Some(w)
			}
		}
	}

	return c
}

// Rule is one entry of the rule table.
type Rule struct {
	Name  string
	Grade int
	Match func(r models.Record, c Constants) bool
}

var titles = utils.NewStringHelper()

// emptyTitles mark a record without a real course, compared trimmed and
// case-insensitively.
var emptyTitles = []string{"", "na"}

func hasCourseTitle(r models.Record) bool {
	return !titles.InFoldSet(r.CourseTitle, emptyTitles...)
}

// DefaultRules is the rule table in application order. Later matches
// overwrite earlier ones. The course rule is listed before the
// longest-course rule so that the longest course (and every tie) keeps 7
// while other titled courses get 6.
var DefaultRules = []Rule{
	{
		Name:  "highest-stipend",
		Grade: GradeHighestStipend,
		Match: func(r models.Record, c Constants) bool {
			v, ok := r.Stipend.Get()
			high, set := c.HighestStipend.Get()

			return ok && set && v == high
		},
	},
	{
		Name:  "paid-stipend",
		Grade: GradePaidStipend,
		Match: func(r models.Record, c Constants) bool {
			v, ok := r.Stipend.Get()
			high, set := c.HighestStipend.Get()

			return ok && v > 0 && (!set || v != high)
		},
	},
	{
		Name:  "long-internship",
		Grade: GradeLongInternship,
		Match: func(r models.Record, _ Constants) bool {
			w, ok := r.InternshipWeeks.Get()

			return r.Stipend.IsMissing() && ok && w >= LongInternshipWeeks
		},
	},
	{
		Name:  "short-internship",
		Grade: GradeShortInternship,
		Match: func(r models.Record, _ Constants) bool {
			w, ok := r.InternshipWeeks.Get()

			return r.Stipend.IsMissing() && ok && w < LongInternshipWeeks
		},
	},
	{
		Name:  "course",
		Grade: GradeCourse,
		Match: func(r models.Record, _ Constants) bool {
			return r.Stipend.IsMissing() && r.InternshipWeeks.IsMissing() && hasCourseTitle(r)
		},
	},
	{
		Name:  "longest-course",
		Grade: GradeLongestCourse,
		Match: func(r models.Record, c Constants) bool {
			w, ok := r.CourseWeeks.Get()
			longest, set := c.MaxCourseWeeks.Get()

			return r.Stipend.IsMissing() && r.InternshipWeeks.IsMissing() && hasCourseTitle(r) &&
				ok && set && w == longest
		},
	},
	{
		Name:  "internship-with-course",
		Grade: GradeInternAndCourse,
		Match: func(r models.Record, _ Constants) bool {
			return r.Stipend.IsMissing() && r.InternshipWeeks.IsPresent() && hasCourseTitle(r)
		},
	},
}

// Evaluate applies rules in order and returns the grade of the last
// matching rule, or missing when none match.
func Evaluate(rules []Rule, r models.Record, c Constants) models.Optional[int] {
	grade := models.None[int]()

	for _, rule := range rules {
		if rule.Match(r, c) {
			grade = models.Some(rule.Grade)
		}
	}

	return grade
}

// Grade grades a single record with DefaultRules.
func Grade(r models.Record, c Constants) models.Optional[int] {
	return Evaluate(DefaultRules, r, c)
}
