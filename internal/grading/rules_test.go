package grading

import (
	"math"
	"testing"

	"gradeflow/internal/models"

	"github.com/stretchr/testify/assert"
)

type recOpt func(*models.Record)

func stipend(v float64) recOpt {
	return func(r *models.Record) { r.Stipend = models.Some(v) }
}

func internWeeks(w int) recOpt {
	return func(r *models.Record) { r.InternshipWeeks = models.Some(w) }
}

func course(title string, weeks int) recOpt {
	return func(r *models.Record) {
		r.CourseTitle = title
		r.CourseWeeks = models.Some(weeks)
	}
}

func title(t string) recOpt {
	return func(r *models.Record) { r.CourseTitle = t }
}

func rec(opts ...recOpt) models.Record {
	var r models.Record
	for _, opt := range opts {
		opt(&r)
	}

	return r
}

func TestComputeConstants(t *testing.T) {
	records := []models.Record{
		rec(stipend(5000)),
		rec(stipend(12000)),
		rec(),
		rec(course("Go", 4)),
		rec(course("Rust", 10)),
	}

	c := ComputeConstants(records)

	high, ok := c.HighestStipend.Get()
	assert.True(t, ok)
	assert.Equal(t, 12000.0, high)

	longest, ok := c.MaxCourseWeeks.Get()
	assert.True(t, ok)
	assert.Equal(t, 10, longest)
}

func TestComputeConstants_AllMissing(t *testing.T) {
	c := ComputeConstants([]models.Record{rec(), rec(title("Go"))})

	assert.True(t, c.HighestStipend.IsMissing())
	assert.True(t, c.MaxCourseWeeks.IsMissing())
}

func TestComputeConstants_NegativeCourseWeeksCanBeMax(t *testing.T) {
	// End-before-start courses are not filtered out of the maximum.
	c := ComputeConstants([]models.Record{rec(course("A", -9)), rec(course("B", -2))})

	longest, ok := c.MaxCourseWeeks.Get()
	assert.True(t, ok)
	assert.Equal(t, -2, longest)
}

func TestGrade(t *testing.T) {
	constants := Constants{
		HighestStipend: models.Some(5000.0),
		MaxCourseWeeks: models.Some(10),
	}

	tests := []struct {
		name   string
		record models.Record
		want   models.Optional[int]
	}{
		{"highest stipend", rec(stipend(5000)), models.Some(10)},
		{"paid below highest", rec(stipend(1000)), models.Some(9)},
		{"zero stipend is ungraded", rec(stipend(0)), models.None[int]()},
		{"negative stipend is ungraded", rec(stipend(-50)), models.None[int]()},
		{"stipend wins over internship", rec(stipend(1000), internWeeks(12), title("Go")), models.Some(9)},
		{"long internship", rec(internWeeks(10)), models.Some(8)},
		{"exactly eight weeks", rec(internWeeks(8)), models.Some(8)},
		{"short internship", rec(internWeeks(4)), models.Some(7)},
		{"short internship with course", rec(internWeeks(4), title("Go")), models.Some(8)},
		{"internship with na title", rec(internWeeks(4), title(" NA ")), models.Some(7)},
		{"course not longest", rec(course("Python Basics", 4)), models.Some(6)},
		{"course longest", rec(course("Python Basics", 10)), models.Some(7)},
		{"course without dates", rec(title("Python Basics")), models.Some(6)},
		{"na title", rec(course("na", 10)), models.None[int]()},
		{"empty title", rec(course("  ", 10)), models.None[int]()},
		{"nothing at all", rec(), models.None[int]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Grade(tt.record, constants))
		})
	}
}

func TestGrade_TiesForHighestStipend(t *testing.T) {
	records := []models.Record{rec(stipend(8000)), rec(stipend(8000)), rec(stipend(100))}
	c := ComputeConstants(records)

	assert.Equal(t, models.Some(10), Grade(records[0], c))
	assert.Equal(t, models.Some(10), Grade(records[1], c))
	assert.Equal(t, models.Some(9), Grade(records[2], c))
}

func TestGrade_InfiniteStipendIsHighest(t *testing.T) {
	records := []models.Record{rec(stipend(math.Inf(1))), rec(stipend(50000))}
	c := ComputeConstants(records)

	assert.Equal(t, models.Some(10), Grade(records[0], c))
	assert.Equal(t, models.Some(9), Grade(records[1], c))
}

func TestGrade_TiesForLongestCourse(t *testing.T) {
	records := []models.Record{
		rec(course("A", 12)),
		rec(course("B", 12)),
		rec(course("C", 3)),
	}
	c := ComputeConstants(records)

	assert.Equal(t, models.Some(7), Grade(records[0], c))
	assert.Equal(t, models.Some(7), Grade(records[1], c))
	assert.Equal(t, models.Some(6), Grade(records[2], c))
}

func TestGrade_NegativeCourseWeeksNotClamped(t *testing.T) {
	// A reversed date range still competes for the longest course.
	records := []models.Record{rec(course("Reversed", -9))}
	c := ComputeConstants(records)

	assert.Equal(t, models.Some(7), Grade(records[0], c))
}

func TestEvaluate_LaterRuleWins(t *testing.T) {
	rules := []Rule{
		{Name: "always-1", Grade: 1, Match: func(models.Record, Constants) bool { return true }},
		{Name: "never", Grade: 2, Match: func(models.Record, Constants) bool { return false }},
		{Name: "always-3", Grade: 3, Match: func(models.Record, Constants) bool { return true }},
	}

	assert.Equal(t, models.Some(3), Evaluate(rules, rec(), Constants{}))
	assert.Equal(t, models.None[int](), Evaluate(nil, rec(), Constants{}))
}

func TestDefaultRules_Order(t *testing.T) {
	names := make([]string, len(DefaultRules))
	for i, r := range DefaultRules {
		names[i] = r.Name
	}

	assert.Equal(t, []string{
		"highest-stipend",
		"paid-stipend",
		"long-internship",
		"short-internship",
		"course",
		"longest-course",
		"internship-with-course",
	}, names)
}
