package grading

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gradeflow/internal/models"
)

// ErrNoGradeColumn is returned by CountGrades when the table has no grade column.
var ErrNoGradeColumn = errors.New("grade column not found")

// Summary describes the result of grading a dataset.
type Summary struct {
	Rows           int         `json:"rows" yaml:"rows"`
	Graded         int         `json:"graded" yaml:"graded"`
	Ungraded       int         `json:"ungraded" yaml:"ungraded"`
	ByGrade        map[int]int `json:"by_grade" yaml:"by_grade"`
	HighestStipend *float64    `json:"highest_stipend,omitempty" yaml:"highest_stipend,omitempty"`
	MaxCourseWeeks *int        `json:"max_course_weeks,omitempty" yaml:"max_course_weeks,omitempty"`
}

// Summarize counts outcomes per grade.
func Summarize(outcomes []models.Outcome, c Constants) Summary {
	s := Summary{
		Rows:    len(outcomes),
		ByGrade: make(map[int]int),
	}

	for _, o := range outcomes {
		g, ok := o.Grade.Get()
		if !ok {
			s.Ungraded++
			continue
		}

		s.Graded++
		s.ByGrade[g]++
	}

	if v, ok := c.HighestStipend.Get(); ok {
		s.HighestStipend = &v
	}

	if w, ok := c.MaxCourseWeeks.Get(); ok {
		s.MaxCourseWeeks = &w
	}

	return s
}

// CountGrades tallies an already graded table by reading its grade column.
// Empty cells are ungraded and not counted.
func CountGrades(table *models.Table, column string) (map[int]int, error) {
	idx := table.ColumnIndex(column)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoGradeColumn, column)
	}

	counts := make(map[int]int)

	for i := range table.Rows {
		cell := strings.TrimSpace(table.Cell(i, idx))
		if cell == "" {
			continue
		}

		g, err := strconv.Atoi(cell)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid grade %q: %w", i+1, cell, err)
		}

		counts[g]++
	}

	return counts, nil
}
