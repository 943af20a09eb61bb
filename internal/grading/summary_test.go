package grading

import (
	"testing"

	"gradeflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	outcomes := []models.Outcome{
		NewOutcome(models.Some(10)),
		NewOutcome(models.Some(7)),
		NewOutcome(models.Some(7)),
		NewOutcome(models.None[int]()),
	}

	c := Constants{HighestStipend: models.Some(12000.0), MaxCourseWeeks: models.None[int]()}

	s := Summarize(outcomes, c)

	assert.Equal(t, 4, s.Rows)
	assert.Equal(t, 3, s.Graded)
	assert.Equal(t, 1, s.Ungraded)
	assert.Equal(t, map[int]int{10: 1, 7: 2}, s.ByGrade)
	require.NotNil(t, s.HighestStipend)
	assert.InDelta(t, 12000.0, *s.HighestStipend, 0)
	assert.Nil(t, s.MaxCourseWeeks)
}

func TestCountGrades(t *testing.T) {
	table := models.NewTable(
		[]string{"Name", "Grade"},
		[][]string{{"a", "10"}, {"b", " 9 "}, {"c", ""}, {"d", "10"}},
	)

	counts, err := CountGrades(table, "grade")
	require.NoError(t, err)
	assert.Equal(t, map[int]int{10: 2, 9: 1}, counts)

	_, err = CountGrades(table, "Marks")
	assert.ErrorIs(t, err, ErrNoGradeColumn)

	bad := models.NewTable([]string{"Grade"}, [][]string{{"A+"}})
	_, err = CountGrades(bad, "Grade")
	assert.Error(t, err)
}
