package grading

import (
	"fmt"
	"strconv"

	"gradeflow/internal/models"
)

// NoGradeRemark is the remark of an ungraded record.
const NoGradeRemark = "No Grade"

// MarksPerGradePoint converts a grade into total marks.
const MarksPerGradePoint = 10

// NewOutcome derives total marks and the remark from a grade. A missing
// grade propagates to missing marks.
func NewOutcome(grade models.Optional[int]) models.Outcome {
	g, ok := grade.Get()
	if !ok {
		return models.Outcome{
			Grade:      grade,
			TotalMarks: models.None[int](),
			Remark:     NoGradeRemark,
		}
	}

	marks := g * MarksPerGradePoint

	return models.Outcome{
		Grade:      grade,
		TotalMarks: models.Some(marks),
		Remark:     fmt.Sprintf("Total Marks: %d", marks),
	}
}

// FormatInt renders an optional integer cell; missing renders as "".
func FormatInt(v models.Optional[int]) string {
	n, ok := v.Get()
	if !ok {
		return ""
	}

	return strconv.Itoa(n)
}
