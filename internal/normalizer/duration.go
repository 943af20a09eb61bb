package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"gradeflow/internal/models"
)

// CourseDateLayout is MM/DD/YYYY; one-digit months and days are accepted.
const CourseDateLayout = "1/2/2006"

const secondsPerDay = 24 * 60 * 60

var weeksPattern = regexp.MustCompile(`(\d+)`)

// InternshipWeeks extracts the first run of digits in text as a week count.
// Text without digits, or a digit run too large for an int, yields missing.
func InternshipWeeks(text string) models.Optional[int] {
	match := weeksPattern.FindString(text)
	if match == "" {
		return models.None[int]()
	}

	val, err := strconv.Atoi(match)
	if err != nil {
		return models.None[int]()
	}

	return models.Some(val)
}

// CourseWeeks returns the number of whole weeks between two MM/DD/YYYY dates,
// using floor division on the day difference. An end date before the start
// date produces a negative count; it is not clamped.
func CourseWeeks(start, end string) models.Optional[int] {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return models.None[int]()
	}

	s, err := time.Parse(CourseDateLayout, start)
	if err != nil {
		return models.None[int]()
	}

	e, err := time.Parse(CourseDateLayout, end)
	if err != nil {
		return models.None[int]()
	}

	days := int((e.Unix() - s.Unix()) / secondsPerDay)

	return models.Some(floorDiv(days, 7))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}
