package normalizer

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"gradeflow/internal/models"
	"gradeflow/pkg/utils"
)

// stipendMissingMarkers are textual "no stipend" values, compared trimmed
// and case-insensitively.
var stipendMissingMarkers = []string{"nil", "na", "nill"}

var helper = utils.NewStringHelper()

// NormalizeStipend parses a free-text stipend amount. Empty text, a missing
// marker, or anything that does not parse as a decimal after removing
// thousands separators and the "Rs." / "Rs " prefixes yields missing.
func NormalizeStipend(text string) models.Optional[float64] {
	if text == "" || helper.InFoldSet(text, stipendMissingMarkers...) {
		return models.None[float64]()
	}

	// Order matters: commas first, then "Rs." before "Rs ".
	cleaned := strings.ReplaceAll(text, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "Rs.", "")
	cleaned = strings.ReplaceAll(cleaned, "Rs ", "")
	cleaned = strings.TrimSpace(cleaned)

	// Out-of-range magnitudes come back as ±Inf with ErrRange and stay present.
	v, err := strconv.ParseFloat(cleaned, 64)
	if (err != nil && !errors.Is(err, strconv.ErrRange)) || math.IsNaN(v) {
		return models.None[float64]()
	}

	return models.Some(v)
}

// FormatStipend renders a normalized stipend for the output table.
func FormatStipend(v models.Optional[float64]) string {
	f, ok := v.Get()
	if !ok {
		return ""
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}
