package normalizer

import (
	"errors"
	"fmt"
	"strings"

	"gradeflow/internal/models"
)

// Validation errors.
var (
	ErrNilTable       = errors.New("table is nil")
	ErrMissingColumns = errors.New("required columns missing")
)

// Validator checks that a table has the structure grading needs.
type Validator struct {
	required []string
}

// NewValidator creates a validator for the given required column names.
func NewValidator(required ...string) *Validator {
	return &Validator{required: required}
}

// MissingColumns returns the required columns the table lacks, in
// configuration order.
func (v *Validator) MissingColumns(table *models.Table) []string {
	var missing []string

	for _, name := range v.required {
		if table.ColumnIndex(name) < 0 {
			missing = append(missing, name)
		}
	}

	return missing
}

// Validate reports structural problems. It never inspects cell values:
// malformed cells are handled per field by the transformer.
func (v *Validator) Validate(table *models.Table) error {
	if table == nil {
		return ErrNilTable
	}

	if missing := v.MissingColumns(table); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, quoteAll(missing))
	}

	return nil
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}

	return strings.Join(quoted, ", ")
}
