package normalizer

import (
	"errors"
	"strings"
	"testing"

	"gradeflow/internal/models"
)

func TestNewValidator(t *testing.T) {
	v := NewValidator("a")
	if v == nil {
		t.Fatal("NewValidator returned nil")
	}
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator("Stipend", "Title of Course")

	ok := models.NewTable([]string{" title  of course", "STIPEND", "Extra"}, nil)
	if err := v.Validate(ok); err != nil {
		t.Errorf("Validate returned unexpected error: %v", err)
	}

	missing := models.NewTable([]string{"Stipend"}, [][]string{{"100"}})

	err := v.Validate(missing)
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("Validate() = %v, want ErrMissingColumns", err)
	}

	if !strings.Contains(err.Error(), `"Title of Course"`) {
		t.Errorf("error %q should name the missing column", err)
	}
}

func TestValidator_Validate_NilTable(t *testing.T) {
	if err := NewValidator().Validate(nil); !errors.Is(err, ErrNilTable) {
		t.Errorf("Validate(nil) = %v, want ErrNilTable", err)
	}
}

func TestValidator_MissingColumns_Order(t *testing.T) {
	v := NewValidator("a", "b", "c")
	got := v.MissingColumns(models.NewTable([]string{"b"}, nil))

	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("MissingColumns = %v, want [a c]", got)
	}
}
