package normalizer

import (
	"errors"
	"testing"

	"gradeflow/internal/config"
	"gradeflow/internal/models"
)

var testHeader = []string{
	"Name",
	"Total stipend amount in Rs.",
	"Duration of Internship",
	"Start date of course",
	"End date of course",
	"Title of Course",
}

func TestNewTransformer(t *testing.T) {
	tr := NewTransformer(config.Default().Columns)
	if tr == nil {
		t.Fatal("NewTransformer returned nil")
	}
}

func TestTransformer_Transform(t *testing.T) {
	tr := NewTransformer(config.Default().Columns)

	table := models.NewTable(testHeader, [][]string{
		{"Asha", "Rs. 5,000", "", "", "", "na"},
		{"Ravi", "nil", "10 weeks", "", "", "NA"},
		{"Meera", "", "", "01/01/2024", "01/29/2024", "Python Basics"},
	})
	before := table.Clone()

	records, err := tr.Transform(table)
	if err != nil {
		t.Fatalf("Transform returned unexpected error: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	if v, ok := records[0].Stipend.Get(); !ok || v != 5000 {
		t.Errorf("records[0].Stipend = (%v, %v), want 5000", v, ok)
	}

	if records[0].StipendRaw != "Rs. 5,000" {
		t.Errorf("records[0].StipendRaw = %q, raw field must be preserved", records[0].StipendRaw)
	}

	if w, ok := records[1].InternshipWeeks.Get(); !ok || w != 10 {
		t.Errorf("records[1].InternshipWeeks = (%d, %v), want 10", w, ok)
	}

	if w, ok := records[2].CourseWeeks.Get(); !ok || w != 4 {
		t.Errorf("records[2].CourseWeeks = (%d, %v), want 4", w, ok)
	}

	if records[2].CourseTitle != "Python Basics" || records[2].Index != 2 {
		t.Errorf("records[2] = %+v", records[2])
	}

	for i := range before.Rows {
		for j := range before.Rows[i] {
			if table.Rows[i][j] != before.Rows[i][j] {
				t.Errorf("input cell (%d,%d) changed from %q to %q", i, j, before.Rows[i][j], table.Rows[i][j])
			}
		}
	}
}

func TestTransformer_Transform_Error(t *testing.T) {
	tr := NewTransformer(config.Default().Columns)

	_, err := tr.Transform(models.NewTable([]string{"Name"}, nil))
	if !errors.Is(err, ErrMissingColumns) {
		t.Errorf("Transform() = %v, want ErrMissingColumns", err)
	}

	if _, err := tr.Transform(nil); !errors.Is(err, ErrNilTable) {
		t.Errorf("Transform(nil) = %v, want ErrNilTable", err)
	}
}
