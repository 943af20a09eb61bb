package normalizer

import (
	"fmt"

	"gradeflow/internal/config"
	"gradeflow/internal/models"
)

// Transformer extracts grading records from a table and normalizes them.
type Transformer struct {
	columns config.ColumnsConfig
}

// NewTransformer creates a new transformer instance.
func NewTransformer(columns config.ColumnsConfig) *Transformer {
	return &Transformer{columns: columns}
}

type columnIndexes struct {
	stipend, internship, start, end, title int
}

func (t *Transformer) resolve(table *models.Table) (columnIndexes, error) {
	idx := columnIndexes{
		stipend:    table.ColumnIndex(t.columns.Stipend),
		internship: table.ColumnIndex(t.columns.InternshipDuration),
		start:      table.ColumnIndex(t.columns.CourseStart),
		end:        table.ColumnIndex(t.columns.CourseEnd),
		title:      table.ColumnIndex(t.columns.CourseTitle),
	}

	for _, i := range []int{idx.stipend, idx.internship, idx.start, idx.end, idx.title} {
		if i < 0 {
			return idx, ErrMissingColumns
		}
	}

	return idx, nil
}

// Transform builds one normalized record per row, in row order. The table
// is not modified.
func (t *Transformer) Transform(table *models.Table) ([]models.Record, error) {
	if table == nil {
		return nil, ErrNilTable
	}

	idx, err := t.resolve(table)
	if err != nil {
		return nil, fmt.Errorf("resolve columns: %w", err)
	}

	records := make([]models.Record, table.Len())
	for i := range table.Rows {
		r := models.Record{
			Index:                 i,
			StipendRaw:            table.Cell(i, idx.stipend),
			InternshipDurationRaw: table.Cell(i, idx.internship),
			CourseStartDate:       table.Cell(i, idx.start),
			CourseEndDate:         table.Cell(i, idx.end),
			CourseTitle:           table.Cell(i, idx.title),
		}

		r.Stipend = NormalizeStipend(r.StipendRaw)
		r.InternshipWeeks = InternshipWeeks(r.InternshipDurationRaw)
		r.CourseWeeks = CourseWeeks(r.CourseStartDate, r.CourseEndDate)

		records[i] = r
	}

	return records, nil
}
