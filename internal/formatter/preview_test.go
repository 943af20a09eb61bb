package formatter

import (
	"strings"
	"testing"

	"gradeflow/internal/models"
)

func TestRenderTable(t *testing.T) {
	tests := []struct {
		name     string
		table    *models.Table
		limit    int
		width    int
		expected string
	}{
		{
			name: "Basic table",
			table: models.NewTable(
				[]string{"Name", "Grade"},
				[][]string{{"Asha", "10"}, {"Ravi", "8"}},
			),
			limit: -1,
			expected: `
| Name | Grade |
| ---- | ----- |
| Asha | 10    |
| Ravi | 8     |
`,
		},
		{
			name: "Header only",
			table: models.NewTable(
				[]string{"Name", "Grade"},
				nil,
			),
			limit: -1,
			expected: `
| Name | Grade |
| ---- | ----- |
`,
		},
		{
			name: "Minimum separator width and empty cells",
			table: models.NewTable(
				[]string{"A", "B"},
				[][]string{{"x"}},
			),
			limit: 5,
			expected: `
| A   | B   |
| --- | --- |
| x   |     |
`,
		},
		{
			name: "Limit adds footer",
			table: models.NewTable(
				[]string{"N"},
				[][]string{{"1"}, {"2"}, {"3"}},
			),
			limit: 1,
			expected: `
| N   |
| --- |
| 1   |
… 2 more rows
`,
		},
		{
			name: "Wide characters and truncation",
			table: models.NewTable(
				[]string{"Title", "Note"},
				[][]string{{"課程", "a very long remark"}},
			),
			limit: -1,
			width: 8,
			expected: `
| Title | Note     |
| ----- | -------- |
| 課程  | a very … |
`,
		},
		{
			name: "Pipes and newlines are escaped",
			table: models.NewTable(
				[]string{"Cell"},
				[][]string{{"a|b\nc"}},
			),
			limit: -1,
			expected: `
| Cell   |
| ------ |
| a\|b c |
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderTable(tt.table, tt.limit, tt.width)

			expected := strings.TrimPrefix(tt.expected, "\n")
			if got != expected {
				t.Errorf("RenderTable() =\n%s\nwant:\n%s", got, expected)
			}
		})
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if got := RenderTable(nil, 5, 0); got != "" {
		t.Errorf("RenderTable(nil) = %q, want empty", got)
	}
}
