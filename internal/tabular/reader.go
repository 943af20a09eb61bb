package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gradeflow/internal/models"

	"github.com/andybalholm/brotli"
	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFile reads a table, detecting the format from the file name. Fields
// set in override (delimiter, sheet) take precedence over detection.
func ReadFile(path string, override Options) (*models.Table, error) {
	opts, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	opts.Delimiter = override.Delimiter
	opts.Sheet = override.Sheet

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	return Read(f, opts)
}

// Read decodes a table from r.
func Read(r io.Reader, opts Options) (*models.Table, error) {
	if opts.Compress {
		r = brotli.NewReader(r)
	}

	var (
		rows [][]string
		err  error
	)

	switch opts.Format {
	case FormatXLSX:
		rows, err = readXLSX(r, opts.Sheet)
	case FormatCSV, FormatTSV, "":
		rows, err = readDelimited(r, opts.delimiter())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}

	if err != nil {
		return nil, err
	}

	return buildTable(rows)
}

func readDelimited(r io.Reader, delim rune) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read delimited table: %w", err)
	}

	return rows, nil
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyTable
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %w", ErrMalformed, sheet, err)
	}

	if err := renderDates(f, sheet, rows); err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %w", ErrMalformed, sheet, err)
	}

	// Blank rows inside a worksheet are dropped, as blank lines are in CSV.
	kept := rows[:0]
	for _, row := range rows {
		if !isBlank(row) {
			kept = append(kept, row)
		}
	}

	return kept, nil
}

// sheetDateLayout is how date-formatted cells are rendered, whatever
// display format the workbook stores for them.
const sheetDateLayout = "01/02/2006"

// renderDates rewrites date-formatted numeric cells in rows, which hold
// display values, from their raw serial numbers.
func renderDates(f *excelize.File, sheet string, rows [][]string) error {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return err
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	dateStyles := make(map[int]bool)

	for i := 0; i < len(rows) && i < len(raw); i++ {
		for j := 0; j < len(rows[i]) && j < len(raw[i]); j++ {
			serial, err := strconv.ParseFloat(raw[i][j], 64)
			if err != nil || raw[i][j] == rows[i][j] {
				continue
			}

			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}

			styleID, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return err
			}

			isDate, seen := dateStyles[styleID]
			if !seen {
				style, err := f.GetStyle(styleID)
				if err != nil {
					return err
				}

				isDate = isDateStyle(style)
				dateStyles[styleID] = isDate
			}

			if !isDate {
				continue
			}

			t, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				continue
			}

			rows[i][j] = t.Format(sheetDateLayout)
		}
	}

	return nil
}

// isDateStyle reports whether a cell style shows a calendar date. Built-in
// ids follow ECMA-376 18.8.30; time-only formats are not dates.
func isDateStyle(style *excelize.Style) bool {
	if style == nil {
		return false
	}

	if style.CustomNumFmt != nil {
		return hasDateTokens(*style.CustomNumFmt)
	}

	switch id := style.NumFmt; {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	default:
		return false
	}
}

// hasDateTokens looks for day or year tokens outside quoted literals and
// bracketed sections of a number format code.
func hasDateTokens(code string) bool {
	quoted, bracketed := false, false

	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			bracketed = true
		case r == ']':
			bracketed = false
		case bracketed:
		case r == 'd' || r == 'y':
			return true
		}
	}

	return false
}

func buildTable(rows [][]string) (*models.Table, error) {
	if len(rows) == 0 || isBlank(rows[0]) {
		return nil, ErrEmptyTable
	}

	header := rows[0]
	data := rows[1:]

	for i, row := range data {
		if len(row) <= len(header) {
			continue
		}

		if !isBlank(row[len(header):]) {
			return nil, fmt.Errorf("%w: data row %d has %d cells, header has %d", ErrRowTooWide, i+1, len(row), len(header))
		}

		data[i] = row[:len(header)]
	}

	return models.NewTable(header, data), nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}

	return true
}

// IsStructural reports whether err describes a malformed table rather than
// an I/O failure.
func IsStructural(err error) bool {
	return errors.Is(err, ErrEmptyTable) || errors.Is(err, ErrRowTooWide) ||
		errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, csv.ErrQuote) ||
		errors.Is(err, csv.ErrFieldCount) || errors.Is(err, csv.ErrBareQuote)
}
