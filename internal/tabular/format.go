// Package tabular reads and writes the tables graded by the pipeline.
// Delimited text (CSV, TSV) may be brotli-compressed, marked by a trailing
// ".br" on the file name; XLSX workbooks are read and written with excelize.
package tabular

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a table encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// CompressedSuffix marks brotli-compressed delimited files.
const CompressedSuffix = ".br"

// Errors returned while reading or writing tables.
var (
	ErrUnsupportedFormat = errors.New("unsupported table format")
	ErrEmptyTable        = errors.New("table has no header row")
	ErrRowTooWide        = errors.New("row has more cells than the header")
	ErrMalformed         = errors.New("malformed workbook")
)

// Options controls reading and writing.
type Options struct {
	Format Format
	// Delimiter overrides the format's default separator for delimited text.
	Delimiter rune
	// Sheet selects the XLSX worksheet; the first sheet when empty.
	Sheet string
	// Compress enables brotli for delimited text.
	Compress bool
	// BOM prefixes delimited output with a UTF-8 byte order mark for Excel.
	BOM bool
}

// ParseFormat maps a name such as "csv" to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatCSV, FormatTSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// DetectFormat derives options from a file name: the extension selects the
// format and a trailing ".br" enables compression.
func DetectFormat(path string) (Options, error) {
	name := strings.ToLower(filepath.Base(path))

	var opts Options
	if strings.HasSuffix(name, CompressedSuffix) {
		opts.Compress = true
		name = strings.TrimSuffix(name, CompressedSuffix)
	}

	switch filepath.Ext(name) {
	case ".csv", ".txt":
		opts.Format = FormatCSV
	case ".tsv", ".tab":
		opts.Format = FormatTSV
	case ".xlsx":
		opts.Format = FormatXLSX
	default:
		return Options{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if opts.Compress && opts.Format == FormatXLSX {
		return Options{}, fmt.Errorf("%w: compressed workbooks are not supported: %s", ErrUnsupportedFormat, path)
	}

	return opts, nil
}

// ContentType returns the MIME type for downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatTSV:
		return "text/tab-separated-values; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

func (o Options) delimiter() rune {
	if o.Delimiter != 0 {
		return o.Delimiter
	}

	if o.Format == FormatTSV {
		return '\t'
	}

	return ','
}
