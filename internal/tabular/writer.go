package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gradeflow/internal/models"

	"github.com/andybalholm/brotli"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// WriteFile writes a table, detecting the format from the file name unless
// opts.Format is set. The parent directory is created when missing.
func WriteFile(path string, table *models.Table, opts Options) error {
	if opts.Format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return err
		}

		opts.Format = detected.Format
		opts.Compress = opts.Compress || detected.Compress
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := Write(f, table, opts); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// Write encodes a table to w.
func Write(w io.Writer, table *models.Table, opts Options) error {
	if opts.Compress && opts.Format != FormatXLSX {
		bw := brotli.NewWriterLevel(w, brotli.DefaultCompression)
		if err := writeUncompressed(bw, table, opts); err != nil {
			bw.Close()
			return err
		}

		if err := bw.Close(); err != nil {
			return fmt.Errorf("failed to flush compressed output: %w", err)
		}

		return nil
	}

	return writeUncompressed(w, table, opts)
}

func writeUncompressed(w io.Writer, table *models.Table, opts Options) error {
	switch opts.Format {
	case FormatXLSX:
		return writeXLSX(w, table, opts.Sheet)
	case FormatCSV, FormatTSV, "":
		return writeDelimited(w, table, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
}

func writeDelimited(w io.Writer, table *models.Table, opts Options) error {
	if opts.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = opts.delimiter()

	if err := cw.Write(table.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range table.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

func writeXLSX(w io.Writer, table *models.Table, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = defaultSheet
	} else if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	rows := append([][]string{table.Header}, table.Rows...)
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}

		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}
