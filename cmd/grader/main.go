// Package main provides the grader command-line tool: read a submission
// table, grade every row and write the graded table.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"gradeflow/internal/config"
	"gradeflow/internal/formatter"
	"gradeflow/internal/logger"
	"gradeflow/internal/normalizer"
	"gradeflow/internal/sink"
	"gradeflow/internal/tabular"
	"gradeflow/pkg/metadata"
)

func main() {
	inputPath := flag.String("input", "", "Path to input table (.csv, .tsv, .xlsx, optionally .br)")
	outputPath := flag.String("output", "", "Path to graded table (default: <input>-graded.<ext>)")
	configPath := flag.String("config", "", "Path to YAML config (optional)")
	previewRows := flag.Int("preview", -1, "Rows to preview before and after grading (default: output.preview_rows)")
	format := flag.String("format", "", "Output format: csv, tsv or xlsx (default: from output name)")
	workers := flag.Int("workers", 0, "Parallel grading workers (default: grading.workers)")
	export := flag.Bool("export", false, "Upload the graded table to the configured sink")
	manifest := flag.Bool("manifest", false, "Write a signed <output>.meta.yaml manifest")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Usage: grader -input <table> [-output <table>] [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Config error: %v\n", err)
		os.Exit(1)
	}

	if *workers > 0 {
		cfg.Grading.Workers = *workers
	}

	if *previewRows < 0 {
		*previewRows = cfg.Output.PreviewRows
	}

	log := logger.New(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, runOptions{
		input:       *inputPath,
		output:      *outputPath,
		format:      *format,
		previewRows: *previewRows,
		export:      *export,
		manifest:    *manifest || cfg.Output.WriteManifest,
	}); err != nil {
		log.Error("Grading failed", "error", err)
		os.Exit(1)
	}
}

type runOptions struct {
	input       string
	output      string
	format      string
	previewRows int
	export      bool
	manifest    bool
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, opts runOptions) error {
	readOpts := tabular.Options{Sheet: cfg.Input.Sheet}
	if cfg.Input.Delimiter != "" {
		readOpts.Delimiter = []rune(cfg.Input.Delimiter)[0]
	}

	// 1. Read
	table, err := tabular.ReadFile(opts.input, readOpts)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.input, err)
	}

	fmt.Printf("📂 Read: %s (%d rows)\n", opts.input, table.Len())

	if opts.previewRows > 0 {
		fmt.Println("\nUploaded:")
		fmt.Print(formatter.RenderTable(table, opts.previewRows, formatter.DefaultMaxCellWidth))
	}

	// 2. Grade
	result, err := normalizer.NewProcessor(cfg, log).Process(ctx, table)
	if err != nil {
		return err
	}

	if opts.previewRows > 0 {
		fmt.Println("\nProcessed:")
		fmt.Print(formatter.RenderTable(result.Table, opts.previewRows, formatter.DefaultMaxCellWidth))
	}

	// 3. Write
	writeOpts, err := outputOptions(cfg, opts.format)
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output, err = defaultOutput(opts.input, writeOpts)
		if err != nil {
			return err
		}
	}

	if err := tabular.WriteFile(output, result.Table, writeOpts); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	fmt.Printf("\n✅ Saved to: %s (graded %d of %d rows)\n", output, result.Summary.Graded, result.Summary.Rows)

	// 4. Sign
	if opts.manifest {
		m, err := metadata.SignFile(output, metadata.Manifest{
			RunID:  result.RunID,
			Rows:   result.Summary.Rows,
			Grades: result.Summary.ByGrade,
		})
		if err != nil {
			return fmt.Errorf("sign %s: %w", output, err)
		}

		fmt.Printf("✍️  Manifest: %s (sha256 %s)\n", metadata.ManifestPath(output), m.Hash)
	}

	// 5. Export
	if opts.export {
		if err := exportFiles(ctx, cfg, log, output, opts.manifest); err != nil {
			return err
		}
	}

	return nil
}

func outputOptions(cfg *config.Config, flagFormat string) (tabular.Options, error) {
	opts := tabular.Options{BOM: cfg.Output.BOM, Compress: cfg.Output.Compress}

	name := flagFormat
	if name == "" {
		name = cfg.Output.Format
	}

	if name == "" {
		return opts, nil
	}

	f, err := tabular.ParseFormat(name)
	if err != nil {
		return opts, err
	}

	opts.Format = f

	return opts, nil
}

// defaultOutput derives "<dir>/<name>-graded.<ext>" from the input path.
func defaultOutput(input string, opts tabular.Options) (string, error) {
	detected, err := tabular.DetectFormat(input)
	if err != nil {
		return "", err
	}

	format := opts.Format
	if format == "" {
		format = detected.Format
	}

	base := filepath.Base(input)
	base = strings.TrimSuffix(base, tabular.CompressedSuffix)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	name := base + "-graded" + format.Extension()
	if (opts.Compress || detected.Compress) && format != tabular.FormatXLSX {
		name += tabular.CompressedSuffix
	}

	return filepath.Join(filepath.Dir(input), name), nil
}

func exportFiles(ctx context.Context, cfg *config.Config, log *logger.Logger, output string, withManifest bool) error {
	s, err := sink.New(cfg.Sink, log)
	if errors.Is(err, sink.ErrDisabled) {
		return fmt.Errorf("export requested but sink.kind is %q", cfg.Sink.Kind)
	}

	if err != nil {
		return err
	}

	files := []string{output}
	if withManifest {
		files = append(files, metadata.ManifestPath(output))
	}

	for _, f := range files {
		if err := sink.PutFile(ctx, s, f, filepath.Base(f)); err != nil {
			return fmt.Errorf("export %s: %w", f, err)
		}

		fmt.Printf("📤 Exported %s to %s sink\n", filepath.Base(f), cfg.Sink.Kind)
	}

	return nil
}
