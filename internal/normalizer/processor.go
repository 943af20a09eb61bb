// Package normalizer turns raw submission tables into graded tables.
package normalizer

import (
	"context"
	"fmt"
	"time"

	"gradeflow/internal/config"
	"gradeflow/internal/grading"
	"gradeflow/internal/logger"
	"gradeflow/internal/models"

	"github.com/google/uuid"
)

// Result is the output of one grading run.
type Result struct {
	RunID    string
	Table    *models.Table
	Records  []models.Record
	Outcomes []models.Outcome
	Summary  grading.Summary
	Duration time.Duration
}

// Processor runs the full pipeline: structural validation, stipend and
// duration normalization, grade assignment, and output table assembly.
type Processor struct {
	columns     config.ColumnsConfig
	validator   *Validator
	transformer *Transformer
	assigner    *grading.Assigner
	log         *logger.Logger
}

// NewProcessor creates a new processor instance.
func NewProcessor(cfg *config.Config, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Discard()
	}

	return &Processor{
		columns:     cfg.Columns,
		validator:   NewValidator(cfg.RequiredColumns()...),
		transformer: NewTransformer(cfg.Columns),
		assigner: grading.NewAssigner(
			grading.WithWorkers(cfg.Grading.Workers),
			grading.WithChunkSize(cfg.Grading.ChunkSize),
			grading.WithLogger(log),
		),
		log: log,
	}
}

// Process grades a table. The input table is left untouched; the returned
// table is a copy with the stipend column normalized and the grade, total
// marks and remark columns filled (appended when absent, overwritten when
// present). Structural problems are reported before any row is graded.
func (p *Processor) Process(ctx context.Context, table *models.Table) (*Result, error) {
	started := time.Now()
	runID := uuid.NewString()
	log := p.log.With("run_id", runID)

	// 1. Validate the input structure
	if err := p.validator.Validate(table); err != nil {
		log.Error("Rejected table", "error", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// 2. Normalize stipend and durations
	records, err := p.transformer.Transform(table)
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	// 3. Assign grades
	outcomes, summary, err := p.assigner.Assign(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("grading failed: %w", err)
	}

	out := p.buildOutput(table, records, outcomes)
	elapsed := time.Since(started)

	log.Info("Graded table",
		"rows", summary.Rows,
		"graded", summary.Graded,
		"ungraded", summary.Ungraded,
		"by_grade", summary.ByGrade,
		"duration", elapsed,
	)

	return &Result{
		RunID:    runID,
		Table:    out,
		Records:  records,
		Outcomes: outcomes,
		Summary:  summary,
		Duration: elapsed,
	}, nil
}

func (p *Processor) buildOutput(table *models.Table, records []models.Record, outcomes []models.Outcome) *models.Table {
	out := table.Clone()

	stipendIdx := out.ColumnIndex(p.columns.Stipend)
	gradeIdx := out.EnsureColumn(p.columns.Grade)
	marksIdx := out.EnsureColumn(p.columns.TotalMarks)
	remarkIdx := out.EnsureColumn(p.columns.Remark)

	for i := range out.Rows {
		out.SetCell(i, stipendIdx, FormatStipend(records[i].Stipend))
		out.SetCell(i, gradeIdx, grading.FormatInt(outcomes[i].Grade))
		out.SetCell(i, marksIdx, grading.FormatInt(outcomes[i].TotalMarks))
		out.SetCell(i, remarkIdx, outcomes[i].Remark)
	}

	return out
}
