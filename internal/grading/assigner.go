package grading

import (
	"context"
	"fmt"

	"gradeflow/internal/logger"
	"gradeflow/internal/models"

	"golang.org/x/sync/errgroup"
)

// Option configures an Assigner.
type Option func(*Assigner)

// WithWorkers sets how many chunks are graded concurrently in pass two.
func WithWorkers(n int) Option {
	return func(a *Assigner) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithChunkSize sets the number of records per chunk.
func WithChunkSize(n int) Option {
	return func(a *Assigner) {
		if n > 0 {
			a.chunkSize = n
		}
	}
}

// WithRules replaces the rule table.
func WithRules(rules []Rule) Option {
	return func(a *Assigner) {
		a.rules = rules
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(a *Assigner) {
		if log != nil {
			a.log = log
		}
	}
}

// Assigner grades whole datasets.
type Assigner struct {
	log       *logger.Logger
	rules     []Rule
	workers   int
	chunkSize int
}

// NewAssigner creates an assigner that grades sequentially with DefaultRules
// unless configured otherwise.
func NewAssigner(opts ...Option) *Assigner {
	a := &Assigner{
		log:       logger.Discard(),
		rules:     DefaultRules,
		workers:   1,
		chunkSize: 1000,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Assign grades every record. Constants are computed over the full slice
// before any record is graded; outcomes are returned in record order.
func (a *Assigner) Assign(ctx context.Context, records []models.Record) ([]models.Outcome, Summary, error) {
	constants := ComputeConstants(records)
	outcomes := make([]models.Outcome, len(records))

	a.log.Debug("Computed grading constants",
		"highest_stipend", constants.HighestStipend.OrElse(0),
		"highest_stipend_present", constants.HighestStipend.IsPresent(),
		"max_course_weeks", constants.MaxCourseWeeks.OrElse(0),
		"max_course_weeks_present", constants.MaxCourseWeeks.IsPresent(),
	)

	if a.workers <= 1 || len(records) <= a.chunkSize {
		a.gradeRange(records, outcomes, constants, 0, len(records))
	} else {
		if err := a.gradeChunks(ctx, records, outcomes, constants); err != nil {
			return nil, Summary{}, err
		}
	}

	return outcomes, Summarize(outcomes, constants), nil
}

// gradeChunks grades disjoint index ranges concurrently. Each goroutine
// writes only its own range of outcomes.
func (a *Assigner) gradeChunks(ctx context.Context, records []models.Record, outcomes []models.Outcome, c Constants) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for start := 0; start < len(records); start += a.chunkSize {
		start := start
		end := min(start+a.chunkSize, len(records))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("grading chunk %d-%d: %w", start, end, err)
			}

			a.gradeRange(records, outcomes, c, start, end)

			return nil
		})
	}

	return g.Wait()
}

func (a *Assigner) gradeRange(records []models.Record, outcomes []models.Outcome, c Constants, start, end int) {
	for i := start; i < end; i++ {
		outcomes[i] = NewOutcome(Evaluate(a.rules, records[i], c))
	}
}
