package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gradeflow/internal/config"
	"gradeflow/internal/logger"
)

type retrySink struct {
	next   Sink
	policy config.RetryPolicy
	log    *logger.Logger
}

// WithRetry retries failed puts with the policy's exponential backoff. Each
// attempt runs under the policy timeout. Name errors and cancellation of
// the caller's context are not retried.
func WithRetry(s Sink, policy config.RetryPolicy, log *logger.Logger) Sink {
	if log == nil {
		log = logger.Discard()
	}

	return &retrySink{next: s, policy: policy, log: log}
}

func (s *retrySink) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	body, err := replayable(r)
	if err != nil {
		return err
	}

	attempts := max(s.policy.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if delay := s.policy.GetRetryDelay(attempt); delay > 0 {
			s.log.Warn("Retrying export", "name", name, "attempt", attempt, "delay", delay, "error", lastErr)

			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}

		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("failed to rewind %s: %w", name, err)
		}

		lastErr = s.attempt(ctx, name, body, size)
		if lastErr == nil {
			s.log.Info("Exported file", "name", name, "attempt", attempt)
			return nil
		}

		if errors.Is(lastErr, ErrInvalidName) || ctx.Err() != nil {
			return lastErr
		}
	}

	return fmt.Errorf("export %s failed after %d attempts: %w", name, attempts, lastErr)
}

func (s *retrySink) attempt(ctx context.Context, name string, r io.Reader, size int64) error {
	if timeout := s.policy.GetTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return s.next.Put(ctx, name, r, size)
}

// replayable returns r as a seeker, buffering it in memory when needed.
func replayable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to buffer export: %w", err)
	}

	return bytes.NewReader(data), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
