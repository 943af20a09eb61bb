package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSink writes exports below a local directory.
type FileSink struct {
	dir    string
	prefix string
}

// NewFileSink creates the directory if needed.
func NewFileSink(dir, prefix string) (*FileSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty directory", ErrInvalidName)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &FileSink{dir: dir, prefix: prefix}, nil
}

// Put writes r to a temporary file in the target directory and renames it
// into place.
func (s *FileSink) Put(ctx context.Context, name string, r io.Reader, _ int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := objectName(s.prefix, name)
	if err != nil {
		return err
	}

	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", key, err)
	}

	return nil
}
