// Package sink exports graded files to durable storage: a local directory,
// an SFTP server or an S3-compatible bucket.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"gradeflow/internal/config"
	"gradeflow/internal/logger"
)

// Sink kinds accepted in sink.kind.
const (
	KindNone  = "none"
	KindFile  = "file"
	KindSFTP  = "sftp"
	KindMinio = "minio"
)

// Sink errors.
var (
	ErrDisabled    = errors.New("export sink is disabled")
	ErrUnknownKind = errors.New("unknown sink kind")
	ErrInvalidName = errors.New("invalid object name")
)

// Sink stores one named file.
type Sink interface {
	Put(ctx context.Context, name string, r io.Reader, size int64) error
}

// New builds the sink selected by cfg, wrapped with its retry policy.
// It returns ErrDisabled for kind "none".
func New(cfg config.SinkConfig, log *logger.Logger) (Sink, error) {
	if log == nil {
		log = logger.Discard()
	}

	var (
		s   Sink
		err error
	)

	switch cfg.Kind {
	case "", KindNone:
		return nil, ErrDisabled
	case KindFile:
		s, err = NewFileSink(cfg.Dir, cfg.Prefix)
	case KindSFTP:
		s, err = NewSFTPSink(cfg.SFTP, cfg.Prefix)
	case KindMinio:
		s, err = NewMinioSink(cfg.Minio, cfg.Prefix)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s sink: %w", cfg.Kind, err)
	}

	return WithRetry(s, cfg.Retry, log.With("sink", cfg.Kind)), nil
}

// objectName joins prefix and name into a slash-separated relative key.
func objectName(prefix, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}

	key := path.Clean(path.Join(prefix, name))
	if key == "." || key == ".." || strings.HasPrefix(key, "../") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return key, nil
}

// PutFile uploads the local file at localPath under name.
func PutFile(ctx context.Context, s Sink, localPath, name string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", localPath, err)
	}

	return s.Put(ctx, name, f, info.Size())
}
