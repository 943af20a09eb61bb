package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"gradeflow/internal/config"
	"gradeflow/internal/tabular"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioSink uploads exports to an S3-compatible bucket.
type MinioSink struct {
	client *minio.Client
	bucket string
	prefix string

	mu          sync.Mutex
	bucketReady bool
}

// NewMinioSink creates the client. The bucket is checked on first Put.
func NewMinioSink(cfg config.MinioConfig, prefix string) (*MinioSink, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioSink{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *MinioSink) EnsureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bucketReady {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	s.bucketReady = true

	return nil
}

// Put uploads r as an object. A negative size streams with multipart upload.
func (s *MinioSink) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	key, err := objectName(s.prefix, name)
	if err != nil {
		return err
	}

	if err := s.EnsureBucket(ctx); err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType(key),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return nil
}

func contentType(name string) string {
	opts, err := tabular.DetectFormat(name)
	if err != nil {
		return "application/octet-stream"
	}

	if opts.Compress {
		return "application/x-brotli"
	}

	return opts.Format.ContentType()
}
