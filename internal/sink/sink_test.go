package sink

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gradeflow/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakySink struct {
	failures int
	calls    int
	got      []string
}

func (f *flakySink) Put(_ context.Context, _ string, r io.Reader, _ int64) error {
	f.calls++

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	f.got = append(f.got, string(data))

	if f.calls <= f.failures {
		return errors.New("connection reset")
	}

	return nil
}

func fastPolicy(attempts int) config.RetryPolicy {
	return config.RetryPolicy{
		MaxAttempts:       attempts,
		InitialDelayMs:    1,
		MaxDelayMs:        2,
		BackoffMultiplier: 1.0,
		TimeoutSec:        5,
	}
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		prefix  string
		name    string
		want    string
		wantErr bool
	}{
		{"", "graded.csv", "graded.csv", false},
		{"exports", "graded.csv", "exports/graded.csv", false},
		{"exports/", "2024/graded.csv", "exports/2024/graded.csv", false},
		{"", "", "", true},
		{"", "../etc/passwd", "", true},
		{"exports", "../../x.csv", "", true},
	}

	for _, tt := range tests {
		got, err := objectName(tt.prefix, tt.name)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidName, "objectName(%q, %q)", tt.prefix, tt.name)
			continue
		}

		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestFileSink_Put(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFileSink(dir, "runs")
	require.NoError(t, err)

	err = s.Put(context.Background(), "graded.csv", strings.NewReader("Grade\n10\n"), 9)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "runs", "graded.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Grade\n10\n", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "runs"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileSink_RejectsEscapingName(t *testing.T) {
	s, err := NewFileSink(t.TempDir(), "")
	require.NoError(t, err)

	err = s.Put(context.Background(), "../outside.csv", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestWithRetry_EventuallySucceeds(t *testing.T) {
	inner := &flakySink{failures: 2}
	s := WithRetry(inner, fastPolicy(3), nil)

	err := s.Put(context.Background(), "graded.csv", io.LimitReader(strings.NewReader("payload"), 7), 7)
	require.NoError(t, err)

	assert.Equal(t, 3, inner.calls)
	// Every attempt sees the full body.
	assert.Equal(t, []string{"payload", "payload", "payload"}, inner.got)
}

func TestWithRetry_GivesUp(t *testing.T) {
	inner := &flakySink{failures: 10}
	s := WithRetry(inner, fastPolicy(2), nil)

	err := s.Put(context.Background(), "graded.csv", strings.NewReader("payload"), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, inner.calls)
}

func TestWithRetry_DoesNotRetryInvalidName(t *testing.T) {
	fs, err := NewFileSink(t.TempDir(), "")
	require.NoError(t, err)

	err = WithRetry(fs, fastPolicy(3), nil).Put(context.Background(), "", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestWithRetry_StopsOnCanceledContext(t *testing.T) {
	inner := &flakySink{failures: 10}
	s := WithRetry(inner, fastPolicy(5), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Put(ctx, "graded.csv", strings.NewReader("payload"), 7)
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestNew(t *testing.T) {
	t.Run("none is disabled", func(t *testing.T) {
		_, err := New(config.SinkConfig{Kind: KindNone}, nil)
		assert.ErrorIs(t, err, ErrDisabled)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := New(config.SinkConfig{Kind: "ftp"}, nil)
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("file sink", func(t *testing.T) {
		dir := t.TempDir()

		s, err := New(config.SinkConfig{Kind: KindFile, Dir: dir, Retry: fastPolicy(1)}, nil)
		require.NoError(t, err)

		require.NoError(t, s.Put(context.Background(), "out.csv", strings.NewReader("a"), 1))
		assert.FileExists(t, filepath.Join(dir, "out.csv"))
	})

	t.Run("sftp without host key policy", func(t *testing.T) {
		_, err := New(config.SinkConfig{
			Kind: KindSFTP,
			SFTP: config.SFTPConfig{Host: "sftp.example.com", User: "grader"},
		}, nil)
		assert.ErrorIs(t, err, ErrNoHostKeyCallback)
	})

	t.Run("sftp with missing known_hosts", func(t *testing.T) {
		_, err := New(config.SinkConfig{
			Kind: KindSFTP,
			SFTP: config.SFTPConfig{
				Host:           "sftp.example.com",
				User:           "grader",
				KnownHostsFile: filepath.Join(t.TempDir(), "missing"),
			},
		}, nil)
		assert.Error(t, err)
	})

	t.Run("minio client is created lazily", func(t *testing.T) {
		s, err := New(config.SinkConfig{
			Kind:  KindMinio,
			Minio: config.MinioConfig{Endpoint: "localhost:9000", Bucket: "grades"},
			Retry: fastPolicy(1),
		}, nil)
		require.NoError(t, err)
		assert.NotNil(t, s)
	})
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", contentType("graded.csv"))
	assert.Equal(t, "application/x-brotli", contentType("graded.csv.br"))
	assert.Equal(t, "application/octet-stream", contentType("notes.bin"))
}

func TestPutFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "graded.csv")
	require.NoError(t, os.WriteFile(src, []byte("Grade\n9\n"), 0644))

	dir := t.TempDir()
	s, err := NewFileSink(dir, "")
	require.NoError(t, err)

	require.NoError(t, PutFile(context.Background(), s, src, "copy.csv"))

	data, err := os.ReadFile(filepath.Join(dir, "copy.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Grade\n9\n", string(data))

	err = PutFile(context.Background(), s, filepath.Join(dir, "missing.csv"), "x.csv")
	assert.Error(t, err)
}
