package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gradeflow/internal/config"
	"gradeflow/internal/logger"
	"gradeflow/pkg/metadata"
)

func fileSinkConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Sink.Kind = "file"
	cfg.Sink.Dir = dir
	cfg.Sink.Retry.MaxAttempts = 1

	return &cfg
}

func writeGraded(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "graded.csv")
	if err := os.WriteFile(path, []byte("Grade\n10\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	return path
}

func TestUpload_WithManifest(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	input := writeGraded(t, src)

	if _, err := metadata.SignFile(input, metadata.Manifest{RunID: "r1", Rows: 1}); err != nil {
		t.Fatalf("SignFile: %v", err)
	}

	if err := upload(context.Background(), fileSinkConfig(dst), logger.Discard(), input, "cohort.csv", true); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	for _, name := range []string{"cohort.csv", "cohort.csv" + metadata.ManifestSuffix} {
		if _, err := os.Stat(filepath.Join(dst, name)); err != nil {
			t.Errorf("%s not uploaded: %v", name, err)
		}
	}
}

func TestUpload_WithoutManifest(t *testing.T) {
	dst := t.TempDir()
	input := writeGraded(t, t.TempDir())

	if err := upload(context.Background(), fileSinkConfig(dst), logger.Discard(), input, "graded.csv", false); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "graded.csv"+metadata.ManifestSuffix)); !os.IsNotExist(err) {
		t.Errorf("manifest should not be uploaded, stat err = %v", err)
	}

	err := upload(context.Background(), fileSinkConfig(dst), logger.Discard(), input, "graded.csv", true)
	if !errors.Is(err, metadata.ErrNoManifest) {
		t.Errorf("upload with -verify = %v, want ErrNoManifest", err)
	}
}

func TestUpload_RejectsTamperedFile(t *testing.T) {
	input := writeGraded(t, t.TempDir())

	if _, err := metadata.SignFile(input, metadata.Manifest{RunID: "r1"}); err != nil {
		t.Fatalf("SignFile: %v", err)
	}

	if err := os.WriteFile(input, []byte("Grade\n9\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	err := upload(context.Background(), fileSinkConfig(t.TempDir()), logger.Discard(), input, "graded.csv", false)
	if !errors.Is(err, metadata.ErrHashMismatch) {
		t.Errorf("upload = %v, want ErrHashMismatch", err)
	}
}
