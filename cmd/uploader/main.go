// Package main provides the uploader command-line tool for pushing graded
// tables to the configured export sink.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gradeflow/internal/config"
	"gradeflow/internal/logger"
	"gradeflow/internal/sink"
	"gradeflow/pkg/metadata"
)

func main() {
	inputFile := flag.String("input", "", "Path to graded table (required)")
	configPath := flag.String("config", "", "Path to YAML config (optional)")
	name := flag.String("name", "", "Remote name (default: input file name)")
	requireManifest := flag.Bool("verify", false, "Refuse to upload unless the manifest matches")
	flag.Parse()

	if *inputFile == "" {
		fmt.Println("Error: --input flag is required")
		fmt.Println("Usage: uploader --input <path> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if *name == "" {
		*name = filepath.Base(*inputFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := upload(ctx, cfg, log, *inputFile, *name, *requireManifest); err != nil {
		log.Error("Upload failed", "input", *inputFile, "error", err)
		os.Exit(1)
	}
}

func upload(ctx context.Context, cfg *config.Config, log *logger.Logger, input, name string, requireManifest bool) error {
	s, err := sink.New(cfg.Sink, log)
	if errors.Is(err, sink.ErrDisabled) {
		return fmt.Errorf("no sink configured (sink.kind is %q)", cfg.Sink.Kind)
	}

	if err != nil {
		return err
	}

	manifestPath := metadata.ManifestPath(input)

	_, verr := metadata.VerifyFile(input)
	switch {
	case verr == nil:
		log.Info("Manifest verified", "manifest", manifestPath)
	case errors.Is(verr, metadata.ErrNoManifest) && !requireManifest:
		manifestPath = ""
	default:
		return verr
	}

	log.Info("Starting upload", "input", input, "name", name, "sink", cfg.Sink.Kind)

	if err := sink.PutFile(ctx, s, input, name); err != nil {
		return err
	}

	if manifestPath != "" {
		if err := sink.PutFile(ctx, s, manifestPath, name+metadata.ManifestSuffix); err != nil {
			return err
		}
	}

	fmt.Printf("✓ Uploaded %s to %s sink\n", name, cfg.Sink.Kind)

	return nil
}
