// Package main provides the grading HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gradeflow/internal/config"
	"gradeflow/internal/logger"
	"gradeflow/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional)")
	addr := flag.String("addr", "", "Listen address (default: server.addr)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Config error: %v\n", err)
		os.Exit(1)
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log := logger.New(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log.Info("🚀 Starting grading service",
		"addr", cfg.Server.Addr,
		"workers", cfg.Grading.Workers,
		"max_upload_mb", cfg.Server.MaxUploadMB,
		"rate_limit", cfg.Server.RateLimit.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg, log).Run(ctx); err != nil {
		log.Error("Server stopped", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped")
}
