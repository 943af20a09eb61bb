// Package main provides the signer command-line tool for writing and
// checking manifests of graded tables.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"gradeflow/internal/config"
	"gradeflow/internal/grading"
	"gradeflow/internal/tabular"
	"gradeflow/pkg/metadata"

	"github.com/google/uuid"
)

func main() {
	signPath := flag.String("sign", "", "Graded table to sign")
	verifyPath := flag.String("verify", "", "Graded table to verify against its manifest")
	configPath := flag.String("config", "", "Path to YAML config (optional, for column names)")
	flag.Parse()

	if (*signPath == "") == (*verifyPath == "") {
		fmt.Println("Usage: signer -sign <table> | -verify <table>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *verifyPath != "" {
		verify(*verifyPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("❌ Config error: %v\n", err)
	}

	sign(*signPath, cfg)
}

func sign(path string, cfg *config.Config) {
	table, err := tabular.ReadFile(path, tabular.Options{})
	if err != nil {
		log.Fatalf("❌ Error reading table: %v\n", err)
	}

	fmt.Printf("📂 Reading: %s (%d rows)\n", path, table.Len())

	grades, err := grading.CountGrades(table, cfg.Columns.Grade)
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	m, err := metadata.SignFile(path, metadata.Manifest{
		RunID:  uuid.NewString(),
		Rows:   table.Len(),
		Grades: grades,
	})
	if err != nil {
		log.Fatalf("❌ Error signing: %v\n", err)
	}

	fmt.Printf("✅ Signed: %s (sha256 %s)\n", metadata.ManifestPath(path), m.Hash)
}

func verify(path string) {
	m, err := metadata.VerifyFile(path)

	switch {
	case errors.Is(err, metadata.ErrNoManifest):
		log.Fatalf("❌ No manifest found at %s\n", metadata.ManifestPath(path))
	case errors.Is(err, metadata.ErrHashMismatch):
		log.Fatalf("❌ %s was modified after signing: %v\n", path, err)
	case err != nil:
		log.Fatalf("❌ Verification failed: %v\n", err)
	}

	fmt.Printf("✅ Verified: %s (run %s, %d rows, signed %s)\n",
		path, m.RunID, m.Rows, m.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
}
