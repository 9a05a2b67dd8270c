// Command validate checks stored chunks against the on-disk artifacts and
// prints the integrity report as JSON. Exit code 1 on mismatch, 2 on
// errors reaching the vector store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/jmorales/normrag/internal/config"
	"github.com/jmorales/normrag/internal/integrity"
	"github.com/jmorales/normrag/internal/qdrant"
)

func main() {
	var (
		strict  = flag.Bool("strict", false, "treat placeholder embeddings as missing")
		timeout = flag.Duration("timeout", 2*time.Minute, "overall validation timeout")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	cfg := config.Load()

	store := qdrant.NewClient(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection, cfg.QdrantTimeout)
	validator := integrity.New(store, cfg.OutputDir, log)
	validator.StrictPlaceholders = *strict

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := validator.Validate(ctx)
	if err != nil {
		log.Error("validation failed", "error", err)
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Error("encode report", "error", err)
		os.Exit(2)
	}

	if !report.IntegrityMatch {
		os.Exit(1)
	}
}
