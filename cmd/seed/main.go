package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/altura-labs/recommendation/internal/config"
	"github.com/altura-labs/recommendation/internal/opensearch"
	"github.com/altura-labs/recommendation/internal/seeder"
	"github.com/altura-labs/recommendation/pkg/utils"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	dryRun    = flag.Bool("dry-run", false, "Don't index anything, just report what would be indexed")
	verbose   = flag.Bool("verbose", false, "Enable verbose logging")
	inputFile = flag.String("file", "-", "JSONL file with {id, text, metadata} records (- for stdin)")
	index     = flag.String("index", "", "Target index (defaults to SEARCH_DEFAULT_INDEX)")
	limit     = flag.Int("limit", 0, "Limit number of records to process (0 = all)")
	chunkSize = flag.Int("chunk-size", 0, "Split documents longer than this many bytes (0 = never)")
	delay     = flag.Duration("delay", 0, "Delay between index requests")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.NewLogger(cfg.Log.Level)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, err := readInput(*inputFile, *limit)
	if err != nil {
		logger.WithError(err).Fatal("Failed to read seed records")
	}

	var upserter seeder.Upserter
	if !*dryRun {
		if err := cfg.ValidateOpenSearch(); err != nil {
			logger.WithError(err).Fatal("OpenSearch configuration validation failed")
		}

		osCfg := cfg.OpenSearch
		provider := opensearch.NewProvider(func(ctx context.Context) (*opensearch.Client, error) {
			return opensearch.NewClient(ctx, osCfg, logger)
		}, logger)
		breaker := opensearch.NewCircuitBreaker("opensearch-seed", cfg.Breaker.Timeout, cfg.Breaker.MaxFailures)
		upserter = opensearch.NewService(provider, breaker, logger)
	}

	target := *index
	if target == "" {
		target = cfg.Search.DefaultIndex
	}

	s := seeder.NewSeeder(upserter, seeder.Options{
		Index:     target,
		ChunkSize: *chunkSize,
		DryRun:    *dryRun,
		Delay:     *delay,
		RunID:     uuid.NewString(),
	}, logger)

	start := time.Now()
	report, err := s.Seed(ctx, records)
	if err != nil {
		logger.WithError(err).Fatal("Seeding interrupted")
	}

	for _, seedErr := range report.Errors {
		logger.WithError(seedErr).Warn("Indexing error")
	}

	logger.WithFields(logrus.Fields{
		"records":  report.Records,
		"indexed":  report.Indexed,
		"skipped":  report.Skipped,
		"errors":   len(report.Errors),
		"duration": time.Since(start).String(),
	}).Info("Seed run finished")

	if len(report.Errors) > 0 {
		os.Exit(1)
	}
}

func readInput(path string, limit int) ([]seeder.Record, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return seeder.ReadRecords(r, limit)
}
