package seeder

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/altura-labs/recommendation/internal/opensearch"
	"github.com/sirupsen/logrus"
)

// Record is one line of a JSONL seed file.
type Record struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Upserter indexes a document through the ingest pipeline.
type Upserter interface {
	UpsertDocument(ctx context.Context, index, id string, doc opensearch.Document) (*opensearch.IndexResult, error)
}

type Options struct {
	Index     string
	ChunkSize int
	DryRun    bool
	Delay     time.Duration
	RunID     string
}

// Report summarizes a seeding run.
type Report struct {
	Records int
	Indexed int
	Skipped int
	Errors  []error
}

// ReadRecords parses JSONL input. Blank lines are ignored and limit <= 0
// reads everything.
func ReadRecords(r io.Reader, limit int) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var records []Record
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)

		if limit > 0 && len(records) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seed input: %w", err)
	}
	return records, nil
}

type Seeder struct {
	upserter  Upserter
	processor *ContentProcessor
	opts      Options
	logger    *logrus.Logger
}

// NewSeeder creates a seeder. upserter may be nil for dry runs.
func NewSeeder(upserter Upserter, opts Options, logger *logrus.Logger) *Seeder {
	return &Seeder{
		upserter:  upserter,
		processor: NewContentProcessor(),
		opts:      opts,
		logger:    logger,
	}
}

// Seed cleans, chunks and indexes records. Failures are collected in the
// report and do not stop the run; a cancelled context does.
func (s *Seeder) Seed(ctx context.Context, records []Record) (*Report, error) {
	report := &Report{Records: len(records)}

	s.logger.WithFields(logrus.Fields{
		"records": len(records),
		"index":   s.opts.Index,
		"dry_run": s.opts.DryRun,
	}).Info("Seeding documents")

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		text := s.processor.CleanContent(rec.Text)
		if text == "" {
			report.Skipped++
			s.logger.WithField("id", rec.ID).Warn("Skipping record with empty text")
			continue
		}

		chunks := s.processor.SplitIntoChunks(text, s.opts.ChunkSize)
		for n, chunk := range chunks {
			id, doc := s.document(rec, chunk, n, len(chunks))

			s.logger.WithFields(logrus.Fields{
				"id":       id,
				"progress": fmt.Sprintf("%d/%d", i+1, len(records)),
				"chars":    len(chunk),
			}).Debug("Indexing document")

			if s.opts.DryRun {
				report.Indexed++
				continue
			}

			if _, err := s.upserter.UpsertDocument(ctx, s.opts.Index, id, doc); err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("record %q: %w", rec.ID, err))
				continue
			}
			report.Indexed++

			if s.opts.Delay > 0 {
				select {
				case <-ctx.Done():
					return report, ctx.Err()
				case <-time.After(s.opts.Delay):
				}
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"indexed": report.Indexed,
		"skipped": report.Skipped,
		"errors":  len(report.Errors),
	}).Info("Seeding completed")

	return report, nil
}

func (s *Seeder) document(rec Record, text string, n, total int) (string, opensearch.Document) {
	metadata := make(map[string]interface{}, len(rec.Metadata)+2)
	for k, v := range rec.Metadata {
		metadata[k] = v
	}

	id := rec.ID
	if total > 1 {
		metadata["chunk"] = n
		if rec.ID != "" {
			metadata["source_id"] = rec.ID
			id = fmt.Sprintf("%s-%d", rec.ID, n)
		}
	}

	doc := opensearch.Document{Text: text, Metadata: metadata}
	if s.opts.RunID != "" {
		runID := s.opts.RunID
		doc.Timestamp = &runID
	}
	return id, doc
}
