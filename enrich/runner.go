package enrich

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/weftworks/loom/ai"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/storage"
)

// Config holds configuration for a batch enrichment run.
type Config struct {
	// BatchSize is the number of items to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of items)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed AI calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      50,
		ReportInterval: 50,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Runner orchestrates re-enrichment of every item flagged NeedsEnrichment.
type Runner struct {
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ItemIterator
}

// NewRunner creates a new enrichment runner.
// progress: where to write progress output (typically os.Stderr)
func NewRunner(docs storage.DocumentStore, vectors storage.VectorIndex, provider ai.Provider, config *Config, progress io.Writer) *Runner {
	if config == nil {
		config = DefaultConfig()
	}

	return &Runner{
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(docs, vectors, provider, config.MaxRetries, config.RetryDelay),
		iterator:  NewItemIterator(docs, config.BatchSize),
	}
}

// Run executes the enrichment pass. Every flagged item is re-enriched and
// re-embedded; items whose enrichment still fails stay flagged for the next
// run. Progress is reported to the configured writer.
func (r *Runner) Run(ctx context.Context) error {
	flagged, err := r.iterator.Collect(ctx)
	if err != nil {
		return fmt.Errorf("failed to query flagged items: %w", err)
	}

	total := len(flagged)
	if total == 0 {
		fmt.Fprintf(r.progress, "No items flagged for enrichment\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting enrichment of %d items (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	enriched := 0

	err = r.iterator.ForEach(ctx, func(items []*core.ContentItem) error {
		n, err := r.processor.Process(ctx, items)
		enriched += n
		if err != nil {
			return err
		}

		processed += len(items)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Enrichment complete. %d of %d items enriched in %v\n",
		enriched, total, elapsed.Round(time.Second))

	return nil
}
