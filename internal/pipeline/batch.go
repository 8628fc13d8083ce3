package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/selvaggiesteban/form-tester/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchProcessor handles concurrent processing of multiple domains.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-domain execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each domain.
	// We use a factory so per-domain configuration (site overrides,
	// page budgets) can shape the pipeline, and so pipeline state never
	// leaks between domains.
	pipelineFactory func(task *model.DomainTask) *Pipeline

	// concurrency is the maximum number of domains processed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed domain reports.
	// Access is synchronized via mutex.
	results []*model.DomainReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent domains.
// Default is 5 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each domain to create a
// fresh pipeline instance, receiving the task so it can apply per-site
// overrides.
func NewBatchProcessor(pipelineFactory func(task *model.DomainTask) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     5,
		results:         make([]*model.DomainReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch processes multiple domains concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each domain gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns all reports collected, in the order of the input tasks, even
// for domains that failed. The error return indicates if the batch was
// cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, tasks []*model.DomainTask) ([]*model.DomainReport, error) {
	bp.logger.Info("starting batch processing",
		"total_domains", len(tasks),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.DomainReport, len(tasks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("processing domain",
				"domain", task.Domain,
				"index", i+1,
				"total", len(tasks),
			)

			report := model.NewDomainReport(task)

			pipeline := bp.pipelineFactory(task)
			err := pipeline.Execute(ctx, report)

			// Store the result regardless of error.
			// The report carries the failure entries if the domain failed.
			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("domain processing failed",
					"domain", task.Domain,
					"error", err,
				)
				// Don't return the error to errgroup - we want the other
				// domains to keep running. The error is recorded in the report.
				return nil
			}

			bp.logger.Info("domain processed",
				"domain", task.Domain,
			)

			return nil
		})
	}

	// Wait for all domains to complete
	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch processing complete",
		"total_domains", len(tasks),
		"elapsed", elapsed,
	)

	return bp.results, err
}

// ProcessBatchWithCallback processes multiple domains and calls a
// callback for each completed one. This is useful for streaming results
// to the database as they arrive instead of holding the whole batch.
//
// The callback receives the report and the index of the task in the
// original slice. The callback is called from the goroutine that completed
// the domain, so it should be thread-safe if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	tasks []*model.DomainTask,
	callback func(report *model.DomainReport, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_domains", len(tasks),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := model.NewDomainReport(task)
			pipeline := bp.pipelineFactory(task)
			_ = pipeline.Execute(ctx, report) //nolint:errcheck // Failures are recorded in the report

			callback(report, i)

			return nil
		})
	}

	return g.Wait()
}
