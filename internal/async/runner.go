package async

import (
	"context"
	"sync"

	"log/slog"

	"github.com/gnadrag/invoice-prorata/internal/entity"
	"github.com/gnadrag/invoice-prorata/internal/pipeline"
)

// BatchRunner fans a batch of line items out to a worker pool, one task per
// item. Items are pure and share no mutable state, so the only coordination
// is the per-slot result write. Cancellation stops dispatching remaining
// items; results already computed are returned.
type BatchRunner struct {
	proc    *pipeline.Processor
	logger  *slog.Logger
	workers int
}

type Option func(*BatchRunner)

func WithWorkers(n int) Option {
	return func(r *BatchRunner) {
		if n > 0 {
			r.workers = n
		}
	}
}

func NewBatchRunner(proc *pipeline.Processor, logger *slog.Logger, opts ...Option) *BatchRunner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &BatchRunner{
		proc:    proc,
		logger:  logger,
		workers: 8,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run processes the batch and returns the aggregated result. A fatal
// invariant violation on any item (negative amount) cancels dispatch and is
// returned after in-flight items drain.
func (r *BatchRunner) Run(ctx context.Context, items []*entity.InvoiceLineItem) (*pipeline.BatchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]entity.ItemResult, len(items))
	tasks := make(chan int)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		fatalErr error
	)

	workers := r.workers
	if workers > len(items) {
		workers = len(items)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range tasks {
				res, err := r.proc.ProcessItem(ctx, items[idx])
				if err != nil {
					r.logger.Error("batch.item.fatal",
						"worker_id", workerID,
						"invoice_number", items[idx].InvoiceNumber,
						"error", err,
					)
					mu.Lock()
					if fatalErr == nil {
						fatalErr = err
					}
					mu.Unlock()
					cancel()
					continue
				}
				results[idx] = res
			}
		}(w + 1)
	}

dispatch:
	for i := range items {
		select {
		case <-ctx.Done():
			r.logger.Warn("batch.dispatch.cancelled", "dispatched", i, "total", len(items))
			break dispatch
		case tasks <- i:
		}
	}
	close(tasks)
	wg.Wait()

	br := pipeline.Collect(results)
	r.logger.Info("batch.done",
		"items", len(items),
		"succeeded", br.Succeeded,
		"partial", br.Partial,
		"failed", br.Failed,
		"rows", len(br.Rows),
	)
	if fatalErr != nil {
		return br, fatalErr
	}
	if err := ctx.Err(); err != nil && len(br.Results) < len(items) {
		return br, err
	}
	return br, nil
}
