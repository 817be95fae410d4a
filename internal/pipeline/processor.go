package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gnadrag/invoice-prorata/constants"
	"github.com/gnadrag/invoice-prorata/internal/common"
	"github.com/gnadrag/invoice-prorata/internal/entity"
	"github.com/gnadrag/invoice-prorata/internal/extract"
	"github.com/gnadrag/invoice-prorata/internal/prorate"
	"github.com/gnadrag/invoice-prorata/internal/validate"
)

// Processor coordinates date extraction, field validation and monthly
// proration for one line item at a time. Per-item failures are captured as
// structured outcomes; only programming-level invariant violations (a
// negative amount) surface as errors and abort the batch.
type Processor struct {
	logger    *slog.Logger
	extractor *extract.Extractor
	validator *validate.Validator
	engine    *prorate.Engine
}

func NewProcessor(logger *slog.Logger, extractor *extract.Extractor, validator *validate.Validator, engine *prorate.Engine) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, extractor: extractor, validator: validator, engine: engine}
}

// ProcessItem runs extract → validate → prorate for one item.
func (p *Processor) ProcessItem(_ context.Context, item *entity.InvoiceLineItem) (entity.ItemResult, error) {
	// 1) date extraction → candidate service period (never fails, degrades
	//    to UNRESOLVED)
	period := p.extractor.Extract(item.DescriptionText(), item.InvoiceDate)
	p.logger.Debug("pipeline.extract",
		"invoice_number", item.InvoiceNumber,
		"resolution", string(period.Resolution),
	)

	// 2) field validation → verdict; INVALID blocks proration
	verdict := p.validator.Validate(item, period)
	result := entity.ItemResult{Item: item, Period: period, Verdict: verdict}
	if verdict.Blocking() {
		result.Outcome = constants.OutcomeFailed
		result.Reason = strings.Join(verdict.Issues, "; ")
		p.logger.Warn("pipeline.item.invalid",
			"invoice_number", item.InvoiceNumber,
			"reason", result.Reason,
		)
		return result, nil
	}

	// 3) monthly proration → one row per touched month
	rows, err := p.engine.Expand(item, period)
	if err != nil {
		if errors.Is(err, common.ErrNegativeAmount) {
			return result, err
		}
		result.Outcome = constants.OutcomeFailed
		result.Reason = err.Error()
		p.logger.Error("pipeline.item.prorate_failed",
			"invoice_number", item.InvoiceNumber,
			"err", err,
		)
		return result, nil
	}

	result.Rows = rows
	if len(verdict.Issues) > 0 {
		result.Outcome = constants.OutcomePartial
	} else {
		result.Outcome = constants.OutcomeSuccess
	}
	return result, nil
}

// BatchResult aggregates per-item outcomes and every produced row.
type BatchResult struct {
	Results []entity.ItemResult
	Rows    []entity.MonthlyRow

	Succeeded int
	Partial   int
	Failed    int
}

// Collect assembles a BatchResult from per-item results, skipping slots that
// were never processed (cancelled before dispatch).
func Collect(results []entity.ItemResult) *BatchResult {
	br := &BatchResult{}
	for _, r := range results {
		if r.Outcome == "" {
			continue
		}
		br.Results = append(br.Results, r)
		br.Rows = append(br.Rows, r.Rows...)
		switch r.Outcome {
		case constants.OutcomeSuccess:
			br.Succeeded++
		case constants.OutcomePartial:
			br.Partial++
		default:
			br.Failed++
		}
	}
	return br
}

// ProcessBatch runs the batch sequentially, in input order. One item's
// failure never aborts the batch; cancellation stops dispatching remaining
// items and returns what was already computed.
func (p *Processor) ProcessBatch(ctx context.Context, items []*entity.InvoiceLineItem) (*BatchResult, error) {
	results := make([]entity.ItemResult, len(items))
	for i, item := range items {
		select {
		case <-ctx.Done():
			return Collect(results), ctx.Err()
		default:
		}
		res, err := p.ProcessItem(ctx, item)
		if err != nil {
			return Collect(results), err
		}
		results[i] = res
	}
	return Collect(results), nil
}
