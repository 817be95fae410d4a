package prorate

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gnadrag/invoice-prorata/constants"
	"github.com/gnadrag/invoice-prorata/internal/common"
	"github.com/gnadrag/invoice-prorata/internal/entity"
)

// Config holds the monthly-split policy.
type Config struct {
	// Basis selects the amount to split (net or gross).
	Basis constants.Basis
	// Weighting distributes the amount by overlapping calendar days or
	// uniformly per month.
	Weighting constants.Weighting
}

// Engine splits a validated line item's amount across every calendar month
// its service period touches. All arithmetic is fixed-point; rounding is
// bankers (half to even) at two places, and the last month absorbs the
// rounding remainder so the row sum equals the original amount exactly.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Basis == "" {
		cfg.Basis = constants.BasisNet
	}
	if cfg.Weighting == "" {
		cfg.Weighting = constants.WeightingDays
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Expand produces one MonthlyRow per touched month, in chronological order.
// Re-running on the same inputs yields an identical sequence.
func (e *Engine) Expand(item *entity.InvoiceLineItem, period *entity.ServicePeriod) ([]entity.MonthlyRow, error) {
	amount, err := e.basisAmount(item)
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, common.NewAppError("PRORATE_NEGATIVE_AMOUNT",
			fmt.Sprintf("invoice %s: amount %s", item.InvoiceNumber, amount.StringFixed(2)),
			common.ErrNegativeAmount)
	}

	// Unresolved period: one row on the invoice's own month, full amount.
	if !period.Resolved() {
		return []entity.MonthlyRow{newRow(item, item.InvoiceMonth(), amount, false)}, nil
	}

	spans := overlapMonths(period)
	if len(spans) == 1 {
		// fully inside one calendar month, no rounding needed
		return []entity.MonthlyRow{newRow(item, spans[0].month, amount, false)}, nil
	}

	totalDays := decimal.NewFromInt(int64(period.Days()))
	months := decimal.NewFromInt(int64(len(spans)))

	rows := make([]entity.MonthlyRow, 0, len(spans))
	allocated := decimal.Zero
	for i, span := range spans {
		if i == len(spans)-1 {
			last := amount.Sub(allocated)
			if last.IsNegative() {
				return nil, common.NewAppError("PRORATE_RECONCILIATION",
					fmt.Sprintf("invoice %s: last month allocation %s after %d rounded months",
						item.InvoiceNumber, last.StringFixed(2), len(spans)-1),
					common.ErrRoundingReconciliation)
			}
			rows = append(rows, newRow(item, span.month, last, true))
			break
		}

		var share decimal.Decimal
		switch e.cfg.Weighting {
		case constants.WeightingUniform:
			share = amount.Div(months)
		default:
			share = amount.Mul(decimal.NewFromInt(int64(span.days))).Div(totalDays)
		}
		share = share.RoundBank(constants.MoneyPlaces)
		allocated = allocated.Add(share)
		rows = append(rows, newRow(item, span.month, share, true))
	}

	e.logger.Debug("prorate.expand",
		"invoice_number", item.InvoiceNumber,
		"months", len(rows),
		"amount", amount.StringFixed(2),
	)
	return rows, nil
}

// monthSpan is one calendar month's overlap with the service period.
type monthSpan struct {
	month time.Time // first day, midnight UTC
	days  int       // overlapping days, inclusive
}

// overlapMonths enumerates every month m with m.start <= period.end and
// m.end >= period.start, chronologically.
func overlapMonths(p *entity.ServicePeriod) []monthSpan {
	var spans []monthSpan
	cur := time.Date(p.Start.Year(), p.Start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(p.End) {
		mEnd := cur.AddDate(0, 1, -1)
		lo := p.Start
		if cur.After(lo) {
			lo = cur
		}
		hi := p.End
		if mEnd.Before(hi) {
			hi = mEnd
		}
		spans = append(spans, monthSpan{
			month: cur,
			days:  int(hi.Sub(lo).Hours()/24) + 1,
		})
		cur = cur.AddDate(0, 1, 0)
	}
	return spans
}

func (e *Engine) basisAmount(item *entity.InvoiceLineItem) (decimal.Decimal, error) {
	preferred, other := item.NetAmount, item.GrossAmount
	if e.cfg.Basis == constants.BasisGross {
		preferred, other = item.GrossAmount, item.NetAmount
	}
	switch {
	case preferred != nil:
		return *preferred, nil
	case other != nil:
		return *other, nil
	default:
		return decimal.Zero, common.NewAppError("PRORATE_NO_AMOUNT",
			fmt.Sprintf("invoice %s has no usable amount", item.InvoiceNumber),
			common.ErrInvalidInput)
	}
}

func newRow(item *entity.InvoiceLineItem, month time.Time, amount decimal.Decimal, split bool) entity.MonthlyRow {
	return entity.MonthlyRow{
		Month:         month,
		Amount:        amount,
		Split:         split,
		LineItemID:    item.ID,
		InvoiceNumber: item.InvoiceNumber,
		VendorName:    item.VendorName,
		Currency:      item.Currency,
		Confidence:    item.Confidence,
	}
}
