package validate

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/gnadrag/invoice-prorata/constants"
	"github.com/gnadrag/invoice-prorata/internal/entity"
)

// Config holds validation thresholds.
type Config struct {
	// VATTolerance is the absolute epsilon for the VAT and gross checks,
	// absorbing upstream rounding.
	VATTolerance decimal.Decimal
	// MaxPeriodDays flags implausibly long service periods.
	MaxPeriodDays int
}

// Validator cross-checks a line item's numeric fields and attaches a
// data-quality verdict. Only missing or unparseable required numerics make a
// record INVALID; every other finding caps at VALID_WITH_WARNING so that
// proration can still run.
type Validator struct {
	cfg    Config
	logger *slog.Logger
}

func NewValidator(cfg Config, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPeriodDays <= 0 {
		cfg.MaxPeriodDays = constants.MaxPeriodDays
	}
	return &Validator{cfg: cfg, logger: logger}
}

// Validate runs all checks, each contributing zero or one issue.
func (v *Validator) Validate(item *entity.InvoiceLineItem, period *entity.ServicePeriod) entity.ValidationVerdict {
	var issues []string
	invalid := false

	for _, f := range item.MalformedFields {
		issues = append(issues, fmt.Sprintf("unparseable numeric field: %s", f))
		invalid = true
	}

	if item.NetAmount == nil && item.GrossAmount == nil {
		issues = append(issues, "missing required amount: at least one of net_amount, gross_amount")
		invalid = true
	}

	if item.NetAmount != nil && item.VATRate != nil && item.VATAmount != nil {
		expected := item.NetAmount.Mul(*item.VATRate)
		if expected.Sub(*item.VATAmount).Abs().GreaterThan(v.cfg.VATTolerance) {
			issues = append(issues, fmt.Sprintf("VAT mismatch: expected %s, got %s",
				expected.StringFixed(2), item.VATAmount.StringFixed(2)))
		}
	}

	if item.NetAmount != nil && item.VATAmount != nil && item.GrossAmount != nil {
		sum := item.NetAmount.Add(*item.VATAmount)
		if sum.Sub(*item.GrossAmount).Abs().GreaterThan(v.cfg.VATTolerance) {
			issues = append(issues, fmt.Sprintf("gross mismatch: expected %s, got %s",
				sum.StringFixed(2), item.GrossAmount.StringFixed(2)))
		}
	}

	if !period.Resolved() {
		issues = append(issues, "no service period resolved; proration falls back to the invoice month")
	} else if d := period.Days(); d > v.cfg.MaxPeriodDays {
		issues = append(issues, fmt.Sprintf("service period spans %d days, longer than %d", d, v.cfg.MaxPeriodDays))
	}

	verdict := entity.ValidationVerdict{Status: constants.VerdictValid, Issues: issues}
	switch {
	case invalid:
		verdict.Status = constants.VerdictInvalid
	case len(issues) > 0:
		verdict.Status = constants.VerdictWithWarning
	}

	if verdict.Status != constants.VerdictValid {
		v.logger.Debug("validate.verdict",
			"invoice_number", item.InvoiceNumber,
			"status", string(verdict.Status),
			"issues", len(issues),
		)
	}
	return verdict
}
