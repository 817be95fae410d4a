package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnadrag/invoice-prorata/constants"
	"github.com/gnadrag/invoice-prorata/internal/common"
	"github.com/gnadrag/invoice-prorata/internal/entity"
	"github.com/gnadrag/invoice-prorata/internal/extract"
	"github.com/gnadrag/invoice-prorata/internal/prorate"
	"github.com/gnadrag/invoice-prorata/internal/validate"
)

func newTestProcessor() *Processor {
	extractor := extract.NewExtractor(extract.Config{DayFirst: true, FallbackToInvoiceMonth: true}, nil)
	validator := validate.NewValidator(validate.Config{VATTolerance: decimal.RequireFromString("0.001")}, nil)
	engine := prorate.NewEngine(prorate.Config{}, nil)
	return NewProcessor(nil, extractor, validator, engine)
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func cleanItem(description string) *entity.InvoiceLineItem {
	return &entity.InvoiceLineItem{
		ID:            uuid.New(),
		InvoiceNumber: "INV-7",
		VendorName:    "SC Chirii SRL",
		Currency:      "RON",
		InvoiceDate:   time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC),
		Descriptions:  []string{description},
		NetAmount:     dec("1000.00"),
		VATRate:       dec("0.19"),
		VATAmount:     dec("190.00"),
		GrossAmount:   dec("1190.00"),
		Confidence:    9,
	}
}

func TestProcessItem_Success(t *testing.T) {
	p := newTestProcessor()

	res, err := p.ProcessItem(context.Background(), cleanItem("servicii paza 15/01/2024 - 10/03/2024"))
	require.NoError(t, err)
	assert.Equal(t, constants.OutcomeSuccess, res.Outcome)
	assert.Equal(t, constants.ResolutionExplicitRange, res.Period.Resolution)
	assert.Len(t, res.Rows, 3)

	sum := decimal.Zero
	for _, r := range res.Rows {
		sum = sum.Add(r.Amount)
	}
	assert.True(t, sum.Equal(decimal.RequireFromString("1000.00")))
}

func TestProcessItem_WarningMakesPartial(t *testing.T) {
	p := newTestProcessor()

	// VAT is off beyond tolerance: the item still prorates, but as PARTIAL
	item := cleanItem("abonament 01/02/2024 - 29/02/2024")
	item.VATAmount = dec("195.00")
	item.GrossAmount = dec("1195.00")

	res, err := p.ProcessItem(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, constants.OutcomePartial, res.Outcome)
	require.Len(t, res.Rows, 1)
	assert.True(t, res.Rows[0].Amount.Equal(decimal.RequireFromString("1000.00")))
}

func TestProcessItem_InvalidBlocksProration(t *testing.T) {
	p := newTestProcessor()

	item := cleanItem("servicii ianuarie 2024")
	item.NetAmount = nil
	item.GrossAmount = nil

	res, err := p.ProcessItem(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, constants.OutcomeFailed, res.Outcome)
	assert.NotEmpty(t, res.Reason)
	assert.Empty(t, res.Rows)
}

func TestProcessItem_DatelessFallsBackToInvoiceMonth(t *testing.T) {
	p := newTestProcessor()

	res, err := p.ProcessItem(context.Background(), cleanItem("diverse consumabile birou"))
	require.NoError(t, err)
	require.Equal(t, constants.ResolutionFallback, res.Period.Resolution)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), res.Rows[0].Month)
}

func TestProcessItem_NegativeAmountIsError(t *testing.T) {
	p := newTestProcessor()

	item := cleanItem("storno 15/01/2024")
	item.NetAmount = dec("-250.00")
	item.VATAmount = dec("-47.50")
	item.GrossAmount = dec("-297.50")

	_, err := p.ProcessItem(context.Background(), item)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNegativeAmount)
}

func TestProcessBatch_FailureIsolation(t *testing.T) {
	p := newTestProcessor()

	bad := cleanItem("chirie februarie 2024")
	bad.NetAmount = nil
	bad.GrossAmount = nil

	items := []*entity.InvoiceLineItem{
		cleanItem("paza 01/01/2024 - 31/01/2024"),
		bad,
		cleanItem("mentenanta 01/02/2024 - 31/03/2024"),
	}

	br, err := p.ProcessBatch(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 2, br.Succeeded)
	assert.Equal(t, 0, br.Partial)
	assert.Equal(t, 1, br.Failed)
	require.Len(t, br.Results, 3)
	// one month + two months from the good items, nothing from the bad one
	assert.Len(t, br.Rows, 3)
}

func TestProcessBatch_NegativeAmountAborts(t *testing.T) {
	p := newTestProcessor()

	bad := cleanItem("storno 15/01/2024")
	bad.NetAmount = dec("-1.00")
	bad.VATAmount = dec("-0.19")
	bad.GrossAmount = dec("-1.19")

	items := []*entity.InvoiceLineItem{
		cleanItem("paza 01/01/2024 - 31/01/2024"),
		bad,
		cleanItem("paza 01/02/2024 - 29/02/2024"),
	}

	br, err := p.ProcessBatch(context.Background(), items)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNegativeAmount)
	// the item processed before the abort is still reported
	assert.Equal(t, 1, br.Succeeded)
}

func TestProcessBatch_Cancellation(t *testing.T) {
	p := newTestProcessor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	br, err := p.ProcessBatch(ctx, []*entity.InvoiceLineItem{cleanItem("paza ianuarie 2024")})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, br.Results)
}

func TestCollect_SkipsUnprocessedSlots(t *testing.T) {
	results := []entity.ItemResult{
		{Outcome: constants.OutcomeSuccess},
		{}, // never dispatched
		{Outcome: constants.OutcomeFailed},
	}
	br := Collect(results)
	assert.Len(t, br.Results, 2)
	assert.Equal(t, 1, br.Succeeded)
	assert.Equal(t, 1, br.Failed)
}
