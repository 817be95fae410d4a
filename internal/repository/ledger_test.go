package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnadrag/invoice-prorata/constants"
	"github.com/gnadrag/invoice-prorata/internal/entity"
)

func newTestRepo(t *testing.T) LedgerRepository {
	t.Helper()
	store, err := Open(context.Background(), Config{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	repo := NewLedgerRepository(store, nil)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func sampleResult(months ...string) entity.ItemResult {
	item := &entity.InvoiceLineItem{
		ID:            uuid.New(),
		InvoiceNumber: "INV-42",
		VendorName:    "SC Paza SRL",
		Currency:      "RON",
		InvoiceDate:   time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC),
		Confidence:    8,
	}
	net := decimal.RequireFromString("1000.00")
	item.NetAmount = &net

	rows := make([]entity.MonthlyRow, 0, len(months))
	for _, m := range months {
		month, _ := time.ParseInLocation("2006-01", m, time.UTC)
		rows = append(rows, entity.MonthlyRow{
			LineItemID:    item.ID,
			Month:         month,
			Amount:        decimal.RequireFromString("500.00"),
			Split:         len(months) > 1,
			InvoiceNumber: item.InvoiceNumber,
			VendorName:    item.VendorName,
			Currency:      item.Currency,
			Confidence:    item.Confidence,
		})
	}

	return entity.ItemResult{
		Item: item,
		Period: &entity.ServicePeriod{
			Start:      time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
			End:        time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
			Resolution: constants.ResolutionExplicitRange,
		},
		Verdict: entity.ValidationVerdict{Status: constants.VerdictValid},
		Rows:    rows,
		Outcome: constants.OutcomeSuccess,
	}
}

func TestSaveResults_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	res := sampleResult("2024-01", "2024-02")
	require.NoError(t, repo.SaveResults(ctx, []entity.ItemResult{res}))

	rows, err := repo.ListMonthlyRows(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, res.Item.ID, rows[0].LineItemID)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), rows[0].Month)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("500.00")))
	assert.True(t, rows[0].Split)
	assert.Equal(t, "INV-42", rows[0].InvoiceNumber)
	assert.Equal(t, "RON", rows[0].Currency)
	assert.Equal(t, 8, rows[0].Confidence)
}

func TestSaveResults_ReprocessingIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	res := sampleResult("2024-01", "2024-02")
	require.NoError(t, repo.SaveResults(ctx, []entity.ItemResult{res}))

	// same item reprocessed with a different expansion replaces its rows
	res.Rows = res.Rows[:1]
	res.Rows[0].Amount = decimal.RequireFromString("1000.00")
	res.Rows[0].Split = false
	require.NoError(t, repo.SaveResults(ctx, []entity.ItemResult{res}))

	rows, err := repo.ListMonthlyRows(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("1000.00")))
	assert.False(t, rows[0].Split)
}

func TestListMonthlyRows_MonthFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveResults(ctx, []entity.ItemResult{
		sampleResult("2024-01", "2024-02"),
		sampleResult("2024-03"),
	}))

	from := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	rows, err := repo.ListMonthlyRows(ctx, &from, &to)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), rows[0].Month)
}

func TestSaveResults_ItemWithoutRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	res := sampleResult()
	res.Verdict = entity.ValidationVerdict{Status: constants.VerdictInvalid, Issues: []string{"no usable amount"}}
	res.Outcome = constants.OutcomeFailed
	res.Reason = "no usable amount"

	require.NoError(t, repo.SaveResults(ctx, []entity.ItemResult{res}))
	rows, err := repo.ListMonthlyRows(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
