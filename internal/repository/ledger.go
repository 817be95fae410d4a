package repository

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gnadrag/invoice-prorata/constants"
	"github.com/gnadrag/invoice-prorata/internal/common"
	"github.com/gnadrag/invoice-prorata/internal/entity"
)

// LedgerRepository persists processed line items and their monthly rows.
// Saving the same batch twice leaves the ledger unchanged: items upsert by
// ID and each item's rows are replaced wholesale inside one transaction.
type LedgerRepository interface {
	Migrate(ctx context.Context) error
	SaveResults(ctx context.Context, results []entity.ItemResult) error
	ListMonthlyRows(ctx context.Context, from, to *time.Time) ([]entity.MonthlyRow, error)
}

type ledgerRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewLedgerRepository(store *Store, logger *slog.Logger) LedgerRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ledgerRepository{store: store, logger: logger}
}

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS invoice_line_items (
		id             TEXT PRIMARY KEY,
		invoice_number TEXT NOT NULL DEFAULT '',
		vendor_name    TEXT NOT NULL DEFAULT '',
		invoice_date   TEXT NOT NULL,
		currency       TEXT NOT NULL DEFAULT '',
		net_amount     TEXT,
		vat_rate       TEXT,
		vat_amount     TEXT,
		gross_amount   TEXT,
		confidence     INTEGER NOT NULL DEFAULT 0,
		period_start   TEXT,
		period_end     TEXT,
		resolution     TEXT NOT NULL DEFAULT 'UNRESOLVED',
		verdict        TEXT NOT NULL DEFAULT 'VALID',
		issues         TEXT NOT NULL DEFAULT '',
		updated_at     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS monthly_rows (
		line_item_id   TEXT NOT NULL,
		year_month     TEXT NOT NULL,
		amount         TEXT NOT NULL,
		split          INTEGER NOT NULL DEFAULT 0,
		invoice_number TEXT NOT NULL DEFAULT '',
		vendor_name    TEXT NOT NULL DEFAULT '',
		currency       TEXT NOT NULL DEFAULT '',
		confidence     INTEGER NOT NULL DEFAULT 0,
		updated_at     TEXT NOT NULL,
		PRIMARY KEY (line_item_id, year_month)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_monthly_rows_month ON monthly_rows (year_month)`,
}

func (r *ledgerRepository) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := r.store.db.ExecContext(ctx, stmt); err != nil {
			r.logger.Error("migration failed", "error", err)
			return common.WrapError(err, "migrate ledger")
		}
	}
	return nil
}

func (r *ledgerRepository) SaveResults(ctx context.Context, results []entity.ItemResult) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	upsertItem := r.store.rebind(`INSERT INTO invoice_line_items
		(id, invoice_number, vendor_name, invoice_date, currency,
		 net_amount, vat_rate, vat_amount, gross_amount, confidence,
		 period_start, period_end, resolution, verdict, issues, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		 invoice_number = EXCLUDED.invoice_number,
		 vendor_name    = EXCLUDED.vendor_name,
		 invoice_date   = EXCLUDED.invoice_date,
		 currency       = EXCLUDED.currency,
		 net_amount     = EXCLUDED.net_amount,
		 vat_rate       = EXCLUDED.vat_rate,
		 vat_amount     = EXCLUDED.vat_amount,
		 gross_amount   = EXCLUDED.gross_amount,
		 confidence     = EXCLUDED.confidence,
		 period_start   = EXCLUDED.period_start,
		 period_end     = EXCLUDED.period_end,
		 resolution     = EXCLUDED.resolution,
		 verdict        = EXCLUDED.verdict,
		 issues         = EXCLUDED.issues,
		 updated_at     = EXCLUDED.updated_at`)

	deleteRows := r.store.rebind(`DELETE FROM monthly_rows WHERE line_item_id = ?`)

	insertRow := r.store.rebind(`INSERT INTO monthly_rows
		(line_item_id, year_month, amount, split, invoice_number,
		 vendor_name, currency, confidence, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	for _, res := range results {
		item := res.Item
		var periodStart, periodEnd any
		resolution := constants.ResolutionUnresolved
		if res.Period != nil {
			resolution = res.Period.Resolution
			if res.Period.Resolved() {
				periodStart = res.Period.Start.Format(dateLayout)
				periodEnd = res.Period.End.Format(dateLayout)
			}
		}

		_, err := tx.ExecContext(ctx, upsertItem,
			item.ID.String(), item.InvoiceNumber, item.VendorName,
			item.InvoiceDate.Format(dateLayout), item.Currency,
			decString(item.NetAmount), decString(item.VATRate),
			decString(item.VATAmount), decString(item.GrossAmount),
			item.Confidence, periodStart, periodEnd, string(resolution),
			string(res.Verdict.Status), strings.Join(res.Verdict.Issues, "; "), now,
		)
		if err != nil {
			return common.WrapError(err, "upsert line item")
		}

		if _, err := tx.ExecContext(ctx, deleteRows, item.ID.String()); err != nil {
			return common.WrapError(err, "clear monthly rows")
		}
		for _, row := range res.Rows {
			_, err := tx.ExecContext(ctx, insertRow,
				row.LineItemID.String(), row.Month.Format(monthLayout),
				row.Amount.StringFixed(constants.MoneyPlaces), boolToInt(row.Split),
				row.InvoiceNumber, row.VendorName, row.Currency, row.Confidence, now,
			)
			if err != nil {
				return common.WrapError(err, "insert monthly row")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return common.WrapError(err, "commit tx")
	}
	r.logger.Info("ledger.save.ok", "items", len(results))
	return nil
}

func (r *ledgerRepository) ListMonthlyRows(ctx context.Context, from, to *time.Time) ([]entity.MonthlyRow, error) {
	query := `SELECT line_item_id, year_month, amount, split, invoice_number,
		 vendor_name, currency, confidence
		FROM monthly_rows`
	var (
		conds []string
		args  []any
	)
	if from != nil {
		conds = append(conds, "year_month >= ?")
		args = append(args, from.Format(monthLayout))
	}
	if to != nil {
		conds = append(conds, "year_month <= ?")
		args = append(args, to.Format(monthLayout))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY year_month, invoice_number"

	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(query), args...)
	if err != nil {
		r.logger.Error("failed to list monthly rows", "error", err)
		return nil, common.WrapError(err, "list monthly rows")
	}
	defer func() { _ = rows.Close() }()

	var out []entity.MonthlyRow
	for rows.Next() {
		var (
			idStr, monthStr, amountStr string
			split                      int
			row                        entity.MonthlyRow
		)
		if err := rows.Scan(&idStr, &monthStr, &amountStr, &split,
			&row.InvoiceNumber, &row.VendorName, &row.Currency, &row.Confidence); err != nil {
			return nil, common.WrapError(err, "scan monthly row")
		}
		row.LineItemID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, common.WrapError(err, "parse line item id")
		}
		row.Month, err = time.ParseInLocation(monthLayout, monthStr, time.UTC)
		if err != nil {
			return nil, common.WrapError(err, "parse year month")
		}
		row.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, common.WrapError(err, "parse amount")
		}
		row.Split = split != 0
		out = append(out, row)
	}
	return out, rows.Err()
}

func decString(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
