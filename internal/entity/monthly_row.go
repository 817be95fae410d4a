package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthlyRow is one calendar month's share of a line item's amount.
// The sum of all rows derived from one item equals the item's amount exactly.
type MonthlyRow struct {
	Month      time.Time       `json:"month"` // first day of the month, midnight UTC
	Amount     decimal.Decimal `json:"amount"`
	Split      bool            `json:"split"` // true when the period expanded to >1 month
	LineItemID uuid.UUID       `json:"line_item_id"`

	// Carried-through reporting fields, never computed here.
	InvoiceNumber string `json:"invoice_number"`
	VendorName    string `json:"vendor_name"`
	Currency      string `json:"currency"`
	Confidence    int    `json:"confidence"`
}
