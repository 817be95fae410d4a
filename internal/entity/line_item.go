package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLineItem is one billed position as delivered by the upstream
// extraction service. Amounts are optional because the input is untrusted;
// the field validator decides what is usable.
type InvoiceLineItem struct {
	ID            uuid.UUID        `json:"id"`
	InvoiceNumber string           `json:"invoice_number"`
	VendorName    string           `json:"vendor_name"`
	InvoiceDate   time.Time        `json:"invoice_date"` // document date, fallback anchor
	Currency      string           `json:"currency"`
	Descriptions  []string         `json:"descriptions"` // free text, source of date hints
	NetAmount     *decimal.Decimal `json:"net_amount,omitempty"`
	VATRate       *decimal.Decimal `json:"vat_rate,omitempty"`
	VATAmount     *decimal.Decimal `json:"vat_amount,omitempty"`
	GrossAmount   *decimal.Decimal `json:"gross_amount,omitempty"`

	// Confidence is the upstream extraction score (1-10), carried through,
	// never recomputed here.
	Confidence int `json:"confidence"`

	// MalformedFields names numeric fields that arrived unparseable. Set
	// during ingest; escalates the validation verdict to INVALID.
	MalformedFields []string `json:"malformed_fields,omitempty"`
}

// InvoiceMonth returns the first day of the invoice document's own month
// (midnight UTC).
func (li *InvoiceLineItem) InvoiceMonth() time.Time {
	d := li.InvoiceDate
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DescriptionText joins all item descriptions into one scannable blob.
func (li *InvoiceLineItem) DescriptionText() string {
	out := ""
	for _, d := range li.Descriptions {
		if d == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += d
	}
	return out
}
