package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gnadrag/invoice-prorata/internal/entity"
)

// Document is the extraction service's output contract for one invoice
// line item. Amounts are strings with per-field 1-10 confidence scores.
type Document struct {
	InvoiceNumber string   `json:"invoice_number"`
	InvoiceDate   string   `json:"invoice_date"`
	VendorName    string   `json:"vendor_name"`
	ItemsDetails  []string `json:"items_details"`
	TotalAmount   string   `json:"total_amount"`
	TotalNet      string   `json:"total_without_vat"`
	VATAmount     string   `json:"vat_amount"`
	VATRate       string   `json:"vat_rate"`
	Currency      string   `json:"currency"`

	InvoiceNumberConfidence int `json:"invoice_number_confidence"`
	InvoiceDateConfidence   int `json:"invoice_date_confidence"`
	VendorNameConfidence    int `json:"vendor_name_confidence"`
	ItemsDetailsConfidence  int `json:"items_details_confidence"`
	TotalAmountConfidence   int `json:"total_amount_confidence"`
	TotalNetConfidence      int `json:"total_without_vat_confidence"`
	VATAmountConfidence     int `json:"vat_amount_confidence"`
	CurrencyConfidence      int `json:"currency_confidence"`
}

// invoice dates keep the original document's notation; day-first throughout
var invoiceDateLayouts = []string{"02/01/2006", "02.01.2006", "02-01-2006", "2006-01-02"}

// Decoder turns raw extraction payloads into line items: sanitize, validate
// against the schema, then decode. Malformed amounts are recorded on the
// item instead of failing it here; the validator decides what is fatal.
type Decoder struct {
	schema map[string]any
	logger *slog.Logger
}

func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{schema: BuildLineItemJSONSchema(), logger: logger}
}

// Decode parses one document. It fails only when the payload is not valid
// JSON per the schema or the invoice date is unreadable (nothing downstream
// can anchor without it).
func (d *Decoder) Decode(raw []byte) (*entity.InvoiceLineItem, error) {
	clean, _, err := NormalizeAndSanitizeJSON(raw, d.logger)
	if err != nil {
		return nil, fmt.Errorf("sanitize payload: %w", err)
	}
	if err := ValidateJSONAgainstSchema(d.schema, clean); err != nil {
		return nil, fmt.Errorf("validate payload: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(clean, &doc); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	invoiceDate, err := parseInvoiceDate(doc.InvoiceDate)
	if err != nil {
		return nil, fmt.Errorf("invoice_date %q: %w", doc.InvoiceDate, err)
	}

	item := &entity.InvoiceLineItem{
		ID:            uuid.New(),
		InvoiceNumber: doc.InvoiceNumber,
		VendorName:    doc.VendorName,
		InvoiceDate:   invoiceDate,
		Currency:      doc.Currency,
		Descriptions:  doc.ItemsDetails,
		Confidence:    doc.minConfidence(),
	}

	item.NetAmount = d.amount(item, "total_without_vat", doc.TotalNet)
	item.VATAmount = d.amount(item, "vat_amount", doc.VATAmount)
	item.VATRate = d.amount(item, "vat_rate", doc.VATRate)
	item.GrossAmount = d.amount(item, "total_amount", doc.TotalAmount)

	return item, nil
}

// amount normalizes one money string; failures land in MalformedFields.
func (d *Decoder) amount(item *entity.InvoiceLineItem, field, raw string) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	norm, ok := NormalizeAmount(raw)
	if !ok {
		item.MalformedFields = append(item.MalformedFields, field)
		d.logger.Warn("ingest.amount.malformed", "field", field, "value", raw)
		return nil
	}
	v, err := decimal.NewFromString(norm)
	if err != nil {
		item.MalformedFields = append(item.MalformedFields, field)
		return nil
	}
	return &v
}

func parseInvoiceDate(s string) (time.Time, error) {
	for _, layout := range invoiceDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date notation")
}

// minConfidence is the weakest link across all scored fields; the score is
// carried through, never recomputed downstream.
func (doc *Document) minConfidence() int {
	min := 0
	for _, c := range []int{
		doc.InvoiceNumberConfidence, doc.InvoiceDateConfidence,
		doc.VendorNameConfidence, doc.ItemsDetailsConfidence,
		doc.TotalAmountConfidence, doc.TotalNetConfidence,
		doc.VATAmountConfidence, doc.CurrencyConfidence,
	} {
		if c == 0 {
			continue // field not scored
		}
		if min == 0 || c < min {
			min = c
		}
	}
	return min
}
