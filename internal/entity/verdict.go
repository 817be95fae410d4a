package entity

import "github.com/gnadrag/invoice-prorata/constants"

// ValidationVerdict is the data-quality result attached to a line item by
// the field validator. Read-only afterward.
type ValidationVerdict struct {
	Status constants.VerdictStatus `json:"status"`
	Issues []string                `json:"issues,omitempty"` // ordered, human readable
}

// Blocking reports whether proration must be skipped for the item.
func (v ValidationVerdict) Blocking() bool {
	return v.Status == constants.VerdictInvalid
}
