package entity

import "github.com/gnadrag/invoice-prorata/constants"

// ItemResult is the per-item outcome recorded by the batch coordinator.
type ItemResult struct {
	Item    *InvoiceLineItem  `json:"item"`
	Period  *ServicePeriod    `json:"period,omitempty"`
	Verdict ValidationVerdict `json:"verdict"`
	Rows    []MonthlyRow      `json:"rows,omitempty"`
	Outcome constants.Outcome `json:"outcome"`
	Reason  string            `json:"reason,omitempty"` // set on FAILED
}
