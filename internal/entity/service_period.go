package entity

import (
	"time"

	"github.com/gnadrag/invoice-prorata/constants"
)

// ServicePeriod is the inclusive date range a line item actually covers.
// Created once by the date extractor and never mutated afterward.
type ServicePeriod struct {
	Start      time.Time            `json:"start"` // midnight UTC
	End        time.Time            `json:"end"`   // midnight UTC, >= Start
	Resolution constants.Resolution `json:"resolution"`
}

// Resolved reports whether the period carries usable dates.
func (p *ServicePeriod) Resolved() bool {
	return p != nil && p.Resolution != constants.ResolutionUnresolved
}

// Days returns the inclusive day count of the period.
func (p *ServicePeriod) Days() int {
	if p == nil || p.End.Before(p.Start) {
		return 0
	}
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}
