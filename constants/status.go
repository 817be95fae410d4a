package constants

// Resolution records how a service period was derived from a line item.
type Resolution string

// Stable values (store these exact strings in DB).
const (
	ResolutionExplicitRange Resolution = "EXPLICIT_RANGE" // two or more dates found in the text
	ResolutionSingleDate    Resolution = "SINGLE_DATE"    // exactly one date found
	ResolutionFallback      Resolution = "INVOICE_MONTH_FALLBACK"
	ResolutionUnresolved    Resolution = "UNRESOLVED"
)

// VerdictStatus is the data-quality verdict attached by the field validator.
type VerdictStatus string

const (
	VerdictValid       VerdictStatus = "VALID"
	VerdictWithWarning VerdictStatus = "VALID_WITH_WARNING"
	VerdictInvalid     VerdictStatus = "INVALID" // proration must not run
)

// Outcome is the per-item result recorded by the batch coordinator.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS" // rows produced, no warnings
	OutcomePartial Outcome = "PARTIAL" // rows produced despite warnings
	OutcomeFailed  Outcome = "FAILED"  // no rows produced, reason recorded
)
