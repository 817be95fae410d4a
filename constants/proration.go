package constants

// Basis selects which declared amount is split across months.
type Basis string

const (
	BasisNet   Basis = "NET"
	BasisGross Basis = "GROSS"
)

// Weighting selects how the amount is distributed over the months a period touches.
type Weighting string

const (
	WeightingDays    Weighting = "DAYS"    // proportional to overlapping calendar days
	WeightingUniform Weighting = "UNIFORM" // equal share per month
)

// MoneyPlaces is the scale all allocated amounts are rounded to.
const MoneyPlaces = 2

// MaxPeriodDays is the longest service period accepted without a warning.
// Mirrors the one-year-plus-leap-day bound used during date validation.
const MaxPeriodDays = 366
