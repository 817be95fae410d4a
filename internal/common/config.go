package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gnadrag/invoice-prorata/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Dates    DateConfig
	Validation ValidateConfig
	Prorate  ProrateConfig
	Batch    BatchConfig
}

// DatabaseConfig holds ledger-store configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DateConfig holds date-extraction policy
type DateConfig struct {
	// DayFirst resolves numeric day/month ambiguity (03/04/2024). True means
	// day-first, matching DATE_FORMAT=DD/MM/YYYY.
	DayFirst bool
	// FallbackToInvoiceMonth enables the invoice-month fallback when a
	// description yields no dates.
	FallbackToInvoiceMonth bool
	// MaxYearsFromInvoice rejects date tokens further than this many years
	// from the invoice date (guards against OCR digit transposition).
	MaxYearsFromInvoice int
}

// ValidateConfig holds field-validation thresholds
type ValidateConfig struct {
	// VATTolerance is the absolute epsilon for VAT and gross consistency.
	VATTolerance decimal.Decimal
	// MaxPeriodDays flags service periods longer than this with a warning.
	MaxPeriodDays int
}

// ProrateConfig holds monthly-split policy
type ProrateConfig struct {
	Basis     constants.Basis
	Weighting constants.Weighting
}

// BatchConfig holds coordinator settings
type BatchConfig struct {
	MaxWorkers int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Dates: DateConfig{
			DayFirst:               getEnv("DATE_FORMAT", "DD/MM/YYYY") != "MM/DD/YYYY",
			FallbackToInvoiceMonth: getEnvAsBool("FALLBACK_TO_INVOICE_MONTH", true),
			MaxYearsFromInvoice:    getEnvAsInt("DATE_MAX_YEARS_FROM_INVOICE", 5),
		},
		Validation: ValidateConfig{
			VATTolerance:  getEnvAsDecimal("VAT_TOLERANCE", decimal.NewFromFloat(0.001)),
			MaxPeriodDays: getEnvAsInt("MAX_PERIOD_DAYS", constants.MaxPeriodDays),
		},
		Prorate: ProrateConfig{
			Basis:     constants.Basis(strings.ToUpper(getEnv("PRORATION_BASIS", string(constants.BasisNet)))),
			Weighting: constants.Weighting(strings.ToUpper(getEnv("PRORATION_WEIGHTING", string(constants.WeightingDays)))),
		},
		Batch: BatchConfig{
			MaxWorkers: getEnvAsInt("MAX_WORKERS", 8),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Prorate.Basis {
	case constants.BasisNet, constants.BasisGross:
	default:
		return NewAppError("CONFIG_ERROR", "PRORATION_BASIS must be NET or GROSS", ErrInvalidInput)
	}
	switch c.Prorate.Weighting {
	case constants.WeightingDays, constants.WeightingUniform:
	default:
		return NewAppError("CONFIG_ERROR", "PRORATION_WEIGHTING must be DAYS or UNIFORM", ErrInvalidInput)
	}
	if c.Validation.VATTolerance.IsNegative() {
		return NewAppError("CONFIG_ERROR", "VAT_TOLERANCE must not be negative", ErrInvalidInput)
	}
	if c.Batch.MaxWorkers < 1 {
		return NewAppError("CONFIG_ERROR", "MAX_WORKERS must be at least 1", ErrInvalidInput)
	}
	return nil
}
