// Package constants provides shared constants for the credit-calculator application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Installment rounding buckets
const (
	// InstallmentBucket is the width of one rounding bucket
	InstallmentBucket = 1000

	// InstallmentHalfBucket is the upper bound (inclusive) of the lower half of a bucket
	InstallmentHalfBucket = 500
)

// Loan input limits accepted at the edge and enforced again by the engine.
const (
	MinInterestRate = 0.0
	MaxInterestRate = 100.0
	MinTermMonths   = 1
	MaxTermMonths   = 600

	// DefaultLoanType is stored when a calculation is saved without a loan type
	DefaultLoanType = "standard"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatYAML is the YAML output format
	OutputFormatYAML = "yaml"

	// DefaultLocale drives thousands/decimal separators in pretty output
	DefaultLocale = "id-ID"

	// DefaultCurrencySymbol is prefixed to amounts in pretty output
	DefaultCurrencySymbol = "Rp"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "credit-calculator.yaml"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "CREDIT"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultPerPage is the page size used when listing stored calculations
	DefaultPerPage = 10

	// DefaultVersion is reported when no build version was injected
	DefaultVersion = "dev"
)

// Storage and cache drivers
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"

	CacheDriverNone   = "none"
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)
