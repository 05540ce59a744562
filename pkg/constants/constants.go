// Package constants provides shared constants for the mmm-reach application.
package constants

// Channels, in the fixed order used for validation and output.
const (
	ChannelTV       = "TV"
	ChannelFacebook = "Facebook"
	ChannelYouTube  = "YouTube"
	ChannelRadio    = "Radio"
	ChannelPress    = "Press"
)

// Channels returns the fixed channel order.
func Channels() []string {
	return []string{ChannelTV, ChannelFacebook, ChannelYouTube, ChannelRadio, ChannelPress}
}

// IsChannel reports whether name is one of the fixed channels.
func IsChannel(name string) bool {
	for _, ch := range Channels() {
		if ch == name {
			return true
		}
	}
	return false
}

// Solver constants
const (
	// SamplePoints is the number of spend samples taken across a model's domain
	SamplePoints = 10000

	// SigmaTV is the smoothing width (in samples) for TV family curves
	SigmaTV = 450.0

	// SigmaDefault is the smoothing width for every other channel
	SigmaDefault = 350.0

	// GaussianTruncate is the kernel radius in standard deviations
	GaussianTruncate = 4.0

	// MinEfficiency and MaxEfficiency bound the accepted target efficiency
	MinEfficiency = 0.0
	MaxEfficiency = 100.0
)

// Financial constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// CurrencySymbol prefixes rendered budgets
	CurrencySymbol = "LKR "
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatXLSX is the Excel workbook output format
	OutputFormatXLSX = "xlsx"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// EnvPrefix is the prefix for environment overrides
	EnvPrefix = "MMM"

	// DefaultModelDir is where model artifacts are looked up by default
	DefaultModelDir = "models"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":5000"

	// DefaultMaxBodySizeBytes is the default maximum request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultShutdownTimeoutSeconds bounds graceful shutdown
	DefaultShutdownTimeoutSeconds = 10

	// DefaultRunsLimit is the number of runs listed when no limit is given
	DefaultRunsLimit = 20
)
