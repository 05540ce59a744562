// Package validation provides common validation utilities.
package validation

import (
	"github.com/rotisserie/eris"

	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, constants.OutputFormatXLSX:
		return nil
	}
	return eris.Errorf("expected output format of %s, %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON,
		constants.OutputFormatXLSX, format)
}

// ValidateLogLevel checks a logging level. An empty level selects the default.
func ValidateLogLevel(level string) error {
	switch level {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return eris.Errorf("invalid log level: %s", level)
}

// ValidateLogFormat checks a logging format. An empty format selects the default.
func ValidateLogFormat(format string) error {
	switch format {
	case "", "json", "console":
		return nil
	}
	return eris.Errorf("invalid log format: %s", format)
}
