package validation

import (
	"github.com/rotisserie/eris"

	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
	"github.com/ThejanDulara/MMM-Reach/pkg/mathutil"
)

// ValidateEfficiency checks that a target efficiency is a finite percentage.
func ValidateEfficiency(value float64) error {
	if !mathutil.IsFinite(value) {
		return eris.New("efficiency must be a finite number")
	}
	if value < constants.MinEfficiency || value > constants.MaxEfficiency {
		return eris.Errorf("efficiency must be between %v and %v, got %v",
			constants.MinEfficiency, constants.MaxEfficiency, value)
	}
	return nil
}
