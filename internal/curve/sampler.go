// Package curve samples a response curve model across its spend domain.
package curve

import (
	"github.com/rotisserie/eris"

	"github.com/ThejanDulara/MMM-Reach/pkg/mathutil"
)

// PredictFunc evaluates a curve model over a batch of spend values.
type PredictFunc func(spend []float64) ([]float64, error)

// Sampled is a curve evaluated at evenly spaced spend points.
type Sampled struct {
	Spend []float64
	Reach []float64
}

// Len returns the number of samples.
func (s Sampled) Len() int {
	return len(s.Spend)
}

// Step returns the spacing between consecutive spend points.
func (s Sampled) Step() float64 {
	if len(s.Spend) < 2 {
		return 0
	}
	return (s.Spend[len(s.Spend)-1] - s.Spend[0]) / float64(len(s.Spend)-1)
}

// Linspace returns n evenly spaced values from start to stop inclusive. The last
// value is pinned to stop so rounding never pushes it past the domain.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = float64(i)*step + start
	}
	out[n-1] = stop
	return out
}

// Sample evaluates predict once over n spend points spanning [minSpend, maxSpend].
// Errors from predict are returned as is.
func Sample(predict PredictFunc, minSpend, maxSpend float64, n int) (Sampled, error) {
	if predict == nil {
		return Sampled{}, eris.New("curve: nil predict function")
	}
	if err := ValidateDomain(minSpend, maxSpend); err != nil {
		return Sampled{}, err
	}
	if n < 2 {
		return Sampled{}, eris.Errorf("curve: need at least 2 sample points, got %d", n)
	}

	spend := Linspace(minSpend, maxSpend, n)
	reach, err := predict(spend)
	if err != nil {
		return Sampled{}, err
	}
	if len(reach) != len(spend) {
		return Sampled{}, eris.Errorf("curve: model returned %d predictions for %d spend values", len(reach), len(spend))
	}

	return Sampled{Spend: spend, Reach: reach}, nil
}

// ValidateDomain checks that a spend domain is finite, positive and non-empty.
func ValidateDomain(minSpend, maxSpend float64) error {
	if !mathutil.IsFinite(minSpend) || !mathutil.IsFinite(maxSpend) {
		return eris.Errorf("curve: domain (%v, %v) must be finite", minSpend, maxSpend)
	}
	if minSpend <= 0 || maxSpend <= 0 {
		return eris.Errorf("curve: domain (%v, %v) must be positive", minSpend, maxSpend)
	}
	if minSpend >= maxSpend {
		return eris.Errorf("curve: domain minimum %v must be below maximum %v", minSpend, maxSpend)
	}
	return nil
}
