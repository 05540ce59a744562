// Package efficiency locates the knee point of a sampled spend/reach curve: the
// spend at which smoothed marginal reach first decays to a target percentage of
// its peak.
package efficiency

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
)

// ErrTooFewSamples is returned when a curve has fewer than two samples.
var ErrTooFewSamples = eris.New("efficiency: at least two samples are required")

// Profile is the smoothed curve and its normalized marginal efficiency.
type Profile struct {
	Smoothed []float64
	Gradient []float64
	// Percent holds gradient[i] as a percentage of the largest absolute gradient.
	Percent []float64
	// PeakIndex is the index of the largest signed gradient.
	PeakIndex int
	// Degenerate is set when every gradient is exactly zero and a unit divisor was used.
	Degenerate bool
}

// Point is the selected knee point.
type Point struct {
	Budget     float64
	Reach      float64
	Index      int
	PeakIndex  int
	Efficiency float64
	// Fallback is set when efficiency never reached the target and the upper bound was used.
	Fallback   bool
	Degenerate bool
}

// BuildProfile smooths reach with the given sigma and derives its efficiency profile
// with respect to spend.
func BuildProfile(spend, reach []float64, sigma float64) (*Profile, error) {
	if len(spend) != len(reach) {
		return nil, eris.Errorf("efficiency: %d spend values but %d reach values", len(spend), len(reach))
	}
	if len(spend) < 2 {
		return nil, eris.Wrapf(ErrTooFewSamples, "efficiency: got %d", len(spend))
	}

	smoothed := Smooth(reach, sigma)
	gradient, err := Gradient(smoothed, spend)
	if err != nil {
		return nil, err
	}

	var maxAbs float64
	peak := 0
	for i, g := range gradient {
		if a := math.Abs(g); a > maxAbs {
			maxAbs = a
		}
		if g > gradient[peak] {
			peak = i
		}
	}

	degenerate := maxAbs == 0
	if degenerate {
		maxAbs = 1.0
	}

	percent := make([]float64, len(gradient))
	for i, g := range gradient {
		percent[i] = g / maxAbs * constants.PercentageMultiplier
	}

	return &Profile{
		Smoothed:   smoothed,
		Gradient:   gradient,
		Percent:    percent,
		PeakIndex:  peak,
		Degenerate: degenerate,
	}, nil
}

// KneeIndex returns the first index at or after the peak whose efficiency is at most
// targetPct. When no such index exists the last index is returned with fallback set.
func (p *Profile) KneeIndex(targetPct float64) (idx int, fallback bool) {
	for i := p.PeakIndex; i < len(p.Percent); i++ {
		if p.Percent[i] <= targetPct {
			return i, false
		}
	}
	return len(p.Percent) - 1, true
}

// Solve returns the spend at which marginal efficiency first falls to targetPct after
// the point of peak marginal return, together with the smoothed reach at that spend.
func Solve(spend, reach []float64, targetPct, sigma float64) (Point, error) {
	profile, err := BuildProfile(spend, reach, sigma)
	if err != nil {
		return Point{}, err
	}

	idx, fallback := profile.KneeIndex(targetPct)
	return Point{
		Budget:     spend[idx],
		Reach:      profile.Smoothed[idx],
		Index:      idx,
		PeakIndex:  profile.PeakIndex,
		Efficiency: profile.Percent[idx],
		Fallback:   fallback,
		Degenerate: profile.Degenerate,
	}, nil
}
