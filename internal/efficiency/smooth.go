package efficiency

import (
	"math"

	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
)

// GaussianKernel returns the normalized Gaussian weights for the given standard
// deviation, truncated at constants.GaussianTruncate deviations. The kernel has
// 2*radius+1 taps and is symmetric around its centre.
func GaussianKernel(sigma float64) []float64 {
	radius := int(constants.GaussianTruncate*sigma + 0.5)
	weights := make([]float64, 2*radius+1)
	if radius == 0 {
		weights[0] = 1
		return weights
	}

	denom := 2 * sigma * sigma
	var sum float64
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-float64(i*i) / denom)
		weights[i+radius] = w
		sum += w
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// Smooth applies a 1-D Gaussian filter to values. sigma is measured in samples.
// Samples beyond either end are mirrored about the edge (d c b a | a b c d | d c b a).
// A non-positive sigma returns a copy of values.
func Smooth(values []float64, sigma float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if sigma <= 0 {
		copy(out, values)
		return out
	}

	weights := GaussianKernel(sigma)
	radius := len(weights) / 2

	for i := 0; i < n; i++ {
		var acc float64
		lo, hi := i-radius, i+radius
		if lo >= 0 && hi < n {
			window := values[lo : hi+1]
			for k, w := range weights {
				acc += w * window[k]
			}
		} else {
			for k, w := range weights {
				acc += w * values[reflectIndex(lo+k, n)]
			}
		}
		out[i] = acc
	}
	return out
}

// reflectIndex maps an out-of-range index into [0, n) using half-sample symmetric
// reflection, which repeats with period 2n.
func reflectIndex(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
