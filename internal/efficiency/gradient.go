package efficiency

import "github.com/rotisserie/eris"

// Gradient returns dy/dx using second order central differences in the interior
// and first order one-sided differences at both ends. Interior points use the
// non-uniform spacing formula unless every step in x is bit-identical.
func Gradient(y, x []float64) ([]float64, error) {
	n := len(y)
	if n != len(x) {
		return nil, eris.Errorf("gradient: length mismatch (%d values, %d coordinates)", n, len(x))
	}
	if n < 2 {
		return nil, eris.Wrapf(ErrTooFewSamples, "gradient: got %d", n)
	}

	out := make([]float64, n)
	out[0] = (y[1] - y[0]) / (x[1] - x[0])
	out[n-1] = (y[n-1] - y[n-2]) / (x[n-1] - x[n-2])

	if uniformSpacing(x) {
		h := x[1] - x[0]
		for i := 1; i < n-1; i++ {
			out[i] = (y[i+1] - y[i-1]) / (2 * h)
		}
		return out, nil
	}

	for i := 1; i < n-1; i++ {
		dx1 := x[i] - x[i-1]
		dx2 := x[i+1] - x[i]
		a := -dx2 / (dx1 * (dx1 + dx2))
		b := (dx2 - dx1) / (dx1 * dx2)
		c := dx1 / (dx2 * (dx1 + dx2))
		out[i] = a*y[i-1] + b*y[i] + c*y[i+1]
	}
	return out, nil
}

func uniformSpacing(x []float64) bool {
	step := x[1] - x[0]
	for i := 2; i < len(x); i++ {
		if x[i]-x[i-1] != step {
			return false
		}
	}
	return true
}
