package model

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// Tree is a one dimensional regression tree flattened into its ordered split points.
// A spend x lands in the first leaf whose threshold satisfies x <= threshold, or in
// the last leaf when it exceeds every threshold.
type Tree struct {
	thresholds []float64
	values     []float64
}

// NewTree validates and builds a tree. values must have one more entry than thresholds.
func NewTree(thresholds, values []float64) (*Tree, error) {
	if len(values) != len(thresholds)+1 {
		return nil, eris.Errorf("model: tree needs %d leaf values for %d thresholds, got %d",
			len(thresholds)+1, len(thresholds), len(values))
	}
	if !sort.Float64sAreSorted(thresholds) {
		return nil, eris.New("model: tree thresholds must be sorted ascending")
	}
	if err := checkFinite("tree values", values); err != nil {
		return nil, err
	}
	return &Tree{
		thresholds: append([]float64(nil), thresholds...),
		values:     append([]float64(nil), values...),
	}, nil
}

// Kind returns KindTree.
func (t *Tree) Kind() Kind { return KindTree }

func (t *Tree) at(x float64) float64 {
	return t.values[sort.SearchFloat64s(t.thresholds, x)]
}

// Predict evaluates the tree at every spend value.
func (t *Tree) Predict(spend []float64) ([]float64, error) {
	out := make([]float64, len(spend))
	for i, x := range spend {
		out[i] = t.at(x)
	}
	return out, nil
}

// Forest averages the predictions of its trees.
type Forest struct {
	trees []*Tree
}

// NewForest builds a forest from at least one tree.
func NewForest(trees []*Tree) (*Forest, error) {
	if len(trees) == 0 {
		return nil, eris.New("model: forest needs at least one tree")
	}
	return &Forest{trees: trees}, nil
}

// Kind returns KindForest.
func (f *Forest) Kind() Kind { return KindForest }

// Predict returns the mean tree prediction at every spend value.
func (f *Forest) Predict(spend []float64) ([]float64, error) {
	out := make([]float64, len(spend))
	for _, t := range f.trees {
		for i, x := range spend {
			out[i] += t.at(x)
		}
	}
	n := float64(len(f.trees))
	for i := range out {
		out[i] /= n
	}
	return out, nil
}

// Linear predicts reach = slope*spend + intercept.
type Linear struct {
	slope     float64
	intercept float64
}

// NewLinear builds a linear regressor from a finite slope and intercept.
func NewLinear(slope, intercept float64) (*Linear, error) {
	if err := checkFinite("linear parameters", []float64{slope, intercept}); err != nil {
		return nil, err
	}
	return &Linear{slope: slope, intercept: intercept}, nil
}

// Kind returns KindLinear.
func (l *Linear) Kind() Kind { return KindLinear }

// Predict evaluates the line at every spend value.
func (l *Linear) Predict(spend []float64) ([]float64, error) {
	out := make([]float64, len(spend))
	for i, x := range spend {
		out[i] = l.slope*x + l.intercept
	}
	return out, nil
}

// Polynomial evaluates coefficients in ascending powers of spend.
type Polynomial struct {
	coefficients []float64
}

// NewPolynomial builds a polynomial regressor from at least one coefficient.
func NewPolynomial(coefficients []float64) (*Polynomial, error) {
	if len(coefficients) == 0 {
		return nil, eris.New("model: polynomial needs at least one coefficient")
	}
	if err := checkFinite("polynomial coefficients", coefficients); err != nil {
		return nil, err
	}
	return &Polynomial{coefficients: append([]float64(nil), coefficients...)}, nil
}

// Kind returns KindPolynomial.
func (p *Polynomial) Kind() Kind { return KindPolynomial }

// Predict evaluates the polynomial with Horner's method.
func (p *Polynomial) Predict(spend []float64) ([]float64, error) {
	out := make([]float64, len(spend))
	last := len(p.coefficients) - 1
	for i, x := range spend {
		acc := p.coefficients[last]
		for k := last - 1; k >= 0; k-- {
			acc = acc*x + p.coefficients[k]
		}
		out[i] = acc
	}
	return out, nil
}

// Table interpolates linearly between knots and holds the end values outside them.
type Table struct {
	spend []float64
	reach []float64
}

// NewTable builds a table from at least two knots with strictly increasing spend.
func NewTable(spend, reach []float64) (*Table, error) {
	if len(spend) != len(reach) {
		return nil, eris.Errorf("model: table has %d spend knots but %d reach knots", len(spend), len(reach))
	}
	if len(spend) < 2 {
		return nil, eris.New("model: table needs at least two knots")
	}
	for i := 1; i < len(spend); i++ {
		if spend[i] <= spend[i-1] {
			return nil, eris.Errorf("model: table spend knots must strictly increase (index %d)", i)
		}
	}
	if err := checkFinite("table reach", reach); err != nil {
		return nil, err
	}
	return &Table{
		spend: append([]float64(nil), spend...),
		reach: append([]float64(nil), reach...),
	}, nil
}

// Kind returns KindTable.
func (t *Table) Kind() Kind { return KindTable }

// Predict interpolates every spend value.
func (t *Table) Predict(spend []float64) ([]float64, error) {
	last := len(t.spend) - 1
	out := make([]float64, len(spend))
	for i, x := range spend {
		switch {
		case x <= t.spend[0]:
			out[i] = t.reach[0]
		case x >= t.spend[last]:
			out[i] = t.reach[last]
		default:
			j := sort.SearchFloat64s(t.spend, x)
			if t.spend[j] == x {
				out[i] = t.reach[j]
				continue
			}
			x0, x1 := t.spend[j-1], t.spend[j]
			y0, y1 := t.reach[j-1], t.reach[j]
			out[i] = y0 + (y1-y0)*(x-x0)/(x1-x0)
		}
	}
	return out, nil
}

// Hill is a saturating response curve max * x^shape / (half^shape + x^shape).
type Hill struct {
	max   float64
	half  float64
	shape float64
}

// NewHill builds a Hill curve. halfSaturation and shape must be positive.
func NewHill(max, halfSaturation, shape float64) (*Hill, error) {
	if halfSaturation <= 0 || shape <= 0 {
		return nil, eris.Errorf("model: hill needs positive halfSaturation and shape, got %v and %v", halfSaturation, shape)
	}
	if err := checkFinite("hill parameters", []float64{max, halfSaturation, shape}); err != nil {
		return nil, err
	}
	return &Hill{max: max, half: halfSaturation, shape: shape}, nil
}

// Kind returns KindHill.
func (h *Hill) Kind() Kind { return KindHill }

// Predict evaluates the curve at every spend value. Non-positive spend yields zero.
func (h *Hill) Predict(spend []float64) ([]float64, error) {
	out := make([]float64, len(spend))
	halfPow := math.Pow(h.half, h.shape)
	for i, x := range spend {
		if x <= 0 {
			continue
		}
		xp := math.Pow(x, h.shape)
		out[i] = h.max * xp / (halfPow + xp)
	}
	return out, nil
}

func checkFinite(what string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eris.Errorf("model: %s[%d] is not finite", what, i)
		}
	}
	return nil
}
