// Package model decodes fitted spend to reach regressors and evaluates them.
package model

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// Kind identifies the regressor family stored in an artifact.
type Kind string

const (
	KindTree       Kind = "tree"
	KindForest     Kind = "forest"
	KindLinear     Kind = "linear"
	KindPolynomial Kind = "polynomial"
	KindTable      Kind = "table"
	KindHill       Kind = "hill"
)

// IsValid checks if the kind is known.
func (k Kind) IsValid() bool {
	switch k {
	case KindTree, KindForest, KindLinear, KindPolynomial, KindTable, KindHill:
		return true
	}
	return false
}

// String returns string representation.
func (k Kind) String() string {
	return string(k)
}

// Regressor maps a batch of spend values to predicted reach.
type Regressor interface {
	// Kind returns the regressor family.
	Kind() Kind

	// Predict returns one reach estimate per spend value, in order.
	Predict(spend []float64) ([]float64, error)
}

// Artifact is the on-disk JSON form of a fitted regressor. Only the fields of the
// declared kind are read.
type Artifact struct {
	Kind Kind `json:"kind"`

	// tree
	Thresholds []float64 `json:"thresholds,omitempty"`
	Values     []float64 `json:"values,omitempty"`

	// forest
	Trees []Artifact `json:"trees,omitempty"`

	// linear
	Slope     float64 `json:"slope,omitempty"`
	Intercept float64 `json:"intercept,omitempty"`

	// polynomial, ascending powers
	Coefficients []float64 `json:"coefficients,omitempty"`

	// table
	Spend []float64 `json:"spend,omitempty"`
	Reach []float64 `json:"reach,omitempty"`

	// hill
	Max            float64 `json:"max,omitempty"`
	HalfSaturation float64 `json:"halfSaturation,omitempty"`
	Shape          float64 `json:"shape,omitempty"`
}

// Decode reads a JSON artifact and builds its regressor.
func Decode(r io.Reader) (Regressor, error) {
	var art Artifact
	if err := json.NewDecoder(r).Decode(&art); err != nil {
		return nil, eris.Wrap(err, "model: decode artifact")
	}
	return Build(art)
}

// LoadFile opens and decodes the artifact at path.
func LoadFile(path string) (Regressor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: open %s", path)
	}
	defer f.Close()

	reg, err := Decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "model: load %s", path)
	}
	return reg, nil
}

// Build creates the regressor described by art.
func Build(art Artifact) (Regressor, error) {
	switch art.Kind {
	case KindTree:
		return NewTree(art.Thresholds, art.Values)

	case KindForest:
		trees := make([]*Tree, 0, len(art.Trees))
		for i, sub := range art.Trees {
			if sub.Kind != "" && sub.Kind != KindTree {
				return nil, eris.Errorf("model: forest member %d has kind %q, want %q", i, sub.Kind, KindTree)
			}
			tree, err := NewTree(sub.Thresholds, sub.Values)
			if err != nil {
				return nil, eris.Wrapf(err, "model: forest member %d", i)
			}
			trees = append(trees, tree)
		}
		return NewForest(trees)

	case KindLinear:
		return NewLinear(art.Slope, art.Intercept)

	case KindPolynomial:
		return NewPolynomial(art.Coefficients)

	case KindTable:
		return NewTable(art.Spend, art.Reach)

	case KindHill:
		return NewHill(art.Max, art.HalfSaturation, art.Shape)

	default:
		return nil, eris.Errorf("model: unknown kind %q", art.Kind)
	}
}
