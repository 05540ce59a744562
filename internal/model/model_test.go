package model

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_IsValid(t *testing.T) {
	for _, k := range []Kind{KindTree, KindForest, KindLinear, KindPolynomial, KindTable, KindHill} {
		assert.True(t, k.IsValid(), k.String())
	}
	assert.False(t, Kind("joblib").IsValid())
}

func TestTree_Predict(t *testing.T) {
	tree, err := NewTree([]float64{10, 20}, []float64{1, 2, 3})
	require.NoError(t, err)

	got, err := tree.Predict([]float64{5, 10, 15, 20, 25})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 2, 2, 3}, got)
}

func TestTree_Invalid(t *testing.T) {
	_, err := NewTree([]float64{10, 20}, []float64{1, 2})
	assert.Error(t, err)

	_, err = NewTree([]float64{20, 10}, []float64{1, 2, 3})
	assert.Error(t, err)
}

func TestForest_AveragesTrees(t *testing.T) {
	a, err := NewTree([]float64{10}, []float64{0, 10})
	require.NoError(t, err)
	b, err := NewTree([]float64{20}, []float64{2, 4})
	require.NoError(t, err)

	forest, err := NewForest([]*Tree{a, b})
	require.NoError(t, err)

	got, err := forest.Predict([]float64{5, 15, 25})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 6, 7}, got, 1e-12)

	_, err = NewForest(nil)
	assert.Error(t, err)
}

func TestLinearAndPolynomial(t *testing.T) {
	lin, err := NewLinear(2, 1)
	require.NoError(t, err)
	got, err := lin.Predict([]float64{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 5}, got)

	poly, err := NewPolynomial([]float64{1, 0, 2})
	require.NoError(t, err)
	got, err = poly.Predict([]float64{0, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 19}, got)

	_, err = NewPolynomial(nil)
	assert.Error(t, err)
}

func TestNewLinear_RejectsNonFinite(t *testing.T) {
	tests := []struct {
		name             string
		slope, intercept float64
	}{
		{"nan slope", math.NaN(), 0},
		{"infinite slope", math.Inf(1), 0},
		{"nan intercept", 1, math.NaN()},
		{"infinite intercept", 1, math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lin, err := NewLinear(tt.slope, tt.intercept)
			require.Error(t, err)
			assert.Nil(t, lin)
			assert.Contains(t, err.Error(), "not finite")

			_, err = Build(Artifact{Kind: KindLinear, Slope: tt.slope, Intercept: tt.intercept})
			assert.Error(t, err)
		})
	}
}

func TestTable_Interpolates(t *testing.T) {
	table, err := NewTable([]float64{0, 10, 20}, []float64{0, 100, 150})
	require.NoError(t, err)

	got, err := table.Predict([]float64{-5, 0, 5, 10, 15, 30})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0, 50, 100, 125, 150}, got, 1e-12)

	_, err = NewTable([]float64{0, 0}, []float64{1, 2})
	assert.Error(t, err)
}

func TestHill_Saturates(t *testing.T) {
	hill, err := NewHill(80, 1000, 1)
	require.NoError(t, err)

	got, err := hill.Predict([]float64{0, 1000, 1e12})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got[0])
	assert.InDelta(t, 40, got[1], 1e-9)
	assert.InDelta(t, 80, got[2], 1e-6)

	_, err = NewHill(80, 0, 1)
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		kind    Kind
		wantErr bool
	}{
		{"tree", `{"kind":"tree","thresholds":[1],"values":[0,1]}`, KindTree, false},
		{"forest", `{"kind":"forest","trees":[{"thresholds":[1],"values":[0,1]}]}`, KindForest, false},
		{"linear", `{"kind":"linear","slope":1}`, KindLinear, false},
		{"polynomial", `{"kind":"polynomial","coefficients":[1,2]}`, KindPolynomial, false},
		{"table", `{"kind":"table","spend":[1,2],"reach":[3,4]}`, KindTable, false},
		{"hill", `{"kind":"hill","max":50,"halfSaturation":10,"shape":1.2}`, KindHill, false},
		{"unknown kind", `{"kind":"joblib"}`, "", true},
		{"bad forest member", `{"kind":"forest","trees":[{"kind":"linear"}]}`, "", true},
		{"malformed json", `{"kind":`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := Decode(strings.NewReader(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, reg.Kind())
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Radio.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"linear","slope":0.5,"intercept":1}`), 0600))

	reg, err := LoadFile(path)
	require.NoError(t, err)
	got, err := reg.Predict([]float64{4})
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, got)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
