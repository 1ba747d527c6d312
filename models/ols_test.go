package models

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func denseFromRows(rows [][]float64) *mat.Dense {
	data := make([]float64, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), len(rows[0]), data)
}

func TestOLSRegression(t *testing.T) {
	tol := 1e-5
	testData := map[string]struct {
		x         [][]float64
		y         []float64
		opt       *OLSOptions
		intercept float64
		coef      []float64
	}{
		"ols model intercept": {
			x: [][]float64{
				{0, 0},
				{3, 5},
				{9, 20},
				{12, 6},
				{15, 10},
			},
			y:         []float64{2, 31, 109, 62, 87},
			intercept: 2.0,
			coef:      []float64{3.0, 4.0},
		},
		"ols model no intercept": {
			x: [][]float64{
				{1, 0, 0},
				{1, 3, 5},
				{1, 9, 20},
				{1, 12, 6},
				{1, 15, 10},
			},
			y: []float64{2, 31, 109, 62, 87},
			opt: &OLSOptions{
				FitIntercept: false,
			},
			intercept: 0.0,
			coef:      []float64{2.0, 3.0, 4.0},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			x := denseFromRows(td.x)
			model := NewOLSRegression(td.opt)
			require.Nil(t, model.Fit(x, td.y))

			assert.InDelta(t, td.intercept, model.Intercept(), tol)
			assert.InDeltaSlice(t, td.coef, model.Coef(), tol)

			r2, err := model.Score(x, td.y)
			require.Nil(t, err)
			assert.InDelta(t, 1.0, r2, tol)
		})
	}
}

func TestOLSRegressionErrors(t *testing.T) {
	model := NewOLSRegression(nil)

	_, err := model.Predict(mat.NewDense(1, 1, nil))
	assert.ErrorIs(t, err, ErrUnfitModel)

	x := denseFromRows([][]float64{{1}, {2}, {3}})
	assert.ErrorIs(t, model.Fit(x, []float64{1, 2}), ErrTargetLenMismatch)
	assert.ErrorIs(t, model.Fit(nil, []float64{1}), ErrNoDesignMatrix)
	assert.ErrorIs(t, model.Fit(x, nil), ErrNoTargetArray)
	assert.ErrorIs(t, model.Fit(denseFromRows([][]float64{{1, 2}}), []float64{1}), ErrSingularMatrix)

	require.NoError(t, model.Fit(x, []float64{2, 4, 6}))
	_, err = model.Predict(denseFromRows([][]float64{{1, 2}}))
	assert.ErrorIs(t, err, ErrFeatureLenMismatch)
}

func BenchmarkOLSRegression(b *testing.B) {
	nObs, nFeat := 1000, 20
	x := mat.NewDense(nObs, nFeat, nil)
	y := make([]float64, nObs)
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < nObs; i++ {
		for j := 0; j < nFeat; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
		y[i] = float64(i)
	}

	for b.Loop() {
		model := NewOLSRegression(nil)
		if err := model.Fit(x, y); err != nil {
			b.Fatal(err)
		}
	}
}
