package boosting

import (
	"bytes"
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func stepData(n int) (*mat.Dense, []float64) {
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x.Set(i, 0, float64(i/10))
		// noise feature with no signal
		x.Set(i, 1, float64((i*37)%11))
		if i >= n/2 {
			y[i] = 10
		}
	}
	return x, y
}

func TestRegressorStepFunction(t *testing.T) {
	x, y := stepData(200)

	reg, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, reg.Fit(x, y))

	res, err := reg.Predict(mat.NewDense(4, 2, []float64{
		1, 3,
		9, 0,
		10, 5,
		19, 7,
	}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0, 10, 10}, res, 0.1)

	m := reg.Model()
	require.NotNil(t, m)
	assert.Len(t, m.Trees, DefaultIterations)
	assert.Equal(t, 2, m.NumFeatures)
	assert.InDelta(t, 5.0, m.BaseScore, 1e-9)
	assert.NoError(t, m.Validate())
}

func TestRegressorNaNFeatures(t *testing.T) {
	n := 200
	x := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case i < 50:
			x.Set(i, 0, math.NaN())
		case i < 100:
			x.Set(i, 0, float64(i/10))
		default:
			x.Set(i, 0, float64(i/10))
			y[i] = 10
		}
	}

	reg, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, reg.Fit(x, y))

	res, err := reg.Predict(mat.NewDense(2, 1, []float64{math.NaN(), 15}))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res[0], 0.1)
	assert.InDelta(t, 10.0, res[1], 0.1)
}

func TestRegressorErrors(t *testing.T) {
	reg, err := New(nil)
	require.NoError(t, err)

	_, err = reg.Predict(mat.NewDense(1, 1, nil))
	assert.ErrorIs(t, err, ErrUnfitModel)

	x, y := stepData(20)
	testData := map[string]struct {
		x   mat.Matrix
		y   []float64
		err error
	}{
		"nil matrix":      {x: nil, y: y, err: ErrNoTrainingData},
		"length mismatch": {x: x, y: y[:5], err: ErrTargetLenMismatch},
		"nan target":      {x: x, y: append([]float64{math.NaN()}, y[1:]...), err: ErrNaNTarget},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, reg.Fit(td.x, td.y), td.err)
		})
	}

	require.NoError(t, reg.Fit(x, y))
	_, err = reg.Predict(mat.NewDense(1, 3, nil))
	assert.ErrorIs(t, err, ErrFeatureLenMismatch)
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		mutate func(o *Options)
		err    error
	}{
		"default":            {mutate: func(o *Options) {}},
		"no iterations":      {mutate: func(o *Options) { o.Iterations = 0 }, err: ErrInvalidOptions},
		"learning rate zero": {mutate: func(o *Options) { o.LearningRate = 0 }, err: ErrInvalidOptions},
		"learning rate high": {mutate: func(o *Options) { o.LearningRate = 1.5 }, err: ErrInvalidOptions},
		"no depth":           {mutate: func(o *Options) { o.MaxDepth = 0 }, err: ErrInvalidOptions},
		"no leaf samples":    {mutate: func(o *Options) { o.MinSamplesLeaf = 0 }, err: ErrInvalidOptions},
		"negative l2":        {mutate: func(o *Options) { o.L2Reg = -1 }, err: ErrInvalidOptions},
		"too many bins":      {mutate: func(o *Options) { o.MaxBins = 1000 }, err: ErrInvalidOptions},
		"single bin":         {mutate: func(o *Options) { o.MaxBins = 1 }, err: ErrInvalidOptions},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt := NewDefaultOptions()
			td.mutate(opt)
			_, err := New(opt)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestModelSaveLoad(t *testing.T) {
	x, y := stepData(100)
	reg, err := New(&Options{
		Iterations:     20,
		LearningRate:   0.3,
		MaxDepth:       3,
		MinSamplesLeaf: 2,
		L2Reg:          0.5,
		MaxBins:        16,
	})
	require.NoError(t, err)
	require.NoError(t, reg.Fit(x, y))

	var buf bytes.Buffer
	require.NoError(t, reg.Model().Save(&buf))

	m, err := LoadModel(&buf)
	require.NoError(t, err)
	loaded, err := NewFromModel(m)
	require.NoError(t, err)

	expected, err := reg.Predict(x)
	require.NoError(t, err)
	actual, err := loaded.Predict(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, expected, actual, 1e-12)

	_, err = NewFromModel(nil)
	assert.ErrorIs(t, err, ErrUnfitModel)
}

func TestModelValidate(t *testing.T) {
	testData := map[string]struct {
		model string
		err   error
	}{
		"valid": {
			model: `{"n_features":1,"base_score":1,"learning_rate":0.1,"trees":[{"nodes":[
				{"feature":0,"threshold":1,"left":1,"right":2},
				{"left":-1,"right":-1,"value":-1},
				{"left":-1,"right":-1,"value":1}]}]}`,
		},
		"no features": {
			model: `{"n_features":0,"trees":[]}`,
			err:   ErrInvalidModel,
		},
		"unknown feature": {
			model: `{"n_features":1,"trees":[{"nodes":[
				{"feature":3,"threshold":1,"left":1,"right":2},
				{"left":-1,"right":-1},
				{"left":-1,"right":-1}]}]}`,
			err: ErrInvalidModel,
		},
		"dangling child": {
			model: `{"n_features":1,"trees":[{"nodes":[{"feature":0,"threshold":1,"left":1,"right":7},{"left":-1,"right":-1}]}]}`,
			err:   ErrInvalidModel,
		},
		"empty tree": {
			model: `{"n_features":1,"trees":[{"nodes":[]}]}`,
			err:   ErrInvalidModel,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var m Model
			require.NoError(t, json.Unmarshal([]byte(td.model), &m))
			err := m.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)

			reg, err := NewFromModel(&m)
			require.NoError(t, err)
			res, err := reg.Predict(mat.NewDense(3, 1, []float64{0, 5, math.NaN()}))
			require.NoError(t, err)
			assert.InDeltaSlice(t, []float64{0.9, 1.1, 0.9}, res, 1e-12)
		})
	}
}

func TestQuantileBorders(t *testing.T) {
	testData := map[string]struct {
		sorted   []float64
		maxBins  int
		expected []float64
	}{
		"empty":          {sorted: nil, maxBins: 4},
		"single value":   {sorted: []float64{3, 3, 3}, maxBins: 4, expected: []float64{}},
		"few unique":     {sorted: []float64{1, 1, 2, 3}, maxBins: 4, expected: []float64{1, 2}},
		"quantiles":      {sorted: []float64{1, 2, 3, 4, 5, 6, 7, 8}, maxBins: 4, expected: []float64{3, 5, 7}},
		"heavy last bin": {sorted: []float64{1, 2, 3, 4, 9, 9, 9, 9, 9, 9, 9, 9}, maxBins: 4, expected: []float64{4}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, quantileBorders(td.sorted, td.maxBins))
		})
	}
}

func BenchmarkRegressorFit(b *testing.B) {
	x, y := stepData(2000)
	for b.Loop() {
		reg, err := New(nil)
		if err != nil {
			b.Fatal(err)
		}
		if err := reg.Fit(x, y); err != nil {
			b.Fatal(err)
		}
	}
}
