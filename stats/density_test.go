package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDensityOutliers(t *testing.T) {
	flat := func(n int) []float64 {
		y := make([]float64, n)
		for i := range y {
			y[i] = 10 + float64(i%3)
		}
		return y
	}

	testData := map[string]struct {
		y        []float64
		opt      *DensityOptions
		expected []int
	}{
		"no outliers": {
			y: flat(40),
		},
		"single spike": {
			y: func() []float64 {
				y := flat(40)
				y[20] = 1000
				return y
			}(),
			expected: []int{20},
		},
		"spike at the edges": {
			y: func() []float64 {
				y := flat(40)
				y[0] = 500
				y[39] = -500
				return y
			}(),
			expected: []int{0, 39},
		},
		"nan ignored": {
			y: func() []float64 {
				y := flat(40)
				y[5] = math.NaN()
				y[30] = 1000
				return y
			}(),
			expected: []int{30},
		},
		"shorter than window": {
			y: []float64{1, 2, 1000},
		},
		"constant series": {
			y: []float64{
				5, 5, 5, 5, 5, 5, 5, 5, 5, 5,
				5, 5, 5, 5, 5, 5, 5, 5, 5, 5,
			},
			opt: &DensityOptions{WindowSize: 5, NumNeighbors: 2, DistanceCoef: 3.0},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := DetectDensityOutliers(td.y, td.opt)
			require.NoError(t, err)
			if len(td.expected) == 0 {
				assert.Empty(t, res)
				return
			}
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestDensityOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt *DensityOptions
		err error
	}{
		"default":           {opt: NewDefaultDensityOptions()},
		"zero window":       {opt: &DensityOptions{WindowSize: 0, NumNeighbors: 1, DistanceCoef: 1}, err: ErrInvalidDensityOptions},
		"too many neighbor": {opt: &DensityOptions{WindowSize: 3, NumNeighbors: 3, DistanceCoef: 1}, err: ErrInvalidDensityOptions},
		"zero coefficient":  {opt: &DensityOptions{WindowSize: 3, NumNeighbors: 1, DistanceCoef: 0}, err: ErrInvalidDensityOptions},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
