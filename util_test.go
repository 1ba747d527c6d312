package forecaster

import (
	"math"
	"testing"
	"time"

	"github.com/aouyang1/go-taxiforecaster/pipeline"
	"github.com/aouyang1/go-taxiforecaster/timedataset"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineData(t *testing.T) {
	data := lineData([]float64{1, math.NaN(), 3})
	assert.Equal(t, []opts.LineData{{Value: 1.0}, {Value: missingValue}, {Value: 3.0}}, data)
}

func TestLineBacktest(t *testing.T) {
	start := date(2018, 5, 1)
	ts := timedataset.GenerateHourlyT(start, 10)
	y := make([]float64, len(ts))
	for i := range y {
		y[i] = float64(i)
	}
	sample, err := timedataset.NewSingleSegmentDataset("a", ts, y)
	require.NoError(t, err)

	bt := &pipeline.BacktestResult{
		Folds: []pipeline.FoldInfo{
			{Fold: 0, TestStart: ts[6], TestEnd: ts[7]},
			{Fold: 1, TestStart: ts[8], TestEnd: ts[9]},
		},
		Forecasts: []pipeline.ForecastPoint{
			{Timestamp: ts[6], Segment: "a", Fold: 0, Predicted: 6.5},
			{Timestamp: ts[7], Segment: "a", Fold: 0, Predicted: 7.5},
			{Timestamp: ts[8], Segment: "a", Fold: 1, Predicted: 8.5},
			{Timestamp: ts[9], Segment: "a", Fold: 1, Predicted: 9.5},
			{Timestamp: ts[9], Segment: "b", Fold: 1, Predicted: 100},
		},
	}

	testData := map[string]struct {
		historyLen int
		expectedN  int
	}{
		"clipped history":  {historyLen: 2, expectedN: 6},
		"history too long": {historyLen: 100, expectedN: 10},
		"no history":       {historyLen: 0, expectedN: 4},
		"negative history": {historyLen: -3, expectedN: 4},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			line, err := LineBacktest(sample, bt, "a", td.historyLen)
			require.NoError(t, err)
			require.Len(t, line.MultiSeries, 3)
			assert.Equal(t, "Actual", line.MultiSeries[0].Name)
			assert.Equal(t, "Fold 0", line.MultiSeries[1].Name)
			assert.Equal(t, "Fold 1", line.MultiSeries[2].Name)

			actual := line.MultiSeries[0].Data.([]opts.LineData)
			assert.Len(t, actual, td.expectedN)
			assert.Equal(t, float64(10-td.expectedN), actual[0].Value)

			fold1 := line.MultiSeries[2].Data.([]opts.LineData)
			assert.Equal(t, 9.5, fold1[td.expectedN-1].Value)
			assert.Equal(t, missingValue, fold1[0].Value)
		})
	}

	_, err = LineBacktest(sample, bt, "missing", 2)
	assert.Error(t, err)

	_, err = LineBacktest(sample, &pipeline.BacktestResult{}, "a", 2)
	assert.ErrorIs(t, err, pipeline.ErrNoFolds)

	_, err = LineBacktest(sample, &pipeline.BacktestResult{
		Folds: []pipeline.FoldInfo{{TestStart: start.Add(-time.Hour)}},
	}, "a", 2)
	assert.ErrorIs(t, err, timedataset.ErrOutOfIndex)
}
