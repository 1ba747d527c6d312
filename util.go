package forecaster

import (
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-taxiforecaster/pipeline"
	"github.com/aouyang1/go-taxiforecaster/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// missingValue is how echarts expects a gap in a line
const missingValue = "-"

func lineData(y []float64) []opts.LineData {
	data := make([]opts.LineData, len(y))
	for i, v := range y {
		if math.IsNaN(v) {
			data[i] = opts.LineData{Value: missingValue}
			continue
		}
		data[i] = opts.LineData{Value: v}
	}
	return data
}

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. The input
// y is a slice of series that must have the same length as the input time slice. NaN values are
// drawn as gaps.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	line = line.SetXAxis(t)
	for i, series := range seriesName {
		line = line.AddSeries(series, lineData(y[i]))
	}
	return line
}

// LineSample plots every segment of the sampled history
func LineSample(sample *timedataset.Dataset) *charts.Line {
	segments := sample.Segments()
	y := make([][]float64, 0, len(segments))
	for _, seg := range segments {
		vals, err := sample.Values(seg)
		if err != nil {
			continue
		}
		y = append(y, vals)
	}
	title := fmt.Sprintf("Data sample, %d days", sample.Days())
	return LineTSeries(title, segments, sample.Index().Times(), y)
}

// LineBacktest plots the actual values of a segment starting historyLen points before the first
// fold target along with one forecast series per fold
func LineBacktest(sample *timedataset.Dataset, bt *pipeline.BacktestResult, segment string, historyLen int) (*charts.Line, error) {
	actual, err := sample.Values(segment)
	if err != nil {
		return nil, err
	}
	idx := sample.Index()
	if len(bt.Folds) == 0 {
		return nil, fmt.Errorf("nothing to plot, %w", pipeline.ErrNoFolds)
	}

	first, ok := idx.Position(bt.Folds[0].TestStart)
	if !ok {
		return nil, fmt.Errorf("fold target start %s, %w", bt.Folds[0].TestStart, timedataset.ErrOutOfIndex)
	}
	first = max(first-max(historyLen, 0), 0)
	t := idx.Times()[first:]

	names := []string{"Actual"}
	y := [][]float64{actual[first:]}
	for _, fold := range bt.Folds {
		forecast := make([]float64, len(t))
		for i := range forecast {
			forecast[i] = math.NaN()
		}
		names = append(names, fmt.Sprintf("Fold %d", fold.Fold))
		y = append(y, forecast)
	}
	for _, p := range bt.SegmentForecasts(segment) {
		pos, ok := idx.Position(p.Timestamp)
		if !ok || pos < first || p.Fold < 0 || p.Fold >= len(bt.Folds) {
			continue
		}
		y[p.Fold+1][pos-first] = p.Predicted
	}
	return LineTSeries("Backtest "+segment, names, t, y), nil
}
