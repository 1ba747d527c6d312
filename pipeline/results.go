package pipeline

import (
	"math"
	"time"
)

// MetricRow holds the accuracy of one segment in one fold
type MetricRow struct {
	Segment string  `json:"segment"`
	Fold    int     `json:"fold_number"`
	SMAPE   float64 `json:"smape"`
	MAE     float64 `json:"mae"`
	MSE     float64 `json:"mse"`
}

// ForecastPoint is one predicted target timestamp of a fold
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Segment   string    `json:"segment"`
	Fold      int       `json:"fold_number"`
	Predicted float64   `json:"predicted"`
	Actual    float64   `json:"actual"`
}

// FoldInfo describes the train and test ranges of a fold
type FoldInfo struct {
	Fold       int       `json:"fold_number"`
	TrainStart time.Time `json:"train_start_time"`
	TrainEnd   time.Time `json:"train_end_time"`
	TestStart  time.Time `json:"test_start_time"`
	TestEnd    time.Time `json:"test_end_time"`
}

type BacktestResult struct {
	Metrics   []MetricRow     `json:"metrics"`
	Forecasts []ForecastPoint `json:"forecasts"`
	Folds     []FoldInfo      `json:"folds"`
}

// MeanSMAPE averages the SMAPE of every metric row, skipping NaN scores. Returns NaN when
// no row has a score.
func (r *BacktestResult) MeanSMAPE() float64 {
	var sum float64
	var n int
	for _, m := range r.Metrics {
		if math.IsNaN(m.SMAPE) {
			continue
		}
		sum += m.SMAPE
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// FoldSMAPE returns the SMAPE of each fold averaged across segments, ordered by fold
func (r *BacktestResult) FoldSMAPE() []float64 {
	sums := make([]float64, len(r.Folds))
	counts := make([]int, len(r.Folds))
	for _, m := range r.Metrics {
		if m.Fold < 0 || m.Fold >= len(sums) || math.IsNaN(m.SMAPE) {
			continue
		}
		sums[m.Fold] += m.SMAPE
		counts[m.Fold]++
	}
	for i := range sums {
		if counts[i] == 0 {
			sums[i] = math.NaN()
			continue
		}
		sums[i] /= float64(counts[i])
	}
	return sums
}

// SegmentForecasts returns the forecast points of a segment in fold and time order
func (r *BacktestResult) SegmentForecasts(segment string) []ForecastPoint {
	var res []ForecastPoint
	for _, p := range r.Forecasts {
		if p.Segment == segment {
			res = append(res, p)
		}
	}
	return res
}
