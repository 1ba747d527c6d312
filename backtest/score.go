package backtest

import (
	"errors"
	"fmt"
	"math"
)

var ErrResLenMismatch = errors.New("predicted and actual have different lengths")

// smapeEps guards against division by zero when both actual and predicted are 0
const smapeEps = 1e-15

// Scores tracks the accuracy of a forecast against the actual values
type Scores struct {
	SMAPE float64 `json:"smape"`
	MAE   float64 `json:"mean_absolute_error"`
	MSE   float64 `json:"mean_squared_error"`
}

// NewScores calculates all scores given the predicted and actual input slice values
func NewScores(predicted, actual []float64) (*Scores, error) {
	smape, err := SMAPE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute symmetric mean absolute percent error, %w", err)
	}
	mae, err := MAE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean absolute error, %w", err)
	}
	mse, err := MSE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	return &Scores{
		SMAPE: smape,
		MAE:   mae,
		MSE:   mse,
	}, nil
}

// SMAPE calculates the symmetric mean absolute percent error in percent. This is the same as
// 100/n * sum(2*abs(yhat-y)/(abs(y)+abs(yhat))). A score of 0 means a perfect match. Pairs
// with a NaN are skipped.
func SMAPE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	var smape float64
	var n int
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		denom := math.Max(math.Abs(actual[i])+math.Abs(predicted[i]), smapeEps)
		smape += 2.0 * math.Abs(predicted[i]-actual[i]) / denom
		n++
	}
	if n == 0 {
		return math.NaN(), nil
	}
	return 100.0 * smape / float64(n), nil
}

// MAE computes the mean absolute error. Pairs with a NaN are skipped.
func MAE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	var mae float64
	var n int
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		mae += math.Abs(actual[i] - predicted[i])
		n++
	}
	if n == 0 {
		return math.NaN(), nil
	}
	return mae / float64(n), nil
}

// MSE computes the mean squared error. Pairs with a NaN are skipped.
func MSE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	var mse float64
	var n int
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		mse += math.Pow(actual[i]-predicted[i], 2.0)
		n++
	}
	if n == 0 {
		return math.NaN(), nil
	}
	return mse / float64(n), nil
}
