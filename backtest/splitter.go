// Package backtest generates rolling origin fold masks and scores backtest forecasts
package backtest

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-taxiforecaster/timedataset"
)

var (
	ErrInvalidParameter = errors.New("invalid backtest parameter")
	ErrInsufficientData = errors.New("insufficient data for backtest configuration")
)

const (
	DefaultHorizon    = 24
	DefaultWindowSize = 2
	DefaultNumFolds   = 3
)

// SplitOptions configures the sliding window splitter. WindowSize is in units of
// horizon blocks and sets how far the training window scrolls between folds.
type SplitOptions struct {
	Horizon    int `json:"horizon"`
	WindowSize int `json:"window_size"`
	NumFolds   int `json:"n_folds"`
}

// NewDefaultSplitOptions returns a 24 step horizon with 3 folds shifted by 2 horizons
func NewDefaultSplitOptions() *SplitOptions {
	return &SplitOptions{
		Horizon:    DefaultHorizon,
		WindowSize: DefaultWindowSize,
		NumFolds:   DefaultNumFolds,
	}
}

// Validate checks that every parameter is a positive integer
func (o *SplitOptions) Validate() error {
	if o.Horizon < 1 {
		return fmt.Errorf("horizon must be at least 1, got %d, %w", o.Horizon, ErrInvalidParameter)
	}
	if o.WindowSize < 1 {
		return fmt.Errorf("window size must be at least 1, got %d, %w", o.WindowSize, ErrInvalidParameter)
	}
	if o.NumFolds < 1 {
		return fmt.Errorf("number of folds must be at least 1, got %d, %w", o.NumFolds, ErrInvalidParameter)
	}
	return nil
}

// Step returns the number of points the training window shifts between folds
func (o *SplitOptions) Step() int {
	return o.WindowSize * o.Horizon
}

// MinObservations returns the smallest series length that yields a training window of at
// least one point beyond the shifted blocks
func (o *SplitOptions) MinObservations() int {
	return o.NumFolds*o.Step() + o.Horizon + 1
}

// TrainingSize returns the number of points each fold trains on besides the step block
func (o *SplitOptions) TrainingSize(total int) int {
	return total - o.NumFolds*o.Step() - o.Horizon
}

// SlidingWindow computes NumFolds fold masks over idx. Every fold trains on a window of
// identical length that advances by WindowSize*Horizon points and targets the Horizon
// points immediately following it. The last fold's targets end on the last index point.
func SlidingWindow(idx *timedataset.Index, opt *SplitOptions) ([]FoldMask, error) {
	if opt == nil {
		opt = NewDefaultSplitOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if idx.Len() == 0 {
		return nil, fmt.Errorf("empty time index, %w", ErrInvalidParameter)
	}

	step := opt.Step()
	trainingSize := opt.TrainingSize(idx.Len())
	if trainingSize < 1 {
		return nil, fmt.Errorf(
			"%d observations with %d folds of %d steps and a horizon of %d leaves a training size of %d, need at least %d observations, %w",
			idx.Len(), opt.NumFolds, step, opt.Horizon, trainingSize, opt.MinObservations(), ErrInsufficientData,
		)
	}

	masks := make([]FoldMask, 0, opt.NumFolds)
	start := idx.Start()
	for n := 0; n < opt.NumFolds; n++ {
		firstTrain := idx.Offset(start, n*step)
		lastTrain := idx.Offset(firstTrain, trainingSize+step-1)
		masks = append(masks, FoldMask{
			FirstTrainTimestamp: firstTrain,
			LastTrainTimestamp:  lastTrain,
			TargetTimestamps:    idx.Range(idx.Offset(lastTrain, 1), opt.Horizon),
		})
	}
	return masks, nil
}
