package forecaster

import (
	"fmt"
	"slices"
	"time"

	"github.com/aouyang1/go-taxiforecaster/backtest"
	"github.com/aouyang1/go-taxiforecaster/boosting"
	"github.com/aouyang1/go-taxiforecaster/transform"
)

const (
	// Horizon is the number of hours forecast past every training window
	Horizon = backtest.DefaultHorizon
	// HistoryLen is the number of hours shown before the first backtest fold
	HistoryLen = 3 * Horizon

	MinNumberOfLags = 1
	MaxNumberOfLags = 10
	MinMeanWindow   = 2
	MaxMeanWindow   = 24
	MinWindowSize   = 1
	MaxWindowSize   = 5
	MinNumFolds     = 1
	MaxNumFolds     = 5
)

var (
	ErrInvalidParameter = backtest.ErrInvalidParameter
	ErrInsufficientData = backtest.ErrInsufficientData
)

// DateBounds restricts the selectable sample range
type DateBounds struct {
	FromMin time.Time `json:"from_min"`
	FromMax time.Time `json:"from_max"`
	ToMin   time.Time `json:"to_min"`
	ToMax   time.Time `json:"to_max"`
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DefaultDateBounds covers the March through August 2018 taxi order history
var DefaultDateBounds = DateBounds{
	FromMin: date(2018, 3, 1),
	FromMax: date(2018, 7, 1),
	ToMin:   date(2018, 4, 30),
	ToMax:   date(2018, 8, 31),
}

// Options are the user selectable settings of a forecasting session. Dates are calendar
// days, the sample covers DateTo entirely.
type Options struct {
	DateFrom           time.Time         `json:"date_from"`
	DateTo             time.Time         `json:"date_to"`
	NumberOfLags       int               `json:"number_of_lags"`
	MeanWindow         int               `json:"mean_window"`
	Transforms         []transform.Kind  `json:"transforms"`
	BacktestWindowSize int               `json:"backtest_window_size"`
	NumFolds           int               `json:"n_folds"`
	Model              *boosting.Options `json:"model,omitempty"`
}

// NewDefaultOptions returns May through August with a week of daily lags, a 3 hour mean
// and a single fold
func NewDefaultOptions() *Options {
	return &Options{
		DateFrom:           date(2018, 5, 1),
		DateTo:             date(2018, 8, 31),
		NumberOfLags:       7,
		MeanWindow:         3,
		BacktestWindowSize: 1,
		NumFolds:           1,
		Model:              boosting.NewDefaultOptions(),
	}
}

// Copy returns a deep copy of the options
func (o *Options) Copy() *Options {
	c := *o
	c.Transforms = slices.Clone(o.Transforms)
	if o.Model != nil {
		m := *o.Model
		c.Model = &m
	}
	return &c
}

func checkRange(name string, val, lower, upper int) error {
	if val < lower || val > upper {
		return fmt.Errorf("%s must be in [%d, %d], got %d, %w", name, lower, upper, val, ErrInvalidParameter)
	}
	return nil
}

func checkDate(name string, val, lower, upper time.Time) error {
	if val.Before(lower) || val.After(upper) {
		return fmt.Errorf("%s must be between %s and %s, got %s, %w",
			name, lower.Format(time.DateOnly), upper.Format(time.DateOnly), val.Format(time.DateOnly), ErrInvalidParameter)
	}
	return nil
}

// Validate checks every option against its bounds
func (o *Options) Validate() error {
	if err := checkDate("from date", o.DateFrom, DefaultDateBounds.FromMin, DefaultDateBounds.FromMax); err != nil {
		return err
	}
	if err := checkDate("to date", o.DateTo, DefaultDateBounds.ToMin, DefaultDateBounds.ToMax); err != nil {
		return err
	}
	if o.DateTo.Before(o.DateFrom) {
		return fmt.Errorf("to date %s is before from date %s, %w",
			o.DateTo.Format(time.DateOnly), o.DateFrom.Format(time.DateOnly), ErrInvalidParameter)
	}
	if err := checkRange("number of lags", o.NumberOfLags, MinNumberOfLags, MaxNumberOfLags); err != nil {
		return err
	}
	if err := checkRange("mean window", o.MeanWindow, MinMeanWindow, MaxMeanWindow); err != nil {
		return err
	}
	if err := checkRange("backtest window size", o.BacktestWindowSize, MinWindowSize, MaxWindowSize); err != nil {
		return err
	}
	if err := checkRange("number of folds", o.NumFolds, MinNumFolds, MaxNumFolds); err != nil {
		return err
	}
	for _, k := range o.Transforms {
		if _, err := k.MarshalText(); err != nil {
			return fmt.Errorf("%w, %w", ErrInvalidParameter, err)
		}
	}
	if o.Model != nil {
		if err := o.Model.Validate(); err != nil {
			return fmt.Errorf("%w, %w", ErrInvalidParameter, err)
		}
	}
	return nil
}

// SplitOptions returns the sliding window settings for the backtest
func (o *Options) SplitOptions() *backtest.SplitOptions {
	return &backtest.SplitOptions{
		Horizon:    Horizon,
		WindowSize: o.BacktestWindowSize,
		NumFolds:   o.NumFolds,
	}
}

// Selection returns the transforms selection of the options
func (o *Options) Selection() transform.Selection {
	return transform.Selection{
		NumberOfLags: o.NumberOfLags,
		MeanWindow:   o.MeanWindow,
		Optional:     slices.Clone(o.Transforms),
	}
}
