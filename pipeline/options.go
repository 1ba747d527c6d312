package pipeline

import (
	"fmt"

	"github.com/aouyang1/go-taxiforecaster/backtest"
	"github.com/aouyang1/go-taxiforecaster/boosting"
	"github.com/aouyang1/go-taxiforecaster/transform"
)

// Options configures a pipeline. Transforms are applied in slice order and cloned for every
// fit so the same options can back many pipelines.
type Options struct {
	Horizon    int                   `json:"horizon"`
	Transforms []transform.Transform `json:"transforms"`
	Model      *boosting.Options     `json:"model"`
}

// NewDefaultOptions forecasts a day ahead with a week of daily lags and a 3 hour mean
func NewDefaultOptions() *Options {
	transforms, err := transform.Selection{NumberOfLags: 7, MeanWindow: 3}.Build(backtest.DefaultHorizon)
	if err != nil {
		panic(err)
	}
	return &Options{
		Horizon:    backtest.DefaultHorizon,
		Transforms: transforms,
		Model:      boosting.NewDefaultOptions(),
	}
}

func (o *Options) Validate() error {
	if o.Horizon < 1 {
		return fmt.Errorf("horizon must be positive, got %d, %w", o.Horizon, ErrInvalidOptions)
	}
	for i := range o.Transforms {
		if err := o.Transforms[i].Validate(); err != nil {
			return fmt.Errorf("transform %d, %w", i, err)
		}
	}
	if o.Model == nil {
		return nil
	}
	return o.Model.Validate()
}
