// Package forecaster runs interactive taxi order forecasting sessions. A session holds the
// loaded history and the user options, samples the selected date range, splits it into
// sliding backtest folds and scores a boosted tree pipeline on them.
package forecaster

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aouyang1/go-taxiforecaster/backtest"
	"github.com/aouyang1/go-taxiforecaster/pipeline"
	"github.com/aouyang1/go-taxiforecaster/timedataset"
	"github.com/go-echarts/go-echarts/v2/components"
)

var ErrEmptyTimeDataset = errors.New("no timedataset or uninitialized")

// Forecaster is one forecasting session. It is not safe for concurrent use.
type Forecaster struct {
	opt *Options
	ds  *timedataset.Dataset

	results *Results
}

// New creates a session over ds using the provided options. If no options are provided
// a default is used.
func New(ds *timedataset.Dataset, opt *Options) (*Forecaster, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, ErrEmptyTimeDataset
	}
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return &Forecaster{
		opt: opt.Copy(),
		ds:  ds,
	}, nil
}

// Options returns a copy of the session options
func (f *Forecaster) Options() *Options {
	return f.opt.Copy()
}

// SetOptions replaces the session options. Invalid options leave the session unchanged.
func (f *Forecaster) SetOptions(opt *Options) error {
	if opt == nil {
		return fmt.Errorf("no options, %w", ErrInvalidParameter)
	}
	if err := opt.Validate(); err != nil {
		return err
	}
	f.opt = opt.Copy()
	f.results = nil
	return nil
}

// Dataset returns the full loaded history
func (f *Forecaster) Dataset() *timedataset.Dataset {
	return f.ds
}

// Sample returns the history between the from date and the end of the to date
func (f *Forecaster) Sample() (*timedataset.Dataset, error) {
	from := f.opt.DateFrom
	to := f.opt.DateTo.Add(24*time.Hour - time.Nanosecond)
	sample, err := f.ds.Slice(from, to)
	if err != nil {
		return nil, fmt.Errorf("unable to sample %s to %s, %w",
			from.Format(time.DateOnly), f.opt.DateTo.Format(time.DateOnly), errors.Join(ErrInsufficientData, err))
	}
	return sample, nil
}

// Masks computes the sliding window fold masks over the sample
func (f *Forecaster) Masks() ([]backtest.FoldMask, error) {
	sample, err := f.Sample()
	if err != nil {
		return nil, err
	}
	return backtest.SlidingWindow(sample.Index(), f.opt.SplitOptions())
}

// Run backtests the pipeline described by the options over the sample. Results are kept
// until the options change.
func (f *Forecaster) Run() (*Results, error) {
	if f.results != nil {
		return f.results, nil
	}

	sample, err := f.Sample()
	if err != nil {
		return nil, err
	}
	masks, err := backtest.SlidingWindow(sample.Index(), f.opt.SplitOptions())
	if err != nil {
		return nil, err
	}
	transforms, err := f.opt.Selection().Build(Horizon)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrInvalidParameter, err)
	}
	p, err := pipeline.New(&pipeline.Options{
		Horizon:    Horizon,
		Transforms: transforms,
		Model:      f.opt.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to initialize pipeline, %w", err)
	}

	start := time.Now()
	bt, err := p.Backtest(sample, masks)
	if err != nil {
		return nil, fmt.Errorf("unable to backtest, %w", err)
	}

	res := &Results{
		Sample:     sample,
		SampleDays: sample.Days(),
		Masks:      masks,
		Backtest:   bt,
		FoldSMAPE:  bt.FoldSMAPE(),
		SMAPE:      bt.MeanSMAPE(),
	}
	slog.Info("backtest complete",
		"folds", len(masks),
		"sample_days", res.SampleDays,
		"smape", res.SMAPE,
		"elapsed", time.Since(start),
	)
	f.results = res
	return res, nil
}

// PlotSample renders the sampled history of every segment as an echarts page
func (f *Forecaster) PlotSample(w io.Writer) error {
	sample, err := f.Sample()
	if err != nil {
		return err
	}
	page := components.NewPage()
	page.PageTitle = "Data sample"
	page.AddCharts(LineSample(sample))
	return page.Render(w)
}

// PlotBacktest renders the backtest forecasts of every segment along with historyLen
// points of history before the first fold
func (f *Forecaster) PlotBacktest(w io.Writer, historyLen int) error {
	res, err := f.Run()
	if err != nil {
		return err
	}
	page := components.NewPage()
	page.PageTitle = "Backtest"
	for _, seg := range res.Sample.Segments() {
		line, err := LineBacktest(res.Sample, res.Backtest, seg, historyLen)
		if err != nil {
			return err
		}
		page.AddCharts(line)
	}
	return page.Render(w)
}
