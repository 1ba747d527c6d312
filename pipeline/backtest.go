package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aouyang1/go-taxiforecaster/backtest"
	"github.com/aouyang1/go-taxiforecaster/timedataset"
)

var (
	ErrMaskOutOfRange = errors.New("fold mask is outside of the dataset index")
	ErrNoFolds        = errors.New("no fold masks to backtest")
)

// Backtest fits a fresh pipeline with p's options on the training range of every mask,
// forecasts the horizon and scores it against the actual values at the target timestamps.
// The first error aborts the backtest.
func (p *Pipeline) Backtest(ds *timedataset.Dataset, masks []backtest.FoldMask) (*BacktestResult, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("empty dataset, %w", timedataset.ErrNoTrainingData)
	}
	if len(masks) == 0 {
		return nil, ErrNoFolds
	}
	if err := p.validateMasks(ds.Index(), masks); err != nil {
		return nil, err
	}

	res := &BacktestResult{
		Metrics:   make([]MetricRow, 0, len(masks)*len(ds.Segments())),
		Forecasts: make([]ForecastPoint, 0, len(masks)*len(ds.Segments())*p.opt.Horizon),
		Folds:     make([]FoldInfo, 0, len(masks)),
	}
	for fold, mask := range masks {
		if err := p.backtestFold(ds, fold, mask, res); err != nil {
			return nil, fmt.Errorf("fold %d, %w", fold, err)
		}
	}
	return res, nil
}

func (p *Pipeline) validateMasks(idx *timedataset.Index, masks []backtest.FoldMask) error {
	for fold, mask := range masks {
		if err := mask.Validate(idx.Freq()); err != nil {
			return fmt.Errorf("fold %d, %w", fold, err)
		}
		if len(mask.TargetTimestamps) > p.opt.Horizon {
			return fmt.Errorf("fold %d has %d targets for a horizon of %d, %w",
				fold, len(mask.TargetTimestamps), p.opt.Horizon, backtest.ErrInvalidMask)
		}
		if !idx.Contains(mask.FirstTrainTimestamp) {
			return fmt.Errorf("fold %d first train timestamp %s, %w", fold, mask.FirstTrainTimestamp, ErrMaskOutOfRange)
		}
		if !idx.Contains(mask.TargetEnd()) {
			return fmt.Errorf("fold %d last target timestamp %s, %w", fold, mask.TargetEnd(), ErrMaskOutOfRange)
		}
	}
	return nil
}

func (p *Pipeline) backtestFold(ds *timedataset.Dataset, fold int, mask backtest.FoldMask, res *BacktestResult) error {
	train, err := ds.Between(mask.FirstTrainTimestamp, mask.LastTrainTimestamp)
	if err != nil {
		return err
	}
	actual, err := ds.Between(mask.TargetStart(), mask.TargetEnd())
	if err != nil {
		return err
	}

	fp, err := New(p.opt)
	if err != nil {
		return err
	}
	if err := fp.Fit(train); err != nil {
		return err
	}
	forecast, err := fp.Forecast()
	if err != nil {
		return err
	}

	targets := mask.TargetTimestamps
	for _, seg := range ds.Segments() {
		predicted, err := forecast.Values(seg)
		if err != nil {
			return err
		}
		predicted = predicted[:len(targets)]
		y, err := actual.Values(seg)
		if err != nil {
			return err
		}

		scores, err := backtest.NewScores(predicted, y)
		if err != nil {
			return err
		}
		res.Metrics = append(res.Metrics, MetricRow{
			Segment: seg,
			Fold:    fold,
			SMAPE:   scores.SMAPE,
			MAE:     scores.MAE,
			MSE:     scores.MSE,
		})
		for i, t := range targets {
			res.Forecasts = append(res.Forecasts, ForecastPoint{
				Timestamp: t,
				Segment:   seg,
				Fold:      fold,
				Predicted: predicted[i],
				Actual:    y[i],
			})
		}
		slog.Debug("backtest fold scored", "fold", fold, "segment", seg, "smape", scores.SMAPE)
	}

	res.Folds = append(res.Folds, FoldInfo{
		Fold:       fold,
		TrainStart: mask.FirstTrainTimestamp,
		TrainEnd:   mask.LastTrainTimestamp,
		TestStart:  mask.TargetStart(),
		TestEnd:    mask.TargetEnd(),
	})
	return nil
}
