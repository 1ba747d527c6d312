// Package pipeline fits one boosted tree model per segment on transformed features,
// forecasts a horizon past the training data and backtests over fold masks
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aouyang1/go-taxiforecaster/boosting"
	"github.com/aouyang1/go-taxiforecaster/feature"
	"github.com/aouyang1/go-taxiforecaster/models"
	"github.com/aouyang1/go-taxiforecaster/timedataset"
	"github.com/aouyang1/go-taxiforecaster/transform"
)

var (
	ErrInvalidOptions = errors.New("invalid pipeline options")
	ErrUnfitPipeline  = errors.New("pipeline has not been fit")
	ErrNoFeatures     = errors.New("no feature columns after applying transforms")
	ErrNoTrainingRows = errors.New("no training rows with a target value")
)

// segmentFit is the fitted state of a single segment
type segmentFit struct {
	transforms []transform.Transform
	labels     []string
	model      models.Regressor
	history    *feature.Frame
}

type Pipeline struct {
	opt      *Options
	idx      *timedataset.Index
	segments map[string]*segmentFit
	order    []string
}

func New(opt *Options) (*Pipeline, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	// defaults go on a copy so the caller's options stay untouched
	pOpt := *opt
	if pOpt.Model == nil {
		pOpt.Model = boosting.NewDefaultOptions()
	}
	return &Pipeline{opt: &pOpt}, nil
}

// Fit trains one model per segment of ds. Rows with a NaN target after applying the
// transforms are left out of the model fit.
func (p *Pipeline) Fit(ds *timedataset.Dataset) error {
	if ds == nil || ds.Len() == 0 {
		return fmt.Errorf("empty dataset, %w", timedataset.ErrNoTrainingData)
	}

	segments := make(map[string]*segmentFit, len(ds.Segments()))
	for _, seg := range ds.Segments() {
		td, err := ds.Segment(seg)
		if err != nil {
			return err
		}
		fit, err := p.fitSegment(td.T, td.Y)
		if err != nil {
			return fmt.Errorf("unable to fit segment %s, %w", seg, err)
		}
		segments[seg] = fit
	}

	p.idx = ds.Index()
	p.segments = segments
	p.order = ds.Segments()
	return nil
}

func (p *Pipeline) fitSegment(t []time.Time, y []float64) (*segmentFit, error) {
	history, err := feature.NewFrame(t, y)
	if err != nil {
		return nil, err
	}
	frame := history.Copy()

	transforms := transform.Clone(p.opt.Transforms)
	for i := range transforms {
		if err := transforms[i].FitTransform(frame); err != nil {
			return nil, fmt.Errorf("unable to apply %s, %w", transforms[i], err)
		}
	}

	labels := frame.FeatureLabels()
	if len(labels) == 0 {
		return nil, ErrNoFeatures
	}
	valid := frame.ValidRows()
	if len(valid) == 0 {
		return nil, ErrNoTrainingRows
	}
	if dropped := frame.Len() - len(valid); dropped > 0 {
		slog.Debug("dropping rows without a target from model fit", "dropped", dropped, "rows", frame.Len())
	}

	train := frame.Rows(valid)
	x, err := train.Matrix(labels)
	if err != nil {
		return nil, err
	}
	reg, err := boosting.New(p.opt.Model)
	if err != nil {
		return nil, err
	}
	if err := reg.Fit(x, train.Target()); err != nil {
		return nil, fmt.Errorf("unable to fit model, %w", err)
	}

	return &segmentFit{
		transforms: transforms,
		labels:     labels,
		model:      reg,
		history:    history,
	}, nil
}

// Forecast predicts the horizon immediately following the fitted data for every segment
func (p *Pipeline) Forecast() (*timedataset.Dataset, error) {
	if p.segments == nil {
		return nil, ErrUnfitPipeline
	}

	h := p.opt.Horizon
	n := p.idx.Len()
	futureIdx := p.idx.Extend(h).Slice(n, n+h)
	futureT := futureIdx.Times()

	values := make(map[string][]float64, len(p.segments))
	for _, seg := range p.order {
		pred, err := p.forecastSegment(p.segments[seg], futureT)
		if err != nil {
			return nil, fmt.Errorf("unable to forecast segment %s, %w", seg, err)
		}
		values[seg] = pred
	}
	return timedataset.NewDataset(futureIdx, values)
}

func (p *Pipeline) forecastSegment(fit *segmentFit, futureT []time.Time) ([]float64, error) {
	future, err := feature.NewFrame(futureT, nil)
	if err != nil {
		return nil, err
	}
	full := fit.history.Append(future)
	for i := range fit.transforms {
		if err := fit.transforms[i].Transform(full); err != nil {
			return nil, fmt.Errorf("unable to apply %s, %w", fit.transforms[i], err)
		}
	}

	n := fit.history.Len()
	rows := full.Slice(n, n+len(futureT))
	x, err := rows.Matrix(fit.labels)
	if err != nil {
		return nil, err
	}
	pred, err := fit.model.Predict(x)
	if err != nil {
		return nil, err
	}
	if err := rows.Set(feature.TargetLabel, pred); err != nil {
		return nil, err
	}
	for _, tr := range slices.Backward(fit.transforms) {
		if err := tr.InverseTransform(rows); err != nil {
			return nil, fmt.Errorf("unable to invert %s, %w", tr, err)
		}
	}
	return rows.Target(), nil
}

// Models returns the fitted boosted tree model of every segment
func (p *Pipeline) Models() map[string]*boosting.Model {
	res := make(map[string]*boosting.Model, len(p.segments))
	for seg, fit := range p.segments {
		if reg, ok := fit.model.(*boosting.Regressor); ok {
			res[seg] = reg.Model()
		}
	}
	return res
}
