package transform

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aouyang1/go-taxiforecaster/changepoint"
	"github.com/aouyang1/go-taxiforecaster/feature"
	"github.com/aouyang1/go-taxiforecaster/models"
	"github.com/aouyang1/go-taxiforecaster/timedataset"
)

// TrendParams fits a piecewise linear trend with NumChangepoints evenly spaced slope changes
// to InColumn and writes the fitted trend to OutColumn, extrapolating past the fit range.
type TrendParams struct {
	InColumn        string `json:"in_column"`
	OutColumn       string `json:"out_column"`
	NumChangepoints int    `json:"n_changepoints"`
}

func NewTrend() Transform {
	return Transform{
		Kind: KindTrend,
		Trend: &TrendParams{
			InColumn:        feature.TargetLabel,
			OutColumn:       "trend",
			NumChangepoints: 5,
		},
	}
}

type trendFit struct {
	origin time.Time
	scale  time.Duration
	chpts  []changepoint.Changepoint
	model  *models.OLSRegression
}

func (p *TrendParams) validate() error {
	if p == nil {
		return fmt.Errorf("missing trend parameters, %w", ErrInvalidTransform)
	}
	if p.NumChangepoints < 0 {
		return fmt.Errorf("changepoints cannot be negative, got %d, %w", p.NumChangepoints, ErrInvalidTransform)
	}
	if p.InColumn == "" || p.OutColumn == "" {
		return fmt.Errorf("trend columns must be named, %w", ErrInvalidTransform)
	}
	return nil
}

func (p *TrendParams) fit(f *feature.Frame) (*trendFit, error) {
	in, err := f.Column(p.InColumn)
	if err != nil {
		return nil, missingColumn(p.InColumn)
	}
	valid := (&timedataset.TimeDataset{T: f.T(), Y: in}).DropNan()
	validT, validY := valid.T, valid.Y
	if len(validT) < 2 {
		return nil, fmt.Errorf("need at least 2 values to fit a trend, got %d, %w", len(validT), ErrInvalidTransform)
	}

	// two points per segment keeps every hinge column independent
	nChpts := min(p.NumChangepoints, len(validT)/2-1)
	origin, end := validT[0], validT[len(validT)-1]
	scale := end.Sub(origin)
	chpts := changepoint.Auto(origin, end, nChpts)

	model := models.NewOLSRegression(nil)
	if err := model.Fit(changepoint.Features(validT, chpts, origin, scale), validY); err != nil {
		return nil, err
	}
	slog.Debug("fitted trend",
		"column", p.InColumn,
		"changepoints", len(chpts),
		"intercept", model.Intercept(),
		"coef", model.Coef(),
	)
	return &trendFit{
		origin: origin,
		scale:  scale,
		chpts:  chpts,
		model:  model,
	}, nil
}

func (p *TrendParams) transform(f *feature.Frame, fit *trendFit) error {
	if f.Len() == 0 {
		return f.Set(p.OutColumn, []float64{})
	}
	x := changepoint.Features(f.T(), fit.chpts, fit.origin, fit.scale)
	out, err := fit.model.Predict(x)
	if err != nil {
		return fmt.Errorf("unable to predict trend, %w", err)
	}
	return f.Set(p.OutColumn, out)
}
