// Package transform implements the feature transforms applied to a segment frame before the
// booster is fit. Every transform is a Transform value tagged with its Kind and carrying the
// parameters of that kind.
package transform

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-taxiforecaster/feature"
)

var (
	ErrMissingColumn    = errors.New("missing input column")
	ErrNegativeValues   = errors.New("negative values cannot be log transformed")
	ErrUnknownTransform = errors.New("unknown transform")
	ErrInvalidTransform = errors.New("invalid transform parameters")
	ErrUnfitTransform   = errors.New("transform has not been fit")
)

// Transform is one applied feature transform. Only the parameter block matching Kind is
// read. Fitted state lives on the value, so a copy made before Fit is an independent transform.
type Transform struct {
	Kind            Kind                   `json:"kind"`
	Lag             *LagParams             `json:"lag,omitempty"`
	Mean            *MeanParams            `json:"mean,omitempty"`
	Log             *LogParams             `json:"log,omitempty"`
	DateFlags       *DateFlagsParams       `json:"date_flags,omitempty"`
	Trend           *TrendParams           `json:"trend,omitempty"`
	DensityOutliers *DensityOutliersParams `json:"density_outliers,omitempty"`

	trend *trendFit
}

// Validate checks that the parameter block for Kind is present and well formed
func (t *Transform) Validate() error {
	switch t.Kind {
	case KindLag:
		return t.Lag.validate()
	case KindMean:
		return t.Mean.validate()
	case KindLog:
		return t.Log.validate()
	case KindDateFlags:
		return t.DateFlags.validate()
	case KindTrend:
		return t.Trend.validate()
	case KindDensityOutliers:
		return t.DensityOutliers.validate()
	}
	return fmt.Errorf("%s, %w", t.Kind, ErrUnknownTransform)
}

// Fit learns any state the transform needs from the frame. Only Trend is stateful.
func (t *Transform) Fit(f *feature.Frame) error {
	if err := t.Validate(); err != nil {
		return err
	}
	switch t.Kind {
	case KindTrend:
		fit, err := t.Trend.fit(f)
		if err != nil {
			return fmt.Errorf("unable to fit trend, %w", err)
		}
		t.trend = fit
	}
	return nil
}

// Transform writes the transform output into the frame
func (t *Transform) Transform(f *feature.Frame) error {
	if err := t.Validate(); err != nil {
		return err
	}
	switch t.Kind {
	case KindLag:
		return t.Lag.transform(f)
	case KindMean:
		return t.Mean.transform(f)
	case KindLog:
		return t.Log.transform(f)
	case KindDateFlags:
		return t.DateFlags.transform(f)
	case KindTrend:
		if t.trend == nil {
			return fmt.Errorf("%s, %w", t.Kind, ErrUnfitTransform)
		}
		return t.Trend.transform(f, t.trend)
	case KindDensityOutliers:
		return t.DensityOutliers.transform(f)
	}
	return nil
}

// FitTransform fits the transform on the frame and then applies it
func (t *Transform) FitTransform(f *feature.Frame) error {
	if err := t.Fit(f); err != nil {
		return err
	}
	return t.Transform(f)
}

// InverseTransform undoes the transform on the target column. Only Log changes the target
// so every other kind is a no-op.
func (t *Transform) InverseTransform(f *feature.Frame) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.Kind == KindLog {
		return t.Log.inverse(f)
	}
	return nil
}

func (t Transform) String() string {
	switch t.Kind {
	case KindLag:
		if t.Lag != nil {
			return fmt.Sprintf("Lag(%s, %v)", t.Lag.InColumn, t.Lag.Lags)
		}
	case KindMean:
		if t.Mean != nil {
			return fmt.Sprintf("Mean(%s, %d)", t.Mean.InColumn, t.Mean.Window)
		}
	}
	return t.Kind.String()
}

func missingColumn(label string) error {
	return fmt.Errorf("%s, %w", label, ErrMissingColumn)
}
