package transform

import (
	"fmt"
	"math"

	"github.com/aouyang1/go-taxiforecaster/feature"
	"github.com/aouyang1/go-taxiforecaster/stats"
)

// DensityOutliersParams replaces density outliers of InColumn with NaN so the rows drop out
// of the model fit
type DensityOutliersParams struct {
	InColumn string `json:"in_column"`
	stats.DensityOptions
}

func NewDensityOutliers() Transform {
	return Transform{
		Kind: KindDensityOutliers,
		DensityOutliers: &DensityOutliersParams{
			InColumn:       feature.TargetLabel,
			DensityOptions: *stats.NewDefaultDensityOptions(),
		},
	}
}

func (p *DensityOutliersParams) validate() error {
	if p == nil {
		return fmt.Errorf("missing density outlier parameters, %w", ErrInvalidTransform)
	}
	if p.InColumn == "" {
		return fmt.Errorf("density outlier input column must be named, %w", ErrInvalidTransform)
	}
	if err := p.DensityOptions.Validate(); err != nil {
		return fmt.Errorf("%w, %w", ErrInvalidTransform, err)
	}
	return nil
}

func (p *DensityOutliersParams) transform(f *feature.Frame) error {
	in, err := f.Column(p.InColumn)
	if err != nil {
		return missingColumn(p.InColumn)
	}
	outliers, err := stats.DetectDensityOutliers(in, &p.DensityOptions)
	if err != nil {
		return err
	}
	if len(outliers) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	copy(out, in)
	for _, i := range outliers {
		out[i] = math.NaN()
	}
	return f.Set(p.InColumn, out)
}
