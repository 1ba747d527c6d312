package transform

import (
	"fmt"
	"math"

	"github.com/aouyang1/go-taxiforecaster/feature"
)

// MeanParams computes the rolling mean of the last Window values of InColumn, including the
// current row. NaN values are skipped and windows without any value produce 0.
type MeanParams struct {
	InColumn  string `json:"in_column"`
	Window    int    `json:"window"`
	OutColumn string `json:"out_column,omitempty"`
}

// NewMean returns a rolling mean transform over the column produced by a lag of lag
func NewMean(lag, window int) Transform {
	return Transform{
		Kind: KindMean,
		Mean: &MeanParams{
			InColumn: fmt.Sprintf("%s_lag_%d", feature.TargetLabel, lag),
			Window:   window,
		},
	}
}

// Label returns the output column, defaulting to <in>_mean_<window>
func (p *MeanParams) Label() string {
	if p.OutColumn != "" {
		return p.OutColumn
	}
	return fmt.Sprintf("%s_mean_%d", p.InColumn, p.Window)
}

func (p *MeanParams) validate() error {
	if p == nil {
		return fmt.Errorf("missing mean parameters, %w", ErrInvalidTransform)
	}
	if p.Window < 1 {
		return fmt.Errorf("mean window must be positive, got %d, %w", p.Window, ErrInvalidTransform)
	}
	if p.InColumn == "" {
		return fmt.Errorf("mean input column must be named, %w", ErrInvalidTransform)
	}
	return nil
}

func (p *MeanParams) transform(f *feature.Frame) error {
	in, err := f.Column(p.InColumn)
	if err != nil {
		return missingColumn(p.InColumn)
	}

	out := make([]float64, len(in))
	var sum float64
	var n int
	for i, v := range in {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
		if j := i - p.Window; j >= 0 && !math.IsNaN(in[j]) {
			sum -= in[j]
			n--
		}
		if n == 0 {
			out[i] = 0
			continue
		}
		out[i] = sum / float64(n)
	}
	return f.Set(p.Label(), out)
}
