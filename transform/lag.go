package transform

import (
	"fmt"
	"math"

	"github.com/aouyang1/go-taxiforecaster/feature"
)

// LagParams shifts InColumn forward by each lag into OutColumn_<lag>
type LagParams struct {
	InColumn  string `json:"in_column"`
	Lags      []int  `json:"lags"`
	OutColumn string `json:"out_column"`
}

// NewLag returns a Lag transform of the target for lags of step, 2*step up to n*step
func NewLag(step, n int) Transform {
	lags := make([]int, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		lags = append(lags, step*i)
	}
	return Transform{
		Kind: KindLag,
		Lag: &LagParams{
			InColumn:  feature.TargetLabel,
			Lags:      lags,
			OutColumn: feature.TargetLabel + "_lag",
		},
	}
}

// LagLabel returns the output column of a lag
func (p *LagParams) LagLabel(lag int) string {
	return fmt.Sprintf("%s_%d", p.OutColumn, lag)
}

func (p *LagParams) validate() error {
	if p == nil {
		return fmt.Errorf("missing lag parameters, %w", ErrInvalidTransform)
	}
	if len(p.Lags) == 0 {
		return fmt.Errorf("no lags, %w", ErrInvalidTransform)
	}
	for _, lag := range p.Lags {
		if lag < 1 {
			return fmt.Errorf("lag must be positive, got %d, %w", lag, ErrInvalidTransform)
		}
	}
	if p.InColumn == "" || p.OutColumn == "" {
		return fmt.Errorf("lag columns must be named, %w", ErrInvalidTransform)
	}
	return nil
}

func (p *LagParams) transform(f *feature.Frame) error {
	in, err := f.Column(p.InColumn)
	if err != nil {
		return missingColumn(p.InColumn)
	}
	for _, lag := range p.Lags {
		out := make([]float64, len(in))
		for i := range out {
			if i < lag {
				out[i] = math.NaN()
				continue
			}
			out[i] = in[i-lag]
		}
		if err := f.Set(p.LagLabel(lag), out); err != nil {
			return err
		}
	}
	return nil
}
