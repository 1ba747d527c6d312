package transform

import (
	"fmt"
	"math"

	"github.com/aouyang1/go-taxiforecaster/feature"
)

// LogParams replaces InColumn with log_base(x+1)
type LogParams struct {
	InColumn string  `json:"in_column"`
	Base     float64 `json:"base"`
}

func NewLog() Transform {
	return Transform{
		Kind: KindLog,
		Log: &LogParams{
			InColumn: feature.TargetLabel,
			Base:     10,
		},
	}
}

func (p *LogParams) validate() error {
	if p == nil {
		return fmt.Errorf("missing log parameters, %w", ErrInvalidTransform)
	}
	if p.Base <= 0 || p.Base == 1 {
		return fmt.Errorf("log base must be positive and not 1, got %f, %w", p.Base, ErrInvalidTransform)
	}
	if p.InColumn == "" {
		return fmt.Errorf("log input column must be named, %w", ErrInvalidTransform)
	}
	return nil
}

func (p *LogParams) transform(f *feature.Frame) error {
	in, err := f.Column(p.InColumn)
	if err != nil {
		return missingColumn(p.InColumn)
	}
	logBase := math.Log(p.Base)
	out := make([]float64, len(in))
	for i, v := range in {
		if v < 0 {
			return fmt.Errorf("%s has %f at row %d, %w", p.InColumn, v, i, ErrNegativeValues)
		}
		out[i] = math.Log1p(v) / logBase
	}
	return f.Set(p.InColumn, out)
}

func (p *LogParams) inverse(f *feature.Frame) error {
	in, err := f.Column(p.InColumn)
	if err != nil {
		return missingColumn(p.InColumn)
	}
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = math.Pow(p.Base, v) - 1
	}
	return f.Set(p.InColumn, out)
}
