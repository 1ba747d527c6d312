package boosting

import (
	"fmt"
)

const (
	DefaultIterations     = 100
	DefaultLearningRate   = 0.1
	DefaultMaxDepth       = 4
	DefaultMinSamplesLeaf = 5
	DefaultL2Reg          = 1.0
	DefaultMaxBins        = 64

	maxBinsLimit = 256
)

// Options configures the boosted tree ensemble
type Options struct {
	Iterations     int     `json:"iterations"`
	LearningRate   float64 `json:"learning_rate"`
	MaxDepth       int     `json:"max_depth"`
	MinSamplesLeaf int     `json:"min_samples_leaf"`
	L2Reg          float64 `json:"l2_leaf_reg"`
	MaxBins        int     `json:"max_bins"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Iterations:     DefaultIterations,
		LearningRate:   DefaultLearningRate,
		MaxDepth:       DefaultMaxDepth,
		MinSamplesLeaf: DefaultMinSamplesLeaf,
		L2Reg:          DefaultL2Reg,
		MaxBins:        DefaultMaxBins,
	}
}

func (o *Options) Validate() error {
	if o.Iterations < 1 {
		return fmt.Errorf("iterations must be positive, got %d, %w", o.Iterations, ErrInvalidOptions)
	}
	if o.LearningRate <= 0 || o.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1], got %f, %w", o.LearningRate, ErrInvalidOptions)
	}
	if o.MaxDepth < 1 {
		return fmt.Errorf("max depth must be positive, got %d, %w", o.MaxDepth, ErrInvalidOptions)
	}
	if o.MinSamplesLeaf < 1 {
		return fmt.Errorf("min samples per leaf must be positive, got %d, %w", o.MinSamplesLeaf, ErrInvalidOptions)
	}
	if o.L2Reg < 0 {
		return fmt.Errorf("l2 regularization cannot be negative, got %f, %w", o.L2Reg, ErrInvalidOptions)
	}
	if o.MaxBins < 2 || o.MaxBins > maxBinsLimit {
		return fmt.Errorf("max bins must be in [2, %d], got %d, %w", maxBinsLimit, o.MaxBins, ErrInvalidOptions)
	}
	return nil
}
