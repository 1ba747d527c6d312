// Package stats provides outlier detection over a univariate series
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var ErrInvalidDensityOptions = errors.New("invalid density outlier options")

// DensityOptions configures density based outlier detection. A point is an outlier when, in
// every window of WindowSize points containing it, fewer than NumNeighbors other points lie
// within DistanceCoef population standard deviations of it.
type DensityOptions struct {
	WindowSize   int     `json:"window_size"`
	NumNeighbors int     `json:"n_neighbors"`
	DistanceCoef float64 `json:"distance_coef"`
}

func NewDefaultDensityOptions() *DensityOptions {
	return &DensityOptions{
		WindowSize:   15,
		NumNeighbors: 3,
		DistanceCoef: 3.0,
	}
}

func (o *DensityOptions) Validate() error {
	if o.WindowSize < 1 {
		return fmt.Errorf("window size must be positive, got %d, %w", o.WindowSize, ErrInvalidDensityOptions)
	}
	if o.NumNeighbors < 1 || o.NumNeighbors >= o.WindowSize {
		return fmt.Errorf("neighbors must be in [1, %d), got %d, %w", o.WindowSize, o.NumNeighbors, ErrInvalidDensityOptions)
	}
	if o.DistanceCoef <= 0 {
		return fmt.Errorf("distance coefficient must be positive, got %f, %w", o.DistanceCoef, ErrInvalidDensityOptions)
	}
	return nil
}

// DetectDensityOutliers returns the sorted positions of outliers in y. NaN values are
// ignored and never reported.
func DetectDensityOutliers(y []float64, opt *DensityOptions) ([]int, error) {
	if opt == nil {
		opt = NewDefaultDensityOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}

	pos := make([]int, 0, len(y))
	vals := make([]float64, 0, len(y))
	for i, v := range y {
		if math.IsNaN(v) {
			continue
		}
		pos = append(pos, i)
		vals = append(vals, v)
	}
	n := len(vals)
	if n <= opt.WindowSize {
		return nil, nil
	}

	threshold := stat.PopStdDev(vals, nil) * opt.DistanceCoef

	var outliers []int
	for i, point := range vals {
		outlier := true
		first := max(0, i-opt.WindowSize+1)
		last := min(i, n-opt.WindowSize)
		for start := first; start <= last; start++ {
			var neighbors int
			for _, other := range vals[start : start+opt.WindowSize] {
				if math.Abs(other-point) <= threshold {
					neighbors++
				}
			}
			// the point is always its own neighbor
			if neighbors-1 >= opt.NumNeighbors {
				outlier = false
				break
			}
		}
		if outlier {
			outliers = append(outliers, pos[i])
		}
	}
	return outliers, nil
}
