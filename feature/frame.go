// Package feature holds the per segment column table the transforms write into and the
// booster reads from.
package feature

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
)

// TargetLabel is the column holding the series value
const TargetLabel = "target"

var (
	ErrColumnLenMismatch = errors.New("column length does not match frame length")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrNoColumns         = errors.New("no columns requested")
)

// Frame represents a mapping of equal length float columns keyed by label, aligned to a
// slice of timestamps.
type Frame struct {
	t    []time.Time
	cols map[string][]float64
}

// NewFrame creates a frame with the target column. A nil target is filled with NaN.
func NewFrame(t []time.Time, target []float64) (*Frame, error) {
	if target == nil {
		target = make([]float64, len(t))
		for i := range target {
			target[i] = math.NaN()
		}
	}
	if len(target) != len(t) {
		return nil, fmt.Errorf("target has %d values for %d timestamps, %w", len(target), len(t), ErrColumnLenMismatch)
	}
	tCopy := make([]time.Time, len(t))
	copy(tCopy, t)
	yCopy := make([]float64, len(target))
	copy(yCopy, target)
	return &Frame{
		t:    tCopy,
		cols: map[string][]float64{TargetLabel: yCopy},
	}, nil
}

// Len returns the number of rows
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.t)
}

// T returns the timestamps of every row
func (f *Frame) T() []time.Time {
	return f.t
}

// Has reports whether the column exists
func (f *Frame) Has(label string) bool {
	_, exists := f.cols[label]
	return exists
}

// Column returns the column values. The returned slice is owned by the frame.
func (f *Frame) Column(label string) ([]float64, error) {
	col, exists := f.cols[label]
	if !exists {
		return nil, fmt.Errorf("%s, %w", label, ErrUnknownColumn)
	}
	return col, nil
}

// Target returns the target column
func (f *Frame) Target() []float64 {
	return f.cols[TargetLabel]
}

// Set adds or replaces a column
func (f *Frame) Set(label string, vals []float64) error {
	if len(vals) != len(f.t) {
		return fmt.Errorf("column %s has %d values for %d rows, %w", label, len(vals), len(f.t), ErrColumnLenMismatch)
	}
	f.cols[label] = vals
	return nil
}

// Labels returns every column label in sorted order
func (f *Frame) Labels() []string {
	labels := make([]string, 0, len(f.cols))
	for label := range f.cols {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// FeatureLabels returns the sorted labels of every column besides the target
func (f *Frame) FeatureLabels() []string {
	labels := make([]string, 0, len(f.cols))
	for _, label := range f.Labels() {
		if label == TargetLabel {
			continue
		}
		labels = append(labels, label)
	}
	return labels
}

// Matrix returns a matrix representation of the requested columns. The matrix has m rows
// representing the number of observations and n columns in the order of labels.
func (f *Frame) Matrix(labels []string) (*mat.Dense, error) {
	if len(labels) == 0 {
		return nil, ErrNoColumns
	}
	m, n := len(f.t), len(labels)

	obs := make([]float64, m*n)
	for j, label := range labels {
		col, err := f.Column(label)
		if err != nil {
			return nil, err
		}
		for i := 0; i < m; i++ {
			obs[n*i+j] = col[i]
		}
	}
	return mat.NewDense(m, n, obs), nil
}

// Rows returns a new frame containing only the rows at the given positions
func (f *Frame) Rows(pos []int) *Frame {
	t := make([]time.Time, len(pos))
	for i, p := range pos {
		t[i] = f.t[p]
	}
	cols := make(map[string][]float64, len(f.cols))
	for label, col := range f.cols {
		vals := make([]float64, len(pos))
		for i, p := range pos {
			vals[i] = col[p]
		}
		cols[label] = vals
	}
	return &Frame{t: t, cols: cols}
}

// Slice returns a copy of rows i through j exclusive
func (f *Frame) Slice(i, j int) *Frame {
	pos := make([]int, 0, j-i)
	for p := i; p < j; p++ {
		pos = append(pos, p)
	}
	return f.Rows(pos)
}

// Copy returns a deep copy of the frame
func (f *Frame) Copy() *Frame {
	return f.Slice(0, f.Len())
}

// Append concatenates the rows of other onto a copy of f. Columns missing from either
// frame are filled with NaN.
func (f *Frame) Append(other *Frame) *Frame {
	res := f.Copy()
	res.t = append(res.t, other.t...)

	labels := make(map[string]struct{}, len(f.cols)+len(other.cols))
	for label := range f.cols {
		labels[label] = struct{}{}
	}
	for label := range other.cols {
		labels[label] = struct{}{}
	}
	for label := range labels {
		head, exists := res.cols[label]
		if !exists {
			head = nanSlice(f.Len())
		}
		tail, exists := other.cols[label]
		if !exists {
			tail = nanSlice(other.Len())
		}
		res.cols[label] = append(head, tail...)
	}
	return res
}

// ValidRows returns the positions where the target is not NaN
func (f *Frame) ValidRows() []int {
	target := f.Target()
	pos := make([]int, 0, len(target))
	for i, v := range target {
		if math.IsNaN(v) {
			continue
		}
		pos = append(pos, i)
	}
	return pos
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
