package timedataset

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrNoSegments     = errors.New("dataset has no segments")
	ErrUnknownSegment = errors.New("unknown segment")
	ErrEmptyRange     = errors.New("no time points within range")
)

// Dataset holds one or more segments sharing the same regular time index.
type Dataset struct {
	idx      *Index
	segments []string
	values   map[string][]float64
}

// NewDataset creates a dataset over idx. Every segment must have exactly idx.Len() values.
// Values are copied so the dataset can't be mutated through the input map.
func NewDataset(idx *Index, segments map[string][]float64) (*Dataset, error) {
	if idx.Len() == 0 {
		return nil, ErrNoTrainingData
	}
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	names := make([]string, 0, len(segments))
	values := make(map[string][]float64, len(segments))
	for name, y := range segments {
		if len(y) != idx.Len() {
			return nil, fmt.Errorf(
				"segment %q has length of %d, but index has a length of %d, %w",
				name, len(y), idx.Len(), ErrDatasetLenMismatch,
			)
		}
		ySeries := make([]float64, len(y))
		copy(ySeries, y)
		values[name] = ySeries
		names = append(names, name)
	}
	sort.Strings(names)

	return &Dataset{
		idx:      idx,
		segments: names,
		values:   values,
	}, nil
}

// NewSingleSegmentDataset is a convenience wrapper for datasets with one segment
func NewSingleSegmentDataset(segment string, t []time.Time, y []float64) (*Dataset, error) {
	td, err := NewUnivariateDataset(t, y)
	if err != nil {
		return nil, err
	}
	idx, err := IndexFromTimes(td.T)
	if err != nil {
		return nil, err
	}
	return NewDataset(idx, map[string][]float64{segment: td.Y})
}

// Index returns the time index shared by all segments
func (d *Dataset) Index() *Index {
	return d.idx
}

// Len returns the number of time points
func (d *Dataset) Len() int {
	return d.idx.Len()
}

// Segments returns the sorted segment names
func (d *Dataset) Segments() []string {
	names := make([]string, len(d.segments))
	copy(names, d.segments)
	return names
}

// Values returns a copy of the values of a segment
func (d *Dataset) Values(segment string) ([]float64, error) {
	y, exists := d.values[segment]
	if !exists {
		return nil, fmt.Errorf("%q, %w", segment, ErrUnknownSegment)
	}
	res := make([]float64, len(y))
	copy(res, y)
	return res, nil
}

// Segment returns the univariate time dataset of a segment
func (d *Dataset) Segment(segment string) (*TimeDataset, error) {
	y, err := d.Values(segment)
	if err != nil {
		return nil, err
	}
	return &TimeDataset{T: d.idx.Times(), Y: y}, nil
}

// Slice returns the dataset restricted to the inclusive time range from..to
func (d *Dataset) Slice(from, to time.Time) (*Dataset, error) {
	i, j := d.idx.Bounds(from, to)
	if i >= j {
		return nil, fmt.Errorf("%s to %s, %w", from, to, ErrEmptyRange)
	}
	return d.slicePositions(i, j), nil
}

// Between returns the dataset restricted to first..last where both points must be part
// of the index
func (d *Dataset) Between(first, last time.Time) (*Dataset, error) {
	i, ok := d.idx.Position(first)
	if !ok {
		return nil, fmt.Errorf("first time %s, %w", first, ErrOutOfIndex)
	}
	j, ok := d.idx.Position(last)
	if !ok {
		return nil, fmt.Errorf("last time %s, %w", last, ErrOutOfIndex)
	}
	if j < i {
		return nil, fmt.Errorf("%s to %s, %w", first, last, ErrEmptyRange)
	}
	return d.slicePositions(i, j+1), nil
}

func (d *Dataset) slicePositions(i, j int) *Dataset {
	values := make(map[string][]float64, len(d.values))
	for name, y := range d.values {
		ySeries := make([]float64, j-i)
		copy(ySeries, y[i:j])
		values[name] = ySeries
	}
	return &Dataset{
		idx:      d.idx.Slice(i, j),
		segments: d.Segments(),
		values:   values,
	}
}

// Days returns the number of whole days spanned between the first and last time point
func (d *Dataset) Days() int {
	return int(d.idx.End().Sub(d.idx.Start()) / (24 * time.Hour))
}
