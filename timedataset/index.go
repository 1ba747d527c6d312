package timedataset

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrIrregularIndex = errors.New("time points are not evenly spaced")
	ErrInvalidFreq    = errors.New("frequency must be positive")
	ErrOutOfIndex     = errors.New("time point is not part of the index")
)

// Index is an ordered, gap free sequence of time points starting at start and spaced
// by freq. Lookups from position to time and from time to position are constant time.
type Index struct {
	start time.Time
	freq  time.Duration
	n     int
}

// NewIndex creates an index of n points beginning at start
func NewIndex(start time.Time, freq time.Duration, n int) (*Index, error) {
	if freq <= 0 {
		return nil, ErrInvalidFreq
	}
	if n < 0 {
		n = 0
	}
	return &Index{start: start, freq: freq, n: n}, nil
}

// IndexFromTimes builds an index from a strictly increasing, evenly spaced slice of times
func IndexFromTimes(t []time.Time) (*Index, error) {
	if len(t) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(t) == 1 {
		return NewIndex(t[0], time.Hour, 1)
	}

	freq := t[1].Sub(t[0])
	if freq <= 0 {
		return nil, fmt.Errorf("non-monotonic at %d, %w", 1, ErrNonMontonic)
	}
	for i := 1; i < len(t); i++ {
		delta := t[i].Sub(t[i-1])
		if delta <= 0 {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
		if delta != freq {
			return nil, fmt.Errorf("expected %s between points but got %s at %d, %w", freq, delta, i, ErrIrregularIndex)
		}
	}
	return NewIndex(t[0], freq, len(t))
}

// Len returns the number of time points in the index
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.n
}

// Freq returns the spacing between consecutive points
func (idx *Index) Freq() time.Duration {
	return idx.freq
}

// Start returns the first time point. Zero time for an empty index.
func (idx *Index) Start() time.Time {
	if idx.Len() == 0 {
		return time.Time{}
	}
	return idx.start
}

// End returns the last time point. Zero time for an empty index.
func (idx *Index) End() time.Time {
	if idx.Len() == 0 {
		return time.Time{}
	}
	return idx.At(idx.n - 1)
}

// At returns the time point at position i. Positions outside of the index are
// extrapolated using the index frequency.
func (idx *Index) At(i int) time.Time {
	return idx.start.Add(time.Duration(i) * idx.freq)
}

// Position returns the position of t in the index
func (idx *Index) Position(t time.Time) (int, bool) {
	if idx.Len() == 0 {
		return -1, false
	}
	delta := t.Sub(idx.start)
	if delta < 0 || delta%idx.freq != 0 {
		return -1, false
	}
	pos := int(delta / idx.freq)
	if pos >= idx.n {
		return -1, false
	}
	return pos, true
}

// Contains reports whether t is one of the time points of the index
func (idx *Index) Contains(t time.Time) bool {
	_, ok := idx.Position(t)
	return ok
}

// Offset shifts t by k steps of the index frequency
func (idx *Index) Offset(t time.Time, k int) time.Time {
	return t.Add(time.Duration(k) * idx.freq)
}

// Range returns k consecutive time points beginning at from at the index frequency
func (idx *Index) Range(from time.Time, k int) []time.Time {
	if k <= 0 {
		return nil
	}
	t := make([]time.Time, k)
	for i := 0; i < k; i++ {
		t[i] = idx.Offset(from, i)
	}
	return t
}

// Times materializes all time points of the index
func (idx *Index) Times() []time.Time {
	return idx.Range(idx.start, idx.Len())
}

// Slice returns the sub index covering positions [i, j)
func (idx *Index) Slice(i, j int) *Index {
	if i < 0 {
		i = 0
	}
	if j > idx.Len() {
		j = idx.Len()
	}
	if i >= j {
		return &Index{start: idx.At(i), freq: idx.freq}
	}
	return &Index{start: idx.At(i), freq: idx.freq, n: j - i}
}

// Extend returns a new index with k additional points appended after the end
func (idx *Index) Extend(k int) *Index {
	if k < 0 {
		k = 0
	}
	return &Index{start: idx.start, freq: idx.freq, n: idx.n + k}
}

// Bounds returns the positions [i, j) of all index points within the inclusive time
// range from..to
func (idx *Index) Bounds(from, to time.Time) (int, int) {
	n := idx.Len()
	if n == 0 || to.Before(from) {
		return 0, 0
	}

	i := 0
	if from.After(idx.start) {
		delta := from.Sub(idx.start)
		i = int(delta / idx.freq)
		if delta%idx.freq != 0 {
			i++
		}
	}

	j := n
	if to.Before(idx.End()) {
		if to.Before(idx.start) {
			return 0, 0
		}
		j = int(to.Sub(idx.start)/idx.freq) + 1
	}
	if i > n {
		i = n
	}
	if i > j {
		i = j
	}
	return i, j
}
