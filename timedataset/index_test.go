package timedataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hour(h int) time.Time {
	return time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(h) * time.Hour)
}

func TestIndexFromTimes(t *testing.T) {
	testData := map[string]struct {
		t        []time.Time
		expected *Index
		err      error
	}{
		"no time points": {
			err: ErrNoTrainingData,
		},
		"single point": {
			t:        []time.Time{hour(0)},
			expected: &Index{start: hour(0), freq: time.Hour, n: 1},
		},
		"non increasing": {
			t:   []time.Time{hour(1), hour(0)},
			err: ErrNonMontonic,
		},
		"gap": {
			t:   []time.Time{hour(0), hour(1), hour(3)},
			err: ErrIrregularIndex,
		},
		"valid": {
			t:        []time.Time{hour(0), hour(1), hour(2)},
			expected: &Index{start: hour(0), freq: time.Hour, n: 3},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			idx, err := IndexFromTimes(td.t)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, idx)
		})
	}
}

func TestIndexLookups(t *testing.T) {
	idx, err := NewIndex(hour(0), time.Hour, 1000)
	require.NoError(t, err)

	assert.Equal(t, 1000, idx.Len())
	assert.Equal(t, hour(0), idx.Start())
	assert.Equal(t, hour(999), idx.End())
	assert.Equal(t, hour(42), idx.At(42))
	assert.Equal(t, hour(1024), idx.At(1024))

	pos, ok := idx.Position(hour(879))
	assert.True(t, ok)
	assert.Equal(t, 879, pos)

	_, ok = idx.Position(hour(1000))
	assert.False(t, ok)
	_, ok = idx.Position(hour(-1))
	assert.False(t, ok)
	_, ok = idx.Position(hour(3).Add(time.Minute))
	assert.False(t, ok)

	assert.True(t, idx.Contains(hour(999)))
	assert.Equal(t, hour(903), idx.Offset(hour(879), 24))
	assert.Equal(t, []time.Time{hour(880), hour(881), hour(882)}, idx.Range(hour(880), 3))
	assert.Nil(t, idx.Range(hour(880), 0))
}

func TestIndexEmpty(t *testing.T) {
	idx, err := NewIndex(hour(0), time.Hour, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.True(t, idx.Start().IsZero())
	assert.True(t, idx.End().IsZero())

	_, ok := idx.Position(hour(0))
	assert.False(t, ok)

	var nilIdx *Index
	assert.Equal(t, 0, nilIdx.Len())

	_, err = NewIndex(hour(0), 0, 10)
	assert.ErrorIs(t, err, ErrInvalidFreq)
}

func TestIndexSliceAndBounds(t *testing.T) {
	idx, err := NewIndex(hour(0), time.Hour, 48)
	require.NoError(t, err)

	sub := idx.Slice(10, 20)
	assert.Equal(t, 10, sub.Len())
	assert.Equal(t, hour(10), sub.Start())
	assert.Equal(t, hour(19), sub.End())

	ext := sub.Extend(5)
	assert.Equal(t, 15, ext.Len())
	assert.Equal(t, hour(24), ext.End())

	testData := map[string]struct {
		from, to time.Time
		i, j     int
	}{
		"full":            {from: hour(-5), to: hour(100), i: 0, j: 48},
		"inner":           {from: hour(3), to: hour(7), i: 3, j: 8},
		"between points":  {from: hour(3).Add(time.Minute), to: hour(7).Add(time.Minute), i: 4, j: 8},
		"before index":    {from: hour(-10), to: hour(-5), i: 0, j: 0},
		"after index":     {from: hour(60), to: hour(70), i: 48, j: 48},
		"reversed bounds": {from: hour(7), to: hour(3), i: 0, j: 0},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			i, j := idx.Bounds(td.from, td.to)
			assert.Equal(t, td.i, i)
			assert.Equal(t, td.j, j)
		})
	}
}
