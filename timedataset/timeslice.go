package timedataset

import (
	"math"
	"sort"
	"time"
)

// TimeSlice is a slice of time points with helpers for bounds and frequency
type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}
	return t[len(t)-1]
}

// Sort orders the time points in increasing order in place
func (t TimeSlice) Sort() {
	sort.Slice(t, func(i, j int) bool {
		return t[i].Before(t[j])
	})
}

// EstimateFreq returns the most common spacing between consecutive points. Ties are
// broken by picking the smallest spacing.
func (t TimeSlice) EstimateFreq() (time.Duration, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	frequencies := make(map[time.Duration]int)
	for i := 1; i < len(t); i++ {
		delta := t[i].Sub(t[i-1])
		if delta <= 0 {
			continue
		}
		frequencies[delta] += 1
	}
	if len(frequencies) == 0 {
		return 0, ErrCannotInferFreq
	}

	var maxCnt int
	maxDelta := time.Duration(math.MaxInt64)
	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	return maxDelta, nil
}
