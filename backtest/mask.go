package backtest

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidMask = errors.New("invalid fold mask")

// FoldMask describes one backtest split. The model is trained on every point between
// FirstTrainTimestamp and LastTrainTimestamp inclusive and evaluated on TargetTimestamps.
type FoldMask struct {
	FirstTrainTimestamp time.Time   `json:"first_train_timestamp"`
	LastTrainTimestamp  time.Time   `json:"last_train_timestamp"`
	TargetTimestamps    []time.Time `json:"target_timestamps"`
}

// Validate checks that the training range precedes the targets and that the targets are
// contiguous at freq starting one step after the last training point.
func (m FoldMask) Validate(freq time.Duration) error {
	if m.LastTrainTimestamp.Before(m.FirstTrainTimestamp) {
		return fmt.Errorf("last train %s before first train %s, %w",
			m.LastTrainTimestamp, m.FirstTrainTimestamp, ErrInvalidMask)
	}
	if len(m.TargetTimestamps) == 0 {
		return fmt.Errorf("no target timestamps, %w", ErrInvalidMask)
	}
	expected := m.LastTrainTimestamp
	for i, t := range m.TargetTimestamps {
		expected = expected.Add(freq)
		if !t.Equal(expected) {
			return fmt.Errorf("target %d at %s, expected %s, %w", i, t, expected, ErrInvalidMask)
		}
	}
	return nil
}

// TrainSize returns the number of training points given the sampling frequency
func (m FoldMask) TrainSize(freq time.Duration) int {
	return int(m.LastTrainTimestamp.Sub(m.FirstTrainTimestamp)/freq) + 1
}

// TargetStart returns the first target timestamp
func (m FoldMask) TargetStart() time.Time {
	if len(m.TargetTimestamps) == 0 {
		return time.Time{}
	}
	return m.TargetTimestamps[0]
}

// TargetEnd returns the last target timestamp
func (m FoldMask) TargetEnd() time.Time {
	if len(m.TargetTimestamps) == 0 {
		return time.Time{}
	}
	return m.TargetTimestamps[len(m.TargetTimestamps)-1]
}
