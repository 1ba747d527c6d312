package transform

import (
	"fmt"
	"slices"
)

// Selection describes the transforms applied for a forecast run. Lag and Mean are always
// applied with the configured number of lags and mean window. Optional adds any of the
// OptionalKinds, naming Lag or Mean there has no effect.
type Selection struct {
	NumberOfLags int    `json:"number_of_lags"`
	MeanWindow   int    `json:"mean_window"`
	Optional     []Kind `json:"optional"`
}

// Build returns the transforms in canonical order for the given horizon. Lags are multiples
// of the horizon and the mean is taken over the first lag.
func (s Selection) Build(horizon int) ([]Transform, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("horizon must be positive, got %d, %w", horizon, ErrInvalidTransform)
	}
	if s.NumberOfLags < 1 {
		return nil, fmt.Errorf("number of lags must be positive, got %d, %w", s.NumberOfLags, ErrInvalidTransform)
	}

	kinds := []Kind{KindLag, KindMean}
	for _, k := range s.Optional {
		if k < 0 || int(k) >= len(kindNames) {
			return nil, fmt.Errorf("%s, %w", k, ErrUnknownTransform)
		}
		if !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	slices.Sort(kinds)

	transforms := make([]Transform, 0, len(kinds))
	for _, k := range kinds {
		var t Transform
		switch k {
		case KindLag:
			t = NewLag(horizon, s.NumberOfLags)
		case KindMean:
			t = NewMean(horizon, s.MeanWindow)
		case KindLog:
			t = NewLog()
		case KindDateFlags:
			t = NewDateFlags()
		case KindTrend:
			t = NewTrend()
		case KindDensityOutliers:
			t = NewDensityOutliers()
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		transforms = append(transforms, t)
	}
	return transforms, nil
}

// Clone returns independent copies of the transforms with no fitted state
func Clone(transforms []Transform) []Transform {
	res := make([]Transform, len(transforms))
	for i, t := range transforms {
		t.trend = nil
		res[i] = t
	}
	return res
}
