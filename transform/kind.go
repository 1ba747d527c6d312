package transform

import (
	"fmt"
	"strings"
)

// Kind identifies one of the supported transforms. The declaration order is the canonical
// order transforms are applied in.
type Kind int

const (
	KindLag Kind = iota
	KindMean
	KindLog
	KindDateFlags
	KindTrend
	KindDensityOutliers
)

var kindNames = []string{
	KindLag:             "Lag",
	KindMean:            "Mean",
	KindLog:             "Log",
	KindDateFlags:       "DateFlags",
	KindTrend:           "Trend",
	KindDensityOutliers: "DensityOutliers",
}

// OptionalKinds are the transforms a user may toggle on top of the lag and mean features
var OptionalKinds = []Kind{KindLog, KindDateFlags, KindTrend, KindDensityOutliers}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind resolves a transform name case insensitively. The Transform suffix is optional
// so LogTransform and log both resolve to KindLog.
func ParseKind(name string) (Kind, error) {
	trimmed := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), "transform")
	for k, kindName := range kindNames {
		if strings.ToLower(kindName) == trimmed {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%q, %w", name, ErrUnknownTransform)
}

// ParseKinds resolves every name, failing on the first unknown one
func ParseKinds(names []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(names))
	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("%d, %w", int(k), ErrUnknownTransform)
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
