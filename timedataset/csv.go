package timedataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingTimestampColumn = errors.New("missing timestamp column")
	ErrMissingValueColumn     = errors.New("missing value column")
	ErrDuplicateTimestamp     = errors.New("duplicate timestamp for segment")
	ErrUnparsableTimestamp    = errors.New("unable to parse timestamp")
	ErrUnparsableValue        = errors.New("unable to parse value")
)

// DefaultSegment is used for wide formatted files with a single unnamed value column
const DefaultSegment = "main"

// CSVOptions configures how hourly observations are read from a CSV file. Files are
// either in long format (timestamp, segment, target) or wide format where every column
// besides the timestamp holds the values of one segment.
type CSVOptions struct {
	TimestampColumn string
	SegmentColumn   string
	TargetColumn    string
	TimeFormats     []string
	Freq            time.Duration
	Location        *time.Location
	Delimiter       rune
}

// NewDefaultCSVOptions returns options for hourly long formatted files
func NewDefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		TimestampColumn: "timestamp",
		SegmentColumn:   "segment",
		TargetColumn:    "target",
		TimeFormats: []string{
			"2006-01-02 15:04:05",
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04",
			"2006-01-02",
		},
		Freq:      time.Hour,
		Location:  time.UTC,
		Delimiter: ',',
	}
}

// LoadCSV reads a dataset from the CSV file at path
func LoadCSV(path string, opt *CSVOptions) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadCSVFromReader(file, opt)
}

// LoadCSVFromReader reads a dataset from r. Observations are placed onto a regular index
// at the configured frequency spanning the earliest to the latest timestamp. Missing
// observations are filled with NaN.
func LoadCSVFromReader(r io.Reader, opt *CSVOptions) (*Dataset, error) {
	if opt == nil {
		opt = NewDefaultCSVOptions()
	}
	if opt.Location == nil {
		opt.Location = time.UTC
	}

	reader := csv.NewReader(r)
	if opt.Delimiter != 0 {
		reader.Comma = opt.Delimiter
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoTrainingData
		}
		return nil, err
	}

	tsIdx, segIdx, targetIdx := -1, -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(h, "\""))
		header[i] = h
		switch h {
		case opt.TimestampColumn:
			tsIdx = i
		case opt.SegmentColumn:
			segIdx = i
		case opt.TargetColumn:
			targetIdx = i
		}
	}
	if tsIdx == -1 {
		return nil, fmt.Errorf("%q, %w", opt.TimestampColumn, ErrMissingTimestampColumn)
	}

	// long format when both segment and target columns are present, otherwise wide
	long := segIdx != -1 && targetIdx != -1
	valueCols := make(map[int]string)
	if !long {
		for i, h := range header {
			if i == tsIdx {
				continue
			}
			valueCols[i] = h
		}
		if len(valueCols) == 0 {
			return nil, ErrMissingValueColumn
		}
		if len(valueCols) == 1 {
			for i, h := range valueCols {
				if h == "" || h == opt.TargetColumn {
					valueCols[i] = DefaultSegment
				}
			}
		}
	}

	obs := make(map[string]map[int64]float64)
	var minT, maxT time.Time
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		ts, err := parseTimestamp(record[tsIdx], opt)
		if err != nil {
			return nil, fmt.Errorf("line %d, %w", line, err)
		}
		if minT.IsZero() || ts.Before(minT) {
			minT = ts
		}
		if maxT.IsZero() || ts.After(maxT) {
			maxT = ts
		}

		if long {
			seg := strings.TrimSpace(strings.Trim(record[segIdx], "\""))
			if err := addObservation(obs, seg, ts, record[targetIdx]); err != nil {
				return nil, fmt.Errorf("line %d, %w", line, err)
			}
			continue
		}
		for i, seg := range valueCols {
			if i >= len(record) {
				continue
			}
			if err := addObservation(obs, seg, ts, record[i]); err != nil {
				return nil, fmt.Errorf("line %d, %w", line, err)
			}
		}
	}

	if len(obs) == 0 {
		return nil, ErrNoTrainingData
	}

	freq := opt.Freq
	if freq <= 0 {
		freq, err = inferFreq(obs)
		if err != nil {
			return nil, err
		}
	}
	n := int(maxT.Sub(minT)/freq) + 1
	idx, err := NewIndex(minT, freq, n)
	if err != nil {
		return nil, err
	}

	segNames := make([]string, 0, len(obs))
	for seg := range obs {
		segNames = append(segNames, seg)
	}
	sort.Strings(segNames)

	segments := make(map[string][]float64, len(obs))
	for _, seg := range segNames {
		y := make([]float64, n)
		for i := range y {
			y[i] = math.NaN()
		}
		for unix, val := range obs[seg] {
			pos, ok := idx.Position(time.Unix(0, unix).In(minT.Location()))
			if !ok {
				return nil, fmt.Errorf("segment %q at %s, %w", seg, time.Unix(0, unix).UTC(), ErrIrregularIndex)
			}
			y[pos] = val
		}
		segments[seg] = y
	}
	return NewDataset(idx, segments)
}

// inferFreq estimates the frequency from the most common spacing of the observed times
func inferFreq(obs map[string]map[int64]float64) (time.Duration, error) {
	seen := make(map[int64]struct{})
	for _, segObs := range obs {
		for unix := range segObs {
			seen[unix] = struct{}{}
		}
	}
	t := make(TimeSlice, 0, len(seen))
	for unix := range seen {
		t = append(t, time.Unix(0, unix).UTC())
	}
	t.Sort()
	freq, err := t.EstimateFreq()
	if err != nil {
		return 0, err
	}
	slog.Debug("inferred frequency", "freq", freq, "start", t.StartTime(), "end", t.EndTime(), "points", len(t))
	return freq, nil
}

func parseTimestamp(raw string, opt *CSVOptions) (time.Time, error) {
	raw = strings.TrimSpace(strings.Trim(raw, "\""))
	for _, format := range opt.TimeFormats {
		ts, err := time.ParseInLocation(format, raw, opt.Location)
		if err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q, %w", raw, ErrUnparsableTimestamp)
}

func addObservation(obs map[string]map[int64]float64, seg string, ts time.Time, raw string) error {
	segObs, exists := obs[seg]
	if !exists {
		segObs = make(map[int64]float64)
		obs[seg] = segObs
	}
	key := ts.UnixNano()
	if _, exists := segObs[key]; exists {
		return fmt.Errorf("%q at %s, %w", seg, ts, ErrDuplicateTimestamp)
	}
	val, err := parseValue(raw)
	if err != nil {
		return err
	}
	segObs[key] = val
	return nil
}

// parseValue reads a float. Blank and NA tokens are missing observations.
func parseValue(raw string) (float64, error) {
	raw = strings.TrimSpace(strings.Trim(raw, "\""))
	switch raw {
	case "", "NA", "NaN", "nan", "null":
		return math.NaN(), nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%q, %w", raw, ErrUnparsableValue)
	}
	return val, nil
}
