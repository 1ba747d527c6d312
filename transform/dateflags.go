package transform

import (
	"fmt"
	"time"

	"github.com/aouyang1/go-taxiforecaster/event"
	"github.com/aouyang1/go-taxiforecaster/feature"
)

// DateFlagsParams derives calendar features from the frame timestamps. Each enabled flag is
// written to OutColumn_<flag>. A non empty HolidayCalendar names the event calendar used for
// the is_holiday flag.
type DateFlagsParams struct {
	OutColumn         string `json:"out_column"`
	DayNumberInWeek   bool   `json:"day_number_in_week"`
	DayNumberInMonth  bool   `json:"day_number_in_month"`
	WeekNumberInMonth bool   `json:"week_number_in_month"`
	IsWeekend         bool   `json:"is_weekend"`
	HolidayCalendar   string `json:"holiday_calendar,omitempty"`
}

func NewDateFlags() Transform {
	return Transform{
		Kind: KindDateFlags,
		DateFlags: &DateFlagsParams{
			OutColumn:         "date_flag",
			DayNumberInWeek:   true,
			DayNumberInMonth:  true,
			WeekNumberInMonth: true,
			IsWeekend:         true,
		},
	}
}

func (p *DateFlagsParams) validate() error {
	if p == nil {
		return fmt.Errorf("missing date flag parameters, %w", ErrInvalidTransform)
	}
	if p.OutColumn == "" {
		return fmt.Errorf("date flag output column must be named, %w", ErrInvalidTransform)
	}
	if !p.DayNumberInWeek && !p.DayNumberInMonth && !p.WeekNumberInMonth && !p.IsWeekend && p.HolidayCalendar == "" {
		return fmt.Errorf("no date flags enabled, %w", ErrInvalidTransform)
	}
	if p.HolidayCalendar != "" && !event.ValidCalendar(p.HolidayCalendar) {
		return fmt.Errorf("holiday calendar %q, %w", p.HolidayCalendar, ErrInvalidTransform)
	}
	return nil
}

// Label returns the output column of a flag
func (p *DateFlagsParams) Label(flag string) string {
	return fmt.Sprintf("%s_%s", p.OutColumn, flag)
}

// dayNumberInWeek counts from Monday as 0
func dayNumberInWeek(t time.Time) float64 {
	return float64((int(t.Weekday()) + 6) % 7)
}

// weekNumberInMonth counts Monday starting weeks from 1, the first partial week included
func weekNumberInMonth(t time.Time) float64 {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return float64((t.Day()+int(dayNumberInWeek(first))-1)/7 + 1)
}

func isWeekend(t time.Time) float64 {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return 1
	}
	return 0
}

func (p *DateFlagsParams) transform(f *feature.Frame) error {
	ts := f.T()
	n := len(ts)

	type flag struct {
		name    string
		enabled bool
		fn      func(time.Time) float64
	}
	flags := []flag{
		{"day_number_in_week", p.DayNumberInWeek, dayNumberInWeek},
		{"day_number_in_month", p.DayNumberInMonth, func(t time.Time) float64 { return float64(t.Day()) }},
		{"week_number_in_month", p.WeekNumberInMonth, weekNumberInMonth},
		{"is_weekend", p.IsWeekend, isWeekend},
		{"is_holiday", p.HolidayCalendar != "", nil},
	}
	if p.HolidayCalendar != "" && n > 0 {
		holidays, err := event.NewNamedCalendar(p.HolidayCalendar, ts[0], ts[n-1])
		if err != nil {
			return fmt.Errorf("%w, %w", ErrInvalidTransform, err)
		}
		flags[len(flags)-1].fn = func(t time.Time) float64 {
			if holidays.Contains(t) {
				return 1
			}
			return 0
		}
	}

	for _, fl := range flags {
		if !fl.enabled || fl.fn == nil {
			continue
		}
		out := make([]float64, n)
		for i, t := range ts {
			out[i] = fl.fn(t)
		}
		if err := f.Set(p.Label(fl.name), out); err != nil {
			return err
		}
	}
	return nil
}
