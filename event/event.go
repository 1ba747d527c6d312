// Package event computes holiday spans used to flag calendar effects on taxi demand
package event

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

var (
	ErrStartAfterEnd = errors.New("event start time is after end time")
	ErrUnsetTime     = errors.New("unset event start or end time")
	ErrNoEventName   = errors.New("no event name")

	ErrUnknownCalendar = errors.New("unknown holiday calendar")
)

// USCalendar names the US federal holiday calendar
const USCalendar = "us"

// USHolidays are the US federal holidays
var USHolidays = []*cal.Holiday{
	us.NewYear,
	us.MlkDay,
	us.PresidentsDay,
	us.MemorialDay,
	us.IndependenceDay,
	us.LaborDay,
	us.ColumbusDay,
	us.VeteransDay,
	us.ThanksgivingDay,
	us.ChristmasDay,
}

// represents a time span to model separately, the end is exclusive
type Event struct {
	Name  string
	Start time.Time
	End   time.Time
}

func NewEvent(name string, start, end time.Time) Event {
	return Event{
		Name:  name,
		Start: start,
		End:   end,
	}
}

func (e *Event) Valid() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrUnsetTime
	}
	if e.Start.After(e.End) {
		return ErrStartAfterEnd
	}
	if e.Name == "" {
		return ErrNoEventName
	}
	return nil
}

// Contains reports whether t falls within [Start, End)
func (e *Event) Contains(t time.Time) bool {
	return !t.Before(e.Start) && t.Before(e.End)
}

// Holiday returns one event per observed occurrence of hol that overlaps [start, end]. Each
// event spans the observed calendar day in the location of start, widened by durBefore
// and durAfter.
func Holiday(hol *cal.Holiday, start, end time.Time, durBefore, durAfter time.Duration) []Event {
	loc := start.Location()

	events := []Event{}
	for i := start.Year(); i <= end.Year(); i++ {
		_, observed := hol.Calc(i)
		if observed.IsZero() {
			continue
		}
		day := time.Date(observed.Year(), observed.Month(), observed.Day(), 0, 0, 0, 0, loc)
		// unnamed holidays stay unnamed so Valid rejects them
		var name string
		if hol.Name != "" {
			name = strings.ReplaceAll(fmt.Sprintf("%s_%d", hol.Name, i), " ", "_")
		}
		ev := NewEvent(
			name,
			day.Add(-durBefore),
			day.Add(24*time.Hour).Add(durAfter),
		)
		if ev.End.After(start) && !ev.Start.After(end) {
			events = append(events, ev)
		}
	}
	return events
}

// Calendar is a set of events sorted by start time
type Calendar []Event

// calendars maps a calendar name to its holidays
var calendars = map[string][]*cal.Holiday{
	USCalendar: USHolidays,
}

// NewCalendar collects every occurrence of hols overlapping [start, end]
func NewCalendar(hols []*cal.Holiday, start, end time.Time) (Calendar, error) {
	var c Calendar
	for _, hol := range hols {
		for _, ev := range Holiday(hol, start, end, 0, 0) {
			if err := ev.Valid(); err != nil {
				return nil, fmt.Errorf("holiday %q, %w", ev.Name, err)
			}
			c = append(c, ev)
		}
	}
	sort.Slice(c, func(i, j int) bool {
		return c[i].Start.Before(c[j].Start)
	})
	return c, nil
}

// NewNamedCalendar returns the holiday calendar registered as name for [start, end]
func NewNamedCalendar(name string, start, end time.Time) (Calendar, error) {
	hols, exists := calendars[name]
	if !exists {
		return nil, fmt.Errorf("%q, %w", name, ErrUnknownCalendar)
	}
	return NewCalendar(hols, start, end)
}

// ValidCalendar reports whether name is a registered calendar
func ValidCalendar(name string) bool {
	_, exists := calendars[name]
	return exists
}

// Contains reports whether t falls within any event of the calendar
func (c Calendar) Contains(t time.Time) bool {
	for i := range c {
		if c[i].Start.After(t) {
			return false
		}
		if c[i].Contains(t) {
			return true
		}
	}
	return false
}
