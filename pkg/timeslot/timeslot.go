package timeslot

import (
	"sort"
	"time"
)

// Interval is a busy block of time, typically a calendar event.
type Interval struct {
	Start time.Time
	End   time.Time
}

// FreeSlot is a gap inside working hours with no overlapping interval.
type FreeSlot struct {
	Date            string `json:"date"`       // YYYY-MM-DD
	StartTime       string `json:"start_time"` // HH:MM
	EndTime         string `json:"end_time"`   // HH:MM
	DurationMinutes int    `json:"duration_minutes"`
}

// Options parameterizes the gap sweep. The free-slot finder and calendar
// analytics share this one implementation with different settings.
type Options struct {
	MinGapMinutes    int
	HorizonDays      int
	MaxResults       int
	WorkdayStartHour int
	WorkdayEndHour   int
}

// DefaultOptions matches the 09:00-17:00 working window used across the app.
func DefaultOptions(minGapMinutes, horizonDays int) Options {
	return Options{
		MinGapMinutes:    minGapMinutes,
		HorizonDays:      horizonDays,
		MaxResults:       10,
		WorkdayStartHour: 9,
		WorkdayEndHour:   17,
	}
}

// Sweep computes free slots over the horizon starting at from's date.
// For each non-weekend day it walks a cursor from the working-window start
// past each busy interval, emitting every gap of at least MinGapMinutes.
// Results are in chronological order, capped at MaxResults across all days.
func Sweep(busy []Interval, from time.Time, opts Options) []FreeSlot {
	if opts.MinGapMinutes <= 0 || opts.HorizonDays <= 0 {
		return []FreeSlot{}
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}

	minGap := time.Duration(opts.MinGapMinutes) * time.Minute
	slots := make([]FreeSlot, 0, opts.MaxResults)

	for offset := 0; offset < opts.HorizonDays; offset++ {
		day := from.AddDate(0, 0, offset)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}

		dayStart := time.Date(day.Year(), day.Month(), day.Day(), opts.WorkdayStartHour, 0, 0, 0, day.Location())
		dayEnd := time.Date(day.Year(), day.Month(), day.Day(), opts.WorkdayEndHour, 0, 0, 0, day.Location())

		// Intervals overlapping the working window, clamped to it.
		var dayBusy []Interval
		for _, iv := range busy {
			if iv.End.After(dayStart) && iv.Start.Before(dayEnd) {
				start := iv.Start
				if start.Before(dayStart) {
					start = dayStart
				}
				end := iv.End
				if end.After(dayEnd) {
					end = dayEnd
				}
				dayBusy = append(dayBusy, Interval{Start: start, End: end})
			}
		}
		sort.Slice(dayBusy, func(i, j int) bool {
			return dayBusy[i].Start.Before(dayBusy[j].Start)
		})

		cursor := dayStart
		for _, iv := range dayBusy {
			if iv.Start.Sub(cursor) >= minGap {
				slots = append(slots, newSlot(day, cursor, iv.Start))
				if len(slots) >= opts.MaxResults {
					return slots
				}
			}
			if iv.End.After(cursor) {
				cursor = iv.End
			}
		}

		if dayEnd.Sub(cursor) >= minGap {
			slots = append(slots, newSlot(day, cursor, dayEnd))
			if len(slots) >= opts.MaxResults {
				return slots
			}
		}
	}

	return slots
}

func newSlot(day, start, end time.Time) FreeSlot {
	return FreeSlot{
		Date:            day.Format("2006-01-02"),
		StartTime:       start.Format("15:04"),
		EndTime:         end.Format("15:04"),
		DurationMinutes: int(end.Sub(start).Minutes()),
	}
}
