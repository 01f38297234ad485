package timeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is a fixed reference date (Monday 2026-01-05, local midnight).
var monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)

func at(day time.Time, hour, min int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, day.Location())
}

func TestSweep_EmptyCalendarFullDay(t *testing.T) {
	slots := Sweep(nil, monday, DefaultOptions(60, 1))

	require.Len(t, slots, 1)
	assert.Equal(t, "2026-01-05", slots[0].Date)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "17:00", slots[0].EndTime)
	assert.Equal(t, 480, slots[0].DurationMinutes)
}

func TestSweep_SplitsAroundBusyInterval(t *testing.T) {
	busy := []Interval{{Start: at(monday, 10, 0), End: at(monday, 11, 0)}}

	slots := Sweep(busy, monday, DefaultOptions(30, 1))

	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "10:00", slots[0].EndTime)
	assert.Equal(t, 60, slots[0].DurationMinutes)
	assert.Equal(t, "11:00", slots[1].StartTime)
	assert.Equal(t, "17:00", slots[1].EndTime)
	assert.Equal(t, 360, slots[1].DurationMinutes)
}

func TestSweep_SkipsGapsShorterThanMinimum(t *testing.T) {
	busy := []Interval{{Start: at(monday, 9, 30), End: at(monday, 12, 0)}}

	// The 09:00-09:30 gap is below the 60-minute minimum.
	slots := Sweep(busy, monday, DefaultOptions(60, 1))

	require.Len(t, slots, 1)
	assert.Equal(t, "12:00", slots[0].StartTime)
	assert.Equal(t, "17:00", slots[0].EndTime)
}

func TestSweep_NeverEmitsWeekendSlots(t *testing.T) {
	// 14-day horizon covers two weekends.
	slots := Sweep(nil, monday, Options{
		MinGapMinutes:    30,
		HorizonDays:      14,
		MaxResults:       100,
		WorkdayStartHour: 9,
		WorkdayEndHour:   17,
	})

	assert.Len(t, slots, 10) // 10 weekdays in 14 days
	for _, slot := range slots {
		d, err := time.ParseInLocation("2006-01-02", slot.Date, time.Local)
		require.NoError(t, err)
		assert.NotEqual(t, time.Saturday, d.Weekday())
		assert.NotEqual(t, time.Sunday, d.Weekday())
	}
}

func TestSweep_CapsResults(t *testing.T) {
	slots := Sweep(nil, monday, DefaultOptions(60, 30))
	assert.Len(t, slots, 10)
}

func TestSweep_ChronologicalOrder(t *testing.T) {
	busy := []Interval{
		{Start: at(monday, 14, 0), End: at(monday, 15, 0)},
		{Start: at(monday, 10, 0), End: at(monday, 11, 0)},
	}

	slots := Sweep(busy, monday, DefaultOptions(30, 2))

	require.Len(t, slots, 4)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "11:00", slots[1].StartTime)
	assert.Equal(t, "15:00", slots[2].StartTime)
	assert.Equal(t, "2026-01-06", slots[3].Date)
}

func TestSweep_OverlappingIntervalsAdvanceCursor(t *testing.T) {
	busy := []Interval{
		{Start: at(monday, 9, 0), End: at(monday, 13, 0)},
		{Start: at(monday, 10, 0), End: at(monday, 11, 0)}, // contained in the first
	}

	slots := Sweep(busy, monday, DefaultOptions(60, 1))

	require.Len(t, slots, 1)
	assert.Equal(t, "13:00", slots[0].StartTime)
	assert.Equal(t, "17:00", slots[0].EndTime)
}

func TestSweep_ClampsIntervalsToWorkingWindow(t *testing.T) {
	// Event runs from before the workday into mid-morning.
	busy := []Interval{{Start: at(monday, 7, 0), End: at(monday, 10, 0)}}

	slots := Sweep(busy, monday, DefaultOptions(60, 1))

	require.Len(t, slots, 1)
	assert.Equal(t, "10:00", slots[0].StartTime)
	assert.Equal(t, "17:00", slots[0].EndTime)
}

func TestSweep_FullyBookedDayYieldsNothing(t *testing.T) {
	busy := []Interval{{Start: at(monday, 9, 0), End: at(monday, 17, 0)}}
	slots := Sweep(busy, monday, DefaultOptions(30, 1))
	assert.Empty(t, slots)
}

func TestSweep_InvalidOptions(t *testing.T) {
	assert.Empty(t, Sweep(nil, monday, Options{MinGapMinutes: 0, HorizonDays: 1}))
	assert.Empty(t, Sweep(nil, monday, Options{MinGapMinutes: 30, HorizonDays: 0}))
}
