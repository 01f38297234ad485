package repository

import (
	"testing"
	"time"

	calendardomain "inboxai-backend/internal/calendar/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(eventID string, start, end time.Time) *calendardomain.Event {
	return &calendardomain.Event{
		EventID:   eventID,
		Summary:   "standup",
		StartTime: start,
		EndTime:   end,
		Attendees: []string{"me@example.com"},
		Status:    "confirmed",
	}
}

func TestUpsertEvent_RoundTrip(t *testing.T) {
	repo := NewEventRepository()
	start := time.Now()
	in := testEvent("evt-1", start, start.Add(time.Hour))

	created, err := repo.UpsertEvent(in)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.GetEventByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	in.ID = got.ID
	assert.Equal(t, in, got)
}

func TestUpsertEvent_NaturalKeyDeduplicates(t *testing.T) {
	repo := NewEventRepository()
	start := time.Now()

	first, err := repo.UpsertEvent(testEvent("evt-1", start, start.Add(time.Hour)))
	require.NoError(t, err)

	updated := testEvent("evt-1", start, start.Add(time.Hour))
	updated.Summary = "standup (moved)"
	second, err := repo.UpsertEvent(updated)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.Count())
}

func TestUpsertEvent_ClampsInvertedRange(t *testing.T) {
	repo := NewEventRepository()
	start := time.Now()

	created, err := repo.UpsertEvent(testEvent("evt-1", start, start.Add(-time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, created.StartTime, created.EndTime)
}

func TestGetEvents_SortedByStartAscending(t *testing.T) {
	repo := NewEventRepository()
	base := time.Now()

	for _, tc := range []struct {
		id     string
		offset time.Duration
	}{
		{"later", 2 * time.Hour},
		{"soon", 30 * time.Minute},
		{"next", time.Hour},
	} {
		_, err := repo.UpsertEvent(testEvent(tc.id, base.Add(tc.offset), base.Add(tc.offset+30*time.Minute)))
		require.NoError(t, err)
	}

	events, err := repo.GetEvents()
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "soon", events[0].EventID)
	assert.Equal(t, "next", events[1].EventID)
	assert.Equal(t, "later", events[2].EventID)
}

func TestGetUpcomingEvents_SkipsPastAndHonorsLimit(t *testing.T) {
	repo := NewEventRepository()
	now := time.Now()

	repo.UpsertEvent(testEvent("past", now.Add(-2*time.Hour), now.Add(-time.Hour)))
	repo.UpsertEvent(testEvent("a", now.Add(time.Hour), now.Add(2*time.Hour)))
	repo.UpsertEvent(testEvent("b", now.Add(3*time.Hour), now.Add(4*time.Hour)))
	repo.UpsertEvent(testEvent("c", now.Add(5*time.Hour), now.Add(6*time.Hour)))

	events, err := repo.GetUpcomingEvents(now, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].EventID)
	assert.Equal(t, "b", events[1].EventID)
}

func TestGetEventsInRange(t *testing.T) {
	repo := NewEventRepository()
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	repo.UpsertEvent(testEvent("before", base.Add(-2*time.Hour), base.Add(-time.Hour)))
	repo.UpsertEvent(testEvent("inside", base, base.Add(time.Hour)))
	repo.UpsertEvent(testEvent("after", base.Add(10*time.Hour), base.Add(11*time.Hour)))

	events, err := repo.GetEventsInRange(base.Add(-30*time.Minute), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "inside", events[0].EventID)
}

func TestDeleteEvent(t *testing.T) {
	repo := NewEventRepository()
	start := time.Now()
	created, _ := repo.UpsertEvent(testEvent("evt-1", start, start.Add(time.Hour)))

	assert.True(t, repo.DeleteEvent(created.ID))
	assert.False(t, repo.DeleteEvent(created.ID))
	assert.Equal(t, 0, repo.Count())
}

func TestGetAnalytics(t *testing.T) {
	repo := NewEventRepository()
	// Monday 08:00, so today and this week have deterministic boundaries.
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	repo.UpsertEvent(testEvent("today", now.Add(2*time.Hour), now.Add(3*time.Hour)))
	repo.UpsertEvent(testEvent("tomorrow", now.AddDate(0, 0, 1), now.AddDate(0, 0, 1).Add(time.Hour)))
	repo.UpsertEvent(testEvent("next-month", now.AddDate(0, 1, 0), now.AddDate(0, 1, 0).Add(time.Hour)))
	repo.UpsertEvent(testEvent("yesterday", now.AddDate(0, 0, -1), now.AddDate(0, 0, -1).Add(time.Hour)))

	analytics := repo.GetAnalytics(now)
	assert.Equal(t, 3, analytics.UpcomingEvents)
	assert.Equal(t, 1, analytics.EventsToday)
	assert.Equal(t, 2, analytics.EventsThisWeek)

	// Three-day sweep around a single busy hour yields at most five slots.
	require.NotEmpty(t, analytics.FreeSlots)
	assert.LessOrEqual(t, len(analytics.FreeSlots), 5)
	assert.Equal(t, "2026-01-05", analytics.FreeSlots[0].Date)
	assert.GreaterOrEqual(t, analytics.FreeSlots[0].DurationMinutes, 30)
}

func TestClearEvents(t *testing.T) {
	repo := NewEventRepository()
	start := time.Now()
	repo.UpsertEvent(testEvent("evt-1", start, start.Add(time.Hour)))
	repo.Clear()

	events, err := repo.GetEvents()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventReadsReturnDefensiveCopies(t *testing.T) {
	repo := NewEventRepository()
	start := time.Now()
	created, _ := repo.UpsertEvent(testEvent("evt-1", start, start.Add(time.Hour)))

	got, _ := repo.GetEventByID(created.ID)
	got.Summary = "mutated"
	got.Attendees[0] = "mutated"

	fresh, _ := repo.GetEventByID(created.ID)
	assert.Equal(t, "standup", fresh.Summary)
	assert.Equal(t, "me@example.com", fresh.Attendees[0])
}
