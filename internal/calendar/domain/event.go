package domain

import (
	"time"

	"inboxai-backend/pkg/timeslot"
)

type Event struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"` // Google Calendar event id, natural key for upserts
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Attendees   []string  `json:"attendees"`
	Organizer   string    `json:"organizer"`
	Status      string    `json:"status"` // confirmed, tentative, cancelled
	IsAllDay    bool      `json:"is_all_day"`
	ColorID     string    `json:"color_id"`
}

// CalendarAnalytics is recomputed on every request from the stored events.
type CalendarAnalytics struct {
	UpcomingEvents int                 `json:"upcoming_events"`
	EventsToday    int                 `json:"events_today"`
	EventsThisWeek int                 `json:"events_this_week"`
	FreeSlots      []timeslot.FreeSlot `json:"free_slots"`
}
