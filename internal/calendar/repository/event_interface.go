package repository

import (
	"time"

	calendardomain "inboxai-backend/internal/calendar/domain"
)

type EventRepository interface {
	UpsertEvent(event *calendardomain.Event) (*calendardomain.Event, error)
	GetEventByID(id string) (*calendardomain.Event, error)
	GetEventByEventID(eventID string) (*calendardomain.Event, error)
	GetEvents() ([]*calendardomain.Event, error)
	GetEventsInRange(from, to time.Time) ([]*calendardomain.Event, error)
	GetUpcomingEvents(now time.Time, limit int) ([]*calendardomain.Event, error)
	DeleteEvent(id string) bool
	GetAnalytics(now time.Time) *calendardomain.CalendarAnalytics
	Clear()
	Count() int
}
