package usecase

import (
	"context"
	"time"

	authdomain "inboxai-backend/internal/auth/domain"
	calendardomain "inboxai-backend/internal/calendar/domain"
	calendardto "inboxai-backend/internal/calendar/dto"
	"inboxai-backend/pkg/timeslot"
)

// CalendarProvider is the slice of the Google Calendar client the
// calendar usecase needs.
type CalendarProvider interface {
	GetEvents(ctx context.Context, accessToken, refreshToken string, from, to time.Time, onTokenRefresh authdomain.TokenUpdateFunc) ([]*calendardomain.Event, error)
	CreateEvent(ctx context.Context, accessToken, refreshToken string, event *calendardomain.Event, onTokenRefresh authdomain.TokenUpdateFunc) (*calendardomain.Event, error)
	UpdateEvent(ctx context.Context, accessToken, refreshToken, eventID string, event *calendardomain.Event, onTokenRefresh authdomain.TokenUpdateFunc) (*calendardomain.Event, error)
	DeleteEvent(ctx context.Context, accessToken, refreshToken, eventID string, onTokenRefresh authdomain.TokenUpdateFunc) error
}

type CalendarUsecase interface {
	SyncEvents(ctx context.Context, user *authdomain.User) (int, error)

	GetEvents(userID string) ([]*calendardomain.Event, error)
	GetEventByID(userID, id string) (*calendardomain.Event, error)
	GetUpcomingEvents(userID string, now time.Time, limit int) ([]*calendardomain.Event, error)
	CreateEvent(ctx context.Context, user *authdomain.User, req *calendardto.CreateEventRequest) (*calendardomain.Event, error)
	UpdateEvent(ctx context.Context, user *authdomain.User, id string, req *calendardto.UpdateEventRequest) (*calendardomain.Event, error)
	DeleteEvent(ctx context.Context, user *authdomain.User, id string) (bool, error)

	GetAnalytics(userID string, now time.Time) *calendardomain.CalendarAnalytics
	FindFreeSlots(userID string, now time.Time, minGapMinutes, horizonDays int) []timeslot.FreeSlot

	ClearEvents(userID string)
}
