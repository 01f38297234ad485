package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	authdomain "inboxai-backend/internal/auth/domain"
	calendardomain "inboxai-backend/internal/calendar/domain"
	calendardto "inboxai-backend/internal/calendar/dto"
	"inboxai-backend/internal/calendar/repository"
	"inboxai-backend/pkg/timeslot"
)

var ErrEventNotFound = errors.New("event not found")

// Sync pulls this window around the current time.
const (
	syncWindowPast   = 7 * 24 * time.Hour
	syncWindowFuture = 30 * 24 * time.Hour
)

type calendarUsecase struct {
	mu        sync.Mutex
	stores    map[string]repository.EventRepository
	provider  CalendarProvider
	persister func(userID string) authdomain.TokenUpdateFunc
}

func NewCalendarUsecase(provider CalendarProvider, persister func(userID string) authdomain.TokenUpdateFunc) CalendarUsecase {
	return &calendarUsecase{
		stores:    make(map[string]repository.EventRepository),
		provider:  provider,
		persister: persister,
	}
}

func (u *calendarUsecase) storeFor(userID string) repository.EventRepository {
	u.mu.Lock()
	defer u.mu.Unlock()

	store, ok := u.stores[userID]
	if !ok {
		store = repository.NewEventRepository()
		u.stores[userID] = store
	}
	return store
}

func (u *calendarUsecase) persist(userID string) authdomain.TokenUpdateFunc {
	if u.persister == nil {
		return nil
	}
	return u.persister(userID)
}

func (u *calendarUsecase) SyncEvents(ctx context.Context, user *authdomain.User) (int, error) {
	if !user.GoogleConnected() {
		return 0, errors.New("google account not connected")
	}

	now := time.Now()
	events, err := u.provider.GetEvents(ctx, user.AccessToken, user.RefreshToken,
		now.Add(-syncWindowPast), now.Add(syncWindowFuture), u.persist(user.ID))
	if err != nil {
		return 0, fmt.Errorf("failed to sync events: %w", err)
	}

	store := u.storeFor(user.ID)
	synced := 0
	for _, event := range events {
		if _, err := store.UpsertEvent(event); err != nil {
			log.Printf("[Calendar] Failed to store event %s: %v", event.EventID, err)
			continue
		}
		synced++
	}
	return synced, nil
}

func (u *calendarUsecase) GetEvents(userID string) ([]*calendardomain.Event, error) {
	return u.storeFor(userID).GetEvents()
}

func (u *calendarUsecase) GetEventByID(userID, id string) (*calendardomain.Event, error) {
	event, err := u.storeFor(userID).GetEventByID(id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (u *calendarUsecase) GetUpcomingEvents(userID string, now time.Time, limit int) ([]*calendardomain.Event, error) {
	return u.storeFor(userID).GetUpcomingEvents(now, limit)
}

func (u *calendarUsecase) CreateEvent(ctx context.Context, user *authdomain.User, req *calendardto.CreateEventRequest) (*calendardomain.Event, error) {
	if req.EndTime.Before(req.StartTime) {
		return nil, errors.New("event end time must not be before start time")
	}

	event := &calendardomain.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Attendees:   req.Attendees,
		Organizer:   user.Email,
		Status:      "confirmed",
		IsAllDay:    req.IsAllDay,
	}

	if user.GoogleConnected() {
		created, err := u.provider.CreateEvent(ctx, user.AccessToken, user.RefreshToken, event, u.persist(user.ID))
		if err != nil {
			return nil, err
		}
		event = created
	} else {
		// Local-only event, synthesize a provider id.
		event.EventID = fmt.Sprintf("local-%d", time.Now().UnixNano())
	}

	return u.storeFor(user.ID).UpsertEvent(event)
}

func (u *calendarUsecase) UpdateEvent(ctx context.Context, user *authdomain.User, id string, req *calendardto.UpdateEventRequest) (*calendardomain.Event, error) {
	store := u.storeFor(user.ID)
	existing, err := store.GetEventByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrEventNotFound
	}

	if req.Summary != nil {
		existing.Summary = *req.Summary
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Location != nil {
		existing.Location = *req.Location
	}
	if req.StartTime != nil {
		existing.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		existing.EndTime = *req.EndTime
	}
	if existing.EndTime.Before(existing.StartTime) {
		return nil, errors.New("event end time must not be before start time")
	}

	if user.GoogleConnected() {
		updated, err := u.provider.UpdateEvent(ctx, user.AccessToken, user.RefreshToken, existing.EventID, existing, u.persist(user.ID))
		if err != nil {
			return nil, err
		}
		// Keep the provider's view, it is authoritative.
		updated.EventID = existing.EventID
		existing = updated
	}

	return store.UpsertEvent(existing)
}

func (u *calendarUsecase) DeleteEvent(ctx context.Context, user *authdomain.User, id string) (bool, error) {
	store := u.storeFor(user.ID)
	existing, err := store.GetEventByID(id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	if user.GoogleConnected() {
		if err := u.provider.DeleteEvent(ctx, user.AccessToken, user.RefreshToken, existing.EventID, u.persist(user.ID)); err != nil {
			return false, err
		}
	}
	return store.DeleteEvent(id), nil
}

func (u *calendarUsecase) GetAnalytics(userID string, now time.Time) *calendardomain.CalendarAnalytics {
	return u.storeFor(userID).GetAnalytics(now)
}

func (u *calendarUsecase) FindFreeSlots(userID string, now time.Time, minGapMinutes, horizonDays int) []timeslot.FreeSlot {
	// Only events overlapping the sweep horizon can contribute busy time.
	windowStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	windowEnd := windowStart.AddDate(0, 0, horizonDays)
	events, err := u.storeFor(userID).GetEventsInRange(windowStart, windowEnd)
	if err != nil {
		return nil
	}

	busy := make([]timeslot.Interval, 0, len(events))
	for _, event := range events {
		busy = append(busy, timeslot.Interval{Start: event.StartTime, End: event.EndTime})
	}
	return timeslot.Sweep(busy, now, timeslot.DefaultOptions(minGapMinutes, horizonDays))
}

func (u *calendarUsecase) ClearEvents(userID string) {
	u.storeFor(userID).Clear()
}
