package repository

import (
	"sort"
	"sync"
	"time"

	calendardomain "inboxai-backend/internal/calendar/domain"
	"inboxai-backend/pkg/timeslot"

	"github.com/google/uuid"
)

type eventRepository struct {
	mu        sync.RWMutex
	events    map[string]*calendardomain.Event
	byEventID map[string]string
}

func NewEventRepository() EventRepository {
	return &eventRepository{
		events:    make(map[string]*calendardomain.Event),
		byEventID: make(map[string]string),
	}
}

func copyEvent(e *calendardomain.Event) *calendardomain.Event {
	c := *e
	if e.Attendees != nil {
		c.Attendees = make([]string, len(e.Attendees))
		copy(c.Attendees, e.Attendees)
	}
	return &c
}

func (r *eventRepository) UpsertEvent(event *calendardomain.Event) (*calendardomain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyEvent(event)
	// Malformed ranges from the provider are clamped to zero-length instead
	// of being stored inverted, so the gap sweep never sees end < start.
	if stored.EndTime.Before(stored.StartTime) {
		stored.EndTime = stored.StartTime
	}

	if existingID, ok := r.byEventID[event.EventID]; ok {
		stored.ID = existingID
	} else {
		stored.ID = uuid.New().String()
		r.byEventID[event.EventID] = stored.ID
	}
	r.events[stored.ID] = stored
	return copyEvent(stored), nil
}

func (r *eventRepository) GetEventByID(id string) (*calendardomain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	return copyEvent(event), nil
}

func (r *eventRepository) GetEventByEventID(eventID string) (*calendardomain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEventID[eventID]
	if !ok {
		return nil, nil
	}
	return copyEvent(r.events[id]), nil
}

func (r *eventRepository) GetEvents() ([]*calendardomain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedEventsLocked(), nil
}

func (r *eventRepository) GetEventsInRange(from, to time.Time) ([]*calendardomain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var events []*calendardomain.Event
	for _, event := range r.sortedEventsLocked() {
		if event.EndTime.After(from) && event.StartTime.Before(to) {
			events = append(events, event)
		}
	}
	return events, nil
}

func (r *eventRepository) GetUpcomingEvents(now time.Time, limit int) ([]*calendardomain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var events []*calendardomain.Event
	for _, event := range r.sortedEventsLocked() {
		if !event.StartTime.Before(now) {
			events = append(events, event)
			if limit > 0 && len(events) >= limit {
				break
			}
		}
	}
	return events, nil
}

func (r *eventRepository) DeleteEvent(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[id]
	if !ok {
		return false
	}
	delete(r.byEventID, event.EventID)
	delete(r.events, id)
	return true
}

func (r *eventRepository) GetAnalytics(now time.Time) *calendardomain.CalendarAnalytics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	analytics := &calendardomain.CalendarAnalytics{}

	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.AddDate(0, 0, 1)
	weekEnd := todayStart.AddDate(0, 0, 7)

	var busy []timeslot.Interval
	for _, event := range r.events {
		if event.StartTime.After(now) || event.StartTime.Equal(now) {
			analytics.UpcomingEvents++
		}
		if event.StartTime.Before(todayEnd) && event.EndTime.After(todayStart) {
			analytics.EventsToday++
		}
		if event.StartTime.Before(weekEnd) && event.EndTime.After(todayStart) {
			analytics.EventsThisWeek++
		}
		busy = append(busy, timeslot.Interval{Start: event.StartTime, End: event.EndTime})
	}

	opts := timeslot.Options{
		MinGapMinutes:    30,
		HorizonDays:      3,
		MaxResults:       5,
		WorkdayStartHour: 9,
		WorkdayEndHour:   17,
	}
	analytics.FreeSlots = timeslot.Sweep(busy, now, opts)
	return analytics
}

func (r *eventRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = make(map[string]*calendardomain.Event)
	r.byEventID = make(map[string]string)
}

func (r *eventRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}

func (r *eventRepository) sortedEventsLocked() []*calendardomain.Event {
	events := make([]*calendardomain.Event, 0, len(r.events))
	for _, event := range r.events {
		events = append(events, copyEvent(event))
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return events
}
