package gcalendar

import (
	"context"
	"fmt"
	"log"
	"time"

	authdomain "inboxai-backend/internal/auth/domain"
	calendardomain "inboxai-backend/internal/calendar/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type TokenUpdateFunc = authdomain.TokenUpdateFunc

type Service struct {
	clientID     string
	clientSecret string
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Calendar] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

func (s *Service) calendarService(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*calendar.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	wrappedSource := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}
	return srv, nil
}

// GetEvents lists events on the primary calendar within the given window,
// with recurring events expanded into single instances.
func (s *Service) GetEvents(ctx context.Context, accessToken, refreshToken string, from, to time.Time, onTokenRefresh TokenUpdateFunc) ([]*calendardomain.Event, error) {
	srv, err := s.calendarService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	resp, err := srv.Events.List("primary").
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events: %w", err)
	}

	events := make([]*calendardomain.Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Status == "cancelled" {
			continue
		}
		events = append(events, convertEvent(item))
	}
	return events, nil
}

// CreateEvent inserts an event on the primary calendar.
func (s *Service) CreateEvent(ctx context.Context, accessToken, refreshToken string, event *calendardomain.Event, onTokenRefresh TokenUpdateFunc) (*calendardomain.Event, error) {
	srv, err := s.calendarService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	created, err := srv.Events.Insert("primary", toGoogleEvent(event)).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to create event: %w", err)
	}
	return convertEvent(created), nil
}

// UpdateEvent patches an existing event on the primary calendar.
func (s *Service) UpdateEvent(ctx context.Context, accessToken, refreshToken, eventID string, event *calendardomain.Event, onTokenRefresh TokenUpdateFunc) (*calendardomain.Event, error) {
	srv, err := s.calendarService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}

	updated, err := srv.Events.Patch("primary", eventID, toGoogleEvent(event)).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to update event: %w", err)
	}
	return convertEvent(updated), nil
}

// DeleteEvent removes an event from the primary calendar.
func (s *Service) DeleteEvent(ctx context.Context, accessToken, refreshToken, eventID string, onTokenRefresh TokenUpdateFunc) error {
	srv, err := s.calendarService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return err
	}

	if err := srv.Events.Delete("primary", eventID).Do(); err != nil {
		return fmt.Errorf("unable to delete event: %w", err)
	}
	return nil
}

func convertEvent(item *calendar.Event) *calendardomain.Event {
	event := &calendardomain.Event{
		EventID:     item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Status:      item.Status,
		ColorID:     item.ColorId,
	}

	if item.Organizer != nil {
		event.Organizer = item.Organizer.Email
	}
	for _, attendee := range item.Attendees {
		event.Attendees = append(event.Attendees, attendee.Email)
	}

	event.StartTime, event.IsAllDay = parseEventTime(item.Start)
	event.EndTime, _ = parseEventTime(item.End)
	return event
}

func parseEventTime(t *calendar.EventDateTime) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, false
	}
	if t.Date != "" {
		parsed, err := time.Parse("2006-01-02", t.Date)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

func toGoogleEvent(event *calendardomain.Event) *calendar.Event {
	out := &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		ColorId:     event.ColorID,
	}

	if event.IsAllDay {
		out.Start = &calendar.EventDateTime{Date: event.StartTime.Format("2006-01-02")}
		out.End = &calendar.EventDateTime{Date: event.EndTime.Format("2006-01-02")}
	} else {
		out.Start = &calendar.EventDateTime{DateTime: event.StartTime.Format(time.RFC3339)}
		out.End = &calendar.EventDateTime{DateTime: event.EndTime.Format(time.RFC3339)}
	}

	for _, email := range event.Attendees {
		out.Attendees = append(out.Attendees, &calendar.EventAttendee{Email: email})
	}
	return out
}
