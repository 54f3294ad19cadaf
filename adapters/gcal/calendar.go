package gcal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/noa-assistant/server/adapters/google"
	"github.com/noa-assistant/server/domain/entities"
	"github.com/noa-assistant/server/domain/repositories"
)

const (
	calendarID = "primary"
	maxResults = 50
)

// GoogleCalendar implements CalendarProvider using the Google Calendar API.
type GoogleCalendar struct {
	tokens *google.TokenManager
	logger *zap.Logger
}

// NewGoogleCalendar creates a new Google Calendar adapter
func NewGoogleCalendar(tokens *google.TokenManager, logger *zap.Logger) *GoogleCalendar {
	return &GoogleCalendar{tokens: tokens, logger: logger}
}

func (g *GoogleCalendar) service(ctx context.Context, userID string) (*calendar.Service, error) {
	client, err := g.tokens.HTTPClient(ctx, userID)
	if err != nil {
		return nil, err
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, repositories.NewProviderError("google-calendar", repositories.ErrorKindTransient,
			fmt.Errorf("failed to create calendar service: %w", err))
	}
	return svc, nil
}

// ListEvents returns events ordered by start time within the window.
func (g *GoogleCalendar) ListEvents(ctx context.Context, userID string, timeMin, timeMax time.Time, query string) ([]entities.CalendarEvent, error) {
	svc, err := g.service(ctx, userID)
	if err != nil {
		return nil, err
	}

	call := svc.Events.List(calendarID).
		Context(ctx).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		MaxResults(maxResults)
	if query != "" {
		call = call.Q(query)
	}

	resp, err := call.Do()
	if err != nil {
		g.logger.Error("Failed to list calendar events",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, google.ClassifyAPIError("google-calendar", err)
	}

	events := make([]entities.CalendarEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, toEntity(item))
	}
	return events, nil
}

// QuickAdd creates an event from a natural-language description.
func (g *GoogleCalendar) QuickAdd(ctx context.Context, userID string, text string) (entities.CalendarEvent, error) {
	svc, err := g.service(ctx, userID)
	if err != nil {
		return entities.CalendarEvent{}, err
	}

	item, err := svc.Events.QuickAdd(calendarID, text).Context(ctx).Do()
	if err != nil {
		g.logger.Error("Failed to quick-add event",
			zap.String("user_id", userID),
			zap.Error(err))
		return entities.CalendarEvent{}, google.ClassifyAPIError("google-calendar", err)
	}

	return toEntity(item), nil
}

// DeleteEvent removes the event with the given provider ID.
func (g *GoogleCalendar) DeleteEvent(ctx context.Context, userID string, eventID string) error {
	svc, err := g.service(ctx, userID)
	if err != nil {
		return err
	}

	if err := svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		g.logger.Error("Failed to delete event",
			zap.String("user_id", userID),
			zap.String("event_id", eventID),
			zap.Error(err))
		return google.ClassifyAPIError("google-calendar", err)
	}
	return nil
}

// toEntity converts an API event to the domain representation. All-day
// events carry a date without a time component.
func toEntity(item *calendar.Event) entities.CalendarEvent {
	event := entities.CalendarEvent{
		ID:       item.Id,
		Summary:  item.Summary,
		Location: item.Location,
	}

	if item.Start != nil {
		if item.Start.DateTime != "" {
			event.Start, _ = time.Parse(time.RFC3339, item.Start.DateTime)
		} else if item.Start.Date != "" {
			event.Start, _ = time.Parse("2006-01-02", item.Start.Date)
			event.AllDay = true
		}
	}
	if item.End != nil {
		if item.End.DateTime != "" {
			event.End, _ = time.Parse(time.RFC3339, item.End.DateTime)
		} else if item.End.Date != "" {
			event.End, _ = time.Parse("2006-01-02", item.End.Date)
		}
	}

	return event
}
