package repositories

import (
	"context"
	"time"

	"github.com/noa-assistant/server/domain/entities"
)

// CalendarProvider abstracts the external calendar service. Failures carry a
// *ProviderError so the dispatcher can distinguish a disconnected integration
// from a transient API error.
type CalendarProvider interface {
	// ListEvents returns events ordered by start time within [timeMin, timeMax).
	// query optionally restricts results to events matching the free text.
	ListEvents(ctx context.Context, userID string, timeMin, timeMax time.Time, query string) ([]entities.CalendarEvent, error)
	// QuickAdd creates an event from a natural-language description,
	// delegating the parsing to the provider.
	QuickAdd(ctx context.Context, userID string, text string) (entities.CalendarEvent, error)
	// DeleteEvent removes the event with the given provider ID.
	DeleteEvent(ctx context.Context, userID string, eventID string) error
}
