package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noa-assistant/server/domain/entities"
	"github.com/noa-assistant/server/domain/repositories"
)

// How far ahead delete candidates are searched.
const deleteSearchWindow = 14 * 24 * time.Hour

// Upper bound on candidate titles listed back when a delete is ambiguous.
const maxDeleteCandidates = 5

const calendarNotConnectedMsg = "[Calendar not connected. Tell the user to connect their Google account in the dashboard settings to use calendar features.]"

// Dispatcher executes classified calendar intents against the external
// provider and turns every outcome, success or failure, into a plain string
// for the model to phrase. It never returns raw provider errors to callers.
type Dispatcher struct {
	calendar repositories.CalendarProvider
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher backed by the given calendar provider.
func NewDispatcher(calendar repositories.CalendarProvider, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{calendar: calendar, logger: logger}
}

var commandPrefixRe = regexp.MustCompile(`(?i)^\s*(?:(?:please|hey|can\s+you|could\s+you|would\s+you)\s+)*(?:(?:create|add|schedule|set\s+up|book|make)\s+)?(?:(?:a|an|the)\s+)?`)

// HandleCreate hands the utterance, minus its command-prefix phrasing, to the
// provider's natural-language event creator.
func (d *Dispatcher) HandleCreate(ctx context.Context, userID, text string) string {
	description := commandPrefixRe.ReplaceAllString(text, "")
	description = strings.TrimSpace(description)
	if description == "" {
		return "I couldn't work out what event to create. Please describe the event with a time, like \"meeting with Alex tomorrow at 3pm\"."
	}

	event, err := d.calendar.QuickAdd(ctx, userID, description)
	if err != nil {
		if repositories.IsNotConnected(err) {
			return calendarNotConnectedMsg
		}
		d.logger.Warn("Quick-add failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return "I couldn't create that event. Please give me a clearer time and description."
	}

	d.logger.Info("Created calendar event",
		zap.String("user_id", userID),
		zap.String("event_id", event.ID))

	return fmt.Sprintf("Created %q starting %s.", event.Summary, event.Start.Format("Monday, Jan 2 at 3:04 PM"))
}

var deleteTitleRe = regexp.MustCompile(`(?i)\b(?:cancel|delete|remove|clear)\s+(?:(?:the|my|that)\s+)?(.+?)(?:\s+(?:meeting|event|appointment|reminder|call))?\s*$`)

// genericEventNouns are terms too vague to search on. "cancel my meeting"
// captures "meeting" because the title group cannot be empty, and matching
// on it would hit every meeting in the window.
var genericEventNouns = map[string]bool{
	"meeting":     true,
	"event":       true,
	"appointment": true,
	"reminder":    true,
	"call":        true,
}

// HandleDelete searches upcoming events for the title mentioned after the
// cancellation verb. At most one event is ever deleted per request: zero
// matches report not-found, two or more list the candidates and mutate
// nothing.
func (d *Dispatcher) HandleDelete(ctx context.Context, userID, text string) string {
	m := deleteTitleRe.FindStringSubmatch(text)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return "I couldn't work out which event to cancel. Please name the event."
	}
	term := strings.TrimSpace(m[1])
	if genericEventNouns[strings.ToLower(term)] {
		return "I couldn't work out which event to cancel. Please name the event."
	}

	now := time.Now()
	events, err := d.calendar.ListEvents(ctx, userID, now, now.Add(deleteSearchWindow), term)
	if err != nil {
		if repositories.IsNotConnected(err) {
			return calendarNotConnectedMsg
		}
		d.logger.Warn("Delete candidate search failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return "I couldn't search your calendar just now. Please try again."
	}

	matches := filterByTitle(events, term)
	switch len(matches) {
	case 0:
		return fmt.Sprintf("I couldn't find an upcoming event matching %q.", term)
	case 1:
		event := matches[0]
		if err := d.calendar.DeleteEvent(ctx, userID, event.ID); err != nil {
			if repositories.IsNotConnected(err) {
				return calendarNotConnectedMsg
			}
			d.logger.Warn("Event deletion failed",
				zap.String("user_id", userID),
				zap.String("event_id", event.ID),
				zap.Error(err))
			return fmt.Sprintf("I found %q but couldn't cancel it. Please try again.", event.Summary)
		}
		d.logger.Info("Cancelled calendar event",
			zap.String("user_id", userID),
			zap.String("event_id", event.ID))
		return fmt.Sprintf("Cancelled %q on %s.", event.Summary, event.Start.Format("Monday, Jan 2 at 3:04 PM"))
	default:
		candidates := matches
		if len(candidates) > maxDeleteCandidates {
			candidates = candidates[:maxDeleteCandidates]
		}
		var b strings.Builder
		fmt.Fprintf(&b, "I found %d events matching %q. Which one should I cancel?\n", len(matches), term)
		for _, event := range candidates {
			fmt.Fprintf(&b, "- %s (%s)\n", event.Summary, event.Start.Format(eventTimeLayout))
		}
		return strings.TrimRight(b.String(), "\n")
	}
}

// HandleQuery resolves the date window the utterance refers to, fetches the
// matching events, and formats them for the model.
func (d *Dispatcher) HandleQuery(ctx context.Context, userID, text string) string {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var (
		timeMin, timeMax time.Time
		label            string
		singleDay        bool
	)
	lowered := strings.ToLower(text)
	if res, ok := ResolveDatePhrase(text, now); ok {
		timeMin = midnight.AddDate(0, 0, res.Offset)
		timeMax = timeMin.AddDate(0, 0, 1)
		label = res.Label
		singleDay = true
	} else if strings.Contains(lowered, "upcoming") || strings.Contains(lowered, "this week") || strings.Contains(lowered, "next week") {
		timeMin = now
		timeMax = now.AddDate(0, 0, 7)
		label = "the next 7 days"
	} else {
		// Calendar-related but no explicit date: default to today.
		timeMin = midnight
		timeMax = midnight.AddDate(0, 0, 1)
		label = "today"
		singleDay = true
	}

	events, err := d.calendar.ListEvents(ctx, userID, timeMin, timeMax, "")
	if err != nil {
		if repositories.IsNotConnected(err) {
			return calendarNotConnectedMsg
		}
		d.logger.Warn("Calendar lookup failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return "I couldn't reach your calendar just now. Please try again."
	}

	var header string
	if singleDay {
		header = fmt.Sprintf("You have %d event(s) on %s.", len(events), label)
	} else {
		header = fmt.Sprintf("You have %d event(s) in %s.", len(events), label)
	}
	if len(events) == 0 {
		return header
	}
	return header + "\n" + FormatEventsForContext(events)
}

// filterByTitle keeps events whose summary contains term, case-insensitively.
func filterByTitle(events []entities.CalendarEvent, term string) []entities.CalendarEvent {
	loweredTerm := strings.ToLower(term)
	var matches []entities.CalendarEvent
	for _, event := range events {
		if strings.Contains(strings.ToLower(event.Summary), loweredTerm) {
			matches = append(matches, event)
		}
	}
	return matches
}
