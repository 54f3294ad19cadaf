package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/noa-assistant/server/domain/entities"
	"github.com/noa-assistant/server/domain/repositories"
)

// fakeCalendar implements repositories.CalendarProvider and records calls.
type fakeCalendar struct {
	events    []entities.CalendarEvent
	listErr   error
	quickErr  error
	deleteErr error

	quickAdded  []string
	deletedIDs  []string
	listWindows [][2]time.Time
}

func (f *fakeCalendar) ListEvents(ctx context.Context, userID string, timeMin, timeMax time.Time, query string) ([]entities.CalendarEvent, error) {
	f.listWindows = append(f.listWindows, [2]time.Time{timeMin, timeMax})
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.events, nil
}

func (f *fakeCalendar) QuickAdd(ctx context.Context, userID string, text string) (entities.CalendarEvent, error) {
	f.quickAdded = append(f.quickAdded, text)
	if f.quickErr != nil {
		return entities.CalendarEvent{}, f.quickErr
	}
	return entities.CalendarEvent{
		ID:      "ev-1",
		Summary: text,
		Start:   time.Date(2026, time.June, 12, 15, 0, 0, 0, time.Local),
	}, nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, userID string, eventID string) error {
	f.deletedIDs = append(f.deletedIDs, eventID)
	return f.deleteErr
}

func notConnectedErr() error {
	return repositories.NewProviderError("google_calendar", repositories.ErrorKindUnauthenticated, errors.New("no stored tokens"))
}

func newTestDispatcher(t *testing.T, cal *fakeCalendar) *Dispatcher {
	t.Helper()
	return NewDispatcher(cal, zaptest.NewLogger(t))
}

func TestHandleCreateStripsCommandPrefix(t *testing.T) {
	cal := &fakeCalendar{}
	d := newTestDispatcher(t, cal)

	result := d.HandleCreate(context.Background(), "user-1", "Please schedule a meeting with Alex tomorrow at 3pm")

	if len(cal.quickAdded) != 1 {
		t.Fatalf("quick-add calls = %d, want 1", len(cal.quickAdded))
	}
	if got := cal.quickAdded[0]; got != "meeting with Alex tomorrow at 3pm" {
		t.Errorf("quick-add text = %q", got)
	}
	if !strings.Contains(result, "Created") {
		t.Errorf("confirmation missing from %q", result)
	}
}

func TestHandleCreateProviderFailure(t *testing.T) {
	cal := &fakeCalendar{quickErr: errors.New("api blew up")}
	d := newTestDispatcher(t, cal)

	result := d.HandleCreate(context.Background(), "user-1", "schedule a meeting with Alex")
	if strings.Contains(result, "api blew up") {
		t.Errorf("raw provider error leaked: %q", result)
	}
	if !strings.Contains(result, "clearer time") {
		t.Errorf("expected a retry-with-details message, got %q", result)
	}
}

func TestHandleCreateNotConnected(t *testing.T) {
	cal := &fakeCalendar{quickErr: notConnectedErr()}
	d := newTestDispatcher(t, cal)

	result := d.HandleCreate(context.Background(), "user-1", "schedule a meeting with Alex")
	if !strings.HasPrefix(result, "[") || !strings.Contains(result, "connect") {
		t.Errorf("expected bracketed connect instruction, got %q", result)
	}
}

func TestHandleDeleteSingleMatch(t *testing.T) {
	cal := &fakeCalendar{events: []entities.CalendarEvent{
		{ID: "ev-9", Summary: "Dentist", Start: time.Date(2026, time.June, 15, 10, 0, 0, 0, time.Local)},
		{ID: "ev-10", Summary: "Standup", Start: time.Date(2026, time.June, 15, 9, 0, 0, 0, time.Local)},
	}}
	d := newTestDispatcher(t, cal)

	result := d.HandleDelete(context.Background(), "user-1", "cancel my dentist appointment")

	if len(cal.deletedIDs) != 1 || cal.deletedIDs[0] != "ev-9" {
		t.Fatalf("deleted = %v, want [ev-9]", cal.deletedIDs)
	}
	if !strings.Contains(result, "Cancelled") || !strings.Contains(result, "Dentist") {
		t.Errorf("confirmation missing from %q", result)
	}
}

func TestHandleDeleteNoMatch(t *testing.T) {
	cal := &fakeCalendar{events: []entities.CalendarEvent{
		{ID: "ev-10", Summary: "Standup", Start: time.Now()},
	}}
	d := newTestDispatcher(t, cal)

	result := d.HandleDelete(context.Background(), "user-1", "cancel the yoga class event")

	if len(cal.deletedIDs) != 0 {
		t.Fatalf("deleted = %v, want none", cal.deletedIDs)
	}
	if !strings.Contains(result, "yoga class") {
		t.Errorf("not-found message should name the search term, got %q", result)
	}
}

func TestHandleDeleteAmbiguous(t *testing.T) {
	var events []entities.CalendarEvent
	for _, summary := range []string{
		"Sync with Alex", "Sync with Priya", "Sync with Sam",
		"Sync with Lee", "Sync with Kim", "Sync with Jo", "Sync with Max",
	} {
		events = append(events, entities.CalendarEvent{
			ID: "ev-" + summary, Summary: summary, Start: time.Now(),
		})
	}
	cal := &fakeCalendar{events: events}
	d := newTestDispatcher(t, cal)

	result := d.HandleDelete(context.Background(), "user-1", "cancel the sync meeting")

	if len(cal.deletedIDs) != 0 {
		t.Fatalf("ambiguous delete mutated provider state: %v", cal.deletedIDs)
	}
	if !strings.Contains(result, "7 events") {
		t.Errorf("expected total match count, got %q", result)
	}
	if got := strings.Count(result, "- Sync with"); got != 5 {
		t.Errorf("listed %d candidates, want 5", got)
	}
}

func TestHandleDeleteBareEventNoun(t *testing.T) {
	cal := &fakeCalendar{events: []entities.CalendarEvent{
		{ID: "ev-10", Summary: "Standup", Start: time.Now()},
	}}
	d := newTestDispatcher(t, cal)

	for _, text := range []string{"cancel my meeting", "delete the event", "cancel that appointment"} {
		result := d.HandleDelete(context.Background(), "user-1", text)

		if !strings.Contains(result, "name the event") {
			t.Errorf("%q: expected a name-the-event prompt, got %q", text, result)
		}
	}
	if len(cal.listWindows) != 0 {
		t.Errorf("vague delete searched the calendar: %d calls", len(cal.listWindows))
	}
	if len(cal.deletedIDs) != 0 {
		t.Errorf("vague delete mutated provider state: %v", cal.deletedIDs)
	}
}

func TestHandleDeleteSearchWindow(t *testing.T) {
	cal := &fakeCalendar{}
	d := newTestDispatcher(t, cal)

	before := time.Now()
	d.HandleDelete(context.Background(), "user-1", "cancel the retro meeting")

	if len(cal.listWindows) != 1 {
		t.Fatalf("list calls = %d, want 1", len(cal.listWindows))
	}
	window := cal.listWindows[0][1].Sub(cal.listWindows[0][0])
	if window != deleteSearchWindow {
		t.Errorf("search window = %v, want %v", window, deleteSearchWindow)
	}
	if cal.listWindows[0][0].Before(before.Add(-time.Minute)) {
		t.Errorf("search should start from now, started %v", cal.listWindows[0][0])
	}
}

func TestHandleQuerySingleDay(t *testing.T) {
	cal := &fakeCalendar{events: []entities.CalendarEvent{
		{Summary: "Design review", Start: time.Date(2026, time.June, 19, 15, 0, 0, 0, time.Local)},
		{Summary: "1:1", Start: time.Date(2026, time.June, 19, 16, 0, 0, 0, time.Local)},
	}}
	d := newTestDispatcher(t, cal)

	result := d.HandleQuery(context.Background(), "user-1", "what's on my calendar next friday")

	if !strings.Contains(result, "event(s) on next friday.") {
		t.Errorf("header missing from %q", result)
	}
	if !strings.Contains(result, "You have 2 event(s)") {
		t.Errorf("count missing from %q", result)
	}
	if !strings.Contains(result, "- Design review") {
		t.Errorf("events not formatted in %q", result)
	}

	if len(cal.listWindows) != 1 {
		t.Fatalf("list calls = %d, want 1", len(cal.listWindows))
	}
	window := cal.listWindows[0][1].Sub(cal.listWindows[0][0])
	if window < 23*time.Hour || window > 25*time.Hour {
		t.Errorf("expected a single-day window, got %v", window)
	}
}

func TestHandleQueryUpcomingRange(t *testing.T) {
	cal := &fakeCalendar{}
	d := newTestDispatcher(t, cal)

	result := d.HandleQuery(context.Background(), "user-1", "what's upcoming on my calendar")

	if !strings.Contains(result, "the next 7 days") {
		t.Errorf("expected 7-day range label, got %q", result)
	}
	window := cal.listWindows[0][1].Sub(cal.listWindows[0][0])
	if window < 7*24*time.Hour-time.Hour || window > 7*24*time.Hour+time.Hour {
		t.Errorf("expected a 7-day window, got %v", window)
	}
}

func TestHandleQueryDefaultsToToday(t *testing.T) {
	cal := &fakeCalendar{}
	d := newTestDispatcher(t, cal)

	result := d.HandleQuery(context.Background(), "user-1", "what's on my agenda")

	if !strings.Contains(result, "on today.") {
		t.Errorf("expected default-today header, got %q", result)
	}
}

func TestHandleQueryNotConnected(t *testing.T) {
	cal := &fakeCalendar{listErr: notConnectedErr()}
	d := newTestDispatcher(t, cal)

	result := d.HandleQuery(context.Background(), "user-1", "what do i have today")
	if !strings.HasPrefix(result, "[") {
		t.Errorf("expected bracketed connect instruction, got %q", result)
	}
}
