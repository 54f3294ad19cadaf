package entities

import "time"

// CalendarEvent is the backend's view of an event owned by the external
// calendar provider. It lives only for the duration of one request.
type CalendarEvent struct {
	ID       string    `json:"id"`
	Summary  string    `json:"summary"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Location string    `json:"location,omitempty"`
	AllDay   bool      `json:"all_day"`
}

// Email is a metadata-only view of a message from the external mail provider.
type Email struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"thread_id"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Snippet  string    `json:"snippet"`
	Date     time.Time `json:"date"`
	IsUnread bool      `json:"is_unread"`
	Labels   []string  `json:"labels,omitempty"`
}
