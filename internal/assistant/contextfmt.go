package assistant

import (
	"fmt"
	"strings"

	"github.com/noa-assistant/server/domain/entities"
)

// contextSeparator joins the calendar and email blocks when both are present.
const contextSeparator = "\n\n---\n\n"

const eventTimeLayout = "Mon, Jan 2, 3:04 PM"

// FormatEventsForContext renders calendar events into a compact text block
// for the model.
func FormatEventsForContext(events []entities.CalendarEvent) string {
	if len(events) == 0 {
		return "No events found."
	}

	lines := make([]string, 0, len(events))
	for _, event := range events {
		summary := event.Summary
		if summary == "" {
			summary = "Untitled"
		}
		timeStr := event.Start.Format(eventTimeLayout)
		if event.AllDay {
			timeStr = event.Start.Format("Mon, Jan 2")
		}
		line := fmt.Sprintf("- %s (%s)", summary, timeStr)
		if event.Location != "" {
			line += " at " + event.Location
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// FormatEmailsForContext renders email metadata into a numbered text block.
// An empty result still produces a sentence: the model should know the search
// ran and found nothing.
func FormatEmailsForContext(emails []entities.Email) string {
	if len(emails) == 0 {
		return "No matching emails found."
	}

	entries := make([]string, 0, len(emails))
	for i, email := range emails {
		preview := email.Snippet
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		entries = append(entries, fmt.Sprintf(
			"%d. From: %s\n   Subject: %s\n   Date: %s\n   Preview: %s",
			i+1, email.From, email.Subject, email.Date.Format("Jan 2, 3:04 PM"), preview,
		))
	}
	return strings.Join(entries, "\n\n")
}

// CombineContext merges the calendar and email blocks. The result is nil when
// neither block exists so downstream logic can tell "no context was gathered"
// apart from "a lookup ran and came back empty".
func CombineContext(calendarBlock, emailBlock *string) *string {
	switch {
	case calendarBlock != nil && emailBlock != nil:
		combined := *calendarBlock + contextSeparator + *emailBlock
		return &combined
	case calendarBlock != nil:
		return calendarBlock
	case emailBlock != nil:
		return emailBlock
	default:
		return nil
	}
}
