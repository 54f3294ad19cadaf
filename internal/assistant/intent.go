package assistant

import (
	"regexp"
	"strings"
	"time"
)

// Intent is the classified purpose of an utterance with respect to calendar
// actions.
type Intent int

const (
	IntentNone Intent = iota
	IntentQuery
	IntentCreate
	IntentDelete
)

func (i Intent) String() string {
	switch i {
	case IntentQuery:
		return "query"
	case IntentCreate:
		return "create"
	case IntentDelete:
		return "delete"
	default:
		return "none"
	}
}

var (
	// A creation verb followed by an event noun within the same clause, or an
	// event noun followed by a temporal preposition ("a meeting at 3").
	createVerbNounRe = regexp.MustCompile(`\b(?:create|add|schedule|set\s+up|book|make)\b[^.?!]*\b(?:meeting|event|appointment|reminder|call)\b`)
	createNounTimeRe = regexp.MustCompile(`\b(?:meeting|event|appointment|reminder|call)\b[^.?!]*\b(?:at|on|for|tomorrow|today)\b`)

	deleteRe = regexp.MustCompile(`\b(?:cancel|delete|remove|clear)\b[^.?!]*\b(?:meeting|event|appointment|reminder|call)\b`)
)

var calendarKeywords = []string{
	"calendar", "schedule", "meeting", "event", "agenda",
	"appointment", "busy", "free", "available", "book",
	"tomorrow", "this week", "next week", "today", "yesterday",
	"what do i have", "what's coming up", "upcoming",
	"remind me", "set a reminder",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"anything on", "anything scheduled", "plans for", "plans on",
}

// ClassifyIntent decides whether an utterance asks for a calendar mutation, a
// calendar read, or nothing calendar-related. Delete and Create are checked
// before Query: an explicit action request wins over a mere summary even when
// the utterance also contains read keywords.
func ClassifyIntent(text string) Intent {
	lowered := strings.ToLower(text)

	if deleteRe.MatchString(lowered) {
		return IntentDelete
	}
	if createVerbNounRe.MatchString(lowered) || createNounTimeRe.MatchString(lowered) {
		return IntentCreate
	}
	if isCalendarQuery(lowered) {
		return IntentQuery
	}
	return IntentNone
}

// isCalendarQuery reports whether lowered text reads like a calendar question:
// a domain keyword, a recognizable date phrase, or a month+day / ordinal-day
// pattern.
func isCalendarQuery(lowered string) bool {
	for _, keyword := range calendarKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	if _, ok := ResolveDatePhrase(lowered, time.Now()); ok {
		return true
	}
	return monthDayRe.MatchString(lowered) || ordinalRe.MatchString(lowered)
}

var emailKeywords = []string{
	"email", "emails", "gmail", "inbox", "unread",
	"message from", "mail from",
	"check my mail", "new messages",
	"who emailed", "who sent",
	"my inbox",
}

// IsEmailQuery reports whether the utterance asks about the user's mail.
func IsEmailQuery(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range emailKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

var senderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:email|emails|message|messages|mail)\s+from\s+(\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`(?i)(?:from|by)\s+(\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`(?i)(\w+(?:\s+\w+)?)\s+(?:emailed|sent|wrote)`),
}

// Qualifiers that look like names to the regexes above but are not senders.
var invalidSenderNames = map[string]bool{
	"latest": true, "last": true, "recent": true, "new": true,
	"unread": true, "important": true, "priority": true,
	"my": true, "any": true, "check": true,
}

// ExtractSender pulls a candidate sender name out of a mail-related utterance.
func ExtractSender(text string) (string, bool) {
	for _, pattern := range senderPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			name := strings.TrimSpace(m[1])
			if !invalidSenderNames[strings.ToLower(name)] {
				return name, true
			}
		}
	}
	return "", false
}
