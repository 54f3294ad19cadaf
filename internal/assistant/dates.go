package assistant

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateResolution is a resolved date phrase: a signed day offset from today
// (0 = today) and the label the user used, for echoing back in responses.
type DateResolution struct {
	Offset int
	Label  string
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const weekdayAlternation = `sunday|sun|monday|mon|tuesday|tues|tue|wednesday|wed|thursday|thurs|thur|thu|friday|fri|saturday|sat`

const monthAlternation = `january|jan|february|feb|march|mar|april|apr|may|june|jun|july|jul|august|aug|september|sept|sep|october|oct|november|nov|december|dec`

var (
	nextDayRe  = regexp.MustCompile(`(?:next|this)\s+(` + weekdayAlternation + `)\b`)
	lastDayRe  = regexp.MustCompile(`last\s+(` + weekdayAlternation + `)\b`)
	bareDayRe  = regexp.MustCompile(`\b(` + weekdayAlternation + `)\b`)
	monthDayRe = regexp.MustCompile(`\b(` + monthAlternation + `)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	ordinalRe  = regexp.MustCompile(`\b(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)\b`)
)

// ResolveDatePhrase maps a free-text date phrase inside text to an offset in
// days from today. Matching order is significant because phrases overlap:
// "next friday" must win over the bare "friday", and literal today/tomorrow
// beat everything. All arithmetic is done on midnight boundaries so the time
// of day never shifts the offset. A miss is not an error; the second return
// is false when no phrase was found.
func ResolveDatePhrase(text string, today time.Time) (DateResolution, bool) {
	lowered := strings.ToLower(text)
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	if strings.Contains(lowered, "today") {
		return DateResolution{Offset: 0, Label: "today"}, true
	}
	if strings.Contains(lowered, "tomorrow") {
		return DateResolution{Offset: 1, Label: "tomorrow"}, true
	}
	if strings.Contains(lowered, "yesterday") {
		return DateResolution{Offset: -1, Label: "yesterday"}, true
	}

	currentDay := int(midnight.Weekday())

	// "next friday" / "this friday": always strictly in the future.
	if m := nextDayRe.FindStringSubmatch(lowered); m != nil {
		target := int(weekdayNames[m[1]])
		daysUntil := target - currentDay
		if daysUntil <= 0 {
			daysUntil += 7
		}
		return DateResolution{Offset: daysUntil, Label: "next " + m[1]}, true
	}

	// "last friday": always strictly in the past.
	if m := lastDayRe.FindStringSubmatch(lowered); m != nil {
		target := int(weekdayNames[m[1]])
		daysSince := currentDay - target
		if daysSince <= 0 {
			daysSince += 7
		}
		return DateResolution{Offset: -daysSince, Label: "last " + m[1]}, true
	}

	// Bare weekday names mean the upcoming occurrence, never today.
	if m := bareDayRe.FindStringSubmatch(lowered); m != nil {
		target := int(weekdayNames[m[1]])
		daysUntil := target - currentDay
		if daysUntil < 0 {
			daysUntil += 7
		}
		if daysUntil == 0 {
			daysUntil = 7
		}
		return DateResolution{Offset: daysUntil, Label: m[1]}, true
	}

	// "January 20", "jan 20th": this year, rolling to next year once passed.
	if m := monthDayRe.FindStringSubmatch(lowered); m != nil {
		month := monthNames[m[1]]
		day, _ := strconv.Atoi(m[2])
		if day >= 1 && day <= 31 {
			target := time.Date(midnight.Year(), month, day, 0, 0, 0, 0, midnight.Location())
			if target.Before(midnight) {
				target = target.AddDate(1, 0, 0)
			}
			return DateResolution{
				Offset: daysBetween(midnight, target),
				Label:  fmt.Sprintf("%s %d", m[1], day),
			}, true
		}
	}

	// "the 16th", "on the 20th": a day of the current month, rolling to next
	// month once the day number has passed.
	if m := ordinalRe.FindStringSubmatch(lowered); m != nil {
		day, _ := strconv.Atoi(m[1])
		if day >= 1 && day <= 31 {
			targetYear, targetMonth := midnight.Year(), midnight.Month()
			if day < midnight.Day() {
				targetMonth++
				if targetMonth > time.December {
					targetMonth = time.January
					targetYear++
				}
			}
			target := time.Date(targetYear, targetMonth, day, 0, 0, 0, 0, midnight.Location())
			return DateResolution{
				Offset: daysBetween(midnight, target),
				Label:  fmt.Sprintf("%s %d", targetMonth, day),
			}, true
		}
	}

	return DateResolution{}, false
}

// daysBetween counts midnight-to-midnight days from a to b. Both arguments
// are already at midnight; rounding absorbs DST transitions.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Round(24*time.Hour) / (24 * time.Hour))
}
