package assistant

import (
	"fmt"
	"testing"
	"time"
)

// mustDate builds a local midnight time for tests.
func mustDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

func TestResolveLiterals(t *testing.T) {
	// Literals hold on any reference day, including across a weekend.
	for day := 1; day <= 7; day++ {
		today := mustDate(2026, time.June, day)

		res, ok := ResolveDatePhrase("what do I have today", today)
		if !ok || res.Offset != 0 {
			t.Errorf("today on %v: got (%+v, %v), want offset 0", today, res, ok)
		}

		res, ok = ResolveDatePhrase("what about tomorrow", today)
		if !ok || res.Offset != 1 {
			t.Errorf("tomorrow on %v: got (%+v, %v), want offset 1", today, res, ok)
		}

		res, ok = ResolveDatePhrase("yesterday's meetings", today)
		if !ok || res.Offset != -1 {
			t.Errorf("yesterday on %v: got (%+v, %v), want offset -1", today, res, ok)
		}
	}
}

func TestResolveNextAndThisWeekday(t *testing.T) {
	weekdays := []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

	// For every weekday name and every possible "today", next/this always
	// lands strictly in the future, at most a week out.
	for day := 7; day <= 13; day++ { // June 7 2026 is a Sunday
		today := mustDate(2026, time.June, day)
		for _, w := range weekdays {
			for _, qualifier := range []string{"next", "this"} {
				res, ok := ResolveDatePhrase(qualifier+" "+w, today)
				if !ok {
					t.Fatalf("%s %s on %v: no match", qualifier, w, today)
				}
				if res.Offset < 1 || res.Offset > 7 {
					t.Errorf("%s %s on %v: offset %d out of [1,7]", qualifier, w, today, res.Offset)
				}
				target := today.AddDate(0, 0, res.Offset)
				if target.Weekday() != parseWeekday(t, w) {
					t.Errorf("%s %s on %v: offset %d lands on %v", qualifier, w, today, res.Offset, target.Weekday())
				}
			}
		}
	}
}

func TestResolveLastWeekday(t *testing.T) {
	weekdays := []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

	for day := 7; day <= 13; day++ {
		today := mustDate(2026, time.June, day)
		for _, w := range weekdays {
			res, ok := ResolveDatePhrase("last "+w, today)
			if !ok {
				t.Fatalf("last %s on %v: no match", w, today)
			}
			if res.Offset < -7 || res.Offset > -1 {
				t.Errorf("last %s on %v: offset %d out of [-7,-1]", w, today, res.Offset)
			}
			target := today.AddDate(0, 0, res.Offset)
			if target.Weekday() != parseWeekday(t, w) {
				t.Errorf("last %s on %v: offset %d lands on %v", w, today, res.Offset, target.Weekday())
			}
		}
	}
}

func TestResolveBareWeekdayNeverToday(t *testing.T) {
	weekdays := []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

	for day := 7; day <= 13; day++ {
		today := mustDate(2026, time.June, day)
		for _, w := range weekdays {
			res, ok := ResolveDatePhrase("anything on "+w, today)
			if !ok {
				t.Fatalf("%s on %v: no match", w, today)
			}
			if res.Offset == 0 {
				t.Errorf("%s on %v: bare weekday resolved to today", w, today)
			}
			if res.Offset < 1 || res.Offset > 7 {
				t.Errorf("%s on %v: offset %d out of [1,7]", w, today, res.Offset)
			}
		}
	}
}

func TestResolveWeekdayAbbreviations(t *testing.T) {
	today := mustDate(2026, time.June, 8) // a Monday

	cases := map[string]time.Weekday{
		"mon": time.Monday, "tue": time.Tuesday, "tues": time.Tuesday,
		"wed": time.Wednesday, "thu": time.Thursday, "thur": time.Thursday,
		"thurs": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
		"sun": time.Sunday,
	}
	for abbrev, want := range cases {
		res, ok := ResolveDatePhrase("next "+abbrev, today)
		if !ok {
			t.Fatalf("next %s: no match", abbrev)
		}
		if got := today.AddDate(0, 0, res.Offset).Weekday(); got != want {
			t.Errorf("next %s: landed on %v, want %v", abbrev, got, want)
		}
	}
}

func TestResolveNextFridayFromMonday(t *testing.T) {
	monday := mustDate(2026, time.June, 8)
	res, ok := ResolveDatePhrase("what's on my calendar next friday", monday)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.Offset != 4 {
		t.Errorf("offset = %d, want 4", res.Offset)
	}
	if res.Label != "next friday" {
		t.Errorf("label = %q, want %q", res.Label, "next friday")
	}
}

func TestResolveMonthDay(t *testing.T) {
	today := mustDate(2026, time.June, 15)

	tests := []struct {
		phrase string
		offset int
	}{
		{"June 20", 5},
		{"june 20th", 5},
		{"jun 15", 0},     // same day stays in the current year
		{"July 1", 16},
		{"January 20", 219}, // passed this year, rolls to Jan 20 2027
	}
	for _, tt := range tests {
		res, ok := ResolveDatePhrase(tt.phrase, today)
		if !ok {
			t.Errorf("%q: no match", tt.phrase)
			continue
		}
		if res.Offset != tt.offset {
			t.Errorf("%q: offset = %d, want %d", tt.phrase, res.Offset, tt.offset)
		}
	}
}

func TestResolveMonthDayRollsToNextYear(t *testing.T) {
	today := mustDate(2026, time.March, 10)
	res, ok := ResolveDatePhrase("February 5", today)
	if !ok {
		t.Fatal("expected a match")
	}
	want := daysBetween(today, mustDate(2027, time.February, 5))
	if res.Offset != want {
		t.Errorf("offset = %d, want %d", res.Offset, want)
	}
}

func TestResolveOrdinalDay(t *testing.T) {
	t.Run("earlier in month rolls forward", func(t *testing.T) {
		// Today is the 20th of a 31-day month: "the 16th" means next month.
		today := mustDate(2026, time.July, 20)
		res, ok := ResolveDatePhrase("what's happening on the 16th", today)
		if !ok {
			t.Fatal("expected a match")
		}
		want := daysBetween(today, mustDate(2026, time.August, 16))
		if res.Offset != want {
			t.Errorf("offset = %d, want %d", res.Offset, want)
		}
		if res.Label != "August 16" {
			t.Errorf("label = %q, want %q", res.Label, "August 16")
		}
	})

	t.Run("later in month stays", func(t *testing.T) {
		today := mustDate(2026, time.July, 10)
		res, ok := ResolveDatePhrase("the 16th", today)
		if !ok {
			t.Fatal("expected a match")
		}
		if res.Offset != 6 {
			t.Errorf("offset = %d, want 6", res.Offset)
		}
	})

	t.Run("december wraps the year", func(t *testing.T) {
		today := mustDate(2026, time.December, 20)
		res, ok := ResolveDatePhrase("on the 5th", today)
		if !ok {
			t.Fatal("expected a match")
		}
		want := daysBetween(today, mustDate(2027, time.January, 5))
		if res.Offset != want {
			t.Errorf("offset = %d, want %d", res.Offset, want)
		}
	})
}

func TestResolveNoMatch(t *testing.T) {
	today := mustDate(2026, time.June, 8)
	for _, phrase := range []string{
		"how tall is the eiffel tower",
		"turn the volume up",
		"",
	} {
		if res, ok := ResolveDatePhrase(phrase, today); ok {
			t.Errorf("%q: unexpected match %+v", phrase, res)
		}
	}
}

func TestResolveOrderingNextBeatsBare(t *testing.T) {
	// "next friday" must resolve via the qualifier rule even though the bare
	// weekday rule would also match "friday".
	friday := mustDate(2026, time.June, 12)
	res, ok := ResolveDatePhrase("next friday", friday)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.Offset != 7 {
		t.Errorf("offset = %d, want 7 (a friday asking for next friday)", res.Offset)
	}
}

func parseWeekday(t *testing.T, name string) time.Weekday {
	t.Helper()
	w, ok := weekdayNames[name]
	if !ok {
		t.Fatalf("unknown weekday %q", name)
	}
	return w
}

func ExampleResolveDatePhrase() {
	monday := time.Date(2026, time.June, 8, 9, 30, 0, 0, time.UTC)
	res, _ := ResolveDatePhrase("what's on my calendar next friday", monday)
	fmt.Println(res.Offset, res.Label)
	// Output: 4 next friday
}
