package nlparser

import (
	"strings"
	"time"
)

// dateKeywords maps a literal phrase to the date it resolves to,
// relative to now. Checked in map order is nondeterministic in Go, but
// the phrases are mutually exclusive substrings so order does not
// change the result, unlike the day-of-week table below.
var dateKeywords = map[string]func(now time.Time) time.Time{
	"today":         func(now time.Time) time.Time { return now },
	"yesterday":     func(now time.Time) time.Time { return now.AddDate(0, 0, -1) },
	"tomorrow":      func(now time.Time) time.Time { return now.AddDate(0, 0, 1) },
	"last week":     func(now time.Time) time.Time { return now.AddDate(0, 0, -7) },
	"this morning":  func(now time.Time) time.Time { return now },
	"this afternoon": func(now time.Time) time.Time { return now },
	"this evening":  func(now time.Time) time.Time { return now },
}

// daysOfWeek maps every spelling/abbreviation to its weekday ordinal
// with Monday=0, matching the Python table's convention (time.Weekday
// uses Sunday=0, so lookups convert through weekdayIndex).
var daysOfWeek = map[string]int{
	"monday": 0, "mon": 0,
	"tuesday": 1, "tue": 1, "tues": 1,
	"wednesday": 2, "wed": 2,
	"thursday": 3, "thu": 3, "thurs": 3,
	"friday": 4, "fri": 4,
	"saturday": 5, "sat": 5,
	"sunday": 6, "sun": 6,
}

func weekdayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7 // Monday=0 .. Sunday=6
}

// parseDate extracts a date reference from text. Keyword phrases are
// tried first, then day-of-week names (most recent past occurrence,
// or next occurrence with a "next" prefix), then a short explicit-date
// fallback for a handful of common formats.
func parseDate(text string, now time.Time) (d time.Time, original string, confidence float64, ok bool) {
	lower := strings.ToLower(text)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for keyword, fn := range dateKeywords {
		if strings.Contains(lower, keyword) {
			resolved := fn(today)
			return time.Date(resolved.Year(), resolved.Month(), resolved.Day(), 0, 0, 0, 0, now.Location()), keyword, 0.95, true
		}
	}

	for dayName, dayNum := range daysOfWeek {
		if !containsWord(lower, dayName) {
			continue
		}

		daysSince := (weekdayIndex(today.Weekday()) - dayNum + 7) % 7
		if daysSince == 0 {
			daysSince = 7
		}
		target := today.AddDate(0, 0, -daysSince)

		if strings.Contains(lower, "next "+dayName) {
			daysAhead := (dayNum - weekdayIndex(today.Weekday()) + 7) % 7
			if daysAhead == 0 {
				daysAhead = 7
			}
			target = today.AddDate(0, 0, daysAhead)
		}

		return target, dayName, 0.85, true
	}

	if explicit, original, ok := parseExplicitDate(lower, today); ok {
		return explicit, original, 0.7, true
	}

	return time.Time{}, "", 0, false
}

// containsWord reports whether word appears in s as a whole word
// (the Python service relies on \b regex boundaries for the same check).
func containsWord(s, word string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(s[start-1])
		afterOK := end == len(s) || !isWordChar(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// parseExplicitDate is a small stand-in for the Python service's
// dateutil fuzzy fallback: it recognizes a short set of common
// explicit formats (no external date-parsing dependency is in the
// teacher's stack) and returns a hit only if the parsed date is not
// today, matching the original's "only use if not defaulting to today"
// guard.
func parseExplicitDate(lower string, today time.Time) (time.Time, string, bool) {
	layouts := []string{"2006-01-02", "01/02/2006", "1/2/2006", "Jan 2", "January 2", "Jan 2 2006", "January 2, 2006"}
	fields := strings.Fields(lower)
	for n := 1; n <= 4 && n <= len(fields); n++ {
		for start := 0; start+n <= len(fields); start++ {
			candidate := strings.Join(fields[start:start+n], " ")
			for _, layout := range layouts {
				t, err := time.Parse(layout, candidate)
				if err != nil {
					continue
				}
				if layout == "Jan 2" || layout == "January 2" {
					t = time.Date(today.Year(), t.Month(), t.Day(), 0, 0, 0, 0, today.Location())
				}
				if t.Year() == today.Year() && t.Month() == today.Month() && t.Day() == today.Day() {
					continue
				}
				return t, candidate, true
			}
		}
	}
	return time.Time{}, "", false
}
