// Package period derives inclusive reporting date ranges from keywords.
package period

import (
	"strings"
	"time"
)

// Keyword enumerates supported reporting period keywords.
type Keyword string

const (
	KeywordDaily        Keyword = "daily"
	KeywordWeekly       Keyword = "weekly"
	KeywordMonthly      Keyword = "monthly"
	KeywordQuarterly    Keyword = "quarterly"
	KeywordSemiAnnually Keyword = "semi-annually"
	KeywordAnnually     Keyword = "annually"
)

// Range is an inclusive date window used by the aggregators.
type Range struct {
	Start time.Time
	End   time.Time
}

// Resolve computes the range ending at asOf for the given keyword. The end is
// asOf truncated to its date; the start depends on the keyword. Unrecognised
// keywords resolve as monthly so reporting callers never have to handle a
// resolution failure.
func Resolve(keyword string, asOf time.Time) Range {
	end := Truncate(asOf)
	var start time.Time
	switch normalize(keyword) {
	case KeywordDaily:
		start = end
	case KeywordWeekly:
		start = mondayOf(end)
	case KeywordQuarterly:
		quarterMonth := ((int(end.Month())-1)/3)*3 + 1
		start = time.Date(end.Year(), time.Month(quarterMonth), 1, 0, 0, 0, 0, end.Location())
	case KeywordSemiAnnually:
		half := time.January
		if end.Month() > time.June {
			half = time.July
		}
		start = time.Date(end.Year(), half, 1, 0, 0, 0, 0, end.Location())
	case KeywordAnnually:
		start = time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, end.Location())
	default:
		start = time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())
	}
	return Range{Start: start, End: end}
}

// Contains reports whether the date falls inside the range, inclusive.
func (r Range) Contains(date time.Time) bool {
	d := Truncate(date)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the number of calendar days covered by the range.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Truncate drops the time-of-day component.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Normalize maps free-form input to a supported keyword, falling back to
// monthly. Cache keys and API responses use the normalized form.
func Normalize(keyword string) Keyword {
	return normalize(keyword)
}

func normalize(keyword string) Keyword {
	switch Keyword(strings.ToLower(strings.TrimSpace(keyword))) {
	case KeywordDaily:
		return KeywordDaily
	case KeywordWeekly:
		return KeywordWeekly
	case KeywordMonthly:
		return KeywordMonthly
	case KeywordQuarterly:
		return KeywordQuarterly
	case KeywordSemiAnnually, "semiannually":
		return KeywordSemiAnnually
	case KeywordAnnually, "yearly":
		return KeywordAnnually
	default:
		return KeywordMonthly
	}
}

func mondayOf(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
