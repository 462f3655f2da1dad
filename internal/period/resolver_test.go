package period

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveQuarterly(t *testing.T) {
	r := Resolve("quarterly", date(2024, time.May, 15))
	if !r.Start.Equal(date(2024, time.April, 1)) {
		t.Fatalf("unexpected start: %v", r.Start)
	}
	if !r.End.Equal(date(2024, time.May, 15)) {
		t.Fatalf("unexpected end: %v", r.End)
	}
}

func TestResolveWeeklyStartsMonday(t *testing.T) {
	// 2024-06-12 is a Wednesday.
	r := Resolve("weekly", date(2024, time.June, 12))
	if !r.Start.Equal(date(2024, time.June, 10)) {
		t.Fatalf("expected Monday 2024-06-10, got %v", r.Start)
	}
	// A Monday resolves to itself.
	r = Resolve("weekly", date(2024, time.June, 10))
	if !r.Start.Equal(date(2024, time.June, 10)) {
		t.Fatalf("expected same Monday, got %v", r.Start)
	}
	// Sunday belongs to the week started the previous Monday.
	r = Resolve("weekly", date(2024, time.June, 16))
	if !r.Start.Equal(date(2024, time.June, 10)) {
		t.Fatalf("expected previous Monday, got %v", r.Start)
	}
}

func TestResolveKeywords(t *testing.T) {
	asOf := date(2024, time.August, 20)
	cases := []struct {
		keyword string
		start   time.Time
	}{
		{"daily", date(2024, time.August, 20)},
		{"monthly", date(2024, time.August, 1)},
		{"quarterly", date(2024, time.July, 1)},
		{"semi-annually", date(2024, time.July, 1)},
		{"semiannually", date(2024, time.July, 1)},
		{"annually", date(2024, time.January, 1)},
		{"yearly", date(2024, time.January, 1)},
		{"ANNUALLY", date(2024, time.January, 1)},
	}
	for _, tc := range cases {
		r := Resolve(tc.keyword, asOf)
		if !r.Start.Equal(tc.start) {
			t.Fatalf("%s: expected start %v got %v", tc.keyword, tc.start, r.Start)
		}
		if !r.End.Equal(asOf) {
			t.Fatalf("%s: expected end %v got %v", tc.keyword, asOf, r.End)
		}
	}
}

func TestResolveSemiAnnualFirstHalf(t *testing.T) {
	r := Resolve("semi-annually", date(2024, time.June, 30))
	if !r.Start.Equal(date(2024, time.January, 1)) {
		t.Fatalf("expected Jan 1, got %v", r.Start)
	}
}

func TestResolveUnknownKeywordFallsBackToMonthly(t *testing.T) {
	for _, keyword := range []string{"", "fortnightly", "  "} {
		r := Resolve(keyword, date(2024, time.May, 15))
		if !r.Start.Equal(date(2024, time.May, 1)) {
			t.Fatalf("%q: expected monthly fallback, got %v", keyword, r.Start)
		}
	}
}

func TestResolveDropsTimeComponent(t *testing.T) {
	asOf := time.Date(2024, time.May, 15, 17, 45, 12, 0, time.UTC)
	r := Resolve("daily", asOf)
	if !r.Start.Equal(date(2024, time.May, 15)) || !r.End.Equal(date(2024, time.May, 15)) {
		t.Fatalf("expected date-only range, got %v .. %v", r.Start, r.End)
	}
	if r.Days() != 1 {
		t.Fatalf("expected single day, got %d", r.Days())
	}
}

func TestRangeContains(t *testing.T) {
	r := Resolve("monthly", date(2024, time.May, 15))
	if !r.Contains(date(2024, time.May, 1)) || !r.Contains(date(2024, time.May, 15)) {
		t.Fatalf("range should include boundaries")
	}
	if r.Contains(date(2024, time.April, 30)) || r.Contains(date(2024, time.May, 16)) {
		t.Fatalf("range should exclude dates outside the window")
	}
}

func TestResolveDeterministic(t *testing.T) {
	asOf := date(2024, time.November, 3)
	first := Resolve("quarterly", asOf)
	second := Resolve("quarterly", asOf)
	if first != second {
		t.Fatalf("expected identical ranges, got %v and %v", first, second)
	}
}
