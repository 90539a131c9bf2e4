package markethours

import (
	"testing"
	"time"
)

// Mon 2026-01-05 is a regular NSE trading day.
func istTime(hour, min int) time.Time {
	return time.Date(2026, 1, 5, hour, min, 0, 0, IST)
}

func TestIsMarketOpen_TradingHours(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"before open", istTime(9, 14), false},
		{"at open", istTime(9, 15), true},
		{"midday", istTime(12, 0), true},
		{"last minute", istTime(15, 29), true},
		{"at close", istTime(15, 30), false},
		{"evening", istTime(20, 0), false},
	}
	for _, tc := range cases {
		if got := IsMarketOpen(tc.t); got != tc.want {
			t.Errorf("%s: IsMarketOpen = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsMarketOpen_Weekend(t *testing.T) {
	sat := time.Date(2026, 1, 3, 12, 0, 0, 0, IST)
	sun := time.Date(2026, 1, 4, 12, 0, 0, 0, IST)
	if IsMarketOpen(sat) || IsMarketOpen(sun) {
		t.Error("market must be closed on weekends")
	}
}

func TestIsMarketOpen_Holiday(t *testing.T) {
	// Republic Day (Mon 2026-01-26) is an exchange holiday.
	republicDay := time.Date(2026, 1, 26, 12, 0, 0, 0, IST)
	if IsMarketOpen(republicDay) {
		t.Error("market must be closed on exchange holidays")
	}
	if IsTradingDay(republicDay) {
		t.Error("holiday must not be a trading day")
	}
}

func TestSession_AlwaysOpen(t *testing.T) {
	s := Session{AlwaysOpen: true}
	if !s.IsOpen(istTime(3, 0)) {
		t.Error("always-open session reported closed")
	}
	if !s.IsOpen(time.Date(2026, 1, 4, 12, 0, 0, 0, IST)) {
		t.Error("always-open session closed on Sunday")
	}
}

func TestSession_RealHours(t *testing.T) {
	s := Session{}
	if !s.IsOpen(istTime(10, 0)) {
		t.Error("real session closed during trading hours")
	}
	if s.IsOpen(istTime(16, 0)) {
		t.Error("real session open after close")
	}
}

func TestNextOpen(t *testing.T) {
	// Before open on a trading day: same day 9:15.
	got := NextOpen(istTime(7, 0))
	want := istTime(9, 15)
	if !got.Equal(want) {
		t.Errorf("NextOpen = %v, want %v", got, want)
	}

	// Friday evening rolls to Monday.
	fri := time.Date(2026, 1, 9, 18, 0, 0, 0, IST)
	got = NextOpen(fri)
	if got.Weekday() != time.Monday {
		t.Errorf("NextOpen from Friday evening = %v, want Monday", got)
	}
}
