package matching

import (
	"errors"
	"testing"
)

func TestIsTimeMatchWindow(t *testing.T) {
	cases := []struct {
		name   string
		user   TimeRange
		hopper TimeRange
		want   bool
	}{
		{"exact", TimeRange{"09:00", 0}, TimeRange{"09:00", 0}, true},
		{"base window edge", TimeRange{"09:00", 0}, TimeRange{"10:00", 0}, true},
		{"past base window", TimeRange{"09:00", 0}, TimeRange{"10:01", 0}, false},
		{"larger flex wins", TimeRange{"09:00", 30}, TimeRange{"10:30", 0}, true},
		{"zero flex is one hour", TimeRange{"14:00", 0}, TimeRange{"19:00", 0}, false},
		{"capped at five hours", TimeRange{"14:00", 300}, TimeRange{"19:00", 0}, true},
		{"beyond cap", TimeRange{"14:00", 300}, TimeRange{"19:01", 0}, false},
		{"no midnight wrap", TimeRange{"23:30", 300}, TimeRange{"00:15", 300}, false},
		{"bad input", TimeRange{"9am", 60}, TimeRange{"09:00", 60}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTimeMatch(tc.user, tc.hopper); got != tc.want {
				t.Fatalf("IsTimeMatch(%v, %v) = %v, want %v", tc.user, tc.hopper, got, tc.want)
			}
		})
	}
}

func TestIsLocationMatch(t *testing.T) {
	if !IsLocationMatch("SRM Campus ", "srm campus", "Chennai Airport (MAA)", " chennai airport (maa)") {
		t.Fatal("expected case/space-insensitive match")
	}
	if IsLocationMatch("SRM Campus", "SRM Campus", "Chennai Airport", "Chennai Airport (MAA)") {
		t.Fatal("expected no match on different drop")
	}
}

func TestIsDateMatch(t *testing.T) {
	if !IsDateMatch("2025-01-10", "2025-01-10") {
		t.Fatal("expected equal dates to match")
	}
	if IsDateMatch("2025-01-10", "2025-01-11") {
		t.Fatal("expected different dates not to match")
	}
}

func TestMatchScore(t *testing.T) {
	if got := MatchScore(TimeRange{DepartureTime: "10:00"}, TimeRange{DepartureTime: "10:00"}); got != 100 {
		t.Fatalf("score = %v, want 100", got)
	}
	if got := MatchScore(TimeRange{DepartureTime: "10:00"}, TimeRange{DepartureTime: "12:30"}); got != 50 {
		t.Fatalf("score = %v, want 50", got)
	}
	if got := MatchScore(TimeRange{DepartureTime: "06:00"}, TimeRange{DepartureTime: "20:00"}); got != 0 {
		t.Fatalf("score = %v, want 0", got)
	}
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("14:05")
	if err != nil || got != 845 {
		t.Fatalf("ParseClock = %d, %v", got, err)
	}
	for _, in := range []string{"", "24:00", "12:60", "ab:cd", "1200"} {
		if _, err := ParseClock(in); !errors.Is(err, ErrInvalidClock) {
			t.Fatalf("ParseClock(%q) err = %v, want ErrInvalidClock", in, err)
		}
	}
}

func TestMatchReason(t *testing.T) {
	cases := map[string][2]string{
		"Same flight/train: 6E 512": {"Chennai Airport (MAA)", "6E 512"},
		"Airport run":               {"Chennai Airport (MAA)", ""},
		"Railway travel":            {"Tambaram Railway Station", ""},
		"Same route":                {"CMBT Bus Stand", "  "},
	}
	for want, in := range cases {
		if got := MatchReason(in[0], in[1]); got != want {
			t.Fatalf("MatchReason(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}
