// Package matching decides whether two rides line up on route, date and time,
// and ranks candidates by how close their departures are.
package matching

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// BaseWindowMinutes is added on top of the larger flexibility of the two sides.
	BaseWindowMinutes = 60
	// MaxWindowMinutes caps any match window at five hours.
	MaxWindowMinutes = 300
)

var ErrInvalidClock = errors.New("time must be HH:MM")

// TimeRange is a departure time with how far the rider is willing to shift it.
type TimeRange struct {
	DepartureTime      string
	FlexibilityMinutes int
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(in string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(in), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, in)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, in)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, in)
	}
	return hours*60 + minutes, nil
}

// TimeDifference returns the absolute difference in minutes between two HH:MM values.
// The comparison is within a single day; 23:30 and 00:15 are 1395 minutes apart.
func TimeDifference(a, b string) (int, error) {
	ma, err := ParseClock(a)
	if err != nil {
		return 0, err
	}
	mb, err := ParseClock(b)
	if err != nil {
		return 0, err
	}
	diff := ma - mb
	if diff < 0 {
		diff = -diff
	}
	return diff, nil
}

// Window returns the match window in minutes for a pair of flexibilities.
func Window(userFlex, hopperFlex int) int {
	return min(max(userFlex, hopperFlex)+BaseWindowMinutes, MaxWindowMinutes)
}

// IsTimeMatch reports whether the departures are within the shared window.
// Unparsable times never match.
func IsTimeMatch(user, hopper TimeRange) bool {
	diff, err := TimeDifference(user.DepartureTime, hopper.DepartureTime)
	if err != nil {
		return false
	}
	return diff <= Window(user.FlexibilityMinutes, hopper.FlexibilityMinutes)
}

// IsLocationMatch compares both endpoints case-insensitively after trimming.
func IsLocationMatch(userPickup, hopperPickup, userDrop, hopperDrop string) bool {
	return normalize(userPickup) == normalize(hopperPickup) &&
		normalize(userDrop) == normalize(hopperDrop)
}

// IsDateMatch reports exact equality of two YYYY-MM-DD dates.
func IsDateMatch(userDate, hopperDate string) bool {
	return userDate == hopperDate
}

// MatchScore is 100 for identical departures, falling linearly to 0 at five hours apart.
func MatchScore(user, hopper TimeRange) float64 {
	diff, err := TimeDifference(user.DepartureTime, hopper.DepartureTime)
	if err != nil {
		return 0
	}
	return math.Max(0, 100-float64(diff)/MaxWindowMinutes*100)
}

// MatchReason labels why a ride is a good fit, for display on ride cards.
func MatchReason(destination, flightTrain string) string {
	if ft := strings.TrimSpace(flightTrain); ft != "" {
		return "Same flight/train: " + ft
	}
	dest := normalize(destination)
	switch {
	case strings.Contains(dest, "airport"):
		return "Airport run"
	case strings.Contains(dest, "station"):
		return "Railway travel"
	default:
		return "Same route"
	}
}

func normalize(in string) string {
	return strings.ToLower(strings.TrimSpace(in))
}
