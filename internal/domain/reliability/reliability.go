// Package reliability holds the no-show penalty schedule and the rules that
// turn a user's record into join permissions.
package reliability

import "time"

const (
	// MaxScore is the reliability score of a clean record.
	MaxScore = 100

	// RestrictAfterNoShows blocks joining entirely once reached.
	RestrictAfterNoShows = 3
	// CapAfterNoShows applies the daily join cap once reached.
	CapAfterNoShows = 2
	// DailyJoinCap is the number of rides a capped user may join per day.
	DailyJoinCap = 2

	// TrustPenaltyCancelAfterLock is taken off trust when a member backs out of a locked ride.
	TrustPenaltyCancelAfterLock = 2.0

	// ClearanceWindow is how long a record must stay clean before no-shows are forgiven.
	ClearanceWindow = 60 * 24 * time.Hour
)

// Action labels the severity of a recorded no-show.
type Action string

const (
	ActionWarning           Action = "warning"
	ActionRestricted        Action = "restricted"
	ActionHeavilyRestricted Action = "heavily_restricted"
)

// Status is the reliability badge shown on a profile.
type Status string

const (
	StatusExcellent  Status = "excellent"
	StatusGood       Status = "good"
	StatusFair       Status = "fair"
	StatusWarning    Status = "warning"
	StatusRestricted Status = "restricted"
)

// Metrics is the derived reliability view of a user.
type Metrics struct {
	NoShowCount     int    `json:"no_show_count"`
	CompletedRides  int    `json:"completed_rides"`
	Reliability     int    `json:"reliability"`
	Status          Status `json:"status"`
	CanJoinRides    bool   `json:"can_join_rides"`
	JoinLimitPerDay *int   `json:"join_limit_per_day,omitempty"`
}

// Outcome is the result of recording one no-show.
type Outcome struct {
	Action         Action `json:"action"`
	NewNoShowCount int    `json:"new_no_show_count"`
	NewReliability int    `json:"new_reliability"`
	Message        string `json:"message"`
}

// Penalty returns the score penalty and action for a no-show, keyed by the
// count recorded before this one.
func Penalty(priorNoShows int) (int, Action) {
	switch {
	case priorNoShows <= 0:
		return 10, ActionWarning
	case priorNoShows == 1:
		return 20, ActionRestricted
	default:
		return 30, ActionHeavilyRestricted
	}
}

// Message returns the rider-facing text for a no-show, keyed by the prior count.
func Message(priorNoShows int) string {
	switch priorNoShows {
	case 0:
		return "First no-show recorded. We sent you a warning. Please be reliable."
	case 1:
		return "Second no-show. Your join limit is now 2 rides/day. One more will restrict your account."
	case 2:
		return "Third no-show. Your account is now restricted. Contact support to appeal."
	default:
		return "Account restricted due to multiple no-shows."
	}
}

// ApplyNoShow computes the new record after one more no-show.
func ApplyNoShow(priorNoShows, score int) Outcome {
	penalty, action := Penalty(priorNoShows)
	return Outcome{
		Action:         action,
		NewNoShowCount: priorNoShows + 1,
		NewReliability: ClampScore(score - penalty),
		Message:        Message(priorNoShows),
	}
}

// StatusFor derives the badge. Score thresholds are checked before counts.
func StatusFor(noShows, score int) Status {
	switch {
	case score >= 95:
		return StatusExcellent
	case score >= 80:
		return StatusGood
	case score >= 60:
		return StatusFair
	case noShows >= 2:
		return StatusRestricted
	case noShows == 1:
		return StatusWarning
	default:
		return StatusFair
	}
}

// Evaluate builds the metrics view for a record.
func Evaluate(noShows, completedRides, score int) Metrics {
	m := Metrics{
		NoShowCount:    noShows,
		CompletedRides: completedRides,
		Reliability:    score,
		Status:         StatusFor(noShows, score),
		CanJoinRides:   noShows < RestrictAfterNoShows,
	}
	if noShows >= CapAfterNoShows {
		limit := DailyJoinCap
		m.JoinLimitPerDay = &limit
	}
	return m
}

// ClampScore keeps a reliability score within [0, MaxScore].
func ClampScore(score int) int {
	return min(max(score, 0), MaxScore)
}

// EligibleForClearance reports whether a record has been clean long enough to forgive.
func EligibleForClearance(noShows int, lastNoShowAt *time.Time, now time.Time) bool {
	if noShows == 0 || lastNoShowAt == nil {
		return false
	}
	return !now.Before(lastNoShowAt.Add(ClearanceWindow))
}

// Badge describes how a status is presented.
type Badge struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

var badges = map[Status]Badge{
	StatusExcellent:  {Label: "Excellent", Description: "Highly reliable member"},
	StatusGood:       {Label: "Good", Description: "Reliable member"},
	StatusFair:       {Label: "Fair", Description: "Average reliability"},
	StatusWarning:    {Label: "Warning", Description: "1 no-show on record"},
	StatusRestricted: {Label: "Restricted", Description: "2+ no-shows - limited to 2 rides/day"},
}

// BadgeFor returns the presentation of status.
func BadgeFor(status Status) Badge {
	return badges[status]
}
