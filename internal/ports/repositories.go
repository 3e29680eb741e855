package ports

import (
	"context"
	"time"

	"rydin/internal/domain/ride"
	"rydin/internal/domain/user"
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the methods for managing profile and reliability data.
type UserRepository interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetForUpdate(ctx context.Context, id string) (*user.User, error)
	UpdateProfile(ctx context.Context, id string, patch user.ProfilePatch) (*user.User, error)
	RecordNoShow(ctx context.Context, id string, noShows, reliability int, at time.Time) error
	ClearNoShows(ctx context.Context, id string, at time.Time) error
	ListClearable(ctx context.Context, lastNoShowBefore time.Time, limit int) ([]string, error)
	// ClearNoShowsBefore clears only while the last no-show is still at or
	// before the cutoff and reports whether it did.
	ClearNoShowsBefore(ctx context.Context, id string, lastNoShowBefore, at time.Time) (bool, error)
	AdjustTrustScore(ctx context.Context, id string, delta float64) (float64, error)
	IncrementCompletedRides(ctx context.Context, ids []string) error
	CountByNoShows(ctx context.Context, atLeast int) (int, error)
}

// RideRepository defines the methods for managing ride data.
type RideRepository interface {
	CreateRide(ctx context.Context, r *ride.Ride) error
	// CreateIfAbsent inserts r unless a ride already occupies the same
	// (source, destination, date, time, girls_only) slot, in which case r is
	// overwritten with the existing row and created is false.
	CreateIfAbsent(ctx context.Context, r *ride.Ride) (created bool, err error)
	GetByID(ctx context.Context, id string) (*ride.Ride, error)
	GetForUpdate(ctx context.Context, id string) (*ride.Ride, error)
	// TakeSeat increments seats_taken only while the ride is open with a free seat.
	TakeSeat(ctx context.Context, id string) (bool, error)
	ReleaseSeat(ctx context.Context, id string) error
	SaveStatus(ctx context.Context, r *ride.Ride) error
	ListJoinableByDate(ctx context.Context, date string) ([]*ride.Ride, error)
	ListByBucketAndDate(ctx context.Context, bucketID, date string) ([]*ride.Ride, error)
	DayStats(ctx context.Context, date string) (RideDayStats, error)
	// ListActive pages through non-terminal rides departing on or after fromDate.
	ListActive(ctx context.Context, fromDate string, offset, limit int) (rides []*ride.Ride, total int, err error)
}

// RideDayStats aggregates the rides scheduled on one date.
type RideDayStats struct {
	ByStatus   map[ride.Status]int
	FromBucket int
	SeatsTaken int
	SeatsTotal int
}

// MemberRepository defines the methods for managing ride membership.
type MemberRepository interface {
	// Add returns ride.ErrAlreadyJoined when the (ride, user) pair exists.
	Add(ctx context.Context, m *ride.Member) error
	Get(ctx context.Context, rideID, userID string) (*ride.Member, error)
	Remove(ctx context.Context, rideID, userID string) error
	ListByRide(ctx context.Context, rideID string) ([]*ride.Member, error)
	Acknowledge(ctx context.Context, rideID, userID string, at time.Time) error
}

// RideEventRepository defines the methods for managing ride event data.
type RideEventRepository interface {
	Append(ctx context.Context, e *ride.Event) error
	// CountByUserSince counts events of one type whose data names userID.
	CountByUserSince(ctx context.Context, eventType ride.EventType, userID string, since time.Time) (int, error)
}

// ParentShare is one recorded share, joined with the route of its ride.
type ParentShare struct {
	ID          string    `json:"id"`
	RideID      string    `json:"ride_id"`
	SharedAt    time.Time `json:"shared_at"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
}

// ParentShareRepository records when a rider shared a ride with their emergency contact.
type ParentShareRepository interface {
	Record(ctx context.Context, userID, rideID string, at time.Time) error
	// ListByUser returns the user's most recent shares, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]ParentShare, error)
}

// ProfileOverrideStore holds profile values written while the primary store was unreachable.
type ProfileOverrideStore interface {
	Get(ctx context.Context, userID string) (user.ProfilePatch, bool, error)
	Put(ctx context.Context, userID string, patch user.ProfilePatch) error
	// ClearIfUnchanged drops the pending values only while they still equal
	// seen, so a fallback written after seen was read survives.
	ClearIfUnchanged(ctx context.Context, userID string, seen user.ProfilePatch) (bool, error)
}

// Publisher sends a message to an exchange.
type Publisher interface {
	Publish(exchange, routingKey string, body []byte) error
}
