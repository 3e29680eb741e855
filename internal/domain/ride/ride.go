package ride

import (
	"math"
	"strings"
	"time"
)

const (
	// DateLayout is the local calendar date format rides are stored with.
	DateLayout = "2006-01-02"
	// TimeLayout is the 24h wall clock format rides are stored with.
	TimeLayout = "15:04"
)

// Route is the pickup/drop pair of a ride.
type Route struct {
	Source      string
	Destination string
}

// Schedule is the local date and departure time of a ride.
type Schedule struct {
	Date string
	Time string
}

// Flags carries optional ride attributes.
type Flags struct {
	GirlsOnly   bool
	FlightTrain string
	BucketID    string
	BucketName  string
}

// Ride is the domain entity corresponding to the `rides` table.
type Ride struct {
	// Identity & audit
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Actors
	HostID string

	// Route & schedule
	Source      string
	Destination string
	Date        string
	Time        string

	// Capacity
	SeatsTotal int
	SeatsTaken int
	Status     Status
	LockedAt   *time.Time

	// Additional info
	EstimatedFare float64
	GirlsOnly     bool
	FlightTrain   string

	// Auto-bucket origin, empty for user-hosted rides
	BucketID   string
	BucketName string
}

// NewRide creates a new ride in open state with no seats taken.
func NewRide(hostID string, route Route, schedule Schedule, seatsTotal int, fare float64, flags Flags) (*Ride, error) {
	if hostID = strings.TrimSpace(hostID); hostID == "" {
		return nil, ErrHostRequired
	}
	source := strings.TrimSpace(route.Source)
	destination := strings.TrimSpace(route.Destination)
	if source == "" || destination == "" {
		return nil, ErrRouteRequired
	}
	if _, err := time.Parse(DateLayout, schedule.Date); err != nil {
		return nil, ErrInvalidDate
	}
	if _, err := time.Parse(TimeLayout, schedule.Time); err != nil {
		return nil, ErrInvalidTime
	}
	if seatsTotal < 1 {
		return nil, ErrInvalidSeats
	}
	if fare <= 0 || math.IsNaN(fare) || math.IsInf(fare, 0) {
		return nil, ErrInvalidFare
	}

	now := time.Now().UTC()
	return &Ride{
		CreatedAt:     now,
		UpdatedAt:     now,
		HostID:        hostID,
		Source:        source,
		Destination:   destination,
		Date:          schedule.Date,
		Time:          schedule.Time,
		SeatsTotal:    seatsTotal,
		SeatsTaken:    0,
		Status:        StatusOpen,
		EstimatedFare: fare,
		GirlsOnly:     flags.GirlsOnly,
		FlightTrain:   strings.TrimSpace(flags.FlightTrain),
		BucketID:      flags.BucketID,
		BucketName:    flags.BucketName,
	}, nil
}

// CheckJoinable reports why a new member could not take a seat, in the
// order riders should see it: gone, locked, then full.
func (ride *Ride) CheckJoinable() error {
	if ride.Status.Terminal() {
		return ErrRideUnavailable
	}
	if ride.Status == StatusLocked {
		return ErrRideLocked
	}
	if ride.Status == StatusFull || ride.SeatsTaken >= ride.SeatsTotal {
		return ErrRideFull
	}
	return nil
}

// TakeSeat increments seats taken and flips open -> full on the last seat.
// It reports false and leaves the ride untouched when no seat can be taken.
func (ride *Ride) TakeSeat() bool {
	if ride.Status != StatusOpen || ride.SeatsTaken >= ride.SeatsTotal {
		return false
	}
	ride.SeatsTaken++
	if ride.SeatsTaken == ride.SeatsTotal {
		ride.Status = StatusFull
	}
	ride.touch()
	return true
}

// ReleaseSeat decrements seats taken. A full ride reopens; a locked ride stays locked.
func (ride *Ride) ReleaseSeat() bool {
	if ride.SeatsTaken <= 0 {
		return false
	}
	ride.SeatsTaken--
	if ride.Status == StatusFull {
		ride.Status = StatusOpen
	}
	ride.touch()
	return true
}

// Lock transitions open/full -> locked and stamps LockedAt.
func (ride *Ride) Lock(now time.Time) error {
	if ride.Status.Terminal() {
		return ErrRideUnavailable
	}
	if !ride.Status.Lockable() {
		return ErrInvalidStatusTransition
	}
	at := now.UTC()
	ride.LockedAt = &at
	ride.setStatus(StatusLocked)
	return nil
}

// Unlock transitions locked -> open. Only an empty ride may be unlocked.
func (ride *Ride) Unlock(members int) error {
	if ride.Status != StatusLocked {
		return ErrRideNotLocked
	}
	if members > 0 || ride.SeatsTaken > 0 {
		return ErrRideHasMembers
	}
	ride.LockedAt = nil
	ride.setStatus(StatusOpen)
	return nil
}

// Complete transitions a non-terminal ride to completed.
func (ride *Ride) Complete() error {
	if !ride.Status.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	ride.setStatus(StatusCompleted)
	return nil
}

// Cancel transitions a non-terminal ride to cancelled.
func (ride *Ride) Cancel() error {
	if !ride.Status.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	ride.setStatus(StatusCancelled)
	return nil
}

// SeatsLeft returns the number of seats still available.
func (ride *Ride) SeatsLeft() int {
	if left := ride.SeatsTotal - ride.SeatsTaken; left > 0 {
		return left
	}
	return 0
}

// IsHost reports whether userID hosts the ride.
func (ride *Ride) IsHost(userID string) bool {
	return ride.HostID == userID
}

// FarePerPerson splits the estimated fare between the host and every member.
func (ride *Ride) FarePerPerson() float64 {
	return math.Round(ride.EstimatedFare/float64(ride.SeatsTaken+1)*100) / 100
}

// Savings is what each rider saves against paying the whole fare alone.
func (ride *Ride) Savings() float64 {
	return math.Round((ride.EstimatedFare-ride.FarePerPerson())*100) / 100
}

// Departure combines date and time in loc.
func (ride *Ride) Departure(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, ride.Date+" "+ride.Time, loc)
}

// ----- internal helpers -----

func (ride *Ride) setStatus(status Status) {
	ride.Status = status
	ride.touch()
}

func (ride *Ride) touch() {
	ride.UpdatedAt = time.Now().UTC()
}
