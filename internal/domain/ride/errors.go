package ride

import (
	"errors"
	"fmt"
)

// Capacity and membership failures. Messages are shown to riders as-is.
var (
	ErrRideUnavailable     = errors.New("this ride is no longer available")
	ErrRideLocked          = errors.New("this ride is locked and not accepting new members")
	ErrRideFull            = errors.New("this ride is already full")
	ErrAlreadyJoined       = errors.New("you have already joined this ride")
	ErrJoinRestricted      = errors.New("your account is restricted from joining rides")
	ErrEligibilityMismatch = errors.New("this ride is open to female riders only")
	ErrNotMember           = errors.New("you are not a member of this ride")
	ErrNotHost             = errors.New("only the ride host can do this")
	ErrRideHasMembers      = errors.New("a ride with members cannot be unlocked")
	ErrRideNotLocked       = errors.New("this ride is not locked")
	ErrNotParticipant      = errors.New("you are not part of this ride")
)

// ErrRideNotFound is returned by repositories for a missing ride. It matches
// ErrRideUnavailable under errors.Is.
var ErrRideNotFound = fmt.Errorf("ride not found: %w", ErrRideUnavailable)

// Validation failures for new rides.
var (
	ErrHostRequired            = errors.New("host id is required")
	ErrRouteRequired           = errors.New("source and destination are required")
	ErrInvalidDate             = errors.New("date must be YYYY-MM-DD")
	ErrInvalidTime             = errors.New("time must be HH:MM")
	ErrInvalidSeats            = errors.New("seats total must be at least 1")
	ErrInvalidFare             = errors.New("estimated fare must be greater than zero")
	ErrInvalidStatusTransition = errors.New("invalid ride status transition")
)
