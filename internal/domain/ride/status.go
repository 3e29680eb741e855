package ride

import (
	"errors"
	"strings"
)

// Status is a ride status as stored in the `rides.status` column.
type Status string

const (
	StatusOpen      Status = "open"
	StatusFull      Status = "full"
	StatusLocked    Status = "locked"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var ErrInvalidStatus = errors.New("invalid ride status")

// ParseStatus normalizes (lowercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed ride status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusOpen, StatusFull, StatusLocked, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// CanTransitionTo specifies if the status can transition to the next status.
// A locked ride never goes back to open/full through seat changes; only an
// explicit unlock of an empty ride may reopen it.
func (status Status) CanTransitionTo(next Status) bool {
	switch status {
	case StatusOpen:
		return next == StatusFull || next == StatusLocked || next == StatusCompleted || next == StatusCancelled

	case StatusFull:
		return next == StatusOpen || next == StatusLocked || next == StatusCompleted || next == StatusCancelled

	case StatusLocked:
		return next == StatusOpen || next == StatusCompleted || next == StatusCancelled

	case StatusCompleted, StatusCancelled:
		return false

	default:
		return false
	}
}

// Terminal indicates if the status is in a terminal state.
func (status Status) Terminal() bool {
	return status == StatusCompleted || status == StatusCancelled
}

// Lockable reports whether a host may lock a ride in this status.
func (status Status) Lockable() bool {
	return status == StatusOpen || status == StatusFull
}
