package ride

import (
	"errors"
	"strings"
)

// EventType is the audit event kind stored in `ride_events.event_type`.
type EventType string

const (
	EventRideCreated            EventType = "RIDE_CREATED"
	EventMemberJoined           EventType = "MEMBER_JOINED"
	EventMemberLeft             EventType = "MEMBER_LEFT"
	EventRideLocked             EventType = "RIDE_LOCKED"
	EventRideUnlocked           EventType = "RIDE_UNLOCKED"
	EventCommitmentAcknowledged EventType = "COMMITMENT_ACKNOWLEDGED"
	EventCancelledAfterLock     EventType = "CANCELLED_AFTER_LOCK"
	EventRideCompleted          EventType = "RIDE_COMPLETED"
	EventRideCancelled          EventType = "RIDE_CANCELLED"
	EventParentShared           EventType = "PARENT_SHARED"
)

var ErrInvalidEventType = errors.New("invalid ride event type")

// ParseEventType normalizes (uppercases+trims) and validates an event type string.
func ParseEventType(input string) (EventType, error) {
	eventType := EventType(strings.ToUpper(strings.TrimSpace(input)))
	if eventType.Valid() {
		return eventType, nil
	}
	return "", ErrInvalidEventType
}

// Valid reports whether eventType is one of the allowed event type constants.
func (eventType EventType) Valid() bool {
	switch eventType {
	case EventRideCreated,
		EventMemberJoined,
		EventMemberLeft,
		EventRideLocked,
		EventRideUnlocked,
		EventCommitmentAcknowledged,
		EventCancelledAfterLock,
		EventRideCompleted,
		EventRideCancelled,
		EventParentShared:
		return true
	default:
		return false
	}
}

// String returns the string representation of the EventType.
func (eventType EventType) String() string {
	return string(eventType)
}
