package ride

import (
	"errors"
	"strings"
	"time"
)

// PaymentStatus is the bookkeeping state of a member's fare share.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

var ErrUserIDRequired = errors.New("user id is required")

// Member is the domain entity corresponding to the `ride_members` table.
// The host is an implicit passenger and never has a member row.
type Member struct {
	ID       string
	RideID   string
	UserID   string
	JoinedAt time.Time

	CommitmentAcknowledged bool
	AcknowledgedAt         *time.Time
	PaymentStatus          PaymentStatus
}

// NewMember constructs a membership that has not yet acknowledged the lock.
func NewMember(rideID, userID string, joinedAt time.Time) (*Member, error) {
	if rideID = strings.TrimSpace(rideID); rideID == "" {
		return nil, ErrRideIDRequired
	}
	if userID = strings.TrimSpace(userID); userID == "" {
		return nil, ErrUserIDRequired
	}
	return &Member{
		RideID:        rideID,
		UserID:        userID,
		JoinedAt:      joinedAt.UTC(),
		PaymentStatus: PaymentPending,
	}, nil
}

// Acknowledge marks the commitment as acknowledged. Repeated calls keep the first timestamp.
func (member *Member) Acknowledge(now time.Time) {
	if member.CommitmentAcknowledged {
		return
	}
	at := now.UTC()
	member.CommitmentAcknowledged = true
	member.AcknowledgedAt = &at
}
