package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rydin/internal/domain/ride"
	"rydin/internal/ports"

	"github.com/jackc/pgx/v5"
)

// MemberRepo persists ride memberships using pgx and plain SQL.
type MemberRepo struct{}

// NewMemberRepo constructs a new MemberRepo.
func NewMemberRepo() ports.MemberRepository {
	return &MemberRepo{}
}

const memberColumns = `id, ride_id::text, user_id::text, joined_at, commitment_acknowledged, acknowledged_at, payment_status`

func scanMember(row pgx.Row) (*ride.Member, error) {
	var (
		out     ride.Member
		payment string
	)
	if err := row.Scan(&out.ID, &out.RideID, &out.UserID, &out.JoinedAt, &out.CommitmentAcknowledged, &out.AcknowledgedAt, &payment); err != nil {
		return nil, err
	}
	out.PaymentStatus = ride.PaymentStatus(payment)
	return &out, nil
}

// Add inserts a membership row. The (ride_id, user_id) unique key turns a duplicate into ErrAlreadyJoined.
func (repo *MemberRepo) Add(ctx context.Context, m *ride.Member) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO ride_members (ride_id, user_id, joined_at, payment_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, m.RideID, m.UserID, m.JoinedAt, string(m.PaymentStatus)).Scan(&m.ID)
	if isUniqueViolation(err, "ride_members_ride_user_uq") {
		return ride.ErrAlreadyJoined
	}
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}

	return nil
}

// Get returns one membership or ErrNotMember.
func (repo *MemberRepo) Get(ctx context.Context, rideID, userID string) (*ride.Member, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !validIDs(rideID, userID) {
		return nil, ride.ErrNotMember
	}

	out, err := scanMember(tx.QueryRow(ctx, `
		SELECT `+memberColumns+`
		FROM ride_members
		WHERE ride_id = $1 AND user_id = $2
	`, rideID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ride.ErrNotMember
	}
	if err != nil {
		return nil, fmt.Errorf("select member: %w", err)
	}

	return out, nil
}

// Remove deletes a membership or returns ErrNotMember.
func (repo *MemberRepo) Remove(ctx context.Context, rideID, userID string) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if !validIDs(rideID, userID) {
		return ride.ErrNotMember
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM ride_members
		WHERE ride_id = $1 AND user_id = $2
	`, rideID, userID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ride.ErrNotMember
	}

	return nil
}

// ListByRide returns members in join order.
func (repo *MemberRepo) ListByRide(ctx context.Context, rideID string) ([]*ride.Member, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !validIDs(rideID) {
		return nil, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT `+memberColumns+`
		FROM ride_members
		WHERE ride_id = $1
		ORDER BY joined_at ASC
	`, rideID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var out []*ride.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}

	return out, rows.Err()
}

// Acknowledge sets the commitment flag once; repeated calls keep the first timestamp.
func (repo *MemberRepo) Acknowledge(ctx context.Context, rideID, userID string, at time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if !validIDs(rideID, userID) {
		return ride.ErrNotMember
	}

	tag, err := tx.Exec(ctx, `
		UPDATE ride_members
		SET commitment_acknowledged = true,
		    acknowledged_at = COALESCE(acknowledged_at, $3)
		WHERE ride_id = $1 AND user_id = $2
	`, rideID, userID, at)
	if err != nil {
		return fmt.Errorf("acknowledge member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ride.ErrNotMember
	}

	return nil
}
