package postgres

import (
	"context"
	"fmt"
	"time"

	"rydin/internal/ports"
)

// ParentShareRepo records and lists ride shares with emergency contacts.
type ParentShareRepo struct{}

// NewParentShareRepo constructs a new ParentShareRepo.
func NewParentShareRepo() ports.ParentShareRepository {
	return &ParentShareRepo{}
}

// Record inserts a ride_parent_shares row.
func (repo *ParentShareRepo) Record(ctx context.Context, userID, rideID string, at time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO ride_parent_shares (user_id, ride_id, shared_at)
		VALUES ($1, $2, $3)
	`, userID, rideID, at); err != nil {
		return fmt.Errorf("insert parent share: %w", err)
	}

	return nil
}

// ListByUser joins the user's latest shares with the route of each ride.
func (repo *ParentShareRepo) ListByUser(ctx context.Context, userID string, limit int) ([]ports.ParentShare, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !validIDs(userID) {
		return nil, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT s.id, s.ride_id, s.shared_at,
		       r.source, r.destination, r.ride_date::text, to_char(r.ride_time, 'HH24:MI')
		FROM ride_parent_shares s
		JOIN rides r ON r.id = s.ride_id
		WHERE s.user_id = $1
		ORDER BY s.shared_at DESC, s.id
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select parent shares: %w", err)
	}
	defer rows.Close()

	var out []ports.ParentShare
	for rows.Next() {
		var sh ports.ParentShare
		if err := rows.Scan(&sh.ID, &sh.RideID, &sh.SharedAt, &sh.Source, &sh.Destination, &sh.Date, &sh.Time); err != nil {
			return nil, fmt.Errorf("scan parent share: %w", err)
		}
		out = append(out, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parent shares: %w", err)
	}

	return out, nil
}
