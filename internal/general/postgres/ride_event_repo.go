package postgres

import (
	"context"
	"fmt"
	"time"

	"rydin/internal/domain/ride"
	"rydin/internal/ports"
)

// RideEventRepo persists ride events using pgx and plain SQL.
type RideEventRepo struct{}

// NewRideEventRepo constructs a new RideEventRepo.
func NewRideEventRepo() ports.RideEventRepository {
	return &RideEventRepo{}
}

// Append inserts a new ride_events row.
func (repo *RideEventRepo) Append(ctx context.Context, event *ride.Event) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	// validate event before inserting
	if err := event.Validate(); err != nil {
		return err
	}

	// serialize event data to JSON
	data, err := event.DataJSON()
	if err != nil {
		return err
	}

	// insert ride event record
	err = tx.QueryRow(ctx, `
		INSERT INTO ride_events (ride_id, event_type, event_data)
		VALUES ($1, $2, $3::jsonb)
		RETURNING id, created_at
	`,
		event.RideID,
		event.Type.String(),
		string(data),
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ride event: %w", err)
	}

	return nil
}

// CountByUserSince counts events of eventType carrying event_data.user_id = userID.
func (repo *RideEventRepo) CountByUserSince(ctx context.Context, eventType ride.EventType, userID string, since time.Time) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	err = tx.QueryRow(ctx, `
		SELECT count(*)
		FROM ride_events
		WHERE event_type = $1
		  AND event_data->>'user_id' = $2
		  AND created_at >= $3
	`, eventType.String(), userID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ride events: %w", err)
	}

	return n, nil
}
