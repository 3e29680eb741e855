package postgres

import (
	"context"
	"fmt"

	"rydin/internal/domain/ride"
	"rydin/internal/ports"
)

// DayStats aggregates the rides scheduled on a date.
func (repo *RideRepo) DayStats(ctx context.Context, date string) (ports.RideDayStats, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return ports.RideDayStats{}, err
	}

	rows, err := tx.Query(ctx, `
		SELECT status,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE bucket_id IS NOT NULL),
		       COALESCE(SUM(seats_taken), 0),
		       COALESCE(SUM(seats_total), 0)
		FROM rides
		WHERE ride_date = $1::date
		GROUP BY status
	`, date)
	if err != nil {
		return ports.RideDayStats{}, fmt.Errorf("query day stats: %w", err)
	}
	defer rows.Close()

	stats := ports.RideDayStats{ByStatus: make(map[ride.Status]int)}
	for rows.Next() {
		var (
			status                    string
			n, fromBucket, taken, all int
		)
		if err := rows.Scan(&status, &n, &fromBucket, &taken, &all); err != nil {
			return ports.RideDayStats{}, fmt.Errorf("scan day stats: %w", err)
		}
		stats.ByStatus[ride.Status(status)] = n
		stats.FromBucket += fromBucket
		stats.SeatsTaken += taken
		stats.SeatsTotal += all
	}
	if err := rows.Err(); err != nil {
		return ports.RideDayStats{}, fmt.Errorf("iterate day stats: %w", err)
	}

	return stats, nil
}

// ListActive returns one page of non-terminal rides departing on or after fromDate, soonest first.
func (repo *RideRepo) ListActive(ctx context.Context, fromDate string, offset, limit int) ([]*ride.Ride, int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM rides
		WHERE ride_date >= $1::date
		  AND status IN ('open', 'full', 'locked')
	`, fromDate).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count active rides: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE ride_date >= $1::date
		  AND status IN ('open', 'full', 'locked')
		ORDER BY ride_date ASC, ride_time ASC, created_at ASC
		OFFSET $2 LIMIT $3
	`, fromDate, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query active rides: %w", err)
	}

	rides, err := collectRides(rows)
	if err != nil {
		return nil, 0, err
	}
	return rides, total, nil
}
