package postgres

import (
	"context"
	"errors"
	"fmt"

	"rydin/internal/domain/bucket"
	"rydin/internal/domain/ride"
	"rydin/internal/ports"

	"github.com/jackc/pgx/v5"
)

// RideRepo persists rides using pgx and plain SQL.
type RideRepo struct{}

// NewRideRepo constructs a new RideRepo.
func NewRideRepo() ports.RideRepository {
	return &RideRepo{}
}

// CreateRide inserts a new ride row.
func (repo *RideRepo) CreateRide(ctx context.Context, r *ride.Ride) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO rides (
			host_id, source, destination, ride_date, ride_time,
			seats_total, seats_taken, status, estimated_fare,
			girls_only, flight_train, bucket_id, bucket_name
		)
		VALUES ($1, $2, $3, $4::date, $5::time, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''))
		RETURNING id, created_at, updated_at
	`,
		r.HostID, r.Source, r.Destination, r.Date, r.Time,
		r.SeatsTotal, r.SeatsTaken, r.Status.String(), r.EstimatedFare,
		r.GirlsOnly, r.FlightTrain, r.BucketID, r.BucketName,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert ride: %w", err)
	}

	return nil
}

// CreateIfAbsent inserts a system ride unless its slot is taken, then re-reads the slot owner.
func (repo *RideRepo) CreateIfAbsent(ctx context.Context, r *ride.Ride) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	// the partial unique index only covers system-hosted rides
	err = tx.QueryRow(ctx, `
		INSERT INTO rides (
			host_id, source, destination, ride_date, ride_time,
			seats_total, seats_taken, status, estimated_fare,
			girls_only, flight_train, bucket_id, bucket_name
		)
		VALUES ($1, $2, $3, $4::date, $5::time, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''))
		ON CONFLICT (source, destination, ride_date, ride_time, girls_only) WHERE host_id = 'system'
		DO NOTHING
		RETURNING id, created_at, updated_at
	`,
		r.HostID, r.Source, r.Destination, r.Date, r.Time,
		r.SeatsTotal, r.SeatsTaken, r.Status.String(), r.EstimatedFare,
		r.GirlsOnly, r.FlightTrain, r.BucketID, r.BucketName,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("insert bucket ride: %w", err)
	}

	// slot already exists: hand back the existing row
	existing, err := scanRide(tx.QueryRow(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE host_id = $1 AND source = $2 AND destination = $3
		  AND ride_date = $4::date AND ride_time = $5::time AND girls_only = $6
	`, bucket.SystemHostID, r.Source, r.Destination, r.Date, r.Time, r.GirlsOnly))
	if err != nil {
		return false, fmt.Errorf("re-read bucket ride: %w", err)
	}
	*r = *existing
	return false, nil
}

// GetByID fetches a ride by primary key (uuid).
func (repo *RideRepo) GetByID(ctx context.Context, id string) (*ride.Ride, error) {
	return repo.get(ctx, id, "")
}

// GetForUpdate fetches a ride and holds its row lock until the transaction ends.
func (repo *RideRepo) GetForUpdate(ctx context.Context, id string) (*ride.Ride, error) {
	return repo.get(ctx, id, "FOR UPDATE")
}

func (repo *RideRepo) get(ctx context.Context, id, lock string) (*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !validIDs(id) {
		return nil, ride.ErrRideNotFound
	}

	out, err := scanRide(tx.QueryRow(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE id = $1
		`+lock, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ride.ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select ride: %w", err)
	}

	return out, nil
}

// TakeSeat increments seats_taken only while the ride is open with a free seat,
// flipping it to full when the last seat goes.
func (repo *RideRepo) TakeSeat(ctx context.Context, id string) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}
	if !validIDs(id) {
		return false, ride.ErrRideNotFound
	}

	tag, err := tx.Exec(ctx, `
		UPDATE rides
		SET seats_taken = seats_taken + 1,
		    status = CASE WHEN seats_taken + 1 >= seats_total THEN 'full' ELSE status END,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'open'
		  AND seats_taken < seats_total
	`, id)
	if err != nil {
		return false, fmt.Errorf("take seat: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ReleaseSeat decrements seats_taken; a full ride reopens, a locked ride stays locked.
func (repo *RideRepo) ReleaseSeat(ctx context.Context, id string) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if !validIDs(id) {
		return ride.ErrRideNotFound
	}

	if _, err := tx.Exec(ctx, `
		UPDATE rides
		SET seats_taken = seats_taken - 1,
		    status = CASE WHEN status = 'full' THEN 'open' ELSE status END,
		    updated_at = now()
		WHERE id = $1
		  AND seats_taken > 0
	`, id); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}

	return nil
}

// SaveStatus writes status and locked_at after a domain transition.
func (repo *RideRepo) SaveStatus(ctx context.Context, r *ride.Ride) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if !validIDs(r.ID) {
		return ride.ErrRideNotFound
	}

	err = tx.QueryRow(ctx, `
		UPDATE rides
		SET status = $2, locked_at = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, r.ID, r.Status.String(), r.LockedAt).Scan(&r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ride.ErrRideNotFound
	}
	if err != nil {
		return fmt.Errorf("update ride status: %w", err)
	}

	return nil
}

// ListJoinableByDate returns open rides on a date, earliest first.
func (repo *RideRepo) ListJoinableByDate(ctx context.Context, date string) ([]*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE ride_date = $1::date
		  AND status = 'open'
		  AND seats_taken < seats_total
		ORDER BY ride_time ASC, created_at ASC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("query joinable rides: %w", err)
	}

	return collectRides(rows)
}

// ListByBucketAndDate returns live rides created from a bucket on a date, earliest first.
func (repo *RideRepo) ListByBucketAndDate(ctx context.Context, bucketID, date string) ([]*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE bucket_id = $1
		  AND ride_date = $2::date
		  AND status IN ('open', 'full', 'locked')
		ORDER BY ride_time ASC
	`, bucketID, date)
	if err != nil {
		return nil, fmt.Errorf("query bucket rides: %w", err)
	}

	return collectRides(rows)
}
