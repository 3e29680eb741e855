package postgres

import (
	"errors"

	"rydin/internal/domain/ride"
	"rydin/internal/domain/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// validIDs reports whether every id is a well-formed uuid. Malformed ids can never match a row.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

// uniqueViolation is the SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique constraint violation, optionally on a named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

const rideColumns = `
	id, created_at, updated_at, host_id, source, destination,
	ride_date::text, to_char(ride_time, 'HH24:MI'),
	seats_total, seats_taken, status, locked_at,
	estimated_fare, girls_only, COALESCE(flight_train, ''),
	COALESCE(bucket_id, ''), COALESCE(bucket_name, '')`

// scanRide reads one row selected with rideColumns.
func scanRide(row pgx.Row) (*ride.Ride, error) {
	var (
		out    ride.Ride
		status string
	)
	err := row.Scan(
		&out.ID, &out.CreatedAt, &out.UpdatedAt, &out.HostID, &out.Source, &out.Destination,
		&out.Date, &out.Time,
		&out.SeatsTotal, &out.SeatsTaken, &status, &out.LockedAt,
		&out.EstimatedFare, &out.GirlsOnly, &out.FlightTrain,
		&out.BucketID, &out.BucketName,
	)
	if err != nil {
		return nil, err
	}
	out.Status = ride.Status(status)
	return &out, nil
}

// collectRides drains rows selected with rideColumns.
func collectRides(rows pgx.Rows) ([]*ride.Ride, error) {
	defer rows.Close()

	var out []*ride.Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const profileColumns = `
	id, created_at, updated_at, email, name,
	COALESCE(department, ''), COALESCE(year, ''), COALESCE(phone, ''),
	gender, role,
	COALESCE(emergency_contact_name, ''), COALESCE(emergency_contact_phone, ''),
	trust_score, reliability_score, no_show_count, completed_rides,
	last_no_show_at, no_show_cleared_at`

// scanProfile reads one row selected with profileColumns.
func scanProfile(row pgx.Row) (*user.User, error) {
	var (
		out          user.User
		gender, role string
	)
	err := row.Scan(
		&out.ID, &out.CreatedAt, &out.UpdatedAt, &out.Email, &out.Name,
		&out.Department, &out.Year, &out.Phone,
		&gender, &role,
		&out.EmergencyContactName, &out.EmergencyContactPhone,
		&out.TrustScore, &out.ReliabilityScore, &out.NoShowCount, &out.CompletedRides,
		&out.LastNoShowAt, &out.NoShowClearedAt,
	)
	if err != nil {
		return nil, err
	}
	out.Gender = user.Gender(gender)
	out.Role = user.Role(role)
	return &out, nil
}
