package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rydin/internal/domain/user"
	"rydin/internal/ports"

	"github.com/jackc/pgx/v5"
)

// UserRepo persists profiles using pgx and plain SQL.
type UserRepo struct{}

// NewUserRepo constructs a new UserRepo.
func NewUserRepo() ports.UserRepository {
	return &UserRepo{}
}

// CreateUser inserts a new profile row.
func (repo *UserRepo) CreateUser(ctx context.Context, u *user.User) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	// if caller didn't pre-assign an ID, let the database generate one
	var id any
	if u.ID != "" {
		id = u.ID
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO profiles (
			id, email, name, department, year, phone, gender, role,
			emergency_contact_name, emergency_contact_phone,
			trust_score, reliability_score
		)
		VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8,
		        NULLIF($9, ''), NULLIF($10, ''), $11, $12)
		RETURNING id, created_at, updated_at
	`,
		id, u.Email, u.Name, u.Department, u.Year, u.Phone, u.Gender.String(), u.Role.String(),
		u.EmergencyContactName, u.EmergencyContactPhone,
		u.TrustScore, u.ReliabilityScore,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	return nil
}

// GetByID returns one profile by id.
func (repo *UserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	return repo.get(ctx, id, "")
}

// GetForUpdate returns one profile and holds its row lock until the transaction ends.
func (repo *UserRepo) GetForUpdate(ctx context.Context, id string) (*user.User, error) {
	return repo.get(ctx, id, "FOR UPDATE")
}

func (repo *UserRepo) get(ctx context.Context, id, lock string) (*user.User, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !validIDs(id) {
		return nil, user.ErrUserNotFound
	}

	out, err := scanProfile(tx.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = $1
		`+lock, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select profile: %w", err)
	}

	return out, nil
}

// UpdateProfile applies the present fields of patch and returns the stored row.
func (repo *UserRepo) UpdateProfile(ctx context.Context, id string, patch user.ProfilePatch) (*user.User, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !validIDs(id) {
		return nil, user.ErrUserNotFound
	}

	var gender *string
	if patch.Gender != nil {
		g := patch.Gender.String()
		gender = &g
	}

	// NULL parameters keep the current column value
	out, err := scanProfile(tx.QueryRow(ctx, `
		UPDATE profiles
		SET name                    = COALESCE($2, name),
		    department              = COALESCE($3, department),
		    year                    = COALESCE($4, year),
		    phone                   = COALESCE($5, phone),
		    gender                  = COALESCE($6, gender),
		    emergency_contact_name  = COALESCE($7, emergency_contact_name),
		    emergency_contact_phone = COALESCE($8, emergency_contact_phone),
		    updated_at              = now()
		WHERE id = $1
		RETURNING `+profileColumns,
		id, patch.Name, patch.Department, patch.Year, patch.Phone, gender,
		patch.EmergencyContactName, patch.EmergencyContactPhone,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return out, nil
}

// RecordNoShow stores the new no-show count and reliability score.
func (repo *UserRepo) RecordNoShow(ctx context.Context, id string, noShows, reliability int, at time.Time) error {
	return repo.exec(ctx, "record no-show", `
		UPDATE profiles
		SET no_show_count = $2, reliability_score = $3, last_no_show_at = $4, updated_at = now()
		WHERE id = $1
	`, id, noShows, reliability, at)
}

// ClearNoShows resets the no-show record to a clean slate.
func (repo *UserRepo) ClearNoShows(ctx context.Context, id string, at time.Time) error {
	return repo.exec(ctx, "clear no-shows", `
		UPDATE profiles
		SET no_show_count = 0, reliability_score = 100, no_show_cleared_at = $2, updated_at = now()
		WHERE id = $1
	`, id, at)
}

// ClearNoShowsBefore resets the record unless a no-show landed after the cutoff.
func (repo *UserRepo) ClearNoShowsBefore(ctx context.Context, id string, lastNoShowBefore, at time.Time) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}
	if !validIDs(id) {
		return false, user.ErrUserNotFound
	}

	tag, err := tx.Exec(ctx, `
		UPDATE profiles
		SET no_show_count = 0, reliability_score = 100, no_show_cleared_at = $3, updated_at = now()
		WHERE id = $1
		  AND no_show_count > 0
		  AND last_no_show_at IS NOT NULL
		  AND last_no_show_at <= $2
	`, id, lastNoShowBefore, at)
	if err != nil {
		return false, fmt.Errorf("clear no-shows before cutoff: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListClearable returns users with no-shows whose last one is older than the cutoff.
func (repo *UserRepo) ListClearable(ctx context.Context, lastNoShowBefore time.Time, limit int) ([]string, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id::text
		FROM profiles
		WHERE no_show_count > 0
		  AND last_no_show_at IS NOT NULL
		  AND last_no_show_at <= $1
		ORDER BY last_no_show_at ASC
		LIMIT $2
	`, lastNoShowBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("query clearable profiles: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan clearable profiles: %w", err)
	}
	return ids, nil
}

// AdjustTrustScore adds delta to the trust score, floored at zero, and returns the new score.
func (repo *UserRepo) AdjustTrustScore(ctx context.Context, id string, delta float64) (float64, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}
	if !validIDs(id) {
		return 0, user.ErrUserNotFound
	}

	var score float64
	err = tx.QueryRow(ctx, `
		UPDATE profiles
		SET trust_score = GREATEST(0, trust_score + $2), updated_at = now()
		WHERE id = $1
		RETURNING trust_score
	`, id, delta).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, user.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("adjust trust score: %w", err)
	}

	return score, nil
}

// IncrementCompletedRides bumps completed_rides for every listed profile.
func (repo *UserRepo) IncrementCompletedRides(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE profiles
		SET completed_rides = completed_rides + 1, updated_at = now()
		WHERE id::text = ANY($1)
	`, ids); err != nil {
		return fmt.Errorf("increment completed rides: %w", err)
	}

	return nil
}

// CountByNoShows counts profiles with at least atLeast recorded no-shows.
func (repo *UserRepo) CountByNoShows(ctx context.Context, atLeast int) (int, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM profiles WHERE no_show_count >= $1
	`, atLeast).Scan(&n); err != nil {
		return 0, fmt.Errorf("count profiles by no-shows: %w", err)
	}

	return n, nil
}

// exec runs a single-row update and maps zero rows to ErrUserNotFound.
func (repo *UserRepo) exec(ctx context.Context, what, query string, args ...any) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if id, ok := args[0].(string); !ok || !validIDs(id) {
		return user.ErrUserNotFound
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	return nil
}
