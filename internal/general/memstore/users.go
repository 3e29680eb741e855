package memstore

import (
	"context"
	"sort"
	"time"

	"rydin/internal/domain/reliability"
	"rydin/internal/domain/user"
	"rydin/internal/ports"
)

// Users returns the profile repository of the store.
func (s *Store) Users() ports.UserRepository { return &userRepo{s: s} }

type userRepo struct{ s *Store }

func (repo *userRepo) CreateUser(ctx context.Context, u *user.User) error {
	return repo.s.view(ctx, func(st *state) error {
		if u.ID == "" {
			u.ID = newID()
		}
		cp := *u
		st.users[u.ID] = &cp
		return nil
	})
}

func (repo *userRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	var out *user.User
	err := repo.s.view(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return user.ErrUserNotFound
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}

func (repo *userRepo) GetForUpdate(ctx context.Context, id string) (*user.User, error) {
	return repo.GetByID(ctx, id)
}

func (repo *userRepo) UpdateProfile(ctx context.Context, id string, patch user.ProfilePatch) (*user.User, error) {
	var out *user.User
	err := repo.mutate(ctx, id, func(u *user.User) {
		patch.Apply(u)
		cp := *u
		out = &cp
	})
	return out, err
}

func (repo *userRepo) RecordNoShow(ctx context.Context, id string, noShows, score int, at time.Time) error {
	return repo.mutate(ctx, id, func(u *user.User) {
		at := at.UTC()
		u.NoShowCount = noShows
		u.ReliabilityScore = score
		u.LastNoShowAt = &at
	})
}

func (repo *userRepo) ClearNoShows(ctx context.Context, id string, at time.Time) error {
	return repo.mutate(ctx, id, func(u *user.User) {
		at := at.UTC()
		u.NoShowCount = 0
		u.ReliabilityScore = reliability.MaxScore
		u.NoShowClearedAt = &at
	})
}

func (repo *userRepo) ClearNoShowsBefore(ctx context.Context, id string, before, at time.Time) (bool, error) {
	cleared := false
	err := repo.s.view(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return user.ErrUserNotFound
		}
		if u.NoShowCount == 0 || u.LastNoShowAt == nil || u.LastNoShowAt.After(before) {
			return nil
		}
		at := at.UTC()
		u.NoShowCount = 0
		u.ReliabilityScore = reliability.MaxScore
		u.NoShowClearedAt = &at
		u.UpdatedAt = repo.s.now().UTC()
		cleared = true
		return nil
	})
	return cleared, err
}

func (repo *userRepo) ListClearable(ctx context.Context, before time.Time, limit int) ([]string, error) {
	type candidate struct {
		id string
		at time.Time
	}
	var found []candidate
	err := repo.s.view(ctx, func(st *state) error {
		for _, u := range st.users {
			if u.NoShowCount > 0 && u.LastNoShowAt != nil && !u.LastNoShowAt.After(before) {
				found = append(found, candidate{id: u.ID, at: *u.LastNoShowAt})
			}
		}
		return nil
	})
	sort.Slice(found, func(i, j int) bool { return found[i].at.Before(found[j].at) })
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	ids := make([]string, len(found))
	for i, c := range found {
		ids[i] = c.id
	}
	return ids, err
}

func (repo *userRepo) CountByNoShows(ctx context.Context, atLeast int) (int, error) {
	n := 0
	err := repo.s.view(ctx, func(st *state) error {
		for _, u := range st.users {
			if u.NoShowCount >= atLeast {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (repo *userRepo) AdjustTrustScore(ctx context.Context, id string, delta float64) (float64, error) {
	var score float64
	err := repo.mutate(ctx, id, func(u *user.User) {
		u.TrustScore = user.ClampTrust(u.TrustScore + delta)
		score = u.TrustScore
	})
	return score, err
}

func (repo *userRepo) IncrementCompletedRides(ctx context.Context, ids []string) error {
	return repo.s.view(ctx, func(st *state) error {
		for _, id := range ids {
			if u, ok := st.users[id]; ok {
				u.CompletedRides++
			}
		}
		return nil
	})
}

// mutate applies fn to the stored profile and stamps updated_at.
func (repo *userRepo) mutate(ctx context.Context, id string, fn func(*user.User)) error {
	return repo.s.view(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return user.ErrUserNotFound
		}
		fn(u)
		u.UpdatedAt = repo.s.now().UTC()
		return nil
	})
}
