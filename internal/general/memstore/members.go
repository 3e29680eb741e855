package memstore

import (
	"context"
	"sort"
	"time"

	"rydin/internal/domain/ride"
	"rydin/internal/ports"
)

// Members returns the membership repository of the store.
func (s *Store) Members() ports.MemberRepository { return &memberRepo{s: s} }

type memberRepo struct{ s *Store }

func (repo *memberRepo) Add(ctx context.Context, m *ride.Member) error {
	return repo.s.view(ctx, func(st *state) error {
		byUser := st.members[m.RideID]
		if byUser == nil {
			byUser = make(map[string]*ride.Member)
			st.members[m.RideID] = byUser
		}
		if _, ok := byUser[m.UserID]; ok {
			return ride.ErrAlreadyJoined
		}
		m.ID = newID()
		cp := *m
		byUser[m.UserID] = &cp
		return nil
	})
}

func (repo *memberRepo) Get(ctx context.Context, rideID, userID string) (*ride.Member, error) {
	var out *ride.Member
	err := repo.s.view(ctx, func(st *state) error {
		m, ok := st.members[rideID][userID]
		if !ok {
			return ride.ErrNotMember
		}
		cp := *m
		out = &cp
		return nil
	})
	return out, err
}

func (repo *memberRepo) Remove(ctx context.Context, rideID, userID string) error {
	return repo.s.view(ctx, func(st *state) error {
		if _, ok := st.members[rideID][userID]; !ok {
			return ride.ErrNotMember
		}
		delete(st.members[rideID], userID)
		return nil
	})
}

func (repo *memberRepo) ListByRide(ctx context.Context, rideID string) ([]*ride.Member, error) {
	var out []*ride.Member
	err := repo.s.view(ctx, func(st *state) error {
		for _, m := range st.members[rideID] {
			cp := *m
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, err
}

func (repo *memberRepo) Acknowledge(ctx context.Context, rideID, userID string, at time.Time) error {
	return repo.s.view(ctx, func(st *state) error {
		m, ok := st.members[rideID][userID]
		if !ok {
			return ride.ErrNotMember
		}
		m.Acknowledge(at)
		return nil
	})
}
