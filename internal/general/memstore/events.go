package memstore

import (
	"context"
	"sort"
	"time"

	"rydin/internal/domain/ride"
	"rydin/internal/ports"
)

// Events returns the ride event repository of the store.
func (s *Store) Events() ports.RideEventRepository { return &eventRepo{s: s} }

type eventRepo struct{ s *Store }

func (repo *eventRepo) Append(ctx context.Context, e *ride.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return repo.s.view(ctx, func(st *state) error {
		e.ID = newID()
		e.CreatedAt = repo.s.now().UTC()
		st.events = append(st.events, e.Clone())
		return nil
	})
}

func (repo *eventRepo) CountByUserSince(ctx context.Context, eventType ride.EventType, userID string, since time.Time) (int, error) {
	n := 0
	err := repo.s.view(ctx, func(st *state) error {
		for _, e := range st.events {
			if e.Type == eventType && e.Data["user_id"] == userID && !e.CreatedAt.Before(since) {
				n++
			}
		}
		return nil
	})
	return n, err
}

// Shares returns the parent share repository of the store.
func (s *Store) Shares() ports.ParentShareRepository { return &shareRepo{s: s} }

type shareRepo struct{ s *Store }

func (repo *shareRepo) Record(ctx context.Context, userID, rideID string, at time.Time) error {
	return repo.s.view(ctx, func(st *state) error {
		st.shares = append(st.shares, parentShare{ID: newID(), UserID: userID, RideID: rideID, SharedAt: at.UTC()})
		return nil
	})
}

func (repo *shareRepo) ListByUser(ctx context.Context, userID string, limit int) ([]ports.ParentShare, error) {
	var out []ports.ParentShare
	err := repo.s.view(ctx, func(st *state) error {
		// walk newest-inserted first so equal timestamps keep that order
		for i := len(st.shares) - 1; i >= 0; i-- {
			sh := st.shares[i]
			if sh.UserID != userID {
				continue
			}
			item := ports.ParentShare{ID: sh.ID, RideID: sh.RideID, SharedAt: sh.SharedAt}
			if r, ok := st.rides[sh.RideID]; ok {
				item.Source, item.Destination, item.Date, item.Time = r.Source, r.Destination, r.Date, r.Time
			}
			out = append(out, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].SharedAt.After(out[j].SharedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// EventsFor returns a copy of the audit trail of one ride, oldest first.
func (s *Store) EventsFor(rideID string) []*ride.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ride.Event
	for _, e := range s.state.events {
		if e.RideID == rideID {
			out = append(out, e.Clone())
		}
	}
	return out
}

// ShareCount returns how many parent shares were recorded for a ride.
func (s *Store) ShareCount(rideID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, sh := range s.state.shares {
		if sh.RideID == rideID {
			n++
		}
	}
	return n
}
