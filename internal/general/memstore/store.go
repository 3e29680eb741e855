// Package memstore is an in-process implementation of every repository port.
// A transaction holds the store mutex for its whole duration and restores a
// snapshot when the callback fails, so concurrent units of work serialize the
// same way row locks make them serialize in Postgres.
package memstore

import (
	"context"
	"sync"
	"time"

	"rydin/internal/domain/ride"
	"rydin/internal/domain/user"
	"rydin/internal/ports"

	"github.com/google/uuid"
)

type parentShare struct {
	ID       string
	UserID   string
	RideID   string
	SharedAt time.Time
}

type state struct {
	rides   map[string]*ride.Ride
	members map[string]map[string]*ride.Member // ride id -> user id -> member
	users   map[string]*user.User
	events  []*ride.Event
	shares  []parentShare
}

func newState() *state {
	return &state{
		rides:   make(map[string]*ride.Ride),
		members: make(map[string]map[string]*ride.Member),
		users:   make(map[string]*user.User),
	}
}

// clone deep-copies every entity so a failed transaction can be undone.
func (st *state) clone() *state {
	cp := newState()
	for id, r := range st.rides {
		rc := *r
		cp.rides[id] = &rc
	}
	for rideID, byUser := range st.members {
		m := make(map[string]*ride.Member, len(byUser))
		for userID, mem := range byUser {
			mc := *mem
			m[userID] = &mc
		}
		cp.members[rideID] = m
	}
	for id, u := range st.users {
		uc := *u
		cp.users[id] = &uc
	}
	cp.events = make([]*ride.Event, len(st.events))
	for i, e := range st.events {
		cp.events[i] = e.Clone()
	}
	cp.shares = append([]parentShare(nil), st.shares...)
	return cp
}

// Store is the in-memory database.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{state: newState(), now: time.Now}
}

type txKey struct{}

// inTx reports whether ctx carries a transaction of this store.
func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// UnitOfWork returns the transaction manager of the store.
func (s *Store) UnitOfWork() ports.UnitOfWork { return unitOfWork{s: s} }

type unitOfWork struct{ s *Store }

// WithinTx runs fn holding the store lock. Nested calls join the outer transaction.
func (uow unitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s := uow.s
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// view runs fn against the live state, locking unless ctx is already inside a transaction.
func (s *Store) view(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func newID() string {
	return uuid.NewString()
}
