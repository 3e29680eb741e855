package memstore

import (
	"context"
	"sort"
	"strings"

	"rydin/internal/domain/bucket"
	"rydin/internal/domain/ride"
	"rydin/internal/ports"
)

// Rides returns the ride repository of the store.
func (s *Store) Rides() ports.RideRepository { return &rideRepo{s: s} }

type rideRepo struct{ s *Store }

func (repo *rideRepo) CreateRide(ctx context.Context, r *ride.Ride) error {
	return repo.s.view(ctx, func(st *state) error {
		r.ID = newID()
		r.CreatedAt = repo.s.now().UTC()
		r.UpdatedAt = r.CreatedAt
		cp := *r
		st.rides[r.ID] = &cp
		return nil
	})
}

func (repo *rideRepo) CreateIfAbsent(ctx context.Context, r *ride.Ride) (bool, error) {
	created := false
	err := repo.s.view(ctx, func(st *state) error {
		for _, existing := range st.rides {
			if sameSlot(existing, r) {
				*r = *existing
				return nil
			}
		}
		r.ID = newID()
		r.CreatedAt = repo.s.now().UTC()
		r.UpdatedAt = r.CreatedAt
		cp := *r
		st.rides[r.ID] = &cp
		created = true
		return nil
	})
	return created, err
}

// sameSlot mirrors the partial unique index on system rides.
func sameSlot(a, b *ride.Ride) bool {
	return a.HostID == bucket.SystemHostID && b.HostID == bucket.SystemHostID &&
		a.Source == b.Source && a.Destination == b.Destination &&
		a.Date == b.Date && a.Time == b.Time && a.GirlsOnly == b.GirlsOnly
}

func (repo *rideRepo) GetByID(ctx context.Context, id string) (*ride.Ride, error) {
	var out *ride.Ride
	err := repo.s.view(ctx, func(st *state) error {
		r, ok := st.rides[id]
		if !ok {
			return ride.ErrRideNotFound
		}
		cp := *r
		out = &cp
		return nil
	})
	return out, err
}

// GetForUpdate is GetByID; the transaction already holds the store lock.
func (repo *rideRepo) GetForUpdate(ctx context.Context, id string) (*ride.Ride, error) {
	return repo.GetByID(ctx, id)
}

func (repo *rideRepo) TakeSeat(ctx context.Context, id string) (bool, error) {
	taken := false
	err := repo.s.view(ctx, func(st *state) error {
		r, ok := st.rides[id]
		if !ok {
			return ride.ErrRideNotFound
		}
		taken = r.TakeSeat()
		return nil
	})
	return taken, err
}

func (repo *rideRepo) ReleaseSeat(ctx context.Context, id string) error {
	return repo.s.view(ctx, func(st *state) error {
		r, ok := st.rides[id]
		if !ok {
			return ride.ErrRideNotFound
		}
		r.ReleaseSeat()
		return nil
	})
}

func (repo *rideRepo) SaveStatus(ctx context.Context, r *ride.Ride) error {
	return repo.s.view(ctx, func(st *state) error {
		stored, ok := st.rides[r.ID]
		if !ok {
			return ride.ErrRideNotFound
		}
		stored.Status = r.Status
		stored.LockedAt = r.LockedAt
		stored.UpdatedAt = repo.s.now().UTC()
		r.UpdatedAt = stored.UpdatedAt
		return nil
	})
}

func (repo *rideRepo) ListJoinableByDate(ctx context.Context, date string) ([]*ride.Ride, error) {
	return repo.list(ctx, func(r *ride.Ride) bool {
		return r.Date == date && r.Status == ride.StatusOpen && r.SeatsTaken < r.SeatsTotal
	})
}

func (repo *rideRepo) ListByBucketAndDate(ctx context.Context, bucketID, date string) ([]*ride.Ride, error) {
	return repo.list(ctx, func(r *ride.Ride) bool {
		return r.BucketID == bucketID && r.Date == date && !r.Status.Terminal()
	})
}

func (repo *rideRepo) DayStats(ctx context.Context, date string) (ports.RideDayStats, error) {
	stats := ports.RideDayStats{ByStatus: make(map[ride.Status]int)}
	err := repo.s.view(ctx, func(st *state) error {
		for _, r := range st.rides {
			if r.Date != date {
				continue
			}
			stats.ByStatus[r.Status]++
			if r.BucketID != "" {
				stats.FromBucket++
			}
			stats.SeatsTaken += r.SeatsTaken
			stats.SeatsTotal += r.SeatsTotal
		}
		return nil
	})
	return stats, err
}

func (repo *rideRepo) ListActive(ctx context.Context, fromDate string, offset, limit int) ([]*ride.Ride, int, error) {
	rides, err := repo.list(ctx, func(r *ride.Ride) bool {
		return r.Date >= fromDate && !r.Status.Terminal()
	})
	if err != nil {
		return nil, 0, err
	}
	// list orders by time only; active rides span several dates
	sort.SliceStable(rides, func(i, j int) bool { return rides[i].Date < rides[j].Date })

	total := len(rides)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return rides[offset:end], total, nil
}

// list returns copies of matching rides ordered by departure time.
func (repo *rideRepo) list(ctx context.Context, keep func(*ride.Ride) bool) ([]*ride.Ride, error) {
	var out []*ride.Ride
	err := repo.s.view(ctx, func(st *state) error {
		for _, r := range st.rides {
			if keep(r) {
				cp := *r
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if c := strings.Compare(out[i].Time, out[j].Time); c != 0 {
			return c < 0
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}
