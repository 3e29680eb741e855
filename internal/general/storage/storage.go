// Package storage selects the repository backend named by storage.driver.
package storage

import (
	"context"
	"fmt"

	"rydin/internal/general/config"
	"rydin/internal/general/logger"
	"rydin/internal/general/memstore"
	"rydin/internal/general/postgres"
	"rydin/internal/ports"
)

// Backend bundles the unit of work with the repositories bound to it.
type Backend struct {
	UnitOfWork ports.UnitOfWork
	Rides      ports.RideRepository
	Members    ports.MemberRepository
	Users      ports.UserRepository
	Events     ports.RideEventRepository
	Shares     ports.ParentShareRepository

	close func()
}

// Close releases the backend's connections.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open connects to the configured backend. The memory backend is seeded with
// demo profiles so a local run is usable without a database.
func Open(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{
			UnitOfWork: postgres.NewUnitOfWork(pool),
			Rides:      postgres.NewRideRepo(),
			Members:    postgres.NewMemberRepo(),
			Users:      postgres.NewUserRepo(),
			Events:     postgres.NewRideEventRepo(),
			Shares:     postgres.NewParentShareRepo(),
			close:      pool.Close,
		}, nil

	case config.DriverMemory:
		store := memstore.New()
		ids, err := store.SeedDemoUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		logger.Info(ctx, "memstore_ready", "Using in-memory storage", map[string]any{"demo_users": ids})
		return &Backend{
			UnitOfWork: store.UnitOfWork(),
			Rides:      store.Rides(),
			Members:    store.Members(),
			Users:      store.Users(),
			Events:     store.Events(),
			Shares:     store.Shares(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
