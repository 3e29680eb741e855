package service

import (
	"time"

	"rydin/internal/general/logger"
	"rydin/internal/ports"
)

// Repositories groups the stores the ride service works against.
type Repositories struct {
	Rides   ports.RideRepository
	Members ports.MemberRepository
	Users   ports.UserRepository
	Events  ports.RideEventRepository
	Shares  ports.ParentShareRepository
}

// rideService encapsulates the ride service logic and dependencies.
type rideService struct {
	logger        *logger.Logger
	uow           ports.UnitOfWork
	rideRepo      ports.RideRepository
	memberRepo    ports.MemberRepository
	userRepo      ports.UserRepository
	rideEventRepo ports.RideEventRepository
	shareRepo     ports.ParentShareRepository
	pub           ports.Publisher
	loc           *time.Location
	now           func() time.Time
}

// NewRideService creates a new instance of the RideService with the provided dependencies.
// Calendar days for the daily join cap are taken in loc.
func NewRideService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	repos Repositories,
	pub ports.Publisher,
	loc *time.Location,
) ports.RideService {
	if loc == nil {
		loc = time.UTC
	}
	return &rideService{
		logger:        logger,
		uow:           uow,
		rideRepo:      repos.Rides,
		memberRepo:    repos.Members,
		userRepo:      repos.Users,
		rideEventRepo: repos.Events,
		shareRepo:     repos.Shares,
		pub:           pub,
		loc:           loc,
		now:           time.Now,
	}
}
