package service

import (
	"errors"
	"fmt"
	"time"

	"rydin/internal/general/logger"
	"rydin/internal/ports"
)

// adminService encapsulates the admin dashboard logic and dependencies.
type adminService struct {
	logger   *logger.Logger
	uow      ports.UnitOfWork
	rideRepo ports.RideRepository
	userRepo ports.UserRepository
	loc      *time.Location
	now      func() time.Time
}

// NewAdminService creates a new instance of the AdminService with the provided dependencies.
func NewAdminService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	rideRepo ports.RideRepository,
	userRepo ports.UserRepository,
	loc *time.Location,
) ports.AdminService {
	if loc == nil {
		loc = time.UTC
	}
	return &adminService{
		logger:   logger,
		uow:      uow,
		rideRepo: rideRepo,
		userRepo: userRepo,
		loc:      loc,
		now:      time.Now,
	}
}

// today is the local calendar date of the campus.
func (service *adminService) today() string {
	return service.now().In(service.loc).Format("2006-01-02")
}

func classify(err error) error {
	if errors.Is(err, ports.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ports.ErrStoreUnavailable, err)
}
