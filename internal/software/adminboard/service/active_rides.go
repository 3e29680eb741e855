package service

import (
	"context"
	"strconv"

	"rydin/internal/domain/ride"
	"rydin/internal/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// GetActiveRides returns a paginated list of rides that are still open, full or locked,
// from today onwards.
func (service *adminService) GetActiveRides(ctx context.Context, page, pageSize string) (ports.ActiveRidesResult, error) {
	// convert page and pageSize to integers with fallback defaults
	pageInt, err := strconv.Atoi(page)
	if err != nil || pageInt < 1 {
		pageInt = 1
	}
	sizeInt, err := strconv.Atoi(pageSize)
	if err != nil || sizeInt < 1 {
		sizeInt = defaultPageSize
	}
	sizeInt = min(sizeInt, maxPageSize)

	res := ports.ActiveRidesResult{Page: pageInt, PageSize: sizeInt, Rides: []ports.RideView{}}

	var rides []*ride.Ride
	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		rides, res.TotalCount, err = service.rideRepo.ListActive(txCtx, service.today(), (pageInt-1)*sizeInt, sizeInt)
		return err
	})
	if err != nil {
		service.logger.Error(ctx, "admin_active_rides_failed", "Failed to list active rides", err, nil)
		return ports.ActiveRidesResult{}, classify(err)
	}

	for _, r := range rides {
		res.Rides = append(res.Rides, ports.NewRideView(r))
	}
	return res, nil
}
