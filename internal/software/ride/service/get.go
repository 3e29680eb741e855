package service

import (
	"context"

	"rydin/internal/domain/ride"
	"rydin/internal/ports"
)

// GetRide returns the current state of a ride.
func (service *rideService) GetRide(ctx context.Context, rideID string) (ports.RideView, error) {
	var r *ride.Ride
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		r, err = service.rideRepo.GetByID(txCtx, rideID)
		return err
	})
	if err != nil {
		return ports.RideView{}, classify(err)
	}
	return ports.NewRideView(r), nil
}
