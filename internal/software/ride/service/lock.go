package service

import (
	"context"

	"rydin/internal/domain/ride"
	"rydin/internal/general/metrics"
	"rydin/internal/ports"
)

// LockRide stops the ride from taking new members. Host only.
func (service *rideService) LockRide(ctx context.Context, rideID, hostID string) (ports.RideView, error) {
	return service.transition(ctx, rideID, hostID, "ride_locked", func(txCtx context.Context, r *ride.Ride) error {
		if err := r.Lock(service.now()); err != nil {
			return err
		}
		return service.appendEvent(txCtx, r.ID, ride.EventRideLocked, map[string]any{
			"host_id":     hostID,
			"seats_taken": r.SeatsTaken,
		})
	})
}

// UnlockRide reopens a locked ride that has no members left. Host only.
func (service *rideService) UnlockRide(ctx context.Context, rideID, hostID string) (ports.RideView, error) {
	return service.transition(ctx, rideID, hostID, "ride_unlocked", func(txCtx context.Context, r *ride.Ride) error {
		members, err := service.memberRepo.ListByRide(txCtx, r.ID)
		if err != nil {
			return err
		}
		if err := r.Unlock(len(members)); err != nil {
			return err
		}
		return service.appendEvent(txCtx, r.ID, ride.EventRideUnlocked, map[string]any{
			"host_id": hostID,
		})
	})
}

// transition runs a host-only status change on the locked ride row, persists
// it and publishes the new status.
func (service *rideService) transition(
	ctx context.Context,
	rideID, hostID, action string,
	apply func(txCtx context.Context, r *ride.Ride) error,
) (ports.RideView, error) {
	corrID := generateCorrelationID(ctx)
	ctx = service.logger.WithRideID(ctx, rideID)

	var changed *ride.Ride
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		r, err := service.requireHost(txCtx, rideID, hostID)
		if err != nil {
			return err
		}
		if err := apply(txCtx, r); err != nil {
			return err
		}
		if err := service.rideRepo.SaveStatus(txCtx, r); err != nil {
			return err
		}
		changed = r
		return nil
	})
	if err != nil {
		err = classify(err)
		service.logger.Warn(ctx, action+"_failed", "Ride status change rejected", err, map[string]any{
			"host_id":    hostID,
			"request_id": corrID,
		})
		return ports.RideView{}, err
	}

	metrics.RideTransitions.WithLabelValues(changed.Status.String()).Inc()
	service.publishRideStatus(ctx, changed, corrID)

	service.logger.Info(ctx, action, "Ride status changed to "+changed.Status.String(), map[string]any{
		"host_id":    hostID,
		"request_id": corrID,
	})

	return ports.NewRideView(changed), nil
}
