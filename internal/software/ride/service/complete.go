package service

import (
	"context"

	"rydin/internal/domain/ride"
	"rydin/internal/ports"
)

// CompleteRide closes a ride after the trip and credits every rider with a completed ride.
func (service *rideService) CompleteRide(ctx context.Context, rideID, hostID string) (ports.RideView, error) {
	return service.transition(ctx, rideID, hostID, "ride_completed", func(txCtx context.Context, r *ride.Ride) error {
		if err := r.Complete(); err != nil {
			return err
		}

		members, err := service.memberRepo.ListByRide(txCtx, r.ID)
		if err != nil {
			return err
		}
		riders := make([]string, 0, len(members)+1)
		if r.HostID != "" {
			riders = append(riders, r.HostID)
		}
		for _, m := range members {
			riders = append(riders, m.UserID)
		}
		if err := service.userRepo.IncrementCompletedRides(txCtx, riders); err != nil {
			return err
		}

		return service.appendEvent(txCtx, r.ID, ride.EventRideCompleted, map[string]any{
			"host_id": hostID,
			"riders":  len(riders),
		})
	})
}

// CancelRide cancels a ride on behalf of its host.
func (service *rideService) CancelRide(ctx context.Context, rideID, hostID string) (ports.RideView, error) {
	return service.transition(ctx, rideID, hostID, "ride_cancelled", func(txCtx context.Context, r *ride.Ride) error {
		if err := r.Cancel(); err != nil {
			return err
		}
		return service.appendEvent(txCtx, r.ID, ride.EventRideCancelled, map[string]any{
			"host_id": hostID,
		})
	})
}
