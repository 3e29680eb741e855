package service

import (
	"context"
	"fmt"

	"rydin/internal/domain/ride"
	"rydin/internal/general/contracts"
	"rydin/internal/ports"
)

// LeaveRide gives a member's seat back. Locked rides must use CancelAfterLock.
func (service *rideService) LeaveRide(ctx context.Context, rideID, userID string) (ports.RideView, error) {
	corrID := generateCorrelationID(ctx)
	ctx = service.logger.WithRideID(ctx, rideID)

	var left *ride.Ride
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		// lock the ride row
		r, err := service.rideRepo.GetForUpdate(txCtx, rideID)
		if err != nil {
			return err
		}
		if r.Status.Terminal() {
			return ride.ErrRideUnavailable
		}
		if r.Status == ride.StatusLocked {
			return ride.ErrRideLocked
		}

		// drop membership, then the seat
		if err := service.memberRepo.Remove(txCtx, rideID, userID); err != nil {
			return err
		}
		if err := service.rideRepo.ReleaseSeat(txCtx, rideID); err != nil {
			return err
		}
		if err := service.appendEvent(txCtx, rideID, ride.EventMemberLeft, map[string]any{
			"user_id": userID,
		}); err != nil {
			return err
		}

		left, err = service.rideRepo.GetByID(txCtx, rideID)
		return err
	})
	if err != nil {
		err = classify(err)
		service.logger.Warn(ctx, "ride_leave_failed", "Failed to leave ride", err, map[string]any{
			"user_id":    userID,
			"request_id": corrID,
		})
		return ports.RideView{}, err
	}

	service.publishMember(ctx, rideID, userID, contracts.MemberLeft, corrID)
	service.publishRideStatus(ctx, left, corrID)

	service.logger.Info(ctx, "ride_left", fmt.Sprintf("User %s left ride", userID), map[string]any{
		"user_id":     userID,
		"seats_taken": left.SeatsTaken,
		"request_id":  corrID,
	})

	return ports.NewRideView(left), nil
}
