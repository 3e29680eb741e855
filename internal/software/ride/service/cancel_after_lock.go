package service

import (
	"context"
	"fmt"

	"rydin/internal/domain/reliability"
	"rydin/internal/domain/ride"
	"rydin/internal/general/contracts"
	"rydin/internal/general/metrics"
	"rydin/internal/ports"
)

// CancelAfterLock lets a member back out of a locked ride at the cost of
// trust. The seat is freed but the ride stays locked.
func (service *rideService) CancelAfterLock(ctx context.Context, rideID, userID string) (ports.CancelAfterLockResult, error) {
	corrID := generateCorrelationID(ctx)
	ctx = service.logger.WithRideID(ctx, rideID)

	var (
		after    *ride.Ride
		newTrust float64
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		// lock the ride row
		r, err := service.rideRepo.GetForUpdate(txCtx, rideID)
		if err != nil {
			return err
		}
		if r.Status.Terminal() {
			return ride.ErrRideUnavailable
		}
		if r.Status != ride.StatusLocked {
			return ride.ErrRideNotLocked
		}

		// drop membership and seat
		if err := service.memberRepo.Remove(txCtx, rideID, userID); err != nil {
			return err
		}
		if err := service.rideRepo.ReleaseSeat(txCtx, rideID); err != nil {
			return err
		}

		// trust penalty, floored at zero by the store
		newTrust, err = service.userRepo.AdjustTrustScore(txCtx, userID, -reliability.TrustPenaltyCancelAfterLock)
		if err != nil {
			return err
		}

		if err := service.appendEvent(txCtx, rideID, ride.EventCancelledAfterLock, map[string]any{
			"user_id":       userID,
			"trust_penalty": reliability.TrustPenaltyCancelAfterLock,
		}); err != nil {
			return err
		}

		after, err = service.rideRepo.GetByID(txCtx, rideID)
		return err
	})
	if err != nil {
		err = classify(err)
		service.logger.Warn(ctx, "cancel_after_lock_failed", "Failed to cancel after lock", err, map[string]any{
			"user_id":    userID,
			"request_id": corrID,
		})
		return ports.CancelAfterLockResult{}, err
	}

	metrics.TrustPenalties.Inc()
	service.publishMember(ctx, rideID, userID, contracts.MemberCancelledAfterLock, corrID)
	service.publishRideStatus(ctx, after, corrID)

	service.logger.Info(ctx, "cancelled_after_lock", fmt.Sprintf("User %s cancelled after lock", userID), map[string]any{
		"user_id":         userID,
		"new_trust_score": newTrust,
		"request_id":      corrID,
	})

	return ports.CancelAfterLockResult{
		Ride:          ports.NewRideView(after),
		TrustPenalty:  reliability.TrustPenaltyCancelAfterLock,
		NewTrustScore: newTrust,
		Message:       fmt.Sprintf("You left a locked ride. Your trust score dropped by %.0f points.", reliability.TrustPenaltyCancelAfterLock),
	}, nil
}
