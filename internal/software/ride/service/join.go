package service

import (
	"context"
	"errors"
	"fmt"

	"rydin/internal/domain/reliability"
	"rydin/internal/domain/ride"
	"rydin/internal/general/contracts"
	"rydin/internal/general/metrics"
	"rydin/internal/ports"
)

// JoinRide takes one seat on a ride for userID. Every check runs against the
// row locked for this transaction, so two riders racing for the last seat
// cannot both succeed.
func (service *rideService) JoinRide(ctx context.Context, rideID, userID string) (ports.JoinResult, error) {
	corrID := generateCorrelationID(ctx)
	ctx = service.logger.WithRideID(ctx, rideID)

	var (
		joined *ride.Ride
		member *ride.Member
	)

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		// lock the ride row
		r, err := service.rideRepo.GetForUpdate(txCtx, rideID)
		if err != nil {
			return err
		}

		// unavailable, locked, full
		if err := r.CheckJoinable(); err != nil {
			return err
		}

		// already on the ride
		if r.IsHost(userID) {
			return ride.ErrAlreadyJoined
		}
		if _, err := service.memberRepo.Get(txCtx, rideID, userID); err == nil {
			return ride.ErrAlreadyJoined
		} else if !errors.Is(err, ride.ErrNotMember) {
			return err
		}

		// reliability restrictions
		u, err := service.userRepo.GetByID(txCtx, userID)
		if err != nil {
			return err
		}
		rel := reliability.Evaluate(u.NoShowCount, u.CompletedRides, u.ReliabilityScore)
		if !rel.CanJoinRides {
			return ride.ErrJoinRestricted
		}
		if rel.JoinLimitPerDay != nil {
			since := startOfDay(service.now(), service.loc)
			today, err := service.rideEventRepo.CountByUserSince(txCtx, ride.EventMemberJoined, userID, since)
			if err != nil {
				return err
			}
			if today >= *rel.JoinLimitPerDay {
				return fmt.Errorf("%w: daily limit of %d rides reached", ride.ErrJoinRestricted, *rel.JoinLimitPerDay)
			}
		}

		// girls-only eligibility
		if r.GirlsOnly && !u.IsFemale() {
			return ride.ErrEligibilityMismatch
		}

		// conditional increment; losing the race reads as full
		ok, err := service.rideRepo.TakeSeat(txCtx, rideID)
		if err != nil {
			return err
		}
		if !ok {
			return ride.ErrRideFull
		}

		// membership row; a duplicate rolls the seat back with the transaction
		m, err := ride.NewMember(rideID, userID, service.now())
		if err != nil {
			return err
		}
		if err := service.memberRepo.Add(txCtx, m); err != nil {
			return err
		}
		member = m

		if err := service.appendEvent(txCtx, rideID, ride.EventMemberJoined, map[string]any{
			"user_id": userID,
		}); err != nil {
			return err
		}

		// re-read for the post-join counters
		joined, err = service.rideRepo.GetByID(txCtx, rideID)
		return err
	})
	if err != nil {
		err = classify(err)
		metrics.JoinAttempts.WithLabelValues(joinOutcome(err)).Inc()
		if errors.Is(err, ports.ErrStoreUnavailable) {
			service.logger.Error(ctx, "ride_join_failed", "Failed to join ride", err, map[string]any{
				"user_id":    userID,
				"request_id": corrID,
			})
		} else {
			service.logger.Info(ctx, "ride_join_rejected", err.Error(), map[string]any{
				"user_id":    userID,
				"request_id": corrID,
			})
		}
		return ports.JoinResult{}, err
	}

	metrics.JoinAttempts.WithLabelValues("joined").Inc()
	service.publishMember(ctx, rideID, userID, contracts.MemberJoined, corrID)
	service.publishRideStatus(ctx, joined, corrID)

	service.logger.Info(ctx, "ride_joined", fmt.Sprintf("User %s joined ride", userID), map[string]any{
		"user_id":     userID,
		"seats_taken": joined.SeatsTaken,
		"seats_total": joined.SeatsTotal,
		"status":      joined.Status.String(),
		"request_id":  corrID,
	})

	return ports.JoinResult{
		Ride:     ports.NewRideView(joined),
		JoinedAt: member.JoinedAt,
		Message:  "Successfully joined the ride!",
	}, nil
}

// joinOutcome turns a join failure into a metrics label.
func joinOutcome(err error) string {
	switch {
	case errors.Is(err, ride.ErrRideLocked):
		return "locked"
	case errors.Is(err, ride.ErrRideFull):
		return "full"
	case errors.Is(err, ride.ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, ride.ErrJoinRestricted):
		return "restricted"
	case errors.Is(err, ride.ErrEligibilityMismatch):
		return "ineligible"
	case errors.Is(err, ride.ErrRideUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
