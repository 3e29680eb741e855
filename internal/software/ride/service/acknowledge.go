package service

import (
	"context"
	"errors"

	"rydin/internal/domain/ride"
	"rydin/internal/general/contracts"
	"rydin/internal/ports"
)

// AcknowledgeCommitment records that a member confirmed they will travel on
// the locked ride. Acknowledging twice keeps the first timestamp.
func (service *rideService) AcknowledgeCommitment(ctx context.Context, rideID, userID string) (ports.MemberView, error) {
	corrID := generateCorrelationID(ctx)
	ctx = service.logger.WithRideID(ctx, rideID)

	var (
		member *ride.Member
		first  bool
	)
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		r, err := service.rideRepo.GetForUpdate(txCtx, rideID)
		if err != nil {
			return err
		}
		if r.Status != ride.StatusLocked {
			return ride.ErrRideNotLocked
		}

		m, err := service.memberRepo.Get(txCtx, rideID, userID)
		if err != nil {
			return err
		}
		first = !m.CommitmentAcknowledged

		if first {
			if err := service.memberRepo.Acknowledge(txCtx, rideID, userID, service.now()); err != nil {
				return err
			}
			if err := service.appendEvent(txCtx, rideID, ride.EventCommitmentAcknowledged, map[string]any{
				"user_id": userID,
			}); err != nil {
				return err
			}
		}

		member, err = service.memberRepo.Get(txCtx, rideID, userID)
		return err
	})
	if err != nil {
		err = classify(err)
		if !errors.Is(err, ride.ErrNotMember) {
			service.logger.Warn(ctx, "commitment_ack_failed", "Failed to acknowledge commitment", err, map[string]any{
				"user_id":    userID,
				"request_id": corrID,
			})
		}
		return ports.MemberView{}, err
	}

	if first {
		service.publishMember(ctx, rideID, userID, contracts.MemberAcknowledged, corrID)
		service.logger.Info(ctx, "commitment_acknowledged", "Member acknowledged ride commitment", map[string]any{
			"user_id":    userID,
			"request_id": corrID,
		})
	}

	return ports.NewMemberView(member), nil
}
