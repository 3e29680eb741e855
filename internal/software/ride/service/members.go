package service

import (
	"context"

	"rydin/internal/domain/ride"
	"rydin/internal/ports"
)

// CommittedMembers lists the members of a ride with their acknowledgement flags.
func (service *rideService) CommittedMembers(ctx context.Context, rideID string) ([]ports.MemberView, error) {
	var members []*ride.Member
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		if _, err := service.rideRepo.GetByID(txCtx, rideID); err != nil {
			return err
		}
		var err error
		members, err = service.memberRepo.ListByRide(txCtx, rideID)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}

	out := make([]ports.MemberView, 0, len(members))
	for _, m := range members {
		out = append(out, ports.NewMemberView(m))
	}
	return out, nil
}
