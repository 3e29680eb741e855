package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rydin/internal/domain/reliability"
	"rydin/internal/domain/user"
	"rydin/internal/general/logger"
	"rydin/internal/general/metrics"
	"rydin/internal/ports"
)

// reliabilityService applies the no-show schedule to profiles.
type reliabilityService struct {
	logger   *logger.Logger
	uow      ports.UnitOfWork
	userRepo ports.UserRepository
	batch    int
	now      func() time.Time
}

// NewReliabilityService creates the reliability service. batch bounds how many
// profiles one clearance run forgives.
func NewReliabilityService(logger *logger.Logger, uow ports.UnitOfWork, userRepo ports.UserRepository, batch int) ports.ReliabilityService {
	if batch <= 0 {
		batch = 500
	}
	return &reliabilityService{
		logger:   logger,
		uow:      uow,
		userRepo: userRepo,
		batch:    batch,
		now:      time.Now,
	}
}

// RecordNoShow applies the next penalty step to a user's record.
func (service *reliabilityService) RecordNoShow(ctx context.Context, userID string) (reliability.Outcome, error) {
	ctx = service.logger.WithUserID(ctx, userID)

	var out reliability.Outcome
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		// lock the profile so concurrent reports step the schedule one at a time
		u, err := service.userRepo.GetForUpdate(txCtx, userID)
		if err != nil {
			return err
		}

		out = reliability.ApplyNoShow(u.NoShowCount, u.ReliabilityScore)
		return service.userRepo.RecordNoShow(txCtx, userID, out.NewNoShowCount, out.NewReliability, service.now())
	})
	if err != nil {
		err = classify(err)
		service.logger.Error(ctx, "no_show_record_failed", "Failed to record no-show", err, nil)
		return reliability.Outcome{}, err
	}

	metrics.NoShows.WithLabelValues(string(out.Action)).Inc()
	service.logger.Info(ctx, "no_show_recorded", out.Message, map[string]any{
		"action":          out.Action,
		"no_show_count":   out.NewNoShowCount,
		"new_reliability": out.NewReliability,
	})

	return out, nil
}

// GetUserReliability derives the reliability metrics of a user.
func (service *reliabilityService) GetUserReliability(ctx context.Context, userID string) (reliability.Metrics, error) {
	var u *user.User
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		u, err = service.userRepo.GetByID(txCtx, userID)
		return err
	})
	if err != nil {
		return reliability.Metrics{}, classify(err)
	}
	return reliability.Evaluate(u.NoShowCount, u.CompletedRides, u.ReliabilityScore), nil
}

// ClearNoShowCount forgives a user's no-shows and restores full reliability.
func (service *reliabilityService) ClearNoShowCount(ctx context.Context, userID string) error {
	ctx = service.logger.WithUserID(ctx, userID)

	if err := service.clear(ctx, userID, service.now()); err != nil {
		err = classify(err)
		service.logger.Error(ctx, "no_show_clear_failed", "Failed to clear no-shows", err, nil)
		return err
	}

	service.logger.Info(ctx, "no_shows_cleared", "No-show count cleared", nil)
	return nil
}

// ClearEligibleNoShows forgives every user whose last no-show is older than
// the clearance window. Per-user failures are logged and skipped.
func (service *reliabilityService) ClearEligibleNoShows(ctx context.Context) (int, error) {
	now := service.now()
	cutoff := now.Add(-reliability.ClearanceWindow)
	var ids []string
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		ids, err = service.userRepo.ListClearable(txCtx, cutoff, service.batch)
		return err
	})
	if err != nil {
		err = classify(err)
		service.logger.Error(ctx, "no_show_clearance_failed", "Failed to list clearable users", err, nil)
		return 0, err
	}

	cleared, skipped := 0, 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return cleared, err
		}
		var ok bool
		err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
			var err error
			ok, err = service.userRepo.ClearNoShowsBefore(txCtx, id, cutoff, now)
			return err
		})
		if err != nil {
			service.logger.Warn(service.logger.WithUserID(ctx, id), "no_show_clear_failed", "Skipping user in clearance run", err, nil)
			continue
		}
		if !ok {
			// a newer no-show arrived after the candidates were listed
			skipped++
			continue
		}
		cleared++
	}

	service.logger.Info(ctx, "no_show_clearance_completed", fmt.Sprintf("Cleared no-shows for %d users", cleared), map[string]any{
		"candidates": len(ids),
		"cleared":    cleared,
		"skipped":    skipped,
	})
	return cleared, nil
}

// clear resets one record in its own transaction.
func (service *reliabilityService) clear(ctx context.Context, userID string, at time.Time) error {
	return service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.userRepo.ClearNoShows(txCtx, userID, at)
	})
}

func classify(err error) error {
	if errors.Is(err, user.ErrUserNotFound) || errors.Is(err, ports.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ports.ErrStoreUnavailable, err)
}
