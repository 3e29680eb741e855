package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rydin/internal/domain/user"
	"rydin/internal/general/logger"
	"rydin/internal/general/metrics"
	"rydin/internal/ports"
)

// DefaultWriteTimeout bounds how long a profile update waits for the primary store.
const DefaultWriteTimeout = 10 * time.Second

// profileService reads profiles through the override tier and writes them
// with a bounded wait.
type profileService struct {
	logger    *logger.Logger
	uow       ports.UnitOfWork
	userRepo  ports.UserRepository
	overrides ports.ProfileOverrideStore
	timeout   time.Duration
}

// NewProfileService creates the profile service. A non-positive timeout uses DefaultWriteTimeout.
func NewProfileService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	userRepo ports.UserRepository,
	overrides ports.ProfileOverrideStore,
	timeout time.Duration,
) ports.ProfileService {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return &profileService{
		logger:    logger,
		uow:       uow,
		userRepo:  userRepo,
		overrides: overrides,
		timeout:   timeout,
	}
}

// GetProfile returns the stored profile with any pending override applied on top.
func (service *profileService) GetProfile(ctx context.Context, userID string) (ports.ProfileView, error) {
	ctx = service.logger.WithUserID(ctx, userID)

	var u *user.User
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		u, err = service.userRepo.GetByID(txCtx, userID)
		return err
	})
	if err != nil {
		return ports.ProfileView{}, classify(err)
	}

	// override wins over the stored row
	if pending, ok := service.pending(ctx, userID); ok {
		pending.Apply(u)
	}
	return ports.NewProfileView(u), nil
}

// UpdateProfile writes the patch to the primary store, waiting at most the
// configured timeout. When the store is slow or failing the values are kept
// in the override tier and the result is marked stale.
func (service *profileService) UpdateProfile(ctx context.Context, userID string, patch user.ProfilePatch) (ports.ProfileUpdateResult, error) {
	ctx = service.logger.WithUserID(ctx, userID)

	if err := patch.Validate(); err != nil {
		return ports.ProfileUpdateResult{}, err
	}
	if patch.Empty() {
		return ports.ProfileUpdateResult{}, user.ErrEmptyPatch
	}

	// flush anything still pending together with this update
	merged := patch
	pending, hasPending := service.pending(ctx, userID)
	if hasPending {
		merged = pending.Merge(patch)
	}

	u, err := service.writeWithin(ctx, userID, merged)
	if err == nil {
		if hasPending {
			service.clearFlushed(ctx, userID, pending)
		}
		metrics.ProfileWrites.WithLabelValues("primary").Inc()
		view := ports.NewProfileView(u)
		service.logger.Info(ctx, "profile_updated", "Profile updated", nil)
		return ports.ProfileUpdateResult{Profile: &view}, nil
	}
	if errors.Is(err, user.ErrUserNotFound) {
		return ports.ProfileUpdateResult{}, err
	}

	// primary store did not answer in time; keep the values in the override tier
	service.logger.Warn(ctx, "profile_write_degraded", "Profile write fell back to override tier", err, map[string]any{
		"timeout_ms": service.timeout.Milliseconds(),
	})
	if perr := service.overrides.Put(ctx, userID, merged); perr != nil {
		metrics.ProfileWrites.WithLabelValues("failed").Inc()
		service.logger.Error(ctx, "profile_override_failed", "Failed to store profile override", perr, nil)
		return ports.ProfileUpdateResult{}, fmt.Errorf("%w: %w", ports.ErrStoreUnavailable, perr)
	}
	metrics.ProfileWrites.WithLabelValues("override").Inc()

	return ports.ProfileUpdateResult{Pending: merged, Stale: true}, nil
}

type writeResult struct {
	user *user.User
	err  error
}

// writeWithin races the store write against the timeout.
func (service *profileService) writeWithin(ctx context.Context, userID string, patch user.ProfilePatch) (*user.User, error) {
	writeCtx, cancel := context.WithTimeout(ctx, service.timeout)
	defer cancel()

	done := make(chan writeResult, 1)
	go func() {
		var u *user.User
		err := service.uow.WithinTx(writeCtx, func(txCtx context.Context) error {
			var err error
			u, err = service.userRepo.UpdateProfile(txCtx, userID, patch)
			return err
		})
		done <- writeResult{user: u, err: err}
	}()

	select {
	case res := <-done:
		return res.user, res.err
	case <-writeCtx.Done():
		return nil, fmt.Errorf("profile write: %w", writeCtx.Err())
	}
}

// clearFlushed drops the override that was just written through, unless a
// concurrent fallback replaced it in the meantime.
func (service *profileService) clearFlushed(ctx context.Context, userID string, flushed user.ProfilePatch) {
	cleared, err := service.overrides.ClearIfUnchanged(ctx, userID, flushed)
	if err != nil {
		service.logger.Warn(ctx, "profile_override_clear_failed", "Failed to clear profile override", err, nil)
		return
	}
	if !cleared {
		service.logger.Info(ctx, "profile_override_kept", "Newer profile override kept after write", nil)
	}
}

// pending reads the override tier. Read failures are logged and treated as no override.
func (service *profileService) pending(ctx context.Context, userID string) (user.ProfilePatch, bool) {
	patch, ok, err := service.overrides.Get(ctx, userID)
	if err != nil {
		service.logger.Warn(ctx, "profile_override_read_failed", "Failed to read profile override", err, nil)
		return user.ProfilePatch{}, false
	}
	return patch, ok
}

func classify(err error) error {
	if errors.Is(err, user.ErrUserNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ports.ErrStoreUnavailable, err)
}
