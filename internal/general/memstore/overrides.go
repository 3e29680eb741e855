package memstore

import (
	"context"
	"sync"

	"rydin/internal/domain/user"
	"rydin/internal/ports"
)

// OverrideStore is a process-local profile override tier.
type OverrideStore struct {
	mu      sync.RWMutex
	patches map[string]user.ProfilePatch
}

var _ ports.ProfileOverrideStore = (*OverrideStore)(nil)

// NewOverrideStore returns an empty override tier.
func NewOverrideStore() *OverrideStore {
	return &OverrideStore{patches: make(map[string]user.ProfilePatch)}
}

// Get returns the pending patch for a user, if any.
func (o *OverrideStore) Get(_ context.Context, userID string) (user.ProfilePatch, bool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	p, ok := o.patches[userID]
	return p, ok, nil
}

// Put merges patch over any pending values for the user.
func (o *OverrideStore) Put(_ context.Context, userID string, patch user.ProfilePatch) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.patches[userID] = o.patches[userID].Merge(patch)
	return nil
}

// ClearIfUnchanged drops the pending values for the user if they still equal seen.
func (o *OverrideStore) ClearIfUnchanged(_ context.Context, userID string, seen user.ProfilePatch) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	current, ok := o.patches[userID]
	if !ok || !current.Equal(seen) {
		return false, nil
	}
	delete(o.patches, userID)
	return true, nil
}
