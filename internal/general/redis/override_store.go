// Package redis keeps profile values that could not be written to the primary
// store within the allowed time.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rydin/internal/domain/user"
	"rydin/internal/ports"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "rydin:profile_override:"

// OverrideStore implements ports.ProfileOverrideStore on Redis strings holding JSON patches.
type OverrideStore struct {
	client *goredis.Client
	ttl    time.Duration
}

var _ ports.ProfileOverrideStore = (*OverrideStore)(nil)

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	c := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return c, nil
}

// NewOverrideStore wraps client; entries expire after ttl.
func NewOverrideStore(client *goredis.Client, ttl time.Duration) *OverrideStore {
	return &OverrideStore{client: client, ttl: ttl}
}

func overrideKey(userID string) string { return keyPrefix + userID }

// Get returns the pending patch for a user, if any.
func (s *OverrideStore) Get(ctx context.Context, userID string) (user.ProfilePatch, bool, error) {
	raw, err := s.client.Get(ctx, overrideKey(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return user.ProfilePatch{}, false, nil
	}
	if err != nil {
		return user.ProfilePatch{}, false, fmt.Errorf("redis get override: %w", err)
	}

	var patch user.ProfilePatch
	if err := json.Unmarshal(raw, &patch); err != nil {
		return user.ProfilePatch{}, false, fmt.Errorf("decode override: %w", err)
	}
	return patch, true, nil
}

// Put merges patch over any pending values and refreshes the expiry.
func (s *OverrideStore) Put(ctx context.Context, userID string, patch user.ProfilePatch) error {
	key := overrideKey(userID)

	// optimistic merge so two fallbacks for the same user do not drop fields
	return s.client.Watch(ctx, func(tx *goredis.Tx) error {
		current := user.ProfilePatch{}
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, goredis.Nil):
		case err != nil:
			return fmt.Errorf("redis get override: %w", err)
		default:
			if err := json.Unmarshal(raw, &current); err != nil {
				return fmt.Errorf("decode override: %w", err)
			}
		}

		body, err := json.Marshal(current.Merge(patch))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, body, s.ttl)
			return nil
		})
		return err
	}, key)
}

// ClearIfUnchanged deletes the pending values under WATCH, only while they still equal seen.
func (s *OverrideStore) ClearIfUnchanged(ctx context.Context, userID string, seen user.ProfilePatch) (bool, error) {
	key := overrideKey(userID)
	cleared := false
	err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("redis get override: %w", err)
		}
		var current user.ProfilePatch
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("decode override: %w", err)
		}
		if !current.Equal(seen) {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err == nil {
			cleared = true
		}
		return err
	}, key)
	if errors.Is(err, goredis.TxFailedErr) {
		// the key changed under the watch; a newer fallback is pending
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis clear override: %w", err)
	}
	return cleared, nil
}
