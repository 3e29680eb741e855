package cli

import (
	"fmt"
	"time"

	"rydin/internal/domain/user"
	"rydin/internal/general/jwt"
)

// GenerateUserToken mints a JWT for a seeded profile using jwt.Manager and
// returns the raw token plus its claims.
//
// Typical use (dev-only):
//
//	token, _, err := cli.GenerateUserToken(secret, 2*time.Hour,
//	    "550e8400-e29b-41d4-a716-446655440001", "STUDENT")
//
// Keep this package dev/internal only. Do not call it from production code paths.
func GenerateUserToken(secret string, ttl time.Duration, userID string, roleStr string) (string, jwt.Claims, error) {
	role, err := user.ParseRole(roleStr)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("invalid role %q: %w", roleStr, err)
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}

	mgr := jwt.NewManager(secret, ttl)
	token, claims, err := mgr.IssueUserToken(userID, role)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("issue token: %w", err)
	}

	return token, *claims, nil
}
