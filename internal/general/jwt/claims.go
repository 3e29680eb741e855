package jwt

import (
	"time"

	"rydin/internal/domain/user"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims defines our canonical JWT claims payload.
type Claims struct {
	Role user.Role `json:"role"` // STUDENT or ADMIN
	jwtlib.RegisteredClaims
}

// ensure Claims implements jwtlib.Claims interface
var _ jwtlib.Claims = (*Claims)(nil)

// NewUserClaims constructs campus user claims with the profile id as subject.
func NewUserClaims(userID string, role user.Role, ttl time.Duration, now time.Time) *Claims {
	now = now.UTC()
	return &Claims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			Issuer:    Issuer,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}

// UserID returns the token subject.
func (c *Claims) UserID() string {
	return c.Subject
}
