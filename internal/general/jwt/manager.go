package jwt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"rydin/internal/domain/user"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped into every token minted by Manager.
const Issuer = "rydin"

var (
	ErrNoAuthHeader       = errors.New("authorization header missing")
	ErrBadAuthScheme      = errors.New("authorization must start with Bearer")
	ErrEmptyToken         = errors.New("bearer token missing")
	ErrInvalidSigningAlgo = errors.New("unexpected signing method")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingSubject     = errors.New("token subject missing")
	ErrRoleForbidden      = errors.New("role not allowed")
)

// Manager handles JWT creation and validation.
type Manager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewManager creates a token manager. It panics on an empty secret.
func NewManager(secret string, accessTTL time.Duration) *Manager {
	s := strings.TrimSpace(secret)
	if s == "" {
		panic("jwt: empty secret key")
	}

	return &Manager{
		secret:    []byte(s),
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

// IssueUserToken returns a signed access token for a student or admin.
func (m *Manager) IssueUserToken(userID string, role user.Role) (string, *Claims, error) {
	// validate subject and role
	if strings.TrimSpace(userID) == "" {
		return "", nil, ErrMissingSubject
	}
	if !role.Valid() {
		return "", nil, fmt.Errorf("invalid role: %s", role)
	}

	// create claims and sign token
	claims := NewUserClaims(userID, role, m.accessTTL, m.now())
	tkn := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := tkn.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return signed, claims, nil
}

// FromAuthorization reads "Authorization: Bearer <token>".
func FromAuthorization(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrNoAuthHeader
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrBadAuthScheme
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// ParseAndValidate verifies signature and standard claims.
func (m *Manager) ParseAndValidate(tokenString string) (*jwtlib.Token, *Claims, error) {
	// create parser with expected signing method
	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(Issuer),
		jwtlib.WithTimeFunc(m.now),
	)

	// validate claims and signature
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwtlib.Token) (any, error) {
		if t.Method != jwtlib.SigningMethodHS256 {
			return nil, ErrInvalidSigningAlgo
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, nil, err
	}

	// ensure token is valid
	if !token.Valid {
		return nil, nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, nil, ErrMissingSubject
	}
	if !claims.Role.Valid() {
		return nil, nil, ErrRoleForbidden
	}

	return token, claims, nil
}

// RoleAllowed asserts the claims' role is one of the allowed. No roles means any role.
func RoleAllowed(cl *Claims, allowed ...user.Role) error {
	if len(allowed) == 0 || slices.Contains(allowed, cl.Role) {
		return nil
	}
	return ErrRoleForbidden
}

// Context wiring (used by middleware)
type ctxKey string

const claimsCtxKey ctxKey = "rydinClaims"

// InjectClaims adds JWT claims to the context.
func InjectClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, c)
}

// FromContext extracts JWT claims from the context.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey).(*Claims)
	return c, ok
}
