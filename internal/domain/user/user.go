package user

import (
	"errors"
	"math"
	"net/mail"
	"strings"
	"time"
)

const (
	// DefaultTrustScore is the trust score every new profile starts with.
	DefaultTrustScore = 4.0
	// DefaultReliabilityScore is the reliability score of a user with no no-shows.
	DefaultReliabilityScore = 100
)

// User is the domain entity corresponding to the `profiles` table.
type User struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	Email      string
	Name       string
	Department string
	Year       string
	Phone      string
	Gender     Gender
	Role       Role

	EmergencyContactName  string
	EmergencyContactPhone string

	// Reliability
	TrustScore       float64
	ReliabilityScore int
	NoShowCount      int
	CompletedRides   int
	LastNoShowAt     *time.Time
	NoShowClearedAt  *time.Time
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrNameRequired       = errors.New("name is required")
	ErrBadTimestamps      = errors.New("updated_at cannot be before created_at")
	ErrNoEmergencyContact = errors.New("no emergency contact on profile")
)

// NewUser constructs a new profile with default trust and reliability. Caller provides ID.
func NewUser(email, name string, gender Gender, role Role) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		CreatedAt:        now,
		UpdatedAt:        now,
		Email:            strings.TrimSpace(email),
		Name:             strings.TrimSpace(name),
		Gender:           gender,
		Role:             role,
		TrustScore:       DefaultTrustScore,
		ReliabilityScore: DefaultReliabilityScore,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks invariants of the User entity.
func (user *User) Validate() error {
	if _, err := mail.ParseAddress(user.Email); err != nil {
		return ErrInvalidEmail
	}
	if user.Name == "" {
		return ErrNameRequired
	}
	if !user.Gender.Valid() {
		return ErrInvalidGender
	}
	if !user.Role.Valid() {
		return ErrInvalidRole
	}
	if !user.CreatedAt.IsZero() && !user.UpdatedAt.IsZero() && user.UpdatedAt.Before(user.CreatedAt) {
		return ErrBadTimestamps
	}
	return nil
}

// ApplyTrustPenalty lowers the trust score by points, never below zero.
func (user *User) ApplyTrustPenalty(points float64) {
	user.TrustScore = ClampTrust(user.TrustScore - points)
	user.touch()
}

// HasEmergencyContact reports whether a parent/guardian phone is on file.
func (user *User) HasEmergencyContact() bool {
	return strings.TrimSpace(user.EmergencyContactPhone) != ""
}

// ClampTrust keeps a trust score at or above zero.
func ClampTrust(score float64) float64 {
	return math.Max(0, score)
}

// touch sets UpdatedAt to now (UTC).
func (user *User) touch() {
	user.UpdatedAt = time.Now().UTC()
}

// Convenience helpers.
func (user *User) IsFemale() bool { return user.Gender == GenderFemale }
func (user *User) IsAdmin() bool  { return user.Role.IsAdmin() }
