package user

import (
	"errors"
	"strings"
)

// Gender is the self-declared gender on a profile. It gates girls-only rides.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

var ErrInvalidGender = errors.New("invalid gender")

// ParseGender normalizes (lowercases+trims) and validates a gender string.
func ParseGender(in string) (Gender, error) {
	gender := Gender(strings.ToLower(strings.TrimSpace(in)))
	if gender.Valid() {
		return gender, nil
	}
	return "", ErrInvalidGender
}

// Valid reports whether gender is one of the allowed constants.
func (gender Gender) Valid() bool {
	switch gender {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Gender.
func (gender Gender) String() string {
	return string(gender)
}
