package user

import (
	"errors"
	"strings"
	"time"
)

var ErrEmptyPatch = errors.New("no profile fields to update")

// ProfilePatch is a partial profile update. Nil fields are left unchanged.
type ProfilePatch struct {
	Name                  *string `json:"name,omitempty"`
	Department            *string `json:"department,omitempty"`
	Year                  *string `json:"year,omitempty"`
	Phone                 *string `json:"phone,omitempty"`
	Gender                *Gender `json:"gender,omitempty"`
	EmergencyContactName  *string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string `json:"emergency_contact_phone,omitempty"`
}

// Validate checks the fields that are present.
func (patch ProfilePatch) Validate() error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return ErrNameRequired
	}
	if patch.Gender != nil && !patch.Gender.Valid() {
		return ErrInvalidGender
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (patch ProfilePatch) Empty() bool {
	return patch.Name == nil && patch.Department == nil && patch.Year == nil &&
		patch.Phone == nil && patch.Gender == nil &&
		patch.EmergencyContactName == nil && patch.EmergencyContactPhone == nil
}

// Apply writes the present fields onto user.
func (patch ProfilePatch) Apply(user *User) {
	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Department != nil {
		user.Department = strings.TrimSpace(*patch.Department)
	}
	if patch.Year != nil {
		user.Year = strings.TrimSpace(*patch.Year)
	}
	if patch.Phone != nil {
		user.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Gender != nil {
		user.Gender = *patch.Gender
	}
	if patch.EmergencyContactName != nil {
		user.EmergencyContactName = strings.TrimSpace(*patch.EmergencyContactName)
	}
	if patch.EmergencyContactPhone != nil {
		user.EmergencyContactPhone = strings.TrimSpace(*patch.EmergencyContactPhone)
	}
	user.UpdatedAt = time.Now().UTC()
}

// Merge returns a patch where fields present in next override the receiver.
func (patch ProfilePatch) Merge(next ProfilePatch) ProfilePatch {
	out := patch
	if next.Name != nil {
		out.Name = next.Name
	}
	if next.Department != nil {
		out.Department = next.Department
	}
	if next.Year != nil {
		out.Year = next.Year
	}
	if next.Phone != nil {
		out.Phone = next.Phone
	}
	if next.Gender != nil {
		out.Gender = next.Gender
	}
	if next.EmergencyContactName != nil {
		out.EmergencyContactName = next.EmergencyContactName
	}
	if next.EmergencyContactPhone != nil {
		out.EmergencyContactPhone = next.EmergencyContactPhone
	}
	return out
}

// Equal reports whether both patches set the same fields to the same values.
func (patch ProfilePatch) Equal(other ProfilePatch) bool {
	return sameString(patch.Name, other.Name) &&
		sameString(patch.Department, other.Department) &&
		sameString(patch.Year, other.Year) &&
		sameString(patch.Phone, other.Phone) &&
		sameGender(patch.Gender, other.Gender) &&
		sameString(patch.EmergencyContactName, other.EmergencyContactName) &&
		sameString(patch.EmergencyContactPhone, other.EmergencyContactPhone)
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameGender(a, b *Gender) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
