package memstore

import (
	"context"
	"fmt"

	"rydin/internal/domain/user"
)

// Demo profiles loaded in memory mode. The IDs are stable so dev tokens can be
// minted for them with cmd/key.
var demoUsers = []struct {
	id, email, name string
	gender          user.Gender
	role            user.Role
	contact, phone  string
}{
	{"550e8400-e29b-41d4-a716-446655440001", "arjun@srmist.edu.in", "Arjun", user.GenderMale, user.RoleStudent, "Ravi (father)", "+91 98400 00001"},
	{"550e8400-e29b-41d4-a716-446655440002", "meera@srmist.edu.in", "Meera", user.GenderFemale, user.RoleStudent, "Lakshmi (mother)", "+91 98400 00002"},
	{"550e8400-e29b-41d4-a716-446655440003", "divya@srmist.edu.in", "Divya", user.GenderFemale, user.RoleStudent, "", ""},
	{"550e8400-e29b-41d4-a716-446655440004", "kiran@srmist.edu.in", "Kiran", user.GenderMale, user.RoleStudent, "", ""},
	{"550e8400-e29b-41d4-a716-4466554400aa", "ops@srmist.edu.in", "Campus Ops", user.GenderOther, user.RoleAdmin, "", ""},
}

// SeedDemoUsers inserts the demo profiles and returns their IDs.
func (s *Store) SeedDemoUsers(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(demoUsers))
	err := s.UnitOfWork().WithinTx(ctx, func(txCtx context.Context) error {
		for _, d := range demoUsers {
			u, err := user.NewUser(d.email, d.name, d.gender, d.role)
			if err != nil {
				return fmt.Errorf("seed %s: %w", d.email, err)
			}
			u.ID = d.id
			u.EmergencyContactName = d.contact
			u.EmergencyContactPhone = d.phone
			if err := s.Users().CreateUser(txCtx, u); err != nil {
				return fmt.Errorf("seed %s: %w", d.email, err)
			}
			ids = append(ids, u.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
