package user

import "testing"

func TestProfilePatchEqual(t *testing.T) {
	cse, ece := "CSE", "ECE"
	female := GenderFemale

	tests := []struct {
		name string
		a, b ProfilePatch
		want bool
	}{
		{"both empty", ProfilePatch{}, ProfilePatch{}, true},
		{"same values, different pointers", ProfilePatch{Department: &cse}, ProfilePatch{Department: func() *string { s := "CSE"; return &s }()}, true},
		{"different values", ProfilePatch{Department: &cse}, ProfilePatch{Department: &ece}, false},
		{"extra field", ProfilePatch{Department: &cse}, ProfilePatch{Department: &cse, Gender: &female}, false},
		{"missing field", ProfilePatch{Gender: &female}, ProfilePatch{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Fatalf("Equal = %v, want %v", got, tt.want)
			}
			if got := tt.b.Equal(tt.a); got != tt.want {
				t.Fatalf("Equal not symmetric")
			}
		})
	}
}
