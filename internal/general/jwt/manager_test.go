package jwt

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rydin/internal/domain/user"
)

func TestIssueAndParse(t *testing.T) {
	mgr := NewManager("test-secret", time.Hour)

	raw, claims, err := mgr.IssueUserToken("user-1", user.RoleStudent)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if claims.UserID() != "user-1" {
		t.Fatalf("subject = %q", claims.UserID())
	}

	_, parsed, err := mgr.ParseAndValidate(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Subject != "user-1" || parsed.Role != user.RoleStudent {
		t.Fatalf("unexpected claims: %+v", parsed)
	}
}

func TestParseRejectsOtherSecret(t *testing.T) {
	raw, _, err := NewManager("one", time.Hour).IssueUserToken("user-1", user.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := NewManager("two", time.Hour).ParseAndValidate(raw); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	mgr := NewManager("secret", time.Minute)
	mgr.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, _, err := mgr.IssueUserToken("user-1", user.RoleStudent)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	mgr.now = time.Now
	if _, _, err := mgr.ParseAndValidate(raw); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestIssueRejectsBadInput(t *testing.T) {
	mgr := NewManager("secret", time.Hour)
	if _, _, err := mgr.IssueUserToken("", user.RoleStudent); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("err = %v, want ErrMissingSubject", err)
	}
	if _, _, err := mgr.IssueUserToken("u", user.Role("DRIVER")); err == nil {
		t.Fatal("expected invalid role error")
	}
}

func TestFromAuthorization(t *testing.T) {
	cases := []struct {
		header string
		want   string
		err    error
	}{
		{"", "", ErrNoAuthHeader},
		{"Basic abc", "", ErrBadAuthScheme},
		{"Bearer ", "", ErrBadAuthScheme},
		{"Bearer abc", "abc", nil},
		{"bearer  abc ", "abc", nil},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		got, err := FromAuthorization(r)
		if !errors.Is(err, tc.err) || got != tc.want {
			t.Errorf("header %q: got (%q, %v), want (%q, %v)", tc.header, got, err, tc.want, tc.err)
		}
	}
}

func TestMiddlewareEnforcesRole(t *testing.T) {
	mgr := NewManager("secret", time.Hour)
	raw, _, _ := mgr.IssueUserToken("user-1", user.RoleStudent)

	called := false
	h := AuthMiddlewareFunc(mgr, user.RoleAdmin)(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	r := httptest.NewRequest(http.MethodPost, "/buckets/generate", nil)
	r.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	h(w, r)

	if w.Code != http.StatusForbidden || called {
		t.Fatalf("code = %d, called = %v", w.Code, called)
	}
}

func TestMiddlewareInjectsClaims(t *testing.T) {
	mgr := NewManager("secret", time.Hour)
	raw, _, _ := mgr.IssueUserToken("user-7", user.RoleStudent)

	var got string
	h := AuthMiddlewareFunc(mgr)(func(w http.ResponseWriter, r *http.Request) {
		got = RequireClaims(r).UserID()
	})

	r := httptest.NewRequest(http.MethodGet, "/me/profile", nil)
	r.Header.Set("Authorization", "Bearer "+raw)
	h(httptest.NewRecorder(), r)

	if got != "user-7" {
		t.Fatalf("user id = %q", got)
	}
}
