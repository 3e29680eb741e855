package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rydin/internal/domain/user"
	"rydin/internal/general/jwt"
	"rydin/internal/general/logger"
	"rydin/internal/ports"
)

type fakeAdmin struct {
	err      error
	gotPage  string
	gotSize  string
	overview ports.SystemOverviewResult
}

func (f *fakeAdmin) GetSystemOverview(context.Context) (ports.SystemOverviewResult, error) {
	return f.overview, f.err
}

func (f *fakeAdmin) GetActiveRides(_ context.Context, page, pageSize string) (ports.ActiveRidesResult, error) {
	f.gotPage, f.gotSize = page, pageSize
	return ports.ActiveRidesResult{Rides: []ports.RideView{}, Page: 2, PageSize: 5}, f.err
}

func setup(t *testing.T, svc ports.AdminService) (*http.ServeMux, *jwt.Manager) {
	t.Helper()
	auth := jwt.NewManager("admin-test-secret", time.Hour)
	mux := http.NewServeMux()
	NewAdminHTTPHandler(svc, logger.Discard(), auth).RegisterRoutes(mux)
	return mux, auth
}

func call(t *testing.T, mux *http.ServeMux, auth *jwt.Manager, role user.Role, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if role != "" {
		token, _, err := auth.IssueUserToken("550e8400-e29b-41d4-a716-4466554400aa", role)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	mux, auth := setup(t, &fakeAdmin{})

	if w := call(t, mux, auth, "", "/admin/overview"); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous = %d", w.Code)
	}
	if w := call(t, mux, auth, user.RoleStudent, "/admin/overview"); w.Code != http.StatusForbidden {
		t.Fatalf("student = %d", w.Code)
	}
	if w := call(t, mux, auth, user.RoleAdmin, "/admin/overview"); w.Code != http.StatusOK {
		t.Fatalf("admin = %d", w.Code)
	}
}

func TestActiveRidesPassesPaging(t *testing.T) {
	svc := &fakeAdmin{}
	mux, auth := setup(t, svc)

	w := call(t, mux, auth, user.RoleAdmin, "/admin/rides/active?page=2&page_size=5")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if svc.gotPage != "2" || svc.gotSize != "5" {
		t.Fatalf("paging = %q/%q", svc.gotPage, svc.gotSize)
	}
	var body ports.ActiveRidesResult
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Page != 2 || body.PageSize != 5 {
		t.Fatalf("body = %+v", body)
	}
}

func TestStoreFailureIs503(t *testing.T) {
	mux, auth := setup(t, &fakeAdmin{err: ports.ErrStoreUnavailable})
	if w := call(t, mux, auth, user.RoleAdmin, "/admin/overview"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}
