package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rydin/internal/domain/bucket"
	"rydin/internal/domain/ride"
	"rydin/internal/domain/user"
	"rydin/internal/general/jwt"
	"rydin/internal/general/logger"
	"rydin/internal/general/memstore"
	"rydin/internal/general/rabbitmq"
	"rydin/internal/ports"
	bucketservice "rydin/internal/software/bucket/service"
	profileservice "rydin/internal/software/profile/service"
	reliabilityservice "rydin/internal/software/reliability/service"
	rideservice "rydin/internal/software/ride/service"
)

type testServer struct {
	mux   *http.ServeMux
	auth  *jwt.Manager
	store *memstore.Store
}

func newTestServer(t *testing.T, override ...func(*Services)) *testServer {
	t.Helper()
	store := memstore.New()
	log := logger.Discard()
	pub := rabbitmq.NopPublisher{}

	svc := Services{
		Rides: rideservice.NewRideService(log, store.UnitOfWork(), rideservice.Repositories{
			Rides:   store.Rides(),
			Members: store.Members(),
			Users:   store.Users(),
			Events:  store.Events(),
			Shares:  store.Shares(),
		}, pub, time.UTC),
		Reliability: reliabilityservice.NewReliabilityService(log, store.UnitOfWork(), store.Users(), 100),
		Buckets:     bucketservice.NewBucketService(log, store.UnitOfWork(), store.Rides(), store.Events(), pub, nil, time.UTC),
		Profiles:    profileservice.NewProfileService(log, store.UnitOfWork(), store.Users(), memstore.NewOverrideStore(), time.Second),
	}
	for _, fn := range override {
		fn(&svc)
	}

	auth := jwt.NewManager("handler-test-secret", time.Hour)
	mux := http.NewServeMux()
	NewRideHTTPHandler(svc, log, auth, false, time.Second).RegisterRoutes(mux)
	return &testServer{mux: mux, auth: auth, store: store}
}

func (s *testServer) addUser(t *testing.T, name string, gender user.Gender, role user.Role) (string, string) {
	t.Helper()
	u, err := user.NewUser(name+"@srmist.edu.in", name, gender, role)
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	if err := s.store.Users().CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, _, err := s.auth.IssueUserToken(u.ID, role)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return u.ID, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)

	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestRideFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, hostToken := s.addUser(t, "host", user.GenderFemale, user.RoleStudent)
	_, aToken := s.addUser(t, "asha", user.GenderFemale, user.RoleStudent)
	_, bToken := s.addUser(t, "bala", user.GenderMale, user.RoleStudent)

	w, body := s.do(t, http.MethodPost, "/rides", hostToken, map[string]any{
		"source": "SRM Campus", "destination": "Chennai Central Station",
		"date": "2030-01-15", "time": "09:00", "seats_total": 1, "estimated_fare": 800,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %v", w.Code, body)
	}
	rideID := body["ride_id"].(string)

	w, body = s.do(t, http.MethodPost, "/rides/"+rideID+"/join", aToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("join: %d %v", w.Code, body)
	}

	w, body = s.do(t, http.MethodPost, "/rides/"+rideID+"/join", bToken, nil)
	if w.Code != http.StatusConflict || body["error"] != ride.ErrRideFull.Error() {
		t.Fatalf("full join: %d %v", w.Code, body)
	}

	w, _ = s.do(t, http.MethodPost, "/rides/"+rideID+"/lock", aToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("member lock: %d", w.Code)
	}

	w, body = s.do(t, http.MethodPost, "/rides/"+rideID+"/lock", hostToken, nil)
	if w.Code != http.StatusOK || body["status"] != "locked" {
		t.Fatalf("lock: %d %v", w.Code, body)
	}

	w, body = s.do(t, http.MethodPost, "/rides/"+rideID+"/leave", aToken, nil)
	if w.Code != http.StatusConflict || body["error"] != ride.ErrRideLocked.Error() {
		t.Fatalf("leave locked: %d %v", w.Code, body)
	}

	w, body = s.do(t, http.MethodGet, "/rides/"+rideID+"/members", hostToken, nil)
	if w.Code != http.StatusOK || len(body["members"].([]any)) != 1 {
		t.Fatalf("members: %d %v", w.Code, body)
	}

	w, _ = s.do(t, http.MethodGet, "/rides/search?source=SRM%20Campus&destination=Chennai%20Central%20Station&date=2030-01-15&time=09:00", bToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search: %d", w.Code)
	}

	w, body = s.do(t, http.MethodGet, "/rides/does-not-exist", bToken, nil)
	if w.Code != http.StatusNotFound || body["error"] != ride.ErrRideUnavailable.Error() {
		t.Fatalf("missing ride: %d %v", w.Code, body)
	}
}

func TestAuthAndRoles(t *testing.T) {
	s := newTestServer(t)
	studentID, studentToken := s.addUser(t, "student", user.GenderOther, user.RoleStudent)
	_, adminToken := s.addUser(t, "admin", user.GenderOther, user.RoleAdmin)

	if w, _ := s.do(t, http.MethodGet, "/me/profile", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", w.Code)
	}
	if w, _ := s.do(t, http.MethodPost, "/users/"+studentID+"/no-show", studentToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("student no-show: %d", w.Code)
	}

	w, body := s.do(t, http.MethodPost, "/users/"+studentID+"/no-show", adminToken, nil)
	if w.Code != http.StatusOK || body["action"] != "warning" {
		t.Fatalf("admin no-show: %d %v", w.Code, body)
	}

	w, body = s.do(t, http.MethodGet, "/users/"+studentID+"/reliability", studentToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reliability: %d %v", w.Code, body)
	}
	if m := body["metrics"].(map[string]any); m["no_show_count"].(float64) != 1 {
		t.Fatalf("metrics: %v", m)
	}

	w, body = s.do(t, http.MethodPost, "/buckets/generate", adminToken, nil)
	if w.Code != http.StatusOK || body["created"].(float64) != 24 {
		t.Fatalf("generate: %d %v", w.Code, body)
	}

	if w, _ := s.do(t, http.MethodGet, "/rides/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}
}

func TestProfileOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, token := s.addUser(t, "meera", user.GenderFemale, user.RoleStudent)

	w, body := s.do(t, http.MethodPatch, "/me/profile", token, map[string]any{"department": "ECE"})
	if w.Code != http.StatusOK || body["stale"] != false {
		t.Fatalf("patch: %d %v", w.Code, body)
	}

	w, body = s.do(t, http.MethodPatch, "/me/profile", token, map[string]any{"shoe_size": 9})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: %d %v", w.Code, body)
	}

	w, body = s.do(t, http.MethodGet, "/me/profile", token, nil)
	if w.Code != http.StatusOK || body["department"] != "ECE" {
		t.Fatalf("get: %d %v", w.Code, body)
	}
}

// downRides fails every join with a store error.
type downRides struct{ ports.RideService }

func (downRides) JoinRide(context.Context, string, string) (ports.JoinResult, error) {
	return ports.JoinResult{}, fmt.Errorf("%w: %w", ports.ErrStoreUnavailable, errors.New("dial tcp: refused"))
}

func TestShareHistoryOverHTTP(t *testing.T) {
	s := newTestServer(t)
	hostID, hostToken := s.addUser(t, "host", user.GenderFemale, user.RoleStudent)
	name, phone := "Amma", "+91 90000 00000"
	if _, err := s.store.Users().UpdateProfile(context.Background(), hostID, user.ProfilePatch{
		EmergencyContactName:  &name,
		EmergencyContactPhone: &phone,
	}); err != nil {
		t.Fatalf("update profile: %v", err)
	}

	w, body := s.do(t, http.MethodGet, "/me/shares", hostToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("empty history: %d %v", w.Code, body)
	}
	if shares, ok := body["shares"].([]any); !ok || len(shares) != 0 {
		t.Fatalf("empty history body: %v", body)
	}

	w, body = s.do(t, http.MethodPost, "/rides", hostToken, map[string]any{
		"source": "SRM Campus", "destination": "Chennai Airport (MAA)",
		"date": "2030-01-15", "time": "06:00", "seats_total": 3, "estimated_fare": 1200,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %v", w.Code, body)
	}
	rideID := body["ride_id"].(string)

	if w, body = s.do(t, http.MethodPost, "/rides/"+rideID+"/share", hostToken, nil); w.Code != http.StatusOK {
		t.Fatalf("share: %d %v", w.Code, body)
	}

	w, body = s.do(t, http.MethodGet, "/me/shares", hostToken, nil)
	shares, _ := body["shares"].([]any)
	if w.Code != http.StatusOK || len(shares) != 1 {
		t.Fatalf("history: %d %v", w.Code, body)
	}
	first := shares[0].(map[string]any)
	if first["ride_id"] != rideID || first["destination"] != "Chennai Airport (MAA)" || first["time"] != "06:00" {
		t.Fatalf("share entry = %v", first)
	}

	if w, _ := s.do(t, http.MethodGet, "/me/shares", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous history: %d", w.Code)
	}
}

func TestStoreUnavailableIs503(t *testing.T) {
	s := newTestServer(t, func(svc *Services) { svc.Rides = downRides{} })
	_, token := s.addUser(t, "asha", user.GenderFemale, user.RoleStudent)

	w, body := s.do(t, http.MethodPost, "/rides/abc/join", token, nil)
	if w.Code != http.StatusServiceUnavailable || body["error"] != ports.ErrStoreUnavailable.Error() {
		t.Fatalf("join: %d %v", w.Code, body)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ride.ErrRideNotFound, http.StatusNotFound},
		{bucket.ErrUnknownBucket, http.StatusNotFound},
		{ride.ErrRideLocked, http.StatusConflict},
		{ride.ErrInvalidStatusTransition, http.StatusConflict},
		{fmt.Errorf("%w: daily limit", ride.ErrJoinRestricted), http.StatusForbidden},
		{ride.ErrEligibilityMismatch, http.StatusForbidden},
		{ride.ErrInvalidSeats, http.StatusBadRequest},
		{user.ErrEmptyPatch, http.StatusBadRequest},
		{ports.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
