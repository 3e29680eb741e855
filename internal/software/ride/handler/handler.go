package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"rydin/internal/domain/bucket"
	"rydin/internal/domain/ride"
	"rydin/internal/domain/user"
	"rydin/internal/general/jwt"
	"rydin/internal/general/logger"
	"rydin/internal/ports"
)

const (
	requestTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20 // 1 MiB
)

// Services groups the use cases served over HTTP.
type Services struct {
	Rides       ports.RideService
	Reliability ports.ReliabilityService
	Buckets     ports.BucketService
	Profiles    ports.ProfileService
}

// RideHTTPHandler adapts HTTP requests to the rydin services.
type RideHTTPHandler struct {
	rides       ports.RideService
	reliability ports.ReliabilityService
	buckets     ports.BucketService
	profiles    ports.ProfileService
	logger      *logger.Logger
	auth        *jwt.Manager

	// asyncBuckets hands generation to the bucket worker instead of running it inline
	asyncBuckets   bool
	profileTimeout time.Duration
}

// NewRideHTTPHandler wires an HTTP handler around the services. profileTimeout
// is the write bound of the profile service; profile requests get a little more.
func NewRideHTTPHandler(
	svc Services,
	logger *logger.Logger,
	auth *jwt.Manager,
	asyncBuckets bool,
	profileTimeout time.Duration,
) *RideHTTPHandler {
	return &RideHTTPHandler{
		rides:          svc.Rides,
		reliability:    svc.Reliability,
		buckets:        svc.Buckets,
		profiles:       svc.Profiles,
		logger:         logger,
		auth:           auth,
		asyncBuckets:   asyncBuckets,
		profileTimeout: profileTimeout,
	}
}

// RegisterRoutes mounts the rydin endpoints on the provided mux.
func (handler *RideHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	anyone := jwt.AuthMiddlewareFunc(handler.auth)
	admin := jwt.AuthMiddlewareFunc(handler.auth, user.RoleAdmin)

	// rides
	mux.HandleFunc("POST /rides", anyone(handler.handleCreateRide))
	mux.HandleFunc("GET /rides/search", anyone(handler.handleSearchRides))
	mux.HandleFunc("GET /rides/{ride_id}", anyone(handler.handleGetRide))
	mux.HandleFunc("POST /rides/{ride_id}/join", anyone(handler.handleJoinRide))
	mux.HandleFunc("POST /rides/{ride_id}/leave", anyone(handler.handleLeaveRide))
	mux.HandleFunc("POST /rides/{ride_id}/lock", anyone(handler.handleLockRide))
	mux.HandleFunc("POST /rides/{ride_id}/unlock", anyone(handler.handleUnlockRide))
	mux.HandleFunc("POST /rides/{ride_id}/acknowledge", anyone(handler.handleAcknowledge))
	mux.HandleFunc("POST /rides/{ride_id}/cancel-after-lock", anyone(handler.handleCancelAfterLock))
	mux.HandleFunc("POST /rides/{ride_id}/complete", anyone(handler.handleCompleteRide))
	mux.HandleFunc("POST /rides/{ride_id}/cancel", anyone(handler.handleCancelRide))
	mux.HandleFunc("GET /rides/{ride_id}/members", anyone(handler.handleMembers))
	mux.HandleFunc("GET /rides/{ride_id}/summary", anyone(handler.handleSummary))
	mux.HandleFunc("POST /rides/{ride_id}/share", anyone(handler.handleShare))
	mux.HandleFunc("GET /me/shares", anyone(handler.handleShareHistory))

	// reliability
	mux.HandleFunc("GET /users/{user_id}/reliability", anyone(handler.handleGetReliability))
	mux.HandleFunc("POST /users/{user_id}/no-show", admin(handler.handleRecordNoShow))
	mux.HandleFunc("POST /users/{user_id}/clear-no-shows", admin(handler.handleClearNoShows))

	// profile
	mux.HandleFunc("GET /me/profile", anyone(handler.handleGetProfile))
	mux.HandleFunc("PATCH /me/profile", anyone(handler.handleUpdateProfile))

	// buckets
	mux.HandleFunc("GET /buckets", anyone(handler.handleCatalogue))
	mux.HandleFunc("GET /buckets/match", anyone(handler.handleMatchBucket))
	mux.HandleFunc("GET /buckets/{bucket_id}/rides", anyone(handler.handleBucketRides))
	mux.HandleFunc("POST /buckets/{bucket_id}/rides", admin(handler.handleCreateBucketRide))
	mux.HandleFunc("POST /buckets/generate", admin(handler.handleGenerateBuckets))

	mux.HandleFunc("GET /rides/health", handler.handleHealth)
}

// ----- general helpers -----

// requestContext attaches request and user ids for logging and bounds the request.
func (handler *RideHTTPHandler) requestContext(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := handler.withReqID(r.Context(), r)
	if claims := jwt.RequireClaims(r); claims != nil {
		ctx = handler.logger.WithUserID(ctx, claims.Subject)
	}
	return context.WithTimeout(ctx, timeout)
}

// subject returns the authenticated user id.
func subject(r *http.Request) string {
	if claims := jwt.RequireClaims(r); claims != nil {
		return strings.TrimSpace(claims.Subject)
	}
	return ""
}

// decodeJSON reads a size-limited JSON body, rejecting unknown fields.
func (handler *RideHTTPHandler) decodeJSON(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	// check the content type
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return false
	}

	// limit body size
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	// decode strictly
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return false
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return false
	}
	return true
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ride.ErrRideUnavailable),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, bucket.ErrUnknownBucket):
		return http.StatusNotFound
	case errors.Is(err, ride.ErrRideLocked),
		errors.Is(err, ride.ErrRideFull),
		errors.Is(err, ride.ErrAlreadyJoined),
		errors.Is(err, ride.ErrRideHasMembers),
		errors.Is(err, ride.ErrRideNotLocked),
		errors.Is(err, ride.ErrInvalidStatusTransition):
		return http.StatusConflict
	case errors.Is(err, ride.ErrJoinRestricted),
		errors.Is(err, ride.ErrEligibilityMismatch),
		errors.Is(err, ride.ErrNotHost),
		errors.Is(err, ride.ErrNotMember),
		errors.Is(err, ride.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, ride.ErrHostRequired),
		errors.Is(err, ride.ErrRouteRequired),
		errors.Is(err, ride.ErrInvalidDate),
		errors.Is(err, ride.ErrInvalidTime),
		errors.Is(err, ride.ErrInvalidSeats),
		errors.Is(err, ride.ErrInvalidFare),
		errors.Is(err, user.ErrNameRequired),
		errors.Is(err, user.ErrInvalidGender),
		errors.Is(err, user.ErrEmptyPatch),
		errors.Is(err, user.ErrNoEmergencyContact):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// serviceError writes the mapped status with a rider-facing message.
func (handler *RideHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		msg = ports.ErrStoreUnavailable.Error()
	case http.StatusGatewayTimeout:
		msg = "the request timed out, please try again"
	case http.StatusInternalServerError:
		msg = "internal server error"
	}
	handler.httpError(ctx, w, status, msg, err)
}

// jsonResponse takes any type of data and encodes it to the HTTP response.
func (handler *RideHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *RideHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	} else if status == http.StatusUnsupportedMediaType {
		action = "unsupported_media_type"
	}
	if status >= 500 {
		handler.logger.Error(ctx, action, msg, err, nil)
	} else {
		handler.logger.Debug(ctx, action, msg, map[string]any{"status": status})
	}

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *RideHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func (handler *RideHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	handler.jsonResponse(r.Context(), w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
