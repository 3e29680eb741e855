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

	"rydin/internal/domain/user"
	"rydin/internal/general/jwt"
	"rydin/internal/general/logger"
	"rydin/internal/ports"
)

const requestTimeout = 5 * time.Second

// AdminHTTPHandler adapts HTTP requests to the AdminService.
type AdminHTTPHandler struct {
	svc    ports.AdminService
	logger *logger.Logger
	auth   *jwt.Manager
}

// NewAdminHTTPHandler wires an HTTP handler around the AdminService.
func NewAdminHTTPHandler(svc ports.AdminService, logger *logger.Logger, auth *jwt.Manager) *AdminHTTPHandler {
	return &AdminHTTPHandler{svc: svc, logger: logger, auth: auth}
}

// RegisterRoutes mounts admin endpoints on the provided mux.
func (handler *AdminHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	admin := jwt.AuthMiddlewareFunc(handler.auth, user.RoleAdmin)
	mux.HandleFunc("GET /admin/overview", admin(handler.handleOverview))
	mux.HandleFunc("GET /admin/rides/active", admin(handler.handleActiveRides))
}

// ----- general helpers -----

// serviceError maps a service failure to a status code.
func (handler *AdminHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ports.ErrStoreUnavailable):
		handler.httpError(ctx, w, http.StatusServiceUnavailable, ports.ErrStoreUnavailable.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		handler.httpError(ctx, w, http.StatusGatewayTimeout, "request timed out", err)
	default:
		handler.httpError(ctx, w, http.StatusInternalServerError, msg, err)
	}
}

// jsonResponse takes any type of data and encode it to HTTP response.
func (handler *AdminHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
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
func (handler *AdminHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	}
	handler.logger.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *AdminHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
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
