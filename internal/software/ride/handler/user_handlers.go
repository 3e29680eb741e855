package handler

import (
	"net/http"
	"strings"

	"rydin/internal/domain/reliability"
	"rydin/internal/domain/user"
)

// ----- Handler: GET /users/{user_id}/reliability -----

func (handler *RideHTTPHandler) handleGetReliability(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.requestContext(r, requestTimeout)
	defer cancel()

	userID := strings.TrimSpace(r.PathValue("user_id"))
	m, err := handler.reliability.GetUserReliability(ctx, userID)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{
		"user_id": userID,
		"metrics": m,
		"badge":   reliability.BadgeFor(m.Status),
	})
}

// ----- Handler: POST /users/{user_id}/no-show (admin) -----

func (handler *RideHTTPHandler) handleRecordNoShow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.requestContext(r, requestTimeout)
	defer cancel()

	out, err := handler.reliability.RecordNoShow(ctx, strings.TrimSpace(r.PathValue("user_id")))
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, out)
}

// ----- Handler: POST /users/{user_id}/clear-no-shows (admin) -----

func (handler *RideHTTPHandler) handleClearNoShows(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.requestContext(r, requestTimeout)
	defer cancel()

	userID := strings.TrimSpace(r.PathValue("user_id"))
	if err := handler.reliability.ClearNoShowCount(ctx, userID); err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{"user_id": userID, "cleared": true})
}

// ----- Handler: GET /me/profile -----

func (handler *RideHTTPHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.requestContext(r, requestTimeout)
	defer cancel()

	view, err := handler.profiles.GetProfile(ctx, subject(r))
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, view)
}

// ----- Handler: PATCH /me/profile -----

func (handler *RideHTTPHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	// the service bounds the store write itself; leave room for the fallback
	ctx, cancel := handler.requestContext(r, handler.profileTimeout+requestTimeout)
	defer cancel()

	var patch user.ProfilePatch
	if !handler.decodeJSON(ctx, w, r, &patch) {
		return
	}

	res, err := handler.profiles.UpdateProfile(ctx, subject(r), patch)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if res.Stale {
		status = http.StatusAccepted
	}
	handler.jsonResponse(ctx, w, status, res)
}
