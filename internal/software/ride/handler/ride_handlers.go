package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"rydin/internal/ports"
)

// --- Request DTO (HTTP boundary) ---

type createRideRequest struct {
	Source        string  `json:"source"`
	Destination   string  `json:"destination"`
	Date          string  `json:"date"` // YYYY-MM-DD
	Time          string  `json:"time"` // HH:MM
	SeatsTotal    int     `json:"seats_total"`
	EstimatedFare float64 `json:"estimated_fare"`
	GirlsOnly     bool    `json:"girls_only"`
	FlightTrain   string  `json:"flight_train"`
}

// ----- Handler: POST /rides -----

func (handler *RideHTTPHandler) handleCreateRide(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.requestContext(r, requestTimeout)
	defer cancel()

	var req createRideRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	// the host is always the caller
	view, err := handler.rides.CreateRide(ctx, ports.CreateRideInput{
		HostID:        subject(r),
		Source:        req.Source,
		Destination:   req.Destination,
		Date:          req.Date,
		Time:          req.Time,
		SeatsTotal:    req.SeatsTotal,
		EstimatedFare: req.EstimatedFare,
		GirlsOnly:     req.GirlsOnly,
		FlightTrain:   req.FlightTrain,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusCreated, view)
}

// ----- Handler: GET /rides/search -----

func (handler *RideHTTPHandler) handleSearchRides(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.requestContext(r, requestTimeout)
	defer cancel()

	q := r.URL.Query()
	flex := 0
	if raw := strings.TrimSpace(q.Get("flexibility")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			handler.httpError(ctx, w, http.StatusBadRequest, "flexibility must be a non-negative number of minutes", err)
			return
		}
		flex = n
	}

	hits, err := handler.rides.SearchRides(ctx, ports.SearchInput{
		Source:             q.Get("source"),
		Destination:        q.Get("destination"),
		Date:               q.Get("date"),
		DepartureTime:      q.Get("time"),
		FlexibilityMinutes: flex,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{"rides": hits, "count": len(hits)})
}

// ----- Handler: GET /rides/{ride_id} -----

func (handler *RideHTTPHandler) handleGetRide(w http.ResponseWriter, r *http.Request) {
	handler.rideCall(w, r, http.StatusOK, func(ctx context.Context, rideID, _ string) (any, error) {
		return handler.rides.GetRide(ctx, rideID)
	})
}

// ----- Capacity and lock actions -----

func (handler *RideHTTPHandler) handleJoinRide(w http.ResponseWriter, r *http.Request) {
	handler.rideCall(w, r, http.StatusOK, func(ctx context.Context, rideID, userID string) (any, error) {
		return handler.rides.JoinRide(ctx, rideID, userID)
	})
}

func (handler *RideHTTPHandler) handleLeaveRide(w http.ResponseWriter, r *http.Request) {
	handler.rideCall(w, r, http.StatusOK, func(ctx context.Context, rideID, userID string) (any, error) {
		return handler.rides.LeaveRide(ctx, rideID, userID)
	})
}

func (handler *RideHTTPHandler) handleLockRide(w http.ResponseWriter, r *http.Request) {
	handler.rideCall(w, r, http.StatusOK, func(ctx context.Context, rideID, userID string) (any, error) {
		return handler.rides.LockRide(ctx, rideID, userID)
	})
}

func (handler *RideHTTPHandler) handleUnlockRide(w http.ResponseWriter, r *http.Request) {
	handler.rideCall(w, r, http.StatusOK, func(ctx context.Context, rideID, userID string) (any, error) {
		return handler.rides.UnlockRide(ctx, rideID, userID)
	})
}

func (handler *RideHTTPHandler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	handler.rideCall(w, r, http.StatusOK, func(ctx context.Context, rideID, userID string) (any, error) {
		return handler.rides.AcknowledgeCommitment(ctx, rideID, userID)
	})
}

func (handler *RideHTTPHandler) handleCancelAfterLock(w http.ResponseWriter, r *http.Request) {
	handler.rideCall(w, r, http.StatusOK, func(ctx context.Context, rideID, userID string) (any, error) {
		return handler.rides.CancelAfterLock(ctx, rideID, userID)
	})
}

func (handler *RideHTTPHandler) handleCompleteRide(w http.ResponseWriter, r *http.Request) {
	handler.rideCall(w, r, http.StatusOK, func(ctx context.Context, rideID, userID string) (any, error) {
		return handler.rides.CompleteRide(ctx, rideID, userID)
	})
}

func (handler *RideHTTPHandler) handleCancelRide(w http.ResponseWriter, r *http.Request) {
	handler.rideCall(w, r, http.StatusOK, func(ctx context.Context, rideID, userID string) (any, error) {
		return handler.rides.CancelRide(ctx, rideID, userID)
	})
}

func (handler *RideHTTPHandler) handleMembers(w http.ResponseWriter, r *http.Request) {
	handler.rideCall(w, r, http.StatusOK, func(ctx context.Context, rideID, _ string) (any, error) {
		members, err := handler.rides.CommittedMembers(ctx, rideID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"ride_id": rideID, "members": members}, nil
	})
}

func (handler *RideHTTPHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	handler.rideCall(w, r, http.StatusOK, func(ctx context.Context, rideID, userID string) (any, error) {
		return handler.rides.RideSummary(ctx, rideID, userID)
	})
}

func (handler *RideHTTPHandler) handleShare(w http.ResponseWriter, r *http.Request) {
	handler.rideCall(w, r, http.StatusOK, func(ctx context.Context, rideID, userID string) (any, error) {
		return handler.rides.ShareWithParent(ctx, rideID, userID)
	})
}

// ----- Handler: GET /me/shares -----

func (handler *RideHTTPHandler) handleShareHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.requestContext(r, requestTimeout)
	defer cancel()

	shares, err := handler.rides.ShareHistory(ctx, subject(r))
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{"shares": shares})
}

// rideCall runs a ride action for the authenticated caller on the ride in the path.
func (handler *RideHTTPHandler) rideCall(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	call func(ctx context.Context, rideID, userID string) (any, error),
) {
	ctx, cancel := handler.requestContext(r, requestTimeout)
	defer cancel()

	rideID := strings.TrimSpace(r.PathValue("ride_id"))
	if rideID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "ride_id is required", nil)
		return
	}
	ctx = handler.logger.WithRideID(ctx, rideID)

	out, err := call(ctx, rideID, subject(r))
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, status, out)
}
