package handler

import (
	"net/http"
	"strings"
)

type createBucketRideRequest struct {
	Time      string `json:"time"` // HH:MM
	GirlsOnly bool   `json:"girls_only"`
}

// ----- Handler: GET /buckets -----

func (handler *RideHTTPHandler) handleCatalogue(w http.ResponseWriter, r *http.Request) {
	handler.jsonResponse(r.Context(), w, http.StatusOK, map[string]any{"buckets": handler.buckets.Catalogue()})
}

// ----- Handler: GET /buckets/match -----

func (handler *RideHTTPHandler) handleMatchBucket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	b, ok := handler.buckets.FindMatchingBucket(q.Get("source"), q.Get("destination"))
	if !ok {
		handler.httpError(r.Context(), w, http.StatusNotFound, "no bucket serves this route", nil)
		return
	}
	handler.jsonResponse(r.Context(), w, http.StatusOK, b)
}

// ----- Handler: GET /buckets/{bucket_id}/rides -----

func (handler *RideHTTPHandler) handleBucketRides(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.requestContext(r, requestTimeout)
	defer cancel()

	bucketID := strings.TrimSpace(r.PathValue("bucket_id"))
	rides, err := handler.buckets.BucketRidesForDate(ctx, bucketID, r.URL.Query().Get("date"))
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{"bucket_id": bucketID, "rides": rides})
}

// ----- Handler: POST /buckets/{bucket_id}/rides (admin) -----

func (handler *RideHTTPHandler) handleCreateBucketRide(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.requestContext(r, requestTimeout)
	defer cancel()

	var req createBucketRideRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}

	res, err := handler.buckets.CreateAutoBucketRide(ctx, strings.TrimSpace(r.PathValue("bucket_id")), req.Time, req.GirlsOnly)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	handler.jsonResponse(ctx, w, status, res)
}

// ----- Handler: POST /buckets/generate (admin) -----

func (handler *RideHTTPHandler) handleGenerateBuckets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := handler.requestContext(r, requestTimeout)
	defer cancel()

	// with a broker the worker does the work
	if handler.asyncBuckets {
		if err := handler.buckets.RequestGeneration(ctx, subject(r)); err != nil {
			handler.httpError(ctx, w, http.StatusServiceUnavailable, "could not queue bucket generation", err)
			return
		}
		handler.jsonResponse(ctx, w, http.StatusAccepted, map[string]any{"queued": true})
		return
	}

	res, err := handler.buckets.CreateDailyAutoBuckets(ctx)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, res)
}
