package handler

import (
	"context"
	"net/http"
)

// --- Handler: GET /admin/rides/active?page=X&page_size=Y ---

func (handler *AdminHTTPHandler) handleActiveRides(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	query := r.URL.Query()
	page := query.Get("page")
	pageSize := query.Get("page_size")

	ctxWithTimeout, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	activeRides, err := handler.svc.GetActiveRides(ctxWithTimeout, page, pageSize)
	if err != nil {
		handler.serviceError(ctx, w, "failed to fetch active rides", err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, activeRides)
}
