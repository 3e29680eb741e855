package handler

import (
	"context"
	"net/http"
)

// --- Handler: GET /admin/overview ---

func (handler *AdminHTTPHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	overview, err := handler.svc.GetSystemOverview(ctxWithTimeout)
	if err != nil {
		handler.serviceError(ctx, w, "failed to fetch system overview", err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, overview)
}
