package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ─── POST /api/orders/:orderID/notify ────────────────────────────────────────

type notifyResponse struct {
	Message string `json:"message"`
}

// handleNotifyOrder runs the notification pipeline once for the order in the
// URL. It mirrors NotifyOrderReady:
//
//	200 {"message": ...} for order not found, user unresolved, email sent
//	502 when the mailer rejected the send
//	503 when the order store could not be queried
//
// The pipeline run id is returned in X-Run-ID.
func (s *Server) handleNotifyOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	res, err := s.notifier.Notify(r.Context(), orderID)
	if res.RunID != "" {
		w.Header().Set("X-Run-ID", res.RunID)
	}
	if err != nil {
		respondErr(w, http.StatusServiceUnavailable, "order store unavailable")
		return
	}

	msg, ok := res.Outcome.Message()
	if !ok {
		respondErr(w, http.StatusBadGateway, "failed to send notification email")
		return
	}
	respond(w, http.StatusOK, notifyResponse{Message: msg})
}

// ─── GET /readyz ──────────────────────────────────────────────────────────────

// handleReady pings the order store. 200 when reachable, 503 otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("api: readiness check failed",
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
		respondErr(w, http.StatusServiceUnavailable, "order store unreachable")
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "ready"})
}
