package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Bessima/fieldops/internal/customerror"
	"github.com/Bessima/fieldops/internal/handlers/schemas"
	"github.com/Bessima/fieldops/internal/models"
	"github.com/Bessima/fieldops/internal/notify"
)

type RouteSyncer interface {
	Preview(ctx context.Context, from, to time.Time) ([]models.WorkOrder, models.DedupeStats, error)
	Sync(ctx context.Context, from, to time.Time, actor string) (models.ImportOutcome, notify.Notification, error)
}

type RoutesHandler struct {
	routes RouteSyncer
}

func NewRoutesHandler(routes RouteSyncer) *RoutesHandler {
	return &RoutesHandler{routes: routes}
}

func (h *RoutesHandler) Preview(w http.ResponseWriter, r *http.Request) {
	from, to, err := requiredDateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	orders, stats, err := h.routes.Preview(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []models.WorkOrder{}
	}

	writeJSON(w, http.StatusOK, schemas.RoutesPreviewResponse{Orders: orders, Dedupe: stats})
}

func (h *RoutesHandler) Sync(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	from, to, err := requiredDateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	outcome, notification, err := h.routes.Sync(r.Context(), from, to, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, schemas.NewImportResponse(requestToken(r.URL.Query().Get("requestToken")), outcome, notification))
}

// requiredDateRange требует хотя бы одну дату; одиночная граница означает один день.
func requiredDateRange(r *http.Request) (time.Time, time.Time, error) {
	from, to, err := parseDateRange(r)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	switch {
	case from == nil && to == nil:
		return time.Time{}, time.Time{}, customerror.NewValidationError("date or from/to is required")
	case from == nil:
		from = to
	case to == nil:
		to = from
	}
	return *from, *to, nil
}
