package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Bessima/fieldops/internal/customerror"
	"github.com/Bessima/fieldops/internal/handlers/schemas"
	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"github.com/Bessima/fieldops/internal/models"
	"github.com/Bessima/fieldops/internal/notify"
	"github.com/Bessima/fieldops/internal/sources"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUploadSize = 32 << 20

type Importer interface {
	Import(ctx context.Context, request models.ImportRequest) (models.ImportOutcome, notify.Notification, error)
}

type OrderReader interface {
	List(ctx context.Context, filter models.OrderFilter) ([]models.WorkOrder, models.StatusCounts, error)
	Counts(ctx context.Context, filter models.OrderFilter) (models.StatusCounts, error)
	Get(ctx context.Context, orderNo string) (*models.WorkOrder, []models.StatusChange, error)
}

type Reviewer interface {
	Apply(ctx context.Context, orderNo string, action models.ReviewAction, actor, note string) (*models.WorkOrder, error)
}

type OrdersHandler struct {
	importer Importer
	orders   OrderReader
	reviewer Reviewer
}

func NewOrdersHandler(importer Importer, orders OrderReader, reviewer Reviewer) *OrdersHandler {
	return &OrdersHandler{
		importer: importer,
		orders:   orders,
		reviewer: reviewer,
	}
}

func (h *OrdersHandler) Import(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	actor, err := actorFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "can't read body", http.StatusBadRequest)
		logger.Log.Error(err.Error())
		return
	}

	var body schemas.ImportRequest
	if err = json.Unmarshal(bodyBytes, &body); err != nil {
		writeError(w, customerror.NewValidationError("can't parse body"))
		return
	}

	source, err := sources.ParseSource(body.Source)
	if err != nil {
		writeError(w, customerror.NewValidationError(err.Error()))
		return
	}

	orders, err := sources.FromDocuments(source, body.Orders)
	if err != nil {
		writeError(w, customerror.NewValidationError(err.Error()))
		return
	}

	h.runImport(w, r, requestToken(body.RequestToken), models.ImportRequest{Source: source, Actor: actor, Orders: orders})
}

func (h *OrdersHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	if err = r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, customerror.NewValidationError("can't parse multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, customerror.NewValidationError("file is required"))
		return
	}
	defer file.Close()

	orders, err := sources.ReadSpreadsheet(file, header.Filename)
	if err != nil {
		writeError(w, customerror.NewValidationError(fmt.Sprintf("can't read spreadsheet %s: %v", header.Filename, err)))
		return
	}
	logger.Log.Info("spreadsheet parsed", zap.String("file", header.Filename), zap.Int("rows", len(orders)))

	token := requestToken(r.FormValue("requestToken"))
	h.runImport(w, r, token, models.ImportRequest{Source: models.SpreadsheetSource, Actor: actor, Orders: orders})
}

func (h *OrdersHandler) runImport(w http.ResponseWriter, r *http.Request, token string, request models.ImportRequest) {
	outcome, notification, err := h.importer.Import(r.Context(), request)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, schemas.NewImportResponse(token, outcome, notification))
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	status, err := parseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}

	orders, counts, err := h.orders.List(r.Context(), orderFilter(from, to, status))
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []models.WorkOrder{}
	}

	writeJSON(w, http.StatusOK, schemas.OrdersResponse{Orders: orders, Counts: counts})
}

func (h *OrdersHandler) Counts(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	counts, err := h.orders.Counts(r.Context(), orderFilter(from, to, nil))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, counts)
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, history, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderNo"))
	if err != nil {
		writeError(w, err)
		return
	}
	if history == nil {
		history = []models.StatusChange{}
	}

	writeJSON(w, http.StatusOK, schemas.OrderResponse{Order: order, History: history})
}

func (h *OrdersHandler) Review(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	actor, err := actorFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var body schemas.ReviewRequest
	if r.ContentLength != 0 {
		if err = json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
			writeError(w, customerror.NewValidationError("can't parse body"))
			return
		}
	}

	action, err := models.ParseReviewAction(chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, err)
		return
	}

	order, err := h.reviewer.Apply(r.Context(), chi.URLParam(r, "orderNo"), action, actor, body.Note)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func requestToken(token string) string {
	if token = strings.TrimSpace(token); token != "" {
		return token
	}
	return uuid.NewString()
}
