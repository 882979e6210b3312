package schemas

import (
	"encoding/json"

	"github.com/Bessima/fieldops/internal/models"
	"github.com/Bessima/fieldops/internal/notify"
	"github.com/google/uuid"
)

type ImportRequest struct {
	Source       string            `json:"source,omitempty"`
	RequestToken string            `json:"requestToken,omitempty"`
	Orders       []json.RawMessage `json:"orders"`
}

// ImportResponse echoes the request token so a client can drop results of
// a batch it has already superseded.
type ImportResponse struct {
	RequestToken string               `json:"requestToken"`
	BatchID      uuid.UUID            `json:"batchId"`
	Dedupe       models.DedupeStats   `json:"dedupe"`
	Result       *models.ImportResult `json:"result"`
	Notification notify.Notification  `json:"notification"`
}

func NewImportResponse(requestToken string, outcome models.ImportOutcome, notification notify.Notification) ImportResponse {
	return ImportResponse{
		RequestToken: requestToken,
		BatchID:      outcome.BatchID,
		Dedupe:       outcome.Dedupe,
		Result:       outcome.Result,
		Notification: notification,
	}
}

type OrdersResponse struct {
	Orders []models.WorkOrder  `json:"orders"`
	Counts models.StatusCounts `json:"counts"`
}

type OrderResponse struct {
	Order   *models.WorkOrder     `json:"order"`
	History []models.StatusChange `json:"history"`
}

type ReviewRequest struct {
	Note string `json:"note"`
}

type RoutesPreviewResponse struct {
	Orders []models.WorkOrder `json:"orders"`
	Dedupe models.DedupeStats `json:"dedupe"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
