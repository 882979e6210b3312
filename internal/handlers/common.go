package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Bessima/fieldops/internal/customerror"
	"github.com/Bessima/fieldops/internal/handlers/schemas"
	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"github.com/Bessima/fieldops/internal/models"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var knownStatuses = []models.OrderStatus{
	models.PendingReviewStatus,
	models.ImportedStatus,
	models.ApprovedStatus,
	models.FlaggedStatus,
	models.FlaggedFollowupStatus,
	models.ResolvedStatus,
	models.RejectedStatus,
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Warn("Error encoding response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := customerror.HTTPCode(err)
	message := err.Error()
	if code >= http.StatusInternalServerError {
		logger.Log.Error("request failed", zap.Error(err))
		message = http.StatusText(code)
	} else {
		logger.Log.Warn("request rejected", zap.Error(err))
	}
	writeJSON(w, code, schemas.ErrorResponse{Error: message})
}

func actorFromRequest(r *http.Request) (string, error) {
	claims := GetReviewerFromContext(r.Context())
	if claims == nil {
		return "", errors.New("reviewer was not got")
	}
	return claims.Reviewer(), nil
}

// parseDateRange читает ?date= или ?from=&to= (включительно); пустой запрос означает без ограничений.
func parseDateRange(r *http.Request) (from, to *time.Time, err error) {
	query := r.URL.Query()

	if date := query.Get("date"); date != "" {
		day, err := parseDate("date", date)
		if err != nil {
			return nil, nil, err
		}
		return &day, &day, nil
	}

	if value := query.Get("from"); value != "" {
		day, err := parseDate("from", value)
		if err != nil {
			return nil, nil, err
		}
		from = &day
	}
	if value := query.Get("to"); value != "" {
		day, err := parseDate("to", value)
		if err != nil {
			return nil, nil, err
		}
		to = &day
	}

	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, customerror.NewValidationError("to must not be before from")
	}
	return from, to, nil
}

func parseDate(name, value string) (time.Time, error) {
	day, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, customerror.NewValidationError(fmt.Sprintf("%s must be a YYYY-MM-DD date", name))
	}
	return day, nil
}

func parseStatus(value string) (*models.OrderStatus, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "all" {
		return nil, nil
	}
	for _, status := range knownStatuses {
		if models.OrderStatus(value) == status {
			return &status, nil
		}
	}
	return nil, customerror.NewValidationError(fmt.Sprintf("unknown status %q", value))
}

// orderFilter переводит включительный диапазон дат в фильтр с исключающей верхней границей.
func orderFilter(from, to *time.Time, status *models.OrderStatus) models.OrderFilter {
	filter := models.OrderFilter{From: from, Status: status}
	if to != nil {
		next := to.AddDate(0, 0, 1)
		filter.To = &next
	}
	return filter
}
