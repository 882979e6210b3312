// Package notify turns import outcomes into user-facing notifications and
// dispatches them. Mapping is pure; dispatch is done by a Notifier.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"github.com/Bessima/fieldops/internal/models"
	"go.uber.org/zap"
)

type Level string

const (
	SuccessLevel Level = "success"
	WarningLevel Level = "warning"
	ErrorLevel   Level = "error"
	InfoLevel    Level = "info"
)

type Notification struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ForImport describes an import outcome for the person who started it.
func ForImport(outcome models.ImportOutcome) Notification {
	removed := removedSummary(outcome.Dedupe)

	result := outcome.Result
	switch {
	case result == nil:
		message := "No orders to import"
		if removed != "" {
			message = fmt.Sprintf("No new orders to import: %s", removed)
		}
		return Notification{Level: InfoLevel, Title: "Nothing to import", Message: message}
	case !result.Success:
		message := "Import failed"
		if len(result.ErrorDetails) > 0 {
			message = strings.Join(result.ErrorDetails, "; ")
		}
		return Notification{Level: ErrorLevel, Title: "Import failed", Message: message}
	case result.Errors > 0:
		return Notification{
			Level:   WarningLevel,
			Title:   "Import completed with errors",
			Message: fmt.Sprintf("Imported %d of %d orders, %d failed", result.Imported, result.Total, result.Errors),
		}
	default:
		message := fmt.Sprintf("Imported %d orders", result.Imported)
		if result.Duplicates > 0 {
			message += fmt.Sprintf(", %d already existed", result.Duplicates)
		}
		if removed != "" {
			message += fmt.Sprintf(" (%s)", removed)
		}
		return Notification{Level: SuccessLevel, Title: "Import complete", Message: message}
	}
}

func removedSummary(stats models.DedupeStats) string {
	parts := make([]string, 0, 2)
	if stats.DuplicateCount > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicates removed", stats.DuplicateCount))
	}
	if stats.UnkeyableCount > 0 {
		parts = append(parts, fmt.Sprintf("%d without order number skipped", stats.UnkeyableCount))
	}
	return strings.Join(parts, ", ")
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// LogNotifier пишет уведомления в общий лог.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	fields := []zap.Field{zap.String("title", n.Title), zap.String("message", n.Message)}
	switch n.Level {
	case ErrorLevel:
		logger.Log.Error("notification", fields...)
	case WarningLevel:
		logger.Log.Warn("notification", fields...)
	default:
		logger.Log.Info("notification", fields...)
	}
	return nil
}

// MultiNotifier dispatches to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
