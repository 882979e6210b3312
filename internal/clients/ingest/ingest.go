package ingest

import (
	"context"
	"fmt"

	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"github.com/Bessima/fieldops/internal/models"
	"go.uber.org/zap"
)

// Transport delivers one batch of orders to the ingestion backend.
type Transport interface {
	BulkImport(ctx context.Context, orders []models.RawOrder) (*models.ImportResult, error)
}

type SubmitterI interface {
	Submit(ctx context.Context, orders []models.RawOrder) *models.ImportResult
}

type Submitter struct {
	transport Transport
}

func NewSubmitter(transport Transport) *Submitter {
	return &Submitter{transport: transport}
}

// Submit sends orders in a single transport call. An empty batch returns nil
// without touching the transport. Transport failures never escape: they are
// folded into a failed ImportResult.
func (s *Submitter) Submit(ctx context.Context, orders []models.RawOrder) (result *models.ImportResult) {
	if len(orders) == 0 {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("transport panic: %v", r)
			logger.Log.Error("bulk import failed", zap.Error(err))
			result = models.NewFailedImportResult(len(orders), err)
		}
	}()

	result, err := s.transport.BulkImport(ctx, orders)
	if err != nil {
		logger.Log.Warn("bulk import failed", zap.Int("total", len(orders)), zap.Error(err))
		return models.NewFailedImportResult(len(orders), err)
	}
	if result == nil {
		return models.NewFailedImportResult(len(orders), fmt.Errorf("empty response from import backend"))
	}

	logger.Log.Info("bulk import finished",
		zap.Int("total", result.Total),
		zap.Int("imported", result.Imported),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("errors", result.Errors),
	)
	return result
}
