package service

import (
	"context"
	"fmt"

	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"github.com/Bessima/fieldops/internal/models"
	"github.com/Bessima/fieldops/internal/pipeline"
	"go.uber.org/zap"
)

type WorkOrderUpserterI interface {
	Upsert(ctx context.Context, order models.WorkOrder) (bool, error)
}

// StoreTransport is the ingestion backend when orders are kept in our own
// database: every order is transformed and upserted individually.
type StoreTransport struct {
	repository WorkOrderUpserterI
}

func NewStoreTransport(repository WorkOrderUpserterI) *StoreTransport {
	return &StoreTransport{repository: repository}
}

// BulkImport never returns an error: per-order failures are counted in the
// result, which is unsuccessful only if nothing was persisted.
func (transport *StoreTransport) BulkImport(ctx context.Context, orders []models.RawOrder) (*models.ImportResult, error) {
	result := &models.ImportResult{Total: len(orders)}

	for _, raw := range orders {
		order := pipeline.Transform(raw)
		if order.OrderNo == "" {
			result.Errors++
			result.ErrorDetails = append(result.ErrorDetails, "order without order number")
			continue
		}

		inserted, err := transport.repository.Upsert(ctx, order)
		if err != nil {
			logger.Log.Warn("failed to store order", zap.String("order_no", order.OrderNo), zap.Error(err))
			result.Errors++
			result.ErrorDetails = append(result.ErrorDetails, fmt.Sprintf("%s: %s", order.OrderNo, err.Error()))
			continue
		}

		if inserted {
			result.Imported++
		} else {
			result.Duplicates++
		}
	}

	result.Success = result.Imported+result.Duplicates > 0
	return result, nil
}
