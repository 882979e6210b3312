package service

import (
	"context"

	"github.com/Bessima/fieldops/internal/metrics"
	"github.com/Bessima/fieldops/internal/models"
	"github.com/Bessima/fieldops/internal/pipeline"
	"github.com/Bessima/fieldops/internal/repository"
)

type OrderServiceI interface {
	List(ctx context.Context, filter models.OrderFilter) ([]models.WorkOrder, models.StatusCounts, error)
	Counts(ctx context.Context, filter models.OrderFilter) (models.StatusCounts, error)
	Get(ctx context.Context, orderNo string) (*models.WorkOrder, []models.StatusChange, error)
}

type OrderService struct {
	repository repository.WorkOrderStorageRepositoryI
	metrics    *metrics.Registry
}

func NewOrderService(repository repository.WorkOrderStorageRepositoryI, metrics *metrics.Registry) *OrderService {
	return &OrderService{repository: repository, metrics: metrics}
}

// List returns the orders matching filter and their status counts. A status
// filter narrows the list only: counts always cover the whole date range.
func (service *OrderService) List(ctx context.Context, filter models.OrderFilter) ([]models.WorkOrder, models.StatusCounts, error) {
	rangeFilter := models.OrderFilter{From: filter.From, To: filter.To}
	orders, err := service.repository.List(ctx, rangeFilter)
	if err != nil {
		return nil, models.StatusCounts{}, err
	}

	counts := pipeline.Aggregate(orders)
	service.metrics.ObserveCounts(counts)

	if filter.Status == nil {
		return orders, counts, nil
	}

	filtered := make([]models.WorkOrder, 0, len(orders))
	for _, order := range orders {
		if matchesBucket(order.Status, *filter.Status) {
			filtered = append(filtered, order)
		}
	}
	return filtered, counts, nil
}

func (service *OrderService) Counts(ctx context.Context, filter models.OrderFilter) (models.StatusCounts, error) {
	_, counts, err := service.List(ctx, models.OrderFilter{From: filter.From, To: filter.To})
	return counts, err
}

func (service *OrderService) Get(ctx context.Context, orderNo string) (*models.WorkOrder, []models.StatusChange, error) {
	order, err := service.repository.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, nil, err
	}
	changes, err := service.repository.ListStatusChanges(ctx, orderNo)
	if err != nil {
		return nil, nil, err
	}
	return order, changes, nil
}

// matchesBucket фильтрует по тем же корзинам, что и Aggregate.
func matchesBucket(status, bucket models.OrderStatus) bool {
	switch bucket {
	case models.PendingReviewStatus:
		return status == models.PendingReviewStatus || status == models.ImportedStatus
	case models.FlaggedStatus:
		return status == models.FlaggedStatus || status == models.FlaggedFollowupStatus
	default:
		return status == bucket
	}
}
