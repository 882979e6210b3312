package service

import (
	"context"
	"time"

	"github.com/Bessima/fieldops/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockWorkOrderRepository - мок для WorkOrderRepository
type MockWorkOrderRepository struct {
	mock.Mock
}

func (m *MockWorkOrderRepository) Upsert(ctx context.Context, order models.WorkOrder) (bool, error) {
	args := m.Called(ctx, order)
	return args.Bool(0), args.Error(1)
}

func (m *MockWorkOrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*models.WorkOrder, error) {
	args := m.Called(ctx, orderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkOrder), args.Error(1)
}

func (m *MockWorkOrderRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.WorkOrder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkOrder), args.Error(1)
}

func (m *MockWorkOrderRepository) UpdateStatus(ctx context.Context, orderNo string, allowed []models.OrderStatus, to models.OrderStatus, actor string, note *string) (*models.WorkOrder, *models.StatusChange, error) {
	args := m.Called(ctx, orderNo, allowed, to, actor, note)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.WorkOrder), args.Get(1).(*models.StatusChange), args.Error(2)
}

func (m *MockWorkOrderRepository) ListStatusChanges(ctx context.Context, orderNo string) ([]models.StatusChange, error) {
	args := m.Called(ctx, orderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StatusChange), args.Error(1)
}

// MockSubmitter - мок для ingest.Submitter
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, orders []models.RawOrder) *models.ImportResult {
	args := m.Called(ctx, orders)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.ImportResult)
}

// MockRoutingClient - мок для routing.RoutingClient
type MockRoutingClient struct {
	mock.Mock
}

func (m *MockRoutingClient) OrdersForDate(ctx context.Context, date time.Time) ([]models.RawOrder, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RawOrder), args.Error(1)
}

func (m *MockRoutingClient) OrdersForRange(ctx context.Context, from, to time.Time) ([]models.RawOrder, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RawOrder), args.Error(1)
}

func rawOrders(source models.OrderSource, keys ...string) []models.RawOrder {
	orders := make([]models.RawOrder, 0, len(keys))
	for _, key := range keys {
		doc := map[string]any{}
		if key != "" {
			doc["orderNo"] = key
		}
		orders = append(orders, models.RawOrder{Source: source, Doc: doc})
	}
	return orders
}
