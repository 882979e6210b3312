package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Bessima/fieldops/internal/customerror"
	"github.com/Bessima/fieldops/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStoreTransport_BulkImport(t *testing.T) {
	ctx := context.Background()
	repo := new(MockWorkOrderRepository)

	repo.On("Upsert", ctx, mock.MatchedBy(func(o models.WorkOrder) bool { return o.OrderNo == "1" })).Return(true, nil).Once()
	repo.On("Upsert", ctx, mock.MatchedBy(func(o models.WorkOrder) bool { return o.OrderNo == "2" })).Return(false, nil).Once()
	repo.On("Upsert", ctx, mock.MatchedBy(func(o models.WorkOrder) bool { return o.OrderNo == "3" })).
		Return(false, customerror.NewCommonPGError("value too long")).Once()

	result, err := NewStoreTransport(repo).BulkImport(ctx, rawOrders(models.APISource, "1", "2", "3", ""))

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 2, result.Errors)
	assert.Equal(t, []string{"3: value too long", "order without order number"}, result.ErrorDetails)
	repo.AssertExpectations(t)
}

func TestStoreTransport_BulkImport_NothingPersisted(t *testing.T) {
	ctx := context.Background()
	repo := new(MockWorkOrderRepository)
	repo.On("Upsert", ctx, mock.Anything).Return(false, errors.New("connection refused"))

	result, err := NewStoreTransport(repo).BulkImport(ctx, rawOrders(models.APISource, "1", "2"))

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Errors)
}

func TestOrderService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockWorkOrderRepository)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	orders := []models.WorkOrder{
		{OrderNo: "1", Status: models.ImportedStatus},
		{OrderNo: "2", Status: models.FlaggedFollowupStatus},
		{OrderNo: "3", Status: models.ApprovedStatus},
		{OrderNo: "4", Status: models.PendingReviewStatus},
	}
	repo.On("List", ctx, models.OrderFilter{From: &from, To: &to}).Return(orders, nil)

	service := NewOrderService(repo, nil)

	all, counts, err := service.List(ctx, models.OrderFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, models.StatusCounts{Approved: 1, PendingReview: 2, Flagged: 1, All: 4}, counts)

	pending := models.PendingReviewStatus
	filtered, counts, err := service.List(ctx, models.OrderFilter{From: &from, To: &to, Status: &pending})
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, "1", filtered[0].OrderNo)
	assert.Equal(t, "4", filtered[1].OrderNo)
	assert.Equal(t, 4, counts.All)

	onlyCounts, err := service.Counts(ctx, models.OrderFilter{From: &from, To: &to, Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, counts, onlyCounts)
}

func TestOrderService_List_Error(t *testing.T) {
	ctx := context.Background()
	repo := new(MockWorkOrderRepository)
	repo.On("List", ctx, models.OrderFilter{}).Return(nil, errors.New("db down"))

	orders, counts, err := NewOrderService(repo, nil).List(ctx, models.OrderFilter{})

	assert.Error(t, err)
	assert.Nil(t, orders)
	assert.Equal(t, models.StatusCounts{}, counts)
}

func TestOrderService_Get(t *testing.T) {
	ctx := context.Background()
	repo := new(MockWorkOrderRepository)
	order := &models.WorkOrder{OrderNo: "WO-1", Status: models.FlaggedStatus}
	changes := []models.StatusChange{{OrderNo: "WO-1", From: models.ImportedStatus, To: models.FlaggedStatus}}

	repo.On("GetByOrderNo", ctx, "WO-1").Return(order, nil)
	repo.On("ListStatusChanges", ctx, "WO-1").Return(changes, nil)

	gotOrder, gotChanges, err := NewOrderService(repo, nil).Get(ctx, "WO-1")

	require.NoError(t, err)
	assert.Equal(t, order, gotOrder)
	assert.Equal(t, changes, gotChanges)
}

func TestOrderService_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(MockWorkOrderRepository)
	repo.On("GetByOrderNo", ctx, "missing").Return(nil, customerror.NewNotFoundError("order missing"))

	_, _, err := NewOrderService(repo, nil).Get(ctx, "missing")

	var notFound *customerror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	repo.AssertNotCalled(t, "ListStatusChanges", mock.Anything, mock.Anything)
}
