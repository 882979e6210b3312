package service

import (
	"context"
	"testing"
	"time"

	"github.com/Bessima/fieldops/internal/customerror"
	"github.com/Bessima/fieldops/internal/events"
	"github.com/Bessima/fieldops/internal/metrics"
	"github.com/Bessima/fieldops/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReviewService_Apply(t *testing.T) {
	testCases := []struct {
		name    string
		action  models.ReviewAction
		to      models.OrderStatus
		allowed []models.OrderStatus
	}{
		{
			name:    "approve",
			action:  models.ApproveAction,
			to:      models.ApprovedStatus,
			allowed: reviewable,
		},
		{
			name:    "flag",
			action:  models.FlagAction,
			to:      models.FlaggedStatus,
			allowed: reviewable,
		},
		{
			name:    "reject",
			action:  models.RejectAction,
			to:      models.RejectedStatus,
			allowed: reviewable,
		},
		{
			name:    "resolve",
			action:  models.ResolveAction,
			to:      models.ResolvedStatus,
			allowed: []models.OrderStatus{models.FlaggedStatus, models.FlaggedFollowupStatus},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			repo := new(MockWorkOrderRepository)
			publisher := &recordingPublisher{}
			registry := metrics.NewRegistry()

			order := &models.WorkOrder{OrderNo: "WO-1", Status: tc.to}
			change := &models.StatusChange{OrderNo: "WO-1", From: models.FlaggedStatus, To: tc.to, Actor: "reviewer-1", ChangedAt: time.Now()}
			repo.On("UpdateStatus", ctx, "WO-1", tc.allowed, tc.to, "reviewer-1", (*string)(nil)).Return(order, change, nil).Once()

			got, err := NewReviewService(repo, publisher, registry).Apply(ctx, "WO-1", tc.action, "reviewer-1", "")

			require.NoError(t, err)
			assert.Equal(t, tc.to, got.Status)
			require.Len(t, publisher.events, 1)
			assert.Equal(t, events.StatusChangedEvent, publisher.events[0].Type)
			assert.Equal(t, float64(1), testutil.ToFloat64(registry.StatusChanges.WithLabelValues(string(tc.to))))
			repo.AssertExpectations(t)
		})
	}
}

func TestReviewService_Apply_WithNote(t *testing.T) {
	ctx := context.Background()
	repo := new(MockWorkOrderRepository)
	note := "customer confirmed"

	repo.On("UpdateStatus", ctx, "WO-1", reviewable, models.FlaggedStatus, "reviewer-1", &note).
		Return(&models.WorkOrder{OrderNo: "WO-1"}, &models.StatusChange{OrderNo: "WO-1"}, nil).Once()

	_, err := NewReviewService(repo, nil, nil).Apply(ctx, "WO-1", models.FlagAction, "reviewer-1", "  customer confirmed ")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestReviewService_Apply_Errors(t *testing.T) {
	ctx := context.Background()
	repo := new(MockWorkOrderRepository)
	service := NewReviewService(repo, nil, nil)

	_, err := service.Apply(ctx, "WO-1", models.ReviewAction("archive"), "reviewer-1", "")
	var validation *customerror.ValidationError
	assert.ErrorAs(t, err, &validation)

	_, err = service.Apply(ctx, " ", models.ApproveAction, "reviewer-1", "")
	assert.ErrorAs(t, err, &validation)

	repo.On("UpdateStatus", ctx, "WO-2", mock.Anything, models.ResolvedStatus, "reviewer-1", mock.Anything).
		Return(nil, nil, customerror.NewConflictError("order WO-2 cannot move from approved to resolved")).Once()

	_, err = service.Apply(ctx, "WO-2", models.ResolveAction, "reviewer-1", "")
	var conflict *customerror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}
