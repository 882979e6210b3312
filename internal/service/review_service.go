package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Bessima/fieldops/internal/customerror"
	"github.com/Bessima/fieldops/internal/events"
	"github.com/Bessima/fieldops/internal/metrics"
	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"github.com/Bessima/fieldops/internal/models"
	"go.uber.org/zap"
)

type transition struct {
	to   models.OrderStatus
	from []models.OrderStatus
}

var reviewable = []models.OrderStatus{
	models.PendingReviewStatus,
	models.ImportedStatus,
	models.FlaggedStatus,
	models.FlaggedFollowupStatus,
}

var transitions = map[models.ReviewAction]transition{
	models.ApproveAction: {to: models.ApprovedStatus, from: reviewable},
	models.FlagAction:    {to: models.FlaggedStatus, from: reviewable},
	models.RejectAction:  {to: models.RejectedStatus, from: reviewable},
	models.ResolveAction: {to: models.ResolvedStatus, from: []models.OrderStatus{models.FlaggedStatus, models.FlaggedFollowupStatus}},
}

type StatusUpdaterI interface {
	UpdateStatus(ctx context.Context, orderNo string, allowed []models.OrderStatus, to models.OrderStatus, actor string, note *string) (*models.WorkOrder, *models.StatusChange, error)
}

type ReviewServiceI interface {
	Apply(ctx context.Context, orderNo string, action models.ReviewAction, actor, note string) (*models.WorkOrder, error)
}

type ReviewService struct {
	repository StatusUpdaterI
	publisher  events.Publisher
	metrics    *metrics.Registry
}

func NewReviewService(repository StatusUpdaterI, publisher events.Publisher, metrics *metrics.Registry) *ReviewService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ReviewService{repository: repository, publisher: publisher, metrics: metrics}
}

func (service *ReviewService) Apply(ctx context.Context, orderNo string, action models.ReviewAction, actor, note string) (*models.WorkOrder, error) {
	rule, ok := transitions[action]
	if !ok {
		return nil, customerror.NewValidationError(fmt.Sprintf("unknown review action %q", action))
	}
	if strings.TrimSpace(orderNo) == "" {
		return nil, customerror.NewValidationError("order number is required")
	}

	var notePtr *string
	if note = strings.TrimSpace(note); note != "" {
		notePtr = &note
	}

	order, change, err := service.repository.UpdateStatus(ctx, orderNo, rule.from, rule.to, actor, notePtr)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("order status changed",
		zap.String("order_no", orderNo),
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)),
		zap.String("actor", actor),
	)
	service.metrics.ObserveStatusChange(change.To)
	events.PublishQuietly(ctx, service.publisher, events.NewStatusChanged(*change))

	return order, nil
}
