package service

import (
	"context"
	"time"

	"github.com/Bessima/fieldops/internal/clients/routing"
	"github.com/Bessima/fieldops/internal/models"
	"github.com/Bessima/fieldops/internal/notify"
	"github.com/Bessima/fieldops/internal/pipeline"
)

type RouteServiceI interface {
	Preview(ctx context.Context, from, to time.Time) ([]models.WorkOrder, models.DedupeStats, error)
	Sync(ctx context.Context, from, to time.Time, actor string) (models.ImportOutcome, notify.Notification, error)
}

// RouteService pulls completed orders from the routing provider.
type RouteService struct {
	client   routing.RoutingClientI
	importer ImportServiceI
}

func NewRouteService(client routing.RoutingClientI, importer ImportServiceI) *RouteService {
	return &RouteService{client: client, importer: importer}
}

// Preview fetches and transforms orders without storing them.
func (service *RouteService) Preview(ctx context.Context, from, to time.Time) ([]models.WorkOrder, models.DedupeStats, error) {
	orders, err := service.fetch(ctx, from, to)
	if err != nil {
		return nil, models.DedupeStats{}, err
	}
	dedupe := pipeline.Dedupe(orders)
	return pipeline.TransformAll(dedupe.UniqueOrders), dedupe.Stats, nil
}

func (service *RouteService) Sync(ctx context.Context, from, to time.Time, actor string) (models.ImportOutcome, notify.Notification, error) {
	orders, err := service.fetch(ctx, from, to)
	if err != nil {
		return models.ImportOutcome{}, notify.Notification{}, err
	}
	return service.importer.Import(ctx, models.ImportRequest{Source: models.APISource, Actor: actor, Orders: orders})
}

func (service *RouteService) fetch(ctx context.Context, from, to time.Time) ([]models.RawOrder, error) {
	if from.Equal(to) {
		return service.client.OrdersForDate(ctx, from)
	}
	return service.client.OrdersForRange(ctx, from, to)
}
