package service

import (
	"context"
	"errors"
	"time"

	"github.com/Bessima/fieldops/internal/clients/ingest"
	"github.com/Bessima/fieldops/internal/customerror"
	"github.com/Bessima/fieldops/internal/events"
	"github.com/Bessima/fieldops/internal/guard"
	"github.com/Bessima/fieldops/internal/metrics"
	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"github.com/Bessima/fieldops/internal/models"
	"github.com/Bessima/fieldops/internal/notify"
	"github.com/Bessima/fieldops/internal/pipeline"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ImportServiceI interface {
	Import(ctx context.Context, request models.ImportRequest) (models.ImportOutcome, notify.Notification, error)
}

type ImportService struct {
	submitter ingest.SubmitterI
	guard     guard.Guard
	publisher events.Publisher
	notifier  notify.Notifier
	metrics   *metrics.Registry
	chunkSize int
}

type ImportOption func(*ImportService)

func WithGuard(g guard.Guard) ImportOption {
	return func(s *ImportService) { s.guard = g }
}

func WithPublisher(p events.Publisher) ImportOption {
	return func(s *ImportService) { s.publisher = p }
}

func WithNotifier(n notify.Notifier) ImportOption {
	return func(s *ImportService) { s.notifier = n }
}

func WithMetrics(m *metrics.Registry) ImportOption {
	return func(s *ImportService) { s.metrics = m }
}

// WithChunkSize включает разбиение больших партий; 0 отправляет всё одним вызовом.
func WithChunkSize(size int) ImportOption {
	return func(s *ImportService) { s.chunkSize = size }
}

func NewImportService(submitter ingest.SubmitterI, opts ...ImportOption) *ImportService {
	s := &ImportService{
		submitter: submitter,
		publisher: events.NopPublisher{},
		notifier:  notify.LogNotifier{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import deduplicates the batch and submits what is left. The only error
// returned is a conflict when an identical batch is already in flight;
// submission failures are reported in the outcome.
func (s *ImportService) Import(ctx context.Context, request models.ImportRequest) (models.ImportOutcome, notify.Notification, error) {
	start := time.Now()

	dedupe := pipeline.Dedupe(request.Orders)
	outcome := models.ImportOutcome{BatchID: uuid.New(), Dedupe: dedupe.Stats}

	logger.Log.Info("import batch deduplicated",
		zap.String("batch_id", outcome.BatchID.String()),
		zap.String("source", string(request.Source)),
		zap.Int("original", dedupe.Stats.OriginalCount),
		zap.Int("unique", dedupe.Stats.UniqueCount),
		zap.Int("duplicates", dedupe.Stats.DuplicateCount),
		zap.Int("unkeyable", dedupe.Stats.UnkeyableCount),
	)

	if len(dedupe.UniqueOrders) > 0 {
		release, err := s.acquire(ctx, dedupe.UniqueOrders)
		if err != nil {
			return outcome, notify.Notification{}, err
		}
		defer release()

		outcome.Result = s.ChunkedSubmit(ctx, dedupe.UniqueOrders)
	}

	notification := notify.ForImport(outcome)
	s.metrics.ObserveImport(request.Source, string(notification.Level), outcome, time.Since(start))
	events.PublishQuietly(ctx, s.publisher, events.NewImportCompleted(request.Source, request.Actor, outcome))
	if err := s.notifier.Notify(ctx, notification); err != nil {
		logger.Log.Warn("failed to dispatch import notification", zap.Error(err))
	}

	return outcome, notification, nil
}

func (s *ImportService) acquire(ctx context.Context, orders []models.RawOrder) (func(), error) {
	if s.guard == nil {
		return func() {}, nil
	}
	release, err := s.guard.Acquire(ctx, pipeline.Keys(orders))
	if errors.Is(err, guard.ErrInFlight) {
		return nil, customerror.NewConflictError(err.Error())
	}
	if err != nil {
		// недоступность хранилища блокировок не должна останавливать импорт
		logger.Log.Warn("import guard unavailable, continuing without it", zap.Error(err))
		return func() {}, nil
	}
	return release, nil
}

// ChunkedSubmit calls Submit once per chunk, sequentially, and merges the
// results. Chunks left after ctx is cancelled are reported as failed. A chunk
// that failed as a whole counts every one of its orders as an error.
func (s *ImportService) ChunkedSubmit(ctx context.Context, orders []models.RawOrder) *models.ImportResult {
	if s.chunkSize <= 0 || len(orders) <= s.chunkSize {
		return s.submitter.Submit(ctx, orders)
	}

	var merged *models.ImportResult
	for start := 0; start < len(orders); start += s.chunkSize {
		end := min(start+s.chunkSize, len(orders))
		chunk := orders[start:end]

		var result *models.ImportResult
		if err := ctx.Err(); err != nil {
			result = models.NewFailedImportResult(len(chunk), err)
		} else {
			result = s.submitter.Submit(ctx, chunk)
		}
		merged = mergeResults(merged, wholeChunkFailure(result))
	}
	return merged
}

func wholeChunkFailure(result *models.ImportResult) *models.ImportResult {
	if result == nil || result.Success || result.Imported+result.Duplicates > 0 || result.Errors >= result.Total {
		return result
	}
	failed := *result
	failed.Errors = result.Total
	return &failed
}

func mergeResults(acc, next *models.ImportResult) *models.ImportResult {
	if next == nil {
		return acc
	}
	if acc == nil {
		copied := *next
		copied.ErrorDetails = append([]string(nil), next.ErrorDetails...)
		return &copied
	}
	acc.Success = acc.Success || next.Success
	acc.Total += next.Total
	acc.Imported += next.Imported
	acc.Duplicates += next.Duplicates
	acc.Errors += next.Errors
	acc.ErrorDetails = append(acc.ErrorDetails, next.ErrorDetails...)
	return acc
}
