package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type Config struct {
	Delays      []time.Duration
	IsRetriable func(err error) bool
}

// DefaultRetryConfig используется для запросов к БД: 1s, 3s, 5s и только для ошибок соединения.
var DefaultRetryConfig = Config{
	Delays:      []time.Duration{time.Second, 3 * time.Second, 5 * time.Second},
	IsRetriable: IsConnectionError,
}

// RoutingRetryConfig используется клиентом сервиса маршрутов.
var RoutingRetryConfig = Config{
	Delays:      []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
	IsRetriable: IsTemporary,
}

// TemporaryError помечает ошибку, после которой есть смысл повторить запрос.
type TemporaryError struct {
	Err error
}

func (e *TemporaryError) Error() string {
	return e.Err.Error()
}

func (e *TemporaryError) Unwrap() error {
	return e.Err
}

func NewTemporaryError(err error) error {
	return &TemporaryError{Err: err}
}

func IsConnectionError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func IsTemporary(err error) bool {
	var tmp *TemporaryError
	if errors.As(err, &tmp) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func DoRetry(ctx context.Context, fn func() error, configs ...Config) error {
	_, err := DoRetryWithResult(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	}, configs...)
	return err
}

// DoRetryWithResult при неуспехе возвращает zero value результата.
func DoRetryWithResult[T any](ctx context.Context, fn func() (T, error), configs ...Config) (T, error) {
	cfg := DefaultRetryConfig
	if len(configs) > 0 {
		cfg = configs[0]
	}

	var zero T
	result, err := fn()
	for attempt := 0; err != nil && attempt < len(cfg.Delays); attempt++ {
		if cfg.IsRetriable == nil || !cfg.IsRetriable(err) {
			return zero, err
		}

		logger.Log.Warn("retrying after error",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", cfg.Delays[attempt]),
			zap.Error(err),
		)

		timer := time.NewTimer(cfg.Delays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, errors.Join(err, ctx.Err())
		case <-timer.C:
		}

		result, err = fn()
	}
	if err != nil {
		return zero, err
	}
	return result, nil
}
