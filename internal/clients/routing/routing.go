package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"github.com/Bessima/fieldops/internal/models"
	"github.com/Bessima/fieldops/internal/retry"
	"github.com/Bessima/fieldops/internal/sources"
	"go.uber.org/zap"
)

const (
	ordersPath = "/api/v1/orders"
	dateLayout = "2006-01-02"
)

var ErrInvalidRange = errors.New("invalid date range")

type RoutingClientI interface {
	OrdersForDate(ctx context.Context, date time.Time) ([]models.RawOrder, error)
	OrdersForRange(ctx context.Context, from, to time.Time) ([]models.RawOrder, error)
}

// RoutingClient fetches completed route orders from the routing provider.
type RoutingClient struct {
	httpClient  *http.Client
	address     string
	apiKey      string
	retryConfig retry.Config
}

func NewRoutingClient(address, apiKey string) *RoutingClient {
	return &RoutingClient{
		address:     address,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		retryConfig: retry.RoutingRetryConfig,
	}
}

func (client *RoutingClient) OrdersForDate(ctx context.Context, date time.Time) ([]models.RawOrder, error) {
	query := url.Values{}
	query.Set("date", date.Format(dateLayout))
	return client.fetch(ctx, query)
}

func (client *RoutingClient) OrdersForRange(ctx context.Context, from, to time.Time) ([]models.RawOrder, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, from.Format(dateLayout), to.Format(dateLayout))
	}
	query := url.Values{}
	query.Set("from", from.Format(dateLayout))
	query.Set("to", to.Format(dateLayout))
	return client.fetch(ctx, query)
}

func (client *RoutingClient) fetch(ctx context.Context, query url.Values) ([]models.RawOrder, error) {
	endpoint := fmt.Sprintf("%s%s?%s", client.address, ordersPath, query.Encode())

	return retry.DoRetryWithResult(ctx, func() ([]models.RawOrder, error) {
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		request.Header.Set("Accept", "application/json")
		if client.apiKey != "" {
			request.Header.Set("Authorization", "Bearer "+client.apiKey)
		}

		response, err := client.httpClient.Do(request)
		if err != nil {
			return nil, retry.NewTemporaryError(fmt.Errorf("failed to get orders at: %s and the error is: %w", endpoint, err))
		}
		defer func() {
			if err := response.Body.Close(); err != nil {
				logger.Log.Warn(fmt.Sprintf("error closing response body: %v", err))
			}
		}()

		if response.StatusCode != http.StatusOK {
			err := fmt.Errorf("failed to get orders at: %s , answer was with status code %d", endpoint, response.StatusCode)
			if response.StatusCode == http.StatusTooManyRequests || response.StatusCode >= http.StatusInternalServerError {
				return nil, retry.NewTemporaryError(err)
			}
			return nil, err
		}

		body, err := io.ReadAll(response.Body)
		if err != nil {
			logger.Log.Error("Error reading response body", zap.Error(err))
			return nil, err
		}

		documents, err := decodeOrders(body)
		if err != nil {
			logger.Log.Error("Error unmarshalling JSON", zap.Error(err))
			return nil, err
		}

		logger.Log.Info("fetched route orders", zap.String("query", query.Encode()), zap.Int("count", len(documents)))
		return sources.FromRouteDocuments(documents), nil
	}, client.retryConfig)
}

// decodeOrders accepts both {"orders": [...]} and a bare array.
func decodeOrders(body []byte) ([]map[string]any, error) {
	var envelope struct {
		Orders []map[string]any `json:"orders"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Orders == nil {
			return []map[string]any{}, nil
		}
		return envelope.Orders, nil
	}

	var documents []map[string]any
	if err := json.Unmarshal(body, &documents); err != nil {
		return nil, fmt.Errorf("unexpected orders payload: %w", err)
	}
	return documents, nil
}
