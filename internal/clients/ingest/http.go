package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"github.com/Bessima/fieldops/internal/models"
)

const bulkImportPath = "/functions/v1/bulk-import-orders"

type bulkImportRequest struct {
	Orders []models.RawOrder `json:"orders"`
}

// HTTPTransport posts batches to the hosted bulk-import function.
type HTTPTransport struct {
	httpClient *http.Client
	address    string
	apiKey     string
}

func NewHTTPTransport(address, apiKey string) *HTTPTransport {
	return &HTTPTransport{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		address:    address,
		apiKey:     apiKey,
	}
}

func (t *HTTPTransport) BulkImport(ctx context.Context, orders []models.RawOrder) (*models.ImportResult, error) {
	url := t.address + bulkImportPath

	body, err := json.Marshal(bulkImportRequest{Orders: orders})
	if err != nil {
		return nil, fmt.Errorf("failed to encode import batch: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	response, err := t.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to send import batch to %s: %w", url, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logger.Log.Warn(fmt.Sprintf("error closing response body: %v", err))
		}
	}()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading import response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("import backend answered with status code %d: %s", response.StatusCode, bytes.TrimSpace(payload))
	}

	return decodeImportResult(payload, len(orders))
}

// bulkImportResponse tracks which fields the backend actually sent.
type bulkImportResponse struct {
	Success      *bool    `json:"success"`
	Total        *int     `json:"total"`
	Imported     int      `json:"imported"`
	Duplicates   int      `json:"duplicates"`
	Errors       int      `json:"errors"`
	ErrorDetails []string `json:"errorDetails"`
}

func decodeImportResult(payload []byte, sent int) (*models.ImportResult, error) {
	var response *bulkImportResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("malformed import response: %w", err)
	}
	if response == nil {
		return nil, fmt.Errorf("malformed import response: empty result")
	}
	if response.Success == nil || response.Total == nil {
		return nil, fmt.Errorf("malformed import response: success and total are required")
	}
	if *response.Total == 0 && sent > 0 {
		return nil, fmt.Errorf("malformed import response: total is 0 for a batch of %d", sent)
	}

	return &models.ImportResult{
		Success:      *response.Success,
		Total:        *response.Total,
		Imported:     response.Imported,
		Duplicates:   response.Duplicates,
		Errors:       response.Errors,
		ErrorDetails: response.ErrorDetails,
	}, nil
}
