package models

import "github.com/google/uuid"

type ImportResult struct {
	Success      bool     `json:"success"`
	Total        int      `json:"total"`
	Imported     int      `json:"imported"`
	Duplicates   int      `json:"duplicates"`
	Errors       int      `json:"errors"`
	ErrorDetails []string `json:"errorDetails,omitempty"`
}

func (r ImportResult) PartialFailure() bool {
	return r.Imported > 0 && r.Errors > 0
}

// NewFailedImportResult описывает неудачный вызов транспорта целиком.
func NewFailedImportResult(total int, err error) *ImportResult {
	return &ImportResult{
		Success:      false,
		Total:        total,
		Imported:     0,
		Duplicates:   0,
		Errors:       1,
		ErrorDetails: []string{err.Error()},
	}
}

// ImportOutcome объединяет результат дедупликации и отправки одной партии.
// Result равен nil, если после дедупликации отправлять нечего.
type ImportOutcome struct {
	BatchID uuid.UUID     `json:"batch_id"`
	Dedupe  DedupeStats   `json:"dedupe"`
	Result  *ImportResult `json:"result"`
}

func (o ImportOutcome) NothingToImport() bool {
	return o.Result == nil
}

// ImportRequest is one batch handed to the import pipeline.
type ImportRequest struct {
	Source OrderSource
	Actor  string
	Orders []RawOrder
}
