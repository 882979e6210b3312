package models

import "encoding/json"

type OrderSource string

const (
	ManualSource      OrderSource = "manual"
	SpreadsheetSource OrderSource = "spreadsheet"
	APISource         OrderSource = "api"
)

// OrderKey is the business identifier (order number) used for deduplication.
type OrderKey string

// RawOrder is an order document as it arrived from one of the known sources.
// Doc holds the decoded JSON object; its shape depends on Source.
type RawOrder struct {
	Source OrderSource
	Doc    map[string]any
}

func (raw RawOrder) MarshalJSON() ([]byte, error) {
	if raw.Doc == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(raw.Doc)
}

type DedupeStats struct {
	OriginalCount  int `json:"original_count"`
	UniqueCount    int `json:"unique_count"`
	RemovedCount   int `json:"removed_count"`
	DuplicateCount int `json:"duplicate_count"`
	UnkeyableCount int `json:"unkeyable_count"`
}

type DedupeResult struct {
	UniqueOrders []RawOrder
	Stats        DedupeStats
}
