package pipeline

import (
	"encoding/json"
	"math"
	"time"

	"github.com/Bessima/fieldops/internal/models"
)

// Кандидаты для даты выполнения в порядке приоритета.
var datePaths = []string{
	"completionDetails.endTimeLocal",
	"searchResponse.date",
	"timestamp",
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var (
	statusPaths           = []string{"status", "data.status"}
	locationPaths         = []string{"data.address", "location.address", "address", "searchResponse.address"}
	technicianPaths       = []string{"data.technician", "technician", "driver.name", "searchResponse.driverName"}
	notesPaths            = []string{"completionDetails.notes", "data.notes", "notes"}
	completionStatusPaths = []string{"completionDetails.status", "completionDetails.statusLabel"}
)

// Transform maps a raw order into the canonical WorkOrder. It never fails:
// missing fields stay empty and an unresolvable date stays nil.
func Transform(raw models.RawOrder) models.WorkOrder {
	key, _ := ExtractKey(raw)

	status := models.PendingReviewStatus
	if s := firstString(raw.Doc, statusPaths...); s != "" {
		status = models.OrderStatus(s)
	}

	return models.WorkOrder{
		OrderNo:          string(key),
		Status:           status,
		ServiceDate:      ResolveDate(raw),
		Location:         firstString(raw.Doc, locationPaths...),
		Technician:       firstString(raw.Doc, technicianPaths...),
		Notes:            firstString(raw.Doc, notesPaths...),
		CompletionStatus: firstString(raw.Doc, completionStatusPaths...),
		Source:           raw.Source,
	}
}

// ResolveDate returns the first candidate date that parses, or nil.
func ResolveDate(raw models.RawOrder) *time.Time {
	for _, path := range datePaths {
		value, ok := lookup(raw.Doc, path)
		if !ok {
			continue
		}
		if t, ok := parseDate(value); ok {
			return &t
		}
	}
	return nil
}

func parseDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	case float64:
		return fromEpochMillis(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return fromEpochMillis(f)
		}
	}
	return time.Time{}, false
}

// maxEpochMillis is 9999-12-31T23:59:59.999Z.
const maxEpochMillis = 253402300799999

func fromEpochMillis(ms float64) (time.Time, bool) {
	if math.IsNaN(ms) || ms <= 0 || ms > maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}
