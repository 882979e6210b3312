package pipeline

import (
	"testing"
	"time"

	"github.com/Bessima/fieldops/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(doc map[string]any) models.RawOrder {
	return models.RawOrder{Source: models.APISource, Doc: doc}
}

func TestExtractKey(t *testing.T) {
	testCases := []struct {
		name   string
		doc    map[string]any
		want   models.OrderKey
		wantOK bool
	}{
		{
			name:   "data.orderNo wins over orderNo",
			doc:    map[string]any{"data": map[string]any{"orderNo": "A"}, "orderNo": "B"},
			want:   "A",
			wantOK: true,
		},
		{
			name:   "top level orderNo",
			doc:    map[string]any{"orderNo": "B"},
			want:   "B",
			wantOK: true,
		},
		{
			name:   "completion details",
			doc:    map[string]any{"completionDetails": map[string]any{"orderNo": "C"}},
			want:   "C",
			wantOK: true,
		},
		{
			name:   "extracted",
			doc:    map[string]any{"extracted": map[string]any{"orderNo": "D"}},
			want:   "D",
			wantOK: true,
		},
		{
			name:   "empty data.orderNo falls through",
			doc:    map[string]any{"data": map[string]any{"orderNo": "  "}, "extracted": map[string]any{"orderNo": "E"}},
			want:   "E",
			wantOK: true,
		},
		{
			name:   "numeric order number",
			doc:    map[string]any{"orderNo": float64(1234567)},
			want:   "1234567",
			wantOK: true,
		},
		{
			name:   "no key",
			doc:    map[string]any{"notes": "hello"},
			wantOK: false,
		},
		{
			name:   "nil document",
			doc:    nil,
			wantOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key, ok := ExtractKey(raw(tc.doc))
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, key)
		})
	}
}

func TestDedupe_FirstWins(t *testing.T) {
	orders := []models.RawOrder{
		raw(map[string]any{"orderNo": "1", "notes": "first"}),
		raw(map[string]any{"orderNo": "2"}),
		raw(map[string]any{"data": map[string]any{"orderNo": "1"}, "notes": "second"}),
	}

	result := Dedupe(orders)

	require.Len(t, result.UniqueOrders, 2)
	assert.Equal(t, "first", result.UniqueOrders[0].Doc["notes"])
	assert.Equal(t, models.DedupeStats{
		OriginalCount:  3,
		UniqueCount:    2,
		RemovedCount:   1,
		DuplicateCount: 1,
		UnkeyableCount: 0,
	}, result.Stats)
}

func TestDedupe_UnkeyableCountedSeparately(t *testing.T) {
	orders := []models.RawOrder{
		raw(map[string]any{"orderNo": "1"}),
		raw(map[string]any{"notes": "no key"}),
		raw(map[string]any{"orderNo": "1"}),
		raw(map[string]any{}),
	}

	stats := Dedupe(orders).Stats

	assert.Equal(t, 4, stats.OriginalCount)
	assert.Equal(t, 1, stats.UniqueCount)
	assert.Equal(t, 3, stats.RemovedCount)
	assert.Equal(t, 1, stats.DuplicateCount)
	assert.Equal(t, 2, stats.UnkeyableCount)
	assert.Equal(t, stats.OriginalCount, stats.UniqueCount+stats.RemovedCount)
	assert.Equal(t, stats.RemovedCount, stats.DuplicateCount+stats.UnkeyableCount)
}

func TestDedupe_Idempotent(t *testing.T) {
	orders := []models.RawOrder{
		raw(map[string]any{"orderNo": "1"}),
		raw(map[string]any{"orderNo": "2"}),
		raw(map[string]any{"orderNo": "1"}),
		raw(map[string]any{"extracted": map[string]any{"orderNo": "3"}}),
		raw(map[string]any{"completionDetails": map[string]any{"orderNo": "2"}}),
	}

	first := Dedupe(orders)
	second := Dedupe(first.UniqueOrders)

	assert.LessOrEqual(t, first.Stats.UniqueCount, first.Stats.OriginalCount)
	assert.Equal(t, 0, second.Stats.RemovedCount)
	assert.Equal(t, first.UniqueOrders, second.UniqueOrders)
}

func TestDedupe_Empty(t *testing.T) {
	result := Dedupe(nil)

	assert.Empty(t, result.UniqueOrders)
	assert.Equal(t, models.DedupeStats{}, result.Stats)
}

func TestKeys(t *testing.T) {
	orders := []models.RawOrder{
		raw(map[string]any{"orderNo": "b"}),
		raw(map[string]any{"orderNo": "a"}),
	}
	assert.Equal(t, []models.OrderKey{"b", "a"}, Keys(orders))
}

func TestResolveDate(t *testing.T) {
	testCases := []struct {
		name string
		doc  map[string]any
		want *time.Time
	}{
		{
			name: "completion end time has priority",
			doc: map[string]any{
				"completionDetails": map[string]any{"endTimeLocal": "2024-01-05T10:00:00"},
				"searchResponse":    map[string]any{"date": "2024-01-01"},
				"timestamp":         "2023-12-01",
			},
			want: ptrTime(time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)),
		},
		{
			name: "invalid completion end time falls back to search date",
			doc: map[string]any{
				"completionDetails": map[string]any{"endTimeLocal": "not-a-date"},
				"searchResponse":    map[string]any{"date": "2024-01-01"},
			},
			want: ptrTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "out of range epoch completion time falls back to search date",
			doc: map[string]any{
				"completionDetails": map[string]any{"endTimeLocal": float64(1e20)},
				"searchResponse":    map[string]any{"date": "2024-01-01"},
			},
			want: ptrTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "last representable epoch millisecond",
			doc:  map[string]any{"timestamp": float64(253402300799999)},
			want: ptrTime(time.Date(9999, 12, 31, 23, 59, 59, 999000000, time.UTC)),
		},
		{
			name: "timestamp as last resort",
			doc:  map[string]any{"timestamp": "2023-12-01 08:30:00"},
			want: ptrTime(time.Date(2023, 12, 1, 8, 30, 0, 0, time.UTC)),
		},
		{
			name: "epoch milliseconds timestamp",
			doc:  map[string]any{"timestamp": float64(1704067200000)},
			want: ptrTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		},
		{
			name: "all invalid",
			doc: map[string]any{
				"completionDetails": map[string]any{"endTimeLocal": "never"},
				"searchResponse":    map[string]any{"date": ""},
				"timestamp":         true,
			},
			want: nil,
		},
		{
			name: "nothing present",
			doc:  map[string]any{},
			want: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveDate(raw(tc.doc))
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tc.want.Equal(*got), "got %s, want %s", got, tc.want)
		})
	}
}

func TestTransform(t *testing.T) {
	order := Transform(models.RawOrder{
		Source: models.APISource,
		Doc: map[string]any{
			"orderNo":   "WO-1",
			"status":    "imported",
			"address":   "12 Main St",
			"driver":    map[string]any{"name": "Sam"},
			"timestamp": "2023-12-01",
			"completionDetails": map[string]any{
				"endTimeLocal": "2024-01-05T10:00:00",
				"status":       "done",
				"notes":        "left at gate",
			},
		},
	})

	assert.Equal(t, "WO-1", order.OrderNo)
	assert.Equal(t, models.ImportedStatus, order.Status)
	assert.Equal(t, "12 Main St", order.Location)
	assert.Equal(t, "Sam", order.Technician)
	assert.Equal(t, "left at gate", order.Notes)
	assert.Equal(t, "done", order.CompletionStatus)
	assert.Equal(t, models.APISource, order.Source)
	require.NotNil(t, order.ServiceDate)
	assert.Equal(t, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), *order.ServiceDate)
}

func TestTransform_DefaultStatus(t *testing.T) {
	order := Transform(raw(map[string]any{"orderNo": "WO-2"}))

	assert.Equal(t, models.PendingReviewStatus, order.Status)
	assert.Nil(t, order.ServiceDate)
}

func TestAggregate(t *testing.T) {
	counts := Aggregate([]models.WorkOrder{
		{Status: models.ImportedStatus},
		{Status: models.FlaggedFollowupStatus},
		{Status: models.ApprovedStatus},
	})

	assert.Equal(t, models.StatusCounts{
		Approved:      1,
		PendingReview: 1,
		Flagged:       1,
		Resolved:      0,
		Rejected:      0,
		All:           3,
	}, counts)
}

func TestAggregate_UnknownStatusOnlyInAll(t *testing.T) {
	counts := Aggregate([]models.WorkOrder{
		{Status: models.PendingReviewStatus},
		{Status: models.RejectedStatus},
		{Status: models.ResolvedStatus},
		{Status: models.FlaggedStatus},
		{Status: "on_hold"},
	})

	assert.Equal(t, 5, counts.All)
	named := counts.Approved + counts.PendingReview + counts.Flagged + counts.Resolved + counts.Rejected
	assert.Equal(t, 4, named)
}

func TestTransformAll(t *testing.T) {
	orders := TransformAll([]models.RawOrder{
		raw(map[string]any{"orderNo": "1"}),
		raw(map[string]any{"orderNo": "2"}),
	})
	require.Len(t, orders, 2)
	assert.Equal(t, "1", orders[0].OrderNo)
	assert.Equal(t, "2", orders[1].OrderNo)
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
