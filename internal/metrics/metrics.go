package metrics

import (
	"net/http"
	"time"

	"github.com/Bessima/fieldops/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	OrdersImported   prometheus.Counter
	OrdersDuplicate  prometheus.Counter
	OrdersFailed     prometheus.Counter
	DedupeRemoved    *prometheus.CounterVec
	ImportBatches    *prometheus.CounterVec
	ImportLatencySec prometheus.Histogram
	StatusOrders     *prometheus.GaugeVec
	StatusChanges    *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	imported := prometheus.NewCounter(prometheus.CounterOpts{Name: "fieldops_orders_imported_total"})
	duplicate := prometheus.NewCounter(prometheus.CounterOpts{Name: "fieldops_orders_duplicate_total"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "fieldops_orders_failed_total"})
	removed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldops_dedupe_removed_total",
		Help: "Orders dropped before submission, by reason.",
	}, []string{"reason"})
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldops_import_batches_total",
		Help: "Import batches by source and outcome level.",
	}, []string{"source", "level"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fieldops_import_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	statusOrders := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fieldops_orders_by_status",
		Help: "Orders per status bucket in the last counts query.",
	}, []string{"status"})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldops_status_changes_total",
	}, []string{"to"})

	r.MustRegister(
		imported, duplicate, failed, removed, batches, latency, statusOrders, statusChanges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		reg:              r,
		OrdersImported:   imported,
		OrdersDuplicate:  duplicate,
		OrdersFailed:     failed,
		DedupeRemoved:    removed,
		ImportBatches:    batches,
		ImportLatencySec: latency,
		StatusOrders:     statusOrders,
		StatusChanges:    statusChanges,
	}
}

// ObserveImport records one finished import batch. Nil receiver is a no-op.
func (r *Registry) ObserveImport(source models.OrderSource, level string, outcome models.ImportOutcome, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.DedupeRemoved.WithLabelValues("duplicate").Add(float64(outcome.Dedupe.DuplicateCount))
	r.DedupeRemoved.WithLabelValues("unkeyable").Add(float64(outcome.Dedupe.UnkeyableCount))
	r.ImportBatches.WithLabelValues(string(source), level).Inc()
	r.ImportLatencySec.Observe(elapsed.Seconds())

	if outcome.Result != nil {
		r.OrdersImported.Add(float64(outcome.Result.Imported))
		r.OrdersDuplicate.Add(float64(outcome.Result.Duplicates))
		r.OrdersFailed.Add(float64(outcome.Result.Errors))
	}
}

func (r *Registry) ObserveCounts(counts models.StatusCounts) {
	if r == nil {
		return
	}
	r.StatusOrders.WithLabelValues("approved").Set(float64(counts.Approved))
	r.StatusOrders.WithLabelValues("pending_review").Set(float64(counts.PendingReview))
	r.StatusOrders.WithLabelValues("flagged").Set(float64(counts.Flagged))
	r.StatusOrders.WithLabelValues("resolved").Set(float64(counts.Resolved))
	r.StatusOrders.WithLabelValues("rejected").Set(float64(counts.Rejected))
	r.StatusOrders.WithLabelValues("all").Set(float64(counts.All))
}

func (r *Registry) ObserveStatusChange(to models.OrderStatus) {
	if r == nil {
		return
	}
	r.StatusChanges.WithLabelValues(string(to)).Inc()
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
