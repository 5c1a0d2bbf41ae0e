package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	httpDurationHistogram   *prometheus.HistogramVec
	outcomeCounter          *prometheus.CounterVec
	versionConflictCounter  prometheus.Counter
	gatewayRequestCounter   *prometheus.CounterVec
	eventLedgerCounter      *prometheus.CounterVec
	batchSizeHistogram      prometheus.Histogram
	reconcileDuration       prometheus.Histogram
	workerRunCounter        *prometheus.CounterVec
	outcomeSinkErrorCounter *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		outcomeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_outcomes_total",
			Help: "Reconciliation outcomes per notification item",
		}, []string{"status", "reason"})

		versionConflictCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payment_version_conflicts_total",
			Help: "Conditional payment updates rejected because of a concurrent writer",
		})

		gatewayRequestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ctp_requests_total",
			Help: "Commerce platform requests by operation and result",
		}, []string{"operation", "result"})

		eventLedgerCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "event_ledger_events_total",
			Help: "Processed-event ledger outcomes",
		}, []string{"outcome"})

		batchSizeHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notification_batch_items",
			Help:    "Notification items per batch",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		})

		reconcileDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reconciliation_duration_seconds",
			Help:    "Time to reconcile one notification batch",
			Buckets: prometheus.DefBuckets,
		})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		outcomeSinkErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outcome_sink_errors_total",
			Help: "Failures recording or publishing reconciliation outcomes",
		}, []string{"sink"})

		prometheus.MustRegister(
			httpDurationHistogram,
			outcomeCounter,
			versionConflictCounter,
			gatewayRequestCounter,
			eventLedgerCounter,
			batchSizeHistogram,
			reconcileDuration,
			workerRunCounter,
			outcomeSinkErrorCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementOutcome(status, reason string) {
	if outcomeCounter == nil {
		return
	}
	outcomeCounter.WithLabelValues(status, reason).Inc()
}

func IncrementVersionConflict() {
	if versionConflictCounter == nil {
		return
	}
	versionConflictCounter.Inc()
}

func IncrementGatewayRequest(operation, result string) {
	if gatewayRequestCounter == nil {
		return
	}
	gatewayRequestCounter.WithLabelValues(operation, result).Inc()
}

func IncrementEventLedger(outcome string) {
	if eventLedgerCounter == nil {
		return
	}
	eventLedgerCounter.WithLabelValues(outcome).Inc()
}

func ObserveBatch(items int, duration time.Duration) {
	if batchSizeHistogram == nil {
		return
	}
	batchSizeHistogram.Observe(float64(items))
	reconcileDuration.Observe(duration.Seconds())
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}

func IncrementOutcomeSinkError(sink string) {
	if outcomeSinkErrorCounter == nil {
		return
	}
	outcomeSinkErrorCounter.WithLabelValues(sink).Inc()
}
