package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaossub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kaossub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaossub_orders_total",
			Help: "Total number of data orders by terminal status",
		},
		[]string{"status", "network"},
	)

	PaymentsVerifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaossub_payments_verified_total",
			Help: "Total number of payment verification outcomes",
		},
		[]string{"outcome"},
	)

	LedgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaossub_ledger_entries_total",
			Help: "Total number of ledger entries written",
		},
		[]string{"type"},
	)

	LedgerRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kaossub_ledger_version_retries_total",
			Help: "Total number of optimistic-concurrency retries on accounts",
		},
	)

	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaossub_webhooks_total",
			Help: "Total number of fulfillment webhooks by result",
		},
		[]string{"result"},
	)

	ReviewQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kaossub_reconciliation_review_queue_length",
			Help: "Current length of the manual reconciliation review queue",
		},
	)

	CatalogSyncMapped = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kaossub_catalog_sync_mapped_plans",
			Help: "Plans mapped to a provider variation during the last sync",
		},
		[]string{"network"},
	)

	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaossub_provider_requests_total",
			Help: "Total number of fulfillment provider API calls",
		},
		[]string{"endpoint", "outcome"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordOrder(status, network string) {
	OrdersTotal.WithLabelValues(status, network).Inc()
}

func RecordPaymentVerification(outcome string) {
	PaymentsVerifiedTotal.WithLabelValues(outcome).Inc()
}

func RecordLedgerEntry(entryType string) {
	LedgerEntriesTotal.WithLabelValues(entryType).Inc()
}

func RecordLedgerRetry() {
	LedgerRetriesTotal.Inc()
}

func RecordWebhook(result string) {
	WebhooksTotal.WithLabelValues(result).Inc()
}

func RecordProviderRequest(endpoint, outcome string) {
	ProviderRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
}
