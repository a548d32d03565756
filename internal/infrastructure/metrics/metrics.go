package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	Transactions        *prometheus.CounterVec
	TransactionDuration prometheus.Histogram
	TransactionRetries  prometheus.Counter
	StatementRequests   *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxFailures  prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits prometheus.Counter

	// Idempotency metrics
	IdempotentReplays prometheus.Counter
}

// New creates all metrics and registers them with reg.
// A nil reg registers with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		Transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goledger_transactions_total",
				Help: "Total credit and debit requests by kind and result",
			},
			[]string{"kind", "result"},
		),
		TransactionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "goledger_transaction_duration_seconds",
			Help:    "Duration of transaction operations including retries",
			Buckets: prometheus.DefBuckets,
		}),
		TransactionRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "goledger_transaction_retries_total",
			Help: "Total number of transaction attempts re-run after a conflict",
		}),
		StatementRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goledger_statement_requests_total",
				Help: "Total statement requests by result",
			},
			[]string{"result"},
		),

		// Outbox metrics
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "goledger_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "goledger_outbox_failures_total",
			Help: "Total outbox events that failed to publish",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "goledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "goledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "goledger_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),

		// Idempotency metrics
		IdempotentReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "goledger_idempotent_replays_total",
			Help: "Total responses replayed from an idempotency key",
		}),
	}
}

// ObserveTransaction implements usecase.MetricsRecorder.
func (m *Metrics) ObserveTransaction(kind, result string, duration time.Duration) {
	m.Transactions.WithLabelValues(kind, result).Inc()
	m.TransactionDuration.Observe(duration.Seconds())
}

// AddTransactionRetries implements usecase.MetricsRecorder.
func (m *Metrics) AddTransactionRetries(n int) {
	m.TransactionRetries.Add(float64(n))
}

// ObserveStatement implements usecase.MetricsRecorder.
func (m *Metrics) ObserveStatement(result string) {
	m.StatementRequests.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest records one completed request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RequestStarted increments the in-flight gauge.
func (m *Metrics) RequestStarted() { m.HTTPInFlight.Inc() }

// RequestFinished decrements the in-flight gauge.
func (m *Metrics) RequestFinished() { m.HTTPInFlight.Dec() }

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() { m.RateLimitHits.Inc() }

// IdempotentReplay counts a replayed response.
func (m *Metrics) IdempotentReplay() { m.IdempotentReplays.Inc() }

// EventPublished counts a relayed outbox event.
func (m *Metrics) EventPublished() { m.OutboxPublished.Inc() }

// EventFailed counts an outbox event that could not be relayed.
func (m *Metrics) EventFailed() { m.OutboxFailures.Inc() }
