package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.Transactions == nil || m.HTTPRequests == nil || m.StatementRequests == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.ObserveTransaction("debit", "ok", 10*time.Millisecond)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	New(registry)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected duplicate registration to panic")
		}
	}()
	New(registry)
}

func TestLedgerRecorder(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTransaction("debit", "ok", time.Millisecond)
	m.ObserveTransaction("debit", "limit_exceeded", time.Millisecond)
	m.ObserveTransaction("debit", "ok", time.Millisecond)
	m.AddTransactionRetries(3)
	m.ObserveStatement("unknown_account")

	if got := testutil.ToFloat64(m.Transactions.WithLabelValues("debit", "ok")); got != 2 {
		t.Fatalf("expected 2 ok debits, got %v", got)
	}
	if got := testutil.ToFloat64(m.Transactions.WithLabelValues("debit", "limit_exceeded")); got != 1 {
		t.Fatalf("expected 1 rejected debit, got %v", got)
	}
	if got := testutil.ToFloat64(m.TransactionRetries); got != 3 {
		t.Fatalf("expected 3 retries, got %v", got)
	}
	if got := testutil.ToFloat64(m.StatementRequests.WithLabelValues("unknown_account")); got != 1 {
		t.Fatalf("expected 1 statement miss, got %v", got)
	}
}

func TestHTTPRecorder(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RequestStarted()
	m.ObserveHTTPRequest(http.MethodGet, "/clientes/:id/extrato", http.StatusOK, time.Millisecond)
	m.RequestFinished()
	m.RateLimited()
	m.IdempotentReplay()
	m.EventPublished()
	m.EventFailed()

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/clientes/:id/extrato", "200")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPInFlight); got != 0 {
		t.Fatalf("expected in-flight gauge back at 0, got %v", got)
	}
	for name, c := range map[string]prometheus.Counter{
		"rate limit": m.RateLimitHits,
		"replay":     m.IdempotentReplays,
		"published":  m.OutboxPublished,
		"failed":     m.OutboxFailures,
	} {
		if got := testutil.ToFloat64(c); got != 1 {
			t.Fatalf("expected %s counter at 1, got %v", name, got)
		}
	}
}
