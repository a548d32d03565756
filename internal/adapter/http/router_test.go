package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/creditledger/internal/adapter/http/dto"
	"github.com/iho/creditledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/creditledger/internal/adapter/http/middleware"
	"github.com/iho/creditledger/internal/adapter/repository/memory"
	"github.com/iho/creditledger/internal/adapter/repository/postgres"
	redisrepo "github.com/iho/creditledger/internal/adapter/repository/redis"
	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/infrastructure/metrics"
	"github.com/iho/creditledger/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(1, 1)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/clientes/1/extrato", nil)
		req.RemoteAddr = "1.2.3.4:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(); code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}

	// Health checks are never throttled.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "1.2.3.4:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to bypass the rate limiter, got %d", rec.Code)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.MetricsHandler = promhttp.Handler()
	}))

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"GET /clientes/{id}/extrato",
		"POST /clientes/{id}/transacoes",
		"GET /admin/consistency",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func TestNewRouter_TransactionAndStatementFlow(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	rec := postTransaction(router, "1", `{"valor": 1000, "tipo": "c", "descricao": "deposito"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("credit: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = postTransaction(router, "1", `{"valor": 101001, "tipo": "d", "descricao": "saque"}`, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("debit beyond limit: expected 422, got %d", rec.Code)
	}

	rec = postTransaction(router, "1", `{"valor": 101000, "tipo": "d", "descricao": "saque"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("debit to the limit: expected 200, got %d", rec.Code)
	}

	var tx dto.TransactionResponse
	if err := json.NewDecoder(rec.Body).Decode(&tx); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tx.Saldo != -100000 || tx.Limite != 100000 {
		t.Fatalf("unexpected transaction response: %+v", tx)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clientes/1/extrato", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("statement: expected 200, got %d", rec.Code)
	}

	var statement dto.StatementResponse
	if err := json.NewDecoder(rec.Body).Decode(&statement); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if statement.Saldo.Total != -100000 || len(statement.UltimasTransacoes) != 2 {
		t.Fatalf("unexpected statement: %+v", statement)
	}
	if statement.UltimasTransacoes[0].Tipo != "d" || statement.UltimasTransacoes[1].Tipo != "c" {
		t.Fatalf("expected newest first, got %+v", statement.UltimasTransacoes)
	}
}

func TestNewRouter_ValidationStatuses(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	tests := []struct {
		name   string
		id     string
		body   string
		status int
	}{
		{"unknown account wins over bad body", "6", `garbage`, http.StatusNotFound},
		{"non-numeric id", "abc", `{"valor": 1, "tipo": "c", "descricao": "x"}`, http.StatusNotFound},
		{"malformed body", "1", `garbage`, http.StatusBadRequest},
		{"fractional amount", "1", `{"valor": 1.2, "tipo": "c", "descricao": "x"}`, http.StatusBadRequest},
		{"bad kind", "1", `{"valor": 1, "tipo": "x", "descricao": "x"}`, http.StatusBadRequest},
		{"empty description", "1", `{"valor": 1, "tipo": "c", "descricao": ""}`, http.StatusBadRequest},
		{"long description", "1", `{"valor": 1, "tipo": "c", "descricao": "12345678901"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postTransaction(router, tt.id, tt.body, "")
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clientes/6/extrato", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("statement of unknown account: expected 404, got %d", rec.Code)
	}
}

func TestNewRouter_IdempotentReplay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.IdempotencyStore = redisrepo.NewIdempotencyStore(client)
		cfg.IdempotencyTTL = time.Minute
		cfg.Metrics = m
	}))

	body := `{"valor": 100, "tipo": "d", "descricao": "once"}`

	first := postTransaction(router, "2", body, "key-1")
	if first.Code != http.StatusOK {
		t.Fatalf("first: expected 200, got %d", first.Code)
	}

	second := postTransaction(router, "2", body, "key-1")
	if second.Code != http.StatusOK {
		t.Fatalf("replay: expected 200, got %d", second.Code)
	}
	if second.Header().Get(apimiddleware.IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected replay header")
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replayed body differs: %s vs %s", second.Body.String(), first.Body.String())
	}
	if got := testutil.ToFloat64(m.IdempotentReplays); got != 1 {
		t.Fatalf("expected one replay recorded, got %v", got)
	}

	// The same key against another account is a different request.
	other := postTransaction(router, "3", body, "key-1")
	if other.Header().Get(apimiddleware.IdempotencyReplayHeader) != "" {
		t.Fatalf("key must not replay across accounts")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clientes/2/extrato", nil))

	var statement dto.StatementResponse
	if err := json.NewDecoder(rec.Body).Decode(&statement); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if statement.Saldo.Total != -100 || len(statement.UltimasTransacoes) != 1 {
		t.Fatalf("replay must not apply the debit twice: %+v", statement.Saldo)
	}
}

func TestNewRouter_ConcurrentDebitsOverHTTP(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	var wg sync.WaitGroup
	codes := make(chan int, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Account 3 has a limit of 1000000.
			codes <- postTransaction(router, "3", `{"valor": 100000, "tipo": "d", "descricao": "load"}`, "").Code
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for code := range codes {
		counts[code]++
	}
	if counts[http.StatusOK] != 10 || counts[http.StatusUnprocessableEntity] != 40 {
		t.Fatalf("unexpected status distribution: %v", counts)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/consistency", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected consistent ledger, got %d: %s", rec.Code, rec.Body.String())
	}
}

func postTransaction(router http.Handler, id, body, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/clientes/"+id+"/transacoes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(apimiddleware.IdempotencyKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func newRouterConfig(t *testing.T, opts ...func(*RouterConfig)) RouterConfig {
	t.Helper()

	registry, err := domain.ParseAccountRegistry(domain.DefaultAccounts)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	store := memory.NewStore()
	txManager := memory.NewTxManager(store)
	accountRepo := memory.NewAccountRepository(store)
	entryRepo := memory.NewEntryRepository(store)

	accountUC := usecase.NewAccountUseCase(registry, txManager, accountRepo, entryRepo)
	if err := accountUC.Provision(context.Background()); err != nil {
		t.Fatalf("provision: %v", err)
	}

	ledgerUC := usecase.NewLedgerUseCase(registry, txManager, accountRepo, entryRepo,
		postgres.NewNullOutboxRepository(), postgres.NewRetrier(), postgres.NewULIDGenerator())
	statementUC := usecase.NewStatementUseCase(registry, txManager, accountRepo, entryRepo)

	cfg := RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(ledgerUC),
		StatementHandler:   handler.NewStatementHandler(statementUC),
		ConsistencyHandler: handler.NewConsistencyHandler(accountUC),
		HealthHandler:      handler.NewHealthHandler(store, nil),
		Logger:             zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}
