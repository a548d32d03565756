package http

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/creditledger/internal/adapter/http/handler"
	"github.com/iho/creditledger/internal/adapter/http/middleware"
	"github.com/iho/creditledger/internal/usecase"
)

// Recorder receives HTTP-level metrics.
type Recorder interface {
	middleware.HTTPRecorder
	IdempotentReplay()
}

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	TransactionHandler *handler.TransactionHandler
	StatementHandler   *handler.StatementHandler
	ConsistencyHandler *handler.ConsistencyHandler
	HealthHandler      *handler.HealthHandler

	// Optional
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          Recorder
	MetricsHandler   http.Handler
	Logger           zerolog.Logger
	// TrustedProxies lists peers whose forwarding headers name the client.
	TrustedProxies []netip.Prefix
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.TrustedRealIP(cfg.TrustedProxies))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		r.Route("/clientes/{id}", func(r chi.Router) {
			r.Get("/extrato", cfg.StatementHandler.Get)

			r.Group(func(r chi.Router) {
				// Idempotency middleware for mutating requests
				if cfg.IdempotencyStore != nil {
					opts := []middleware.IdempotencyOption{middleware.WithIdempotencyLogger(cfg.Logger)}
					if cfg.Metrics != nil {
						opts = append(opts, middleware.WithReplayHook(cfg.Metrics.IdempotentReplay))
					}
					r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, opts...).Wrap)
				}
				r.Post("/transacoes", cfg.TransactionHandler.Create)
			})
		})

		if cfg.ConsistencyHandler != nil {
			r.Get("/admin/consistency", cfg.ConsistencyHandler.Check)
		}
	})

	return r
}
