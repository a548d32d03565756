package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/creditledger/internal/adapter/http"
	"github.com/iho/creditledger/internal/adapter/http/handler"
	"github.com/iho/creditledger/internal/adapter/http/middleware"
	"github.com/iho/creditledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/creditledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/creditledger/internal/adapter/repository/redis"
	"github.com/iho/creditledger/internal/infrastructure/config"
	"github.com/iho/creditledger/internal/infrastructure/eventpublisher"
	"github.com/iho/creditledger/internal/infrastructure/logger"
	"github.com/iho/creditledger/internal/infrastructure/metrics"
	"github.com/iho/creditledger/internal/infrastructure/postgres"
	"github.com/iho/creditledger/internal/infrastructure/redis"
	"github.com/iho/creditledger/internal/usecase"
)

const (
	rateLimitCleanupInterval = time.Minute
	rateLimitMaxIdle         = 10 * time.Minute
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", ":"+cfg.HTTPPort)
	if err != nil {
		appLogger.Fatal().Err(err).Str("port", cfg.HTTPPort).Msg("failed to listen")
	}

	if err := run(ctx, cfg, appLogger, ln); err != nil {
		appLogger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

// run wires the service and serves on ln until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, ln net.Listener) error {
	registry, err := cfg.AccountRegistry()
	if err != nil {
		return err
	}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(reg)

	// Initialize use cases
	opts := []usecase.Option{
		usecase.WithLogger(logger),
		usecase.WithMetrics(appMetrics),
		usecase.WithTransactionTimeout(cfg.TxTimeout),
	}

	accountUC := usecase.NewAccountUseCase(registry, store.txManager, store.accounts, store.entries, opts...)
	if err := accountUC.Provision(ctx); err != nil {
		return fmt.Errorf("failed to provision accounts: %w", err)
	}

	ledgerUC := usecase.NewLedgerUseCase(
		registry,
		store.txManager,
		store.accounts,
		store.entries,
		store.outbox,
		newRetrier(cfg, logger),
		postgresRepo.NewULIDGenerator(),
		opts...,
	)
	statementUC := usecase.NewStatementUseCase(registry, store.txManager, store.accounts, store.entries, opts...)

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	routerCfg := httpAdapter.RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(ledgerUC),
		StatementHandler:   handler.NewStatementHandler(statementUC),
		ConsistencyHandler: handler.NewConsistencyHandler(accountUC),
		HealthHandler:      handler.NewHealthHandler(store.pinger, nil),
		Metrics:            appMetrics,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:             logger,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		TrustedProxies:     trustedProxies,
	}

	// Redis is optional; it only backs idempotency keys.
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClientWithOptions(ctx, cfg.RedisURL, redis.Options{DialTimeout: cfg.DatabaseTimeout})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		logger.Info().Msg("connected to redis")

		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		routerCfg.HealthHandler = handler.NewHealthHandler(store.pinger, redis.NewPinger(redisClient))
	}

	workers, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	if cfg.RateLimitRPS > 0 {
		rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, middleware.WithLimitedHook(appMetrics.RateLimited))
		go rl.RunCleanup(workers, rateLimitCleanupInterval, rateLimitMaxIdle)
		routerCfg.RateLimiter = rl
	}

	if store.relay {
		publisher, closePublisher, err := newPublisher(cfg, logger)
		if err != nil {
			return err
		}
		defer closePublisher()

		relay := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: store.outbox,
			Publisher:  publisher,
			Recorder:   appMetrics,
			Logger:     logger,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  cfg.OutboxRetention,
		})
		go relay.Start(workers)
	}

	server := newHTTPServer(cfg, httpAdapter.NewRouter(routerCfg))

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Int("accounts", registry.Len()).Msg("starting server")
		serveErr <- server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}

// storage bundles the repositories of one storage driver.
type storage struct {
	txManager usecase.TransactionManager
	accounts  usecase.AccountRepository
	entries   usecase.EntryRepository
	outbox    usecase.OutboxRepository
	pinger    handler.Pinger
	// relay reports whether the outbox holds events worth publishing.
	relay bool
	close func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		logger.Warn().Msg("using in-memory storage; data is lost on restart")

		return &storage{
			txManager: memory.NewTxManager(store),
			accounts:  memory.NewAccountRepository(store),
			entries:   memory.NewEntryRepository(store),
			outbox:    postgresRepo.NewNullOutboxRepository(),
			pinger:    store,
			close:     func() {},
		}, nil

	case config.StorageDriverPostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		logger.Info().Msg("connected to postgres")

		return &storage{
			txManager: postgresRepo.NewTxManager(pool),
			accounts:  postgresRepo.NewAccountRepository(pool),
			entries:   postgresRepo.NewEntryRepository(pool),
			outbox:    postgresRepo.NewOutboxRepository(pool),
			pinger:    pool,
			relay:     true,
			close:     pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func newRetrier(cfg *config.Config, logger zerolog.Logger) *postgresRepo.Retrier {
	return postgresRepo.NewRetrier(
		postgresRepo.WithMaxRetries(cfg.TxMaxRetries),
		postgresRepo.WithBackoff(cfg.TxRetryInitialInterval, cfg.TxRetryMaxInterval),
		postgresRepo.WithRetryLogger(logger),
	)
}

// newPublisher picks Kafka when brokers are configured and the log otherwise.
func newPublisher(cfg *config.Config, logger zerolog.Logger) (eventpublisher.Publisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return eventpublisher.NewLogPublisher(logger), func() {}, nil
	}

	kafka, err := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing outbox events to kafka")

	return kafka, func() {
		if err := kafka.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close kafka writer")
		}
	}, nil
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}
