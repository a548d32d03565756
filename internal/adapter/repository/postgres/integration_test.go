package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/creditledger/internal/domain"
	infrapg "github.com/iho/creditledger/internal/infrastructure/postgres"
	"github.com/iho/creditledger/internal/usecase"
)

// setupIntegration migrates the database at DATABASE_URL and provisions a
// fresh account registry. Tests are skipped without a database.
func setupIntegration(t *testing.T, accounts string) (*pgxpool.Pool, domain.AccountRegistry) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	require.NoError(t, infrapg.RunMigrations(databaseURL, "", zerolog.Nop()))

	ctx := context.Background()
	pool, err := infrapg.NewPool(ctx, databaseURL, 20, 1)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, "TRUNCATE outbox_events, entries, accounts")
	require.NoError(t, err)

	registry, err := domain.ParseAccountRegistry(accounts)
	require.NoError(t, err)
	require.NoError(t, NewAccountRepository(pool).Provision(ctx, registry))

	return pool, registry
}

func newIntegrationUseCases(pool *pgxpool.Pool, registry domain.AccountRegistry) (*usecase.LedgerUseCase, *usecase.StatementUseCase, *usecase.AccountUseCase) {
	txManager := NewTxManager(pool)
	accounts := NewAccountRepository(pool)
	entries := NewEntryRepository(pool)

	ledger := usecase.NewLedgerUseCase(registry, txManager, accounts, entries, NewOutboxRepository(pool), NewRetrier(WithMaxRetries(10)), NewULIDGenerator())
	statements := usecase.NewStatementUseCase(registry, txManager, accounts, entries)
	accountUC := usecase.NewAccountUseCase(registry, txManager, accounts, entries)

	return ledger, statements, accountUC
}

func TestIntegrationConcurrentDebitsHonourLimit(t *testing.T) {
	pool, registry := setupIntegration(t, "1:1000")
	ledger, statements, accountUC := newIntegrationUseCases(pool, registry)
	ctx := context.Background()

	const workers = 50
	var succeeded, rejected atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := ledger.ApplyTransaction(ctx, usecase.ApplyTransactionInput{
				AccountID: 1, Amount: 100, Kind: "debit", Description: "load",
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrLimitExceeded):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), succeeded.Load())
	assert.Equal(t, int64(workers-10), rejected.Load())

	statement, err := statements.GetStatement(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(-1000), statement.Balance)
	assert.Len(t, statement.Entries, domain.RecentEntriesLimit)

	results, consistent, err := accountUC.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, consistent, "%+v", results)

	var outbox int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM outbox_events").Scan(&outbox))
	assert.Equal(t, 10, outbox)
}

func TestIntegrationProvisionKeepsBalances(t *testing.T) {
	pool, registry := setupIntegration(t, "1:1000")
	ledger, statements, _ := newIntegrationUseCases(pool, registry)
	ctx := context.Background()

	_, err := ledger.ApplyTransaction(ctx, usecase.ApplyTransactionInput{AccountID: 1, Amount: 700, Kind: "debit", Description: "rent"})
	require.NoError(t, err)

	require.NoError(t, NewAccountRepository(pool).Provision(ctx, registry))

	statement, err := statements.GetStatement(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(-700), statement.Balance)

	lowered, err := domain.ParseAccountRegistry("1:500")
	require.NoError(t, err)
	assert.Error(t, NewAccountRepository(pool).Provision(ctx, lowered))
}

func TestIntegrationMigrationsRoundTrip(t *testing.T) {
	pool, _ := setupIntegration(t, "1:10")
	databaseURL := os.Getenv("DATABASE_URL")
	ctx := context.Background()

	require.NoError(t, infrapg.RunMigrationsDown(databaseURL, "", zerolog.Nop()))

	var exists bool
	require.NoError(t, pool.QueryRow(ctx, "SELECT to_regclass('public.accounts') IS NOT NULL").Scan(&exists))
	assert.False(t, exists, "down migration should drop the accounts table")

	require.NoError(t, infrapg.RunMigrations(databaseURL, "", zerolog.Nop()))
	require.NoError(t, pool.QueryRow(ctx, "SELECT to_regclass('public.accounts') IS NOT NULL").Scan(&exists))
	assert.True(t, exists)
}
