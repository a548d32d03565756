package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/creditledger/internal/infrastructure/postgres/generated"
	"github.com/iho/creditledger/internal/usecase"
)

var errForeignTransaction = errors.New("postgres: transaction was not started by this adapter")

// pgxPool is the subset of *pgxpool.Pool used by the adapter.
type pgxPool interface {
	generated.DBTX
	BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	pool pgxPool
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool)
}

func newTxManagerWithPool(pool pgxPool) *TxManager {
	return &TxManager{pool: pool}
}

// Begin starts a new transaction with the requested isolation and access mode.
func (m *TxManager) Begin(ctx context.Context, opts usecase.TxOptions) (usecase.Transaction, error) {
	tx, err := m.pool.BeginTx(ctx, pgxTxOptions(opts))
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx}, nil
}

func pgxTxOptions(opts usecase.TxOptions) pgx.TxOptions {
	var txOpts pgx.TxOptions

	switch opts.IsoLevel {
	case usecase.ReadCommitted:
		txOpts.IsoLevel = pgx.ReadCommitted
	case usecase.RepeatableRead:
		txOpts.IsoLevel = pgx.RepeatableRead
	case usecase.Serializable:
		txOpts.IsoLevel = pgx.Serializable
	}

	if opts.ReadOnly {
		txOpts.AccessMode = pgx.ReadOnly
	}

	return txOpts
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback rolls back the transaction. Rolling back a finished transaction is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}

func queriesFor(tx usecase.Transaction) (*generated.Queries, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, errForeignTransaction
	}
	return generated.New(t.tx), nil
}
