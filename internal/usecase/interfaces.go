package usecase

import (
	"context"
	"time"

	"github.com/iho/creditledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, tx Transaction, id int64) (*domain.Account, error)
	// GetByIDForUpdate reads the account row and holds it exclusively until tx ends.
	GetByIDForUpdate(ctx context.Context, tx Transaction, id int64) (*domain.Account, error)
	// UpdateBalance writes balance only if the row is still at expectedVersion,
	// returning domain.ErrVersionConflict otherwise.
	UpdateBalance(ctx context.Context, tx Transaction, id, balance, expectedVersion int64, updatedAt time.Time) error
	Provision(ctx context.Context, registry domain.AccountRegistry) error
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	// ListRecent returns up to limit entries newest-first.
	ListRecent(ctx context.Context, tx Transaction, accountID int64, limit int) ([]*domain.Entry, error)
	// Totals returns the summed credit and debit amounts of an account.
	Totals(ctx context.Context, tx Transaction, accountID int64) (credits, debits int64, err error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// IsolationLevel is the transaction isolation requested from storage.
type IsolationLevel string

const (
	ReadCommitted  IsolationLevel = "read committed"
	RepeatableRead IsolationLevel = "repeatable read"
	Serializable   IsolationLevel = "serializable"
)

// TxOptions configures a storage transaction.
type TxOptions struct {
	IsoLevel IsolationLevel
	ReadOnly bool
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context, opts TxOptions) (Transaction, error)
}

// Retrier re-runs operation while it fails with a transient conflict.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// MetricsRecorder receives ledger operation measurements.
type MetricsRecorder interface {
	ObserveTransaction(kind, result string, duration time.Duration)
	AddTransactionRetries(n int)
	ObserveStatement(result string)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release removes a key whose request did not succeed.
	Release(ctx context.Context, key string) error
}
