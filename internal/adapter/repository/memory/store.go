// Package memory is an in-process storage backend with the same transactional
// contract as the Postgres adapter: a row lock taken by GetByIDForUpdate is held
// until the transaction commits or rolls back, and writes become visible to
// readers only at commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

var errForeignTransaction = errors.New("memory: transaction was not started by this store")

// Store holds accounts and their entries.
type Store struct {
	mu   sync.RWMutex
	rows map[int64]*row
	seq  atomic.Int64
}

// row is one account with its append-only entries.
type row struct {
	// lock is the exclusive row lock; a channel so waiters can honour ctx.
	lock chan struct{}

	mu      sync.RWMutex
	account domain.Account
	entries []*domain.Entry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{rows: make(map[int64]*row)}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) row(id int64) (*row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrUnknownAccount
	}
	return r, nil
}

func (s *Store) nextSeq() int64 {
	return s.seq.Add(1)
}

func (r *row) acquire(ctx context.Context) error {
	select {
	case r.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *row) release() {
	<-r.lock
}

// snapshot copies the account and a view of its entries under one read lock.
func (r *row) snapshot() rowSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return rowSnapshot{
		account: r.account,
		entries: r.entries[:len(r.entries):len(r.entries)],
	}
}

type rowSnapshot struct {
	account domain.Account
	entries []*domain.Entry
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context, opts usecase.TxOptions) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{
		store:     m.store,
		readOnly:  opts.ReadOnly,
		locked:    make(map[int64]*row),
		snapshots: make(map[int64]rowSnapshot),
		balances:  make(map[int64]pendingBalance),
	}, nil
}

type pendingBalance struct {
	balance   int64
	updatedAt time.Time
}

// Tx is a memory transaction.
type Tx struct {
	mu        sync.Mutex
	store     *Store
	readOnly  bool
	done      bool
	locked    map[int64]*row
	snapshots map[int64]rowSnapshot
	balances  map[int64]pendingBalance
	entries   []*domain.Entry
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, errForeignTransaction
	}
	return t, nil
}

func (t *Tx) checkOpen() error {
	if t.done {
		return errors.New("memory: transaction already closed")
	}
	return nil
}

func (t *Tx) checkWritable() error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.readOnly {
		return errors.New("memory: write in read-only transaction")
	}
	return nil
}

// snapshot returns the first view of id taken by this transaction, so every
// read in the transaction observes the same state.
func (t *Tx) snapshot(id int64) (rowSnapshot, error) {
	if snap, ok := t.snapshots[id]; ok {
		return snap, nil
	}

	r, err := t.store.row(id)
	if err != nil {
		return rowSnapshot{}, err
	}

	snap := r.snapshot()
	t.snapshots[id] = snap
	return snap, nil
}

// Commit applies staged writes atomically per row and releases row locks.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkOpen(); err != nil {
		return err
	}
	t.done = true
	defer t.releaseLocks()

	entriesByAccount := make(map[int64][]*domain.Entry)
	for _, entry := range t.entries {
		entry.Seq = t.store.nextSeq()
		entriesByAccount[entry.AccountID] = append(entriesByAccount[entry.AccountID], entry)
	}

	for id, r := range t.locked {
		pending, changed := t.balances[id]
		appended := entriesByAccount[id]
		if !changed && len(appended) == 0 {
			continue
		}

		r.mu.Lock()
		if changed {
			r.account.Balance = pending.balance
			r.account.Version++
			r.account.UpdatedAt = pending.updatedAt
		}
		r.entries = append(r.entries, appended...)
		r.mu.Unlock()
	}

	return nil
}

// Rollback discards staged writes and releases row locks.
func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}
	t.done = true
	t.releaseLocks()

	return nil
}

func (t *Tx) releaseLocks() {
	for id, r := range t.locked {
		r.release()
		delete(t.locked, id)
	}
	t.balances = nil
	t.entries = nil
}

// Provision inserts missing accounts and syncs credit limits of existing ones.
func (s *Store) Provision(registry domain.AccountRegistry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, id := range registry.IDs() {
		limit, _ := registry.Lookup(id)

		existing, ok := s.rows[id]
		if !ok {
			s.rows[id] = &row{
				lock: make(chan struct{}, 1),
				account: domain.Account{
					ID:          id,
					CreditLimit: limit,
					CreatedAt:   now,
					UpdatedAt:   now,
				},
			}
			continue
		}

		existing.mu.Lock()
		updated := existing.account
		updated.CreditLimit = limit
		if !updated.WithinLimit() {
			existing.mu.Unlock()
			return fmt.Errorf("account %d balance %d violates new credit limit %d", id, updated.Balance, limit)
		}
		existing.account = updated
		existing.mu.Unlock()
	}

	return nil
}
