package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// GetByID reads an account from the transaction snapshot.
func (r *AccountRepository) GetByID(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkOpen(); err != nil {
		return nil, err
	}

	if _, locked := t.locked[id]; locked {
		return t.lockedAccount(id)
	}

	snap, err := t.snapshot(id)
	if err != nil {
		return nil, err
	}

	account := snap.account
	return &account, nil
}

// GetByIDForUpdate acquires the account row lock for the rest of the transaction.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkWritable(); err != nil {
		return nil, err
	}

	if _, locked := t.locked[id]; !locked {
		row, err := r.store.row(id)
		if err != nil {
			return nil, err
		}

		if err := row.acquire(ctx); err != nil {
			return nil, err
		}
		t.locked[id] = row
	}

	return t.lockedAccount(id)
}

// lockedAccount returns the latest committed state of a locked row with this
// transaction's staged balance applied.
func (t *Tx) lockedAccount(id int64) (*domain.Account, error) {
	snap := t.locked[id].snapshot()
	account := snap.account

	if pending, ok := t.balances[id]; ok {
		account.Balance = pending.balance
		account.UpdatedAt = pending.updatedAt
	}

	return &account, nil
}

// UpdateBalance stages a new balance for a locked row.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id, balance, expectedVersion int64, updatedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkWritable(); err != nil {
		return err
	}

	row, locked := t.locked[id]
	if !locked {
		return fmt.Errorf("memory: account %d updated without row lock", id)
	}

	snap := row.snapshot()
	if snap.account.Version != expectedVersion {
		return domain.ErrVersionConflict
	}

	candidate := snap.account
	candidate.Balance = balance
	if !candidate.WithinLimit() {
		return fmt.Errorf("memory: balance %d violates credit limit %d of account %d", balance, candidate.CreditLimit, id)
	}

	t.balances[id] = pendingBalance{balance: balance, updatedAt: updatedAt}

	return nil
}

// Provision inserts missing accounts and syncs credit limits.
func (r *AccountRepository) Provision(ctx context.Context, registry domain.AccountRegistry) error {
	return r.store.Provision(registry)
}
