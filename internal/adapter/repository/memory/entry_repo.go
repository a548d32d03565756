package memory

import (
	"context"
	"fmt"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Create stages an entry; it becomes visible at commit. The account row must
// already be locked by this transaction, since Commit only applies locked rows.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkWritable(); err != nil {
		return err
	}

	if _, err := r.store.row(entry.AccountID); err != nil {
		return err
	}
	if _, locked := t.locked[entry.AccountID]; !locked {
		return fmt.Errorf("memory: entry for account %d created without row lock", entry.AccountID)
	}

	copied := *entry
	t.entries = append(t.entries, &copied)

	return nil
}

// ListRecent returns up to limit committed entries newest-first.
func (r *EntryRepository) ListRecent(ctx context.Context, tx usecase.Transaction, accountID int64, limit int) ([]*domain.Entry, error) {
	entries, err := r.committed(tx, accountID)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Entry, 0, min(limit, len(entries)))
	for _, entry := range entries {
		result = insertNewestFirst(result, entry, limit)
	}

	return result, nil
}

// Totals sums committed credits and debits of an account.
func (r *EntryRepository) Totals(ctx context.Context, tx usecase.Transaction, accountID int64) (int64, int64, error) {
	entries, err := r.committed(tx, accountID)
	if err != nil {
		return 0, 0, err
	}

	var credits, debits int64
	for _, entry := range entries {
		switch entry.Kind {
		case domain.KindCredit:
			credits += entry.Amount
		case domain.KindDebit:
			debits += entry.Amount
		}
	}

	return credits, debits, nil
}

func (r *EntryRepository) committed(tx usecase.Transaction, accountID int64) ([]*domain.Entry, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkOpen(); err != nil {
		return nil, err
	}

	if row, locked := t.locked[accountID]; locked {
		return row.snapshot().entries, nil
	}

	snap, err := t.snapshot(accountID)
	if err != nil {
		return nil, err
	}

	return snap.entries, nil
}

// insertNewestFirst keeps result sorted newest-first and capped at limit.
func insertNewestFirst(result []*domain.Entry, entry *domain.Entry, limit int) []*domain.Entry {
	if limit <= 0 {
		return result
	}

	pos := len(result)
	for pos > 0 && entry.Newer(result[pos-1]) {
		pos--
	}

	if pos >= limit {
		return result
	}

	if len(result) < limit {
		result = append(result, nil)
	}
	copy(result[pos+1:], result[pos:len(result)-1])
	result[pos] = &domain.Entry{}
	*result[pos] = *entry

	return result
}
