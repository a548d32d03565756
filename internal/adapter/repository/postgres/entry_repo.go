package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/infrastructure/postgres/generated"
	"github.com/iho/creditledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool pgxPool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create appends an entry and records its insertion sequence on entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	seq, err := queries.CreateEntry(ctx, generated.CreateEntryParams{
		ID:          entry.ID,
		AccountID:   entry.AccountID,
		Amount:      entry.Amount,
		Kind:        entry.Kind.Code(),
		Description: entry.Description,
		OccurredAt:  timeToPgTimestamptz(entry.OccurredAt),
	})
	if err != nil {
		return err
	}

	entry.Seq = seq

	return nil
}

// ListRecent returns up to limit entries newest-first.
func (r *EntryRepository) ListRecent(ctx context.Context, tx usecase.Transaction, accountID int64, limit int) ([]*domain.Entry, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	rows, err := queries.ListRecentEntries(ctx, generated.ListRecentEntriesParams{
		AccountID: accountID,
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries, nil
}

// Totals sums the credits and debits of an account.
func (r *EntryRepository) Totals(ctx context.Context, tx usecase.Transaction, accountID int64) (int64, int64, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return 0, 0, err
	}

	row, err := queries.GetAccountTotals(ctx, accountID)
	if err != nil {
		return 0, 0, err
	}

	return row.Credits, row.Debits, nil
}

func rowToEntry(row generated.Entry) *domain.Entry {
	return &domain.Entry{
		Seq:         row.Seq,
		ID:          row.ID,
		AccountID:   row.AccountID,
		Amount:      row.Amount,
		Kind:        domain.KindFromCode(row.Kind),
		Description: row.Description,
		OccurredAt:  row.OccurredAt.Time,
	}
}
