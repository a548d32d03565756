package usecase

import (
	"context"

	"github.com/iho/creditledger/internal/domain"
)

// StatementUseCase builds balance snapshots with recent entries.
type StatementUseCase struct {
	registry    domain.AccountRegistry
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	opts        options
}

// NewStatementUseCase creates a new StatementUseCase.
func NewStatementUseCase(
	registry domain.AccountRegistry,
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	opts ...Option,
) *StatementUseCase {
	return &StatementUseCase{
		registry:    registry,
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		opts:        applyOptions(opts),
	}
}

// GetStatement returns the current balance, credit limit and the most recent
// entries of an account, all read from one snapshot.
func (uc *StatementUseCase) GetStatement(ctx context.Context, accountID int64) (*domain.Statement, error) {
	statement, err := uc.getStatement(ctx, accountID)

	uc.opts.metrics.ObserveStatement(ResultLabel(err))

	return statement, err
}

func (uc *StatementUseCase) getStatement(ctx context.Context, accountID int64) (*domain.Statement, error) {
	if !uc.registry.Contains(accountID) {
		return nil, domain.ErrUnknownAccount
	}

	ctx, cancel := context.WithTimeout(ctx, uc.opts.txTimeout)
	defer cancel()

	// Snapshot read: no row locks, so mutations are never blocked.
	tx, err := uc.txManager.Begin(ctx, TxOptions{IsoLevel: RepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, storageError(err)
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByID(ctx, tx, accountID)
	if err != nil {
		return nil, storageError(err)
	}

	entries, err := uc.entryRepo.ListRecent(ctx, tx, accountID, domain.RecentEntriesLimit)
	if err != nil {
		return nil, storageError(err)
	}

	generatedAt := uc.opts.now().UTC()

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError(err)
	}

	return &domain.Statement{
		AccountID:   account.ID,
		Balance:     account.Balance,
		CreditLimit: account.CreditLimit,
		GeneratedAt: generatedAt,
		Entries:     entries,
	}, nil
}
