package usecase

import (
	"context"
	"errors"

	"github.com/iho/creditledger/internal/domain"
)

// LedgerUseCase applies credits and debits to known accounts.
type LedgerUseCase struct {
	registry    domain.AccountRegistry
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	retrier     Retrier
	idGen       IDGenerator
	opts        options
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	registry domain.AccountRegistry,
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	retrier Retrier,
	idGen IDGenerator,
	opts ...Option,
) *LedgerUseCase {
	return &LedgerUseCase{
		registry:    registry,
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		retrier:     retrier,
		idGen:       idGen,
		opts:        applyOptions(opts),
	}
}

// ApplyTransactionInput represents input for applying a transaction.
type ApplyTransactionInput struct {
	Kind        string
	Description string
	AccountID   int64
	Amount      int64
}

// ApplyTransactionResult is the account state after a committed transaction.
type ApplyTransactionResult struct {
	Entry       *domain.Entry
	Balance     int64
	CreditLimit int64
}

// ApplyTransaction validates input, enforces the credit limit and atomically
// persists the new balance together with a ledger entry.
func (uc *LedgerUseCase) ApplyTransaction(ctx context.Context, input ApplyTransactionInput) (*ApplyTransactionResult, error) {
	start := uc.opts.now()

	result, err := uc.applyTransaction(ctx, input)

	uc.opts.metrics.ObserveTransaction(kindLabel(input.Kind), ResultLabel(err), uc.opts.now().Sub(start))

	return result, err
}

func (uc *LedgerUseCase) applyTransaction(ctx context.Context, input ApplyTransactionInput) (*ApplyTransactionResult, error) {
	// 0. Validate inputs before starting transaction; account membership first.
	if !uc.registry.Contains(input.AccountID) {
		return nil, domain.ErrUnknownAccount
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	kind, err := domain.ValidateKind(input.Kind)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	// 1. Run the read-check-write unit, retrying on transient conflicts
	var result *ApplyTransactionResult
	attempts := 0

	err = uc.retrier.Retry(ctx, func() error {
		attempts++

		var postErr error
		result, postErr = uc.post(ctx, input.AccountID, kind, input.Amount, input.Description)
		return postErr
	})

	if attempts > 1 {
		uc.opts.metrics.AddTransactionRetries(attempts - 1)
	}

	if err != nil {
		uc.logFailure(input, kind, attempts, err)
		return nil, err
	}

	uc.opts.logger.Debug().
		Int64("account_id", input.AccountID).
		Str("kind", string(kind)).
		Int64("amount", input.Amount).
		Int64("balance", result.Balance).
		Str("entry_id", result.Entry.ID).
		Msg("transaction applied")

	return result, nil
}

// post executes one attempt: lock the account row, evaluate the admission
// rule, write the balance, append the entry and the outbox event, commit.
func (uc *LedgerUseCase) post(ctx context.Context, accountID int64, kind domain.Kind, amount int64, description string) (*ApplyTransactionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.opts.txTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx, TxOptions{IsoLevel: ReadCommitted})
	if err != nil {
		return nil, storageError(err)
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, storageError(err)
	}

	newBalance, err := account.Apply(kind, amount)
	if err != nil {
		return nil, err
	}

	now := uc.opts.now().UTC()

	err = uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version, now)
	if err != nil {
		return nil, storageError(err)
	}

	entry := &domain.Entry{
		ID:          uc.idGen.Generate(),
		AccountID:   account.ID,
		Amount:      amount,
		Kind:        kind,
		Description: description,
		OccurredAt:  now,
	}

	err = uc.entryRepo.Create(ctx, tx, entry)
	if err != nil {
		return nil, storageError(err)
	}

	event := domain.NewTransactionPostedEvent(uc.idGen.Generate(), entry, newBalance, account.CreditLimit)

	err = uc.outboxRepo.Create(ctx, tx, event)
	if err != nil {
		return nil, storageError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError(err)
	}

	return &ApplyTransactionResult{
		Entry:       entry,
		Balance:     newBalance,
		CreditLimit: account.CreditLimit,
	}, nil
}

func (uc *LedgerUseCase) logFailure(input ApplyTransactionInput, kind domain.Kind, attempts int, err error) {
	switch {
	case errors.Is(err, domain.ErrLimitExceeded):
		uc.opts.logger.Info().
			Int64("account_id", input.AccountID).
			Int64("amount", input.Amount).
			Msg("debit rejected: credit limit exceeded")
	case errors.Is(err, domain.ErrUnknownAccount):
		uc.opts.logger.Warn().
			Int64("account_id", input.AccountID).
			Msg("known account has no storage row")
	default:
		uc.opts.logger.Error().
			Err(err).
			Int64("account_id", input.AccountID).
			Str("kind", string(kind)).
			Int("attempts", attempts).
			Msg("transaction failed")
	}
}

func kindLabel(kind string) string {
	switch domain.Kind(kind) {
	case domain.KindCredit, domain.KindDebit:
		return kind
	default:
		return "unknown"
	}
}
