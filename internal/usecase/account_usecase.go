package usecase

import (
	"context"

	"github.com/iho/creditledger/internal/domain"
)

// AccountUseCase handles account provisioning and ledger consistency checks.
type AccountUseCase struct {
	registry    domain.AccountRegistry
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	opts        options
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	registry domain.AccountRegistry,
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	opts ...Option,
) *AccountUseCase {
	return &AccountUseCase{
		registry:    registry,
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		opts:        applyOptions(opts),
	}
}

// Provision makes sure every known account has a storage row carrying its
// configured credit limit. Existing balances are preserved.
func (uc *AccountUseCase) Provision(ctx context.Context) error {
	if err := uc.accountRepo.Provision(ctx, uc.registry); err != nil {
		return storageError(err)
	}

	uc.opts.logger.Info().Int("accounts", uc.registry.Len()).Msg("accounts provisioned")

	return nil
}

// AccountConsistency is the reconciliation result of one account.
type AccountConsistency struct {
	AccountID   int64 `json:"account_id"`
	Balance     int64 `json:"balance"`
	CreditLimit int64 `json:"credit_limit"`
	Credits     int64 `json:"credits"`
	Debits      int64 `json:"debits"`
	WithinLimit bool  `json:"within_limit"`
	Balanced    bool  `json:"balanced"`
}

// Consistent reports whether the account honours both ledger invariants.
func (c AccountConsistency) Consistent() bool {
	return c.WithinLimit && c.Balanced
}

// CheckConsistency verifies, for every known account, that the balance equals
// the sum of its entries and never sits below the negative credit limit.
func (uc *AccountUseCase) CheckConsistency(ctx context.Context) ([]AccountConsistency, bool, error) {
	tx, err := uc.txManager.Begin(ctx, TxOptions{IsoLevel: RepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, false, storageError(err)
	}
	defer tx.Rollback(ctx)

	results := make([]AccountConsistency, 0, uc.registry.Len())
	consistent := true

	for _, id := range uc.registry.IDs() {
		account, err := uc.accountRepo.GetByID(ctx, tx, id)
		if err != nil {
			return nil, false, storageError(err)
		}

		credits, debits, err := uc.entryRepo.Totals(ctx, tx, id)
		if err != nil {
			return nil, false, storageError(err)
		}

		result := AccountConsistency{
			AccountID:   id,
			Balance:     account.Balance,
			CreditLimit: account.CreditLimit,
			Credits:     credits,
			Debits:      debits,
			WithinLimit: account.WithinLimit(),
			Balanced:    account.Balance == credits-debits,
		}

		if !result.Consistent() {
			consistent = false
			uc.opts.logger.Error().
				Int64("account_id", id).
				Int64("balance", account.Balance).
				Int64("credits", credits).
				Int64("debits", debits).
				Int64("credit_limit", account.CreditLimit).
				Msg("account is inconsistent")
		}

		results = append(results, result)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, storageError(err)
	}

	return results, consistent, nil
}
