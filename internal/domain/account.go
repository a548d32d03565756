package domain

import (
	"fmt"
	"math"
	"time"
)

// Account represents a pre-provisioned account with a credit limit.
type Account struct {
	ID          int64
	CreditLimit int64
	Balance     int64
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateDebit checks if account can be debited by amount without crossing the credit limit.
func (a *Account) ValidateDebit(amount int64) error {
	if a.Balance-amount < -a.CreditLimit {
		return fmt.Errorf("%w: balance %d, amount %d, limit %d", ErrLimitExceeded, a.Balance, amount, a.CreditLimit)
	}
	return nil
}

// ValidateCredit checks if account can be credited by amount. It only fails
// when the balance would overflow int64, which MaxAmount makes unreachable
// short of roughly nine million maximal credits.
func (a *Account) ValidateCredit(amount int64) error {
	if a.Balance > math.MaxInt64-amount {
		return fmt.Errorf("%w: balance would overflow", ErrInvalidAmount)
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount int64) int64 {
	return a.Balance - amount
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount int64) int64 {
	return a.Balance + amount
}

// Apply evaluates the admission rule for kind and returns the candidate balance.
func (a *Account) Apply(kind Kind, amount int64) (int64, error) {
	switch kind {
	case KindCredit:
		if err := a.ValidateCredit(amount); err != nil {
			return 0, err
		}
		return a.ApplyCredit(amount), nil
	case KindDebit:
		if err := a.ValidateDebit(amount); err != nil {
			return 0, err
		}
		return a.ApplyDebit(amount), nil
	default:
		return 0, ErrInvalidKind
	}
}

// WithinLimit reports whether the balance honours the credit limit.
func (a *Account) WithinLimit() bool {
	return a.Balance >= -a.CreditLimit
}
