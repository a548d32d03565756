package domain

import (
	"fmt"
	"unicode/utf8"
)

// Validation constants
const (
	MinDescriptionLength = 1
	MaxDescriptionLength = 10
	RecentEntriesLimit   = 10
)

// MaxAmount is the largest amount, in minor units, a single transaction may
// carry (10 billion in major units). The cap keeps every balance and every
// sum of entry totals well inside int64, so a valid credit cannot overflow
// the stored balance in practice.
const MaxAmount = 1_000_000_000_000

// ValidateAmount validates a transaction amount in minor units.
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if amount > MaxAmount {
		return fmt.Errorf("%w: maximum amount is %d", ErrInvalidAmount, int64(MaxAmount))
	}

	return nil
}

// ValidateKind validates the transaction kind and returns it typed.
func ValidateKind(kind string) (Kind, error) {
	switch Kind(kind) {
	case KindCredit, KindDebit:
		return Kind(kind), nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidKind, kind)
	}
}

// ValidateDescription validates the description length, counted in characters.
func ValidateDescription(description string) error {
	n := utf8.RuneCountInString(description)

	if n < MinDescriptionLength {
		return fmt.Errorf("%w: description cannot be empty", ErrInvalidDescription)
	}

	if n > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}

	return nil
}
