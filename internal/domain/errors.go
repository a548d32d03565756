package domain

import "errors"

var (
	// Account errors
	ErrUnknownAccount  = errors.New("account not found")
	ErrLimitExceeded   = errors.New("transaction exceeds the account credit limit")
	ErrVersionConflict = errors.New("account version changed concurrently")

	// Transaction input errors
	ErrInvalidAmount      = errors.New("amount must be a positive integer")
	ErrInvalidKind        = errors.New("kind must be credit or debit")
	ErrInvalidDescription = errors.New("description must be between 1 and 10 characters")

	// Infrastructure errors
	ErrConflict = errors.New("transaction aborted after repeated concurrent conflicts")
	ErrStorage  = errors.New("storage unavailable")
)
