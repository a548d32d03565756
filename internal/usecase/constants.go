package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a single storage unit of work so a stuck
	// connection cannot hold an account row lock indefinitely.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPendingMarker is the stored value of a key whose first request is still running.
	IdempotencyPendingMarker = "processing"
)

// Result labels reported to MetricsRecorder.
const (
	ResultOK             = "ok"
	ResultUnknownAccount = "unknown_account"
	ResultInvalid        = "invalid"
	ResultLimitExceeded  = "limit_exceeded"
	ResultConflict       = "conflict"
	ResultStorageError   = "storage_error"
)
