package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/creditledger/internal/domain"
)

// Option configures a use case.
type Option func(*options)

type options struct {
	logger    zerolog.Logger
	metrics   MetricsRecorder
	now       func() time.Time
	txTimeout time.Duration
}

func defaultOptions() options {
	return options{
		logger:    zerolog.Nop(),
		metrics:   noopMetrics{},
		now:       time.Now,
		txTimeout: DefaultTransactionTimeout,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for operation events.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics wires a recorder that receives every operation outcome.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(o *options) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithClock overrides the wall clock used for entry and statement timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithTransactionTimeout bounds each storage unit of work.
func WithTransactionTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.txTimeout = d
		}
	}
}

type noopMetrics struct{}

func (noopMetrics) ObserveTransaction(string, string, time.Duration) {}
func (noopMetrics) AddTransactionRetries(int)                         {}
func (noopMetrics) ObserveStatement(string)                           {}

// storageError tags infrastructure failures with domain.ErrStorage, leaving
// domain outcomes untouched.
func storageError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUnknownAccount),
		errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrStorage):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
}

// ResultLabel classifies an operation outcome for metrics.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, domain.ErrUnknownAccount):
		return ResultUnknownAccount
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidDescription):
		return ResultInvalid
	case errors.Is(err, domain.ErrLimitExceeded):
		return ResultLimitExceeded
	case errors.Is(err, domain.ErrConflict):
		return ResultConflict
	default:
		return ResultStorageError
	}
}
