package domain

import "time"

// Kind is the direction of a ledger entry.
type Kind string

const (
	KindCredit Kind = "credit"
	KindDebit  Kind = "debit"
)

// Code returns the single-letter wire code of the kind.
func (k Kind) Code() string {
	switch k {
	case KindCredit:
		return "c"
	case KindDebit:
		return "d"
	default:
		return string(k)
	}
}

// KindFromCode maps a wire code ("c", "d") to a Kind. Unknown codes are returned unchanged
// so that validation reports them.
func KindFromCode(code string) Kind {
	switch code {
	case "c":
		return KindCredit
	case "d":
		return KindDebit
	default:
		return Kind(code)
	}
}

// Entry is an immutable record of one committed balance change.
type Entry struct {
	OccurredAt  time.Time
	ID          string
	Description string
	Kind        Kind
	AccountID   int64
	Amount      int64
	// Seq is the storage insertion sequence, used to break OccurredAt ties.
	Seq int64
}

// Newer reports whether e sorts before other in newest-first order.
func (e *Entry) Newer(other *Entry) bool {
	if !e.OccurredAt.Equal(other.OccurredAt) {
		return e.OccurredAt.After(other.OccurredAt)
	}
	return e.Seq > other.Seq
}
