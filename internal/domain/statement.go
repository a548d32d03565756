package domain

import "time"

// Statement is a consistent snapshot of an account balance and its most recent entries.
type Statement struct {
	GeneratedAt time.Time
	Entries     []*Entry
	AccountID   int64
	Balance     int64
	CreditLimit int64
}
