package domain

import (
	"strconv"
	"time"
)

// Event types
const (
	EventTypeTransactionPosted = "transaction.posted"
)

// Aggregate types
const (
	AggregateTypeAccount = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewTransactionPostedEvent builds the outbox event for a committed entry.
func NewTransactionPostedEvent(id string, entry *Entry, balance, creditLimit int64) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   strconv.FormatInt(entry.AccountID, 10),
		AggregateType: AggregateTypeAccount,
		EventType:     EventTypeTransactionPosted,
		Payload: map[string]any{
			"entry_id":     entry.ID,
			"account_id":   entry.AccountID,
			"amount":       entry.Amount,
			"kind":         string(entry.Kind),
			"description":  entry.Description,
			"balance":      balance,
			"credit_limit": creditLimit,
			"occurred_at":  entry.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
		CreatedAt: entry.OccurredAt,
	}
}
