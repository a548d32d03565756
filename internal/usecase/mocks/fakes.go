package mocks

import (
	"context"
	"fmt"
	"sync/atomic"
)

// PassthroughRetrier runs the operation exactly once.
type PassthroughRetrier struct{}

// Retry implements usecase.Retrier.
func (PassthroughRetrier) Retry(ctx context.Context, operation func() error) error {
	return operation()
}

// SequenceIDGenerator returns prefix-1, prefix-2, ... and is safe for concurrent use.
type SequenceIDGenerator struct {
	Prefix string
	next   atomic.Int64
}

// Generate implements usecase.IDGenerator.
func (g *SequenceIDGenerator) Generate() string {
	prefix := g.Prefix
	if prefix == "" {
		prefix = "id"
	}
	return fmt.Sprintf("%s-%d", prefix, g.next.Add(1))
}
