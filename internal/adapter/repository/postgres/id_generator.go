package postgres

import (
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates lexically sortable entry and event IDs.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate returns a new ULID. ulid.Make is safe for concurrent use and
// monotonic within the same millisecond.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
