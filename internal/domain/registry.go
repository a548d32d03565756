package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DefaultAccounts is the account table provisioned when none is configured.
const DefaultAccounts = "1:100000,2:80000,3:1000000,4:10000000,5:500000"

// AccountRegistry is the fixed set of known accounts and their credit limits.
// It is immutable once built and safe for concurrent use.
type AccountRegistry struct {
	limits map[int64]int64
	ids    []int64
}

// NewAccountRegistry builds a registry from an id -> credit limit mapping.
func NewAccountRegistry(limits map[int64]int64) (AccountRegistry, error) {
	if len(limits) == 0 {
		return AccountRegistry{}, fmt.Errorf("account registry is empty")
	}

	copied := make(map[int64]int64, len(limits))
	ids := make([]int64, 0, len(limits))
	for id, limit := range limits {
		if id <= 0 {
			return AccountRegistry{}, fmt.Errorf("invalid account id %d: must be positive", id)
		}
		if limit < 0 {
			return AccountRegistry{}, fmt.Errorf("invalid credit limit %d for account %d: must be non-negative", limit, id)
		}
		copied[id] = limit
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return AccountRegistry{limits: copied, ids: ids}, nil
}

// ParseAccountRegistry parses "id:limit" pairs separated by commas.
func ParseAccountRegistry(s string) (AccountRegistry, error) {
	limits := make(map[int64]int64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		rawID, rawLimit, ok := strings.Cut(pair, ":")
		if !ok {
			return AccountRegistry{}, fmt.Errorf("invalid account pair %q: expected id:limit", pair)
		}

		id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
		if err != nil {
			return AccountRegistry{}, fmt.Errorf("invalid account id %q: %w", rawID, err)
		}
		limit, err := strconv.ParseInt(strings.TrimSpace(rawLimit), 10, 64)
		if err != nil {
			return AccountRegistry{}, fmt.Errorf("invalid credit limit %q: %w", rawLimit, err)
		}

		if _, dup := limits[id]; dup {
			return AccountRegistry{}, fmt.Errorf("duplicate account id %d", id)
		}
		limits[id] = limit
	}

	return NewAccountRegistry(limits)
}

// Lookup returns the credit limit for id and whether the account is known.
func (r AccountRegistry) Lookup(id int64) (int64, bool) {
	limit, ok := r.limits[id]
	return limit, ok
}

// Contains reports whether id is a known account.
func (r AccountRegistry) Contains(id int64) bool {
	_, ok := r.limits[id]
	return ok
}

// IDs returns the known account ids in ascending order.
func (r AccountRegistry) IDs() []int64 {
	return slices.Clone(r.ids)
}

// Len returns the number of known accounts.
func (r AccountRegistry) Len() int {
	return len(r.ids)
}
