package handler

import (
	"context"
	"net/http"

	"github.com/iho/creditledger/internal/adapter/http/dto"
	"github.com/iho/creditledger/internal/usecase"
)

// ConsistencyService reconciles balances against entries.
type ConsistencyService interface {
	CheckConsistency(ctx context.Context) ([]usecase.AccountConsistency, bool, error)
}

// ConsistencyHandler exposes the ledger consistency check.
type ConsistencyHandler struct {
	service ConsistencyService
}

// NewConsistencyHandler creates a new ConsistencyHandler.
func NewConsistencyHandler(service ConsistencyService) *ConsistencyHandler {
	return &ConsistencyHandler{service: service}
}

// Check returns 200 when every account is consistent and 409 otherwise.
func (h *ConsistencyHandler) Check(w http.ResponseWriter, r *http.Request) {
	accounts, consistent, err := h.service.CheckConsistency(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	if !consistent {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ConsistencyResponse{
		Consistent: consistent,
		Accounts:   accounts,
	})
}
