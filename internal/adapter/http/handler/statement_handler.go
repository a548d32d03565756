package handler

import (
	"context"
	"net/http"

	"github.com/iho/creditledger/internal/adapter/http/dto"
	"github.com/iho/creditledger/internal/domain"
)

// StatementService reads account statements.
type StatementService interface {
	GetStatement(ctx context.Context, accountID int64) (*domain.Statement, error)
}

// StatementHandler handles statement HTTP requests.
type StatementHandler struct {
	service StatementService
}

// NewStatementHandler creates a new StatementHandler.
func NewStatementHandler(service StatementService) *StatementHandler {
	return &StatementHandler{service: service}
}

// Get handles GET /clientes/{id}/extrato.
func (h *StatementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	statement, err := h.service.GetStatement(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StatementFromDomain(statement))
}
