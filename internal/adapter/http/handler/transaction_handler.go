package handler

import (
	"context"
	"net/http"

	"github.com/iho/creditledger/internal/adapter/http/dto"
	"github.com/iho/creditledger/internal/usecase"
)

// maxBodyBytes caps transaction request bodies.
const maxBodyBytes = 1 << 16

// TransactionService applies credits and debits.
type TransactionService interface {
	ApplyTransaction(ctx context.Context, input usecase.ApplyTransactionInput) (*usecase.ApplyTransactionResult, error)
}

// TransactionHandler handles transaction HTTP requests.
type TransactionHandler struct {
	service TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(service TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// Create handles POST /clientes/{id}/transacoes.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	req := dto.DecodeTransactionRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	result, err := h.service.ApplyTransaction(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromResult(result))
}
