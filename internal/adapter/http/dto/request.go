package dto

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// TransactionRequest is the body of POST /clientes/{id}/transacoes.
type TransactionRequest struct {
	Valor     json.RawMessage `json:"valor"`
	Tipo      string          `json:"tipo"`
	Descricao string          `json:"descricao"`
}

// DecodeTransactionRequest reads a transaction body. A body that is not a JSON
// object yields the zero request, which fails amount validation downstream
// after the account has been checked.
func DecodeTransactionRequest(body io.Reader) TransactionRequest {
	var req TransactionRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return TransactionRequest{}
	}
	return req
}

// ToUseCaseInput converts to use case input.
func (r *TransactionRequest) ToUseCaseInput(accountID int64) usecase.ApplyTransactionInput {
	return usecase.ApplyTransactionInput{
		AccountID:   accountID,
		Amount:      parseAmount(r.Valor),
		Kind:        string(domain.KindFromCode(r.Tipo)),
		Description: r.Descricao,
	}
}

// parseAmount accepts only a bare JSON integer. Anything else (fractions,
// strings, null, out of range) maps to 0 so validation reports InvalidAmount.
func parseAmount(raw json.RawMessage) int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}

	amount, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return amount
}
