package dto

import (
	"time"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// TransactionResponse is the account state after an accepted transaction.
type TransactionResponse struct {
	Limite int64 `json:"limite"`
	Saldo  int64 `json:"saldo"`
}

// TransactionFromResult converts a use case result to response.
func TransactionFromResult(r *usecase.ApplyTransactionResult) *TransactionResponse {
	return &TransactionResponse{
		Limite: r.CreditLimit,
		Saldo:  r.Balance,
	}
}

// BalanceResponse is the balance block of a statement.
type BalanceResponse struct {
	Total       int64     `json:"total"`
	DataExtrato time.Time `json:"data_extrato"`
	Limite      int64     `json:"limite"`
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	Valor       int64     `json:"valor"`
	Tipo        string    `json:"tipo"`
	Descricao   string    `json:"descricao"`
	RealizadaEm time.Time `json:"realizada_em"`
}

// StatementResponse is the body of GET /clientes/{id}/extrato.
type StatementResponse struct {
	Saldo             BalanceResponse `json:"saldo"`
	UltimasTransacoes []EntryResponse `json:"ultimas_transacoes"`
}

// StatementFromDomain converts domain statement to response.
func StatementFromDomain(s *domain.Statement) *StatementResponse {
	entries := make([]EntryResponse, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = EntryResponse{
			Valor:       e.Amount,
			Tipo:        e.Kind.Code(),
			Descricao:   e.Description,
			RealizadaEm: e.OccurredAt,
		}
	}

	return &StatementResponse{
		Saldo: BalanceResponse{
			Total:       s.Balance,
			DataExtrato: s.GeneratedAt,
			Limite:      s.CreditLimit,
		},
		UltimasTransacoes: entries,
	}
}

// ConsistencyResponse reports the reconciliation of every known account.
type ConsistencyResponse struct {
	Consistent bool                         `json:"consistent"`
	Accounts   []usecase.AccountConsistency `json:"accounts"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
