package dto

import (
	"time"

	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest defines the data needed to record a ledger transaction.
type CreateTransactionRequest struct {
	Description  string                 `json:"description" binding:"required,max=255"`
	Amount       decimal.Decimal        `json:"amount"`
	Type         domain.TransactionType `json:"type" binding:"required,oneof=income expense transfer"`
	Date         string                 `json:"date" binding:"required,datetime=2006-01-02"`
	CategoryID   *int64                 `json:"categoryId"`
	AccountID    *int64                 `json:"accountId"`
	CreditCardID *int64                 `json:"creditCardId"`
	ToAccountID  *int64                 `json:"toAccountId"` // transfers only
}

// UpdateTransactionRequest is a partial update. Nil fields keep their stored value; the
// Clear* flags unset an optional reference, which is how a type change drops a link.
type UpdateTransactionRequest struct {
	Description  *string                 `json:"description" binding:"omitempty,max=255"`
	Amount       *decimal.Decimal        `json:"amount"`
	Type         *domain.TransactionType `json:"type" binding:"omitempty,oneof=income expense transfer"`
	Date         *string                 `json:"date" binding:"omitempty,datetime=2006-01-02"`
	CategoryID   *int64                  `json:"categoryId"`
	AccountID    *int64                  `json:"accountId"`
	CreditCardID *int64                  `json:"creditCardId"`
	ToAccountID  *int64                  `json:"toAccountId"`

	ClearCategory   bool `json:"clearCategory"`
	ClearAccount    bool `json:"clearAccount"`
	ClearCreditCard bool `json:"clearCreditCard"`
	ClearToAccount  bool `json:"clearToAccount"`
}

// ListTransactionsParams defines query parameters for listing transactions.
type ListTransactionsParams struct {
	Type         string `form:"type" binding:"omitempty,oneof=income expense transfer"`
	AccountID    *int64 `form:"accountId"`
	CreditCardID *int64 `form:"creditCardId"`
	CategoryID   *int64 `form:"categoryId"`
	StartDate    string `form:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate      string `form:"endDate" binding:"omitempty,datetime=2006-01-02"`
	Limit        int    `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken    string `form:"nextToken"`
}

// TransactionResponse defines the data returned for a transaction.
type TransactionResponse struct {
	ID           int64                  `json:"id"`
	Description  string                 `json:"description"`
	Amount       decimal.Decimal        `json:"amount"`
	Type         domain.TransactionType `json:"type"`
	Date         string                 `json:"date"`
	CategoryID   *int64                 `json:"categoryId,omitempty"`
	AccountID    *int64                 `json:"accountId,omitempty"`
	CreditCardID *int64                 `json:"creditCardId,omitempty"`
	ToAccountID  *int64                 `json:"toAccountId,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		Description:  t.Description,
		Amount:       t.Amount,
		Type:         t.Type,
		Date:         t.Date.Format(domain.DateLayout),
		CategoryID:   t.CategoryID,
		AccountID:    t.AccountID,
		CreditCardID: t.CreditCardID,
		ToAccountID:  t.ToAccountID,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// ToTransactionResponses converts a slice of domain.Transaction to []TransactionResponse.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}
