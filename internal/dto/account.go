package dto

import (
	"github.com/SscSPs/fintrack/internal/core/domain"
)

// ListAccountsResponse wraps the owner's accounts.
type ListAccountsResponse struct {
	Accounts []domain.Account `json:"accounts"`
}

// ListCreditCardsResponse wraps the owner's credit cards.
type ListCreditCardsResponse struct {
	CreditCards []domain.CreditCard `json:"creditCards"`
}

// ListCategoriesResponse wraps the owner's categories.
type ListCategoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}
