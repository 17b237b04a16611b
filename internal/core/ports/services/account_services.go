package services

import (
	"context"

	"github.com/SscSPs/fintrack/internal/core/domain"
)

// AccountSvcFacade exposes read-only views of the owner's accounts, cards and categories.
type AccountSvcFacade interface {
	GetAccount(ctx context.Context, ownerID, accountID int64) (*domain.Account, error)
	ListAccounts(ctx context.Context, ownerID int64) ([]domain.Account, error)
	GetCreditCard(ctx context.Context, ownerID, cardID int64) (*domain.CreditCard, error)
	ListCreditCards(ctx context.Context, ownerID int64) ([]domain.CreditCard, error)
	ListCategories(ctx context.Context, ownerID int64) ([]domain.Category, error)
}
