package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/fintrack/internal/core/domain"
	portsrepo "github.com/SscSPs/fintrack/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
)

// accountService implements the AccountSvcFacade interface. Balances and bills are only
// ever changed by the transaction service; this one reads them.
type accountService struct {
	BaseService
	accountRepo  portsrepo.AccountReader
	cardRepo     portsrepo.CreditCardReader
	categoryRepo portsrepo.CategoryRepositoryFacade
}

// NewAccountService creates a new account service
func NewAccountService(repos portsrepo.RepositoryProvider, opts ...ServiceOption) portssvc.AccountSvcFacade {
	return &accountService{
		BaseService:  newBaseService(opts...),
		accountRepo:  repos.AccountRepo,
		cardRepo:     repos.CreditCardRepo,
		categoryRepo: repos.CategoryRepo,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) GetAccount(ctx context.Context, ownerID, accountID int64) (*domain.Account, error) {
	acc, err := s.accountRepo.FindAccountByID(ctx, ownerID, accountID)
	if err != nil {
		s.LogDebug(ctx, "Account lookup failed", slog.Int64("account_id", accountID), slog.String("error", err.Error()))
		return nil, err
	}
	return acc, nil
}

func (s *accountService) ListAccounts(ctx context.Context, ownerID int64) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, ownerID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, err
	}
	return accounts, nil
}

func (s *accountService) GetCreditCard(ctx context.Context, ownerID, cardID int64) (*domain.CreditCard, error) {
	return s.cardRepo.FindCreditCardByID(ctx, ownerID, cardID)
}

func (s *accountService) ListCreditCards(ctx context.Context, ownerID int64) ([]domain.CreditCard, error) {
	cards, err := s.cardRepo.ListCreditCards(ctx, ownerID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list credit cards")
		return nil, err
	}
	return cards, nil
}

func (s *accountService) ListCategories(ctx context.Context, ownerID int64) ([]domain.Category, error) {
	cats, err := s.categoryRepo.ListCategories(ctx, ownerID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list categories")
		return nil, err
	}
	return cats, nil
}
