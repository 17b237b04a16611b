package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/fintrack/internal/apperrors"
	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/SscSPs/fintrack/internal/core/ledger"
	portsrepo "github.com/SscSPs/fintrack/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
	"github.com/SscSPs/fintrack/internal/dto"
	"github.com/SscSPs/fintrack/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
)

const maxPageSize = 100

// transactionService keeps account balances and card bills consistent with the stored
// transactions. Every write runs in one database transaction that locks the rows it touches.
type transactionService struct {
	BaseService
	txManager    portsrepo.TransactionManager
	txRepo       portsrepo.TransactionRepositoryFacade
	accountRepo  portsrepo.AccountRepositoryFacade
	cardRepo     portsrepo.CreditCardRepositoryFacade
	categoryRepo portsrepo.CategoryRepositoryFacade
}

// NewTransactionService creates the transaction lifecycle service.
func NewTransactionService(repos portsrepo.RepositoryProvider, opts ...ServiceOption) portssvc.TransactionSvcFacade {
	return &transactionService{
		BaseService:  newBaseService(opts...),
		txManager:    repos.TxManager,
		txRepo:       repos.TransactionRepo,
		accountRepo:  repos.AccountRepo,
		cardRepo:     repos.CreditCardRepo,
		categoryRepo: repos.CategoryRepo,
	}
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

func (s *transactionService) CreateTransaction(ctx context.Context, ownerID int64, req dto.CreateTransactionRequest) (*domain.Transaction, error) {
	var created *domain.Transaction
	err := s.WithTransaction(ctx, s.txManager, func(tx pgx.Tx) error {
		t, err := s.CreateTransactionInTx(ctx, tx, ownerID, req)
		created = t
		return err
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Transaction created",
		slog.Int64("transaction_id", created.ID),
		slog.String("type", string(created.Type)),
		slog.String("amount", created.Amount.String()))
	return created, nil
}

// CreateTransactionInTx validates req, locks the referenced accounts and card, inserts the
// row and applies its ledger effect, all inside tx.
func (s *transactionService) CreateTransactionInTx(ctx context.Context, tx pgx.Tx, ownerID int64, req dto.CreateTransactionRequest) (*domain.Transaction, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	t := domain.Transaction{
		OwnerID:      ownerID,
		Description:  strings.TrimSpace(req.Description),
		Amount:       req.Amount,
		Type:         req.Type,
		Date:         date,
		CategoryID:   req.CategoryID,
		AccountID:    req.AccountID,
		CreditCardID: req.CreditCardID,
		ToAccountID:  req.ToAccountID,
		AuditFields:  domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	delta, err := ledger.Apply(ledger.FromTransaction(t))
	if err != nil {
		return nil, err
	}
	if err := s.checkAndLock(ctx, tx, ownerID, ledger.NewDelta(), t); err != nil {
		return nil, err
	}
	if err := s.txRepo.InsertTransactionInTx(ctx, tx, &t); err != nil {
		s.LogError(ctx, err, "Failed to insert transaction")
		return nil, err
	}
	if err := s.persistDelta(ctx, tx, delta, now); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *transactionService) UpdateTransaction(ctx context.Context, ownerID, transactionID int64, req dto.UpdateTransactionRequest) (*domain.Transaction, error) {
	var updated *domain.Transaction
	err := s.WithTransaction(ctx, s.txManager, func(tx pgx.Tx) error {
		old, err := s.txRepo.FindTransactionForUpdate(ctx, tx, ownerID, transactionID)
		if err != nil {
			return err
		}

		next, err := mergeTransaction(*old, req)
		if err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}
		now := s.Now()
		next.UpdatedAt = now

		reverse, err := ledger.Reverse(ledger.FromTransaction(*old))
		if err != nil {
			return err
		}
		apply, err := ledger.Apply(ledger.FromTransaction(next))
		if err != nil {
			return err
		}
		delta := reverse.Add(apply)

		if err := s.checkAndLock(ctx, tx, ownerID, reverse, next, *old); err != nil {
			return err
		}
		if err := s.txRepo.UpdateTransactionInTx(ctx, tx, &next); err != nil {
			return err
		}
		if err := s.persistDelta(ctx, tx, delta, now); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Transaction updated", slog.Int64("transaction_id", transactionID))
	return updated, nil
}

func (s *transactionService) DeleteTransaction(ctx context.Context, ownerID, transactionID int64) error {
	err := s.WithTransaction(ctx, s.txManager, func(tx pgx.Tx) error {
		old, err := s.txRepo.FindTransactionForUpdate(ctx, tx, ownerID, transactionID)
		if err != nil {
			return err
		}
		delta, err := ledger.Reverse(ledger.FromTransaction(*old))
		if err != nil {
			return err
		}
		if _, _, err := s.lockRefs(ctx, tx, ownerID, *old); err != nil {
			return err
		}
		if err := s.txRepo.DeleteTransactionInTx(ctx, tx, ownerID, transactionID); err != nil {
			return err
		}
		return s.persistDelta(ctx, tx, delta, s.Now())
	})
	if err != nil {
		return err
	}

	s.LogInfo(ctx, "Transaction deleted", slog.Int64("transaction_id", transactionID))
	return nil
}

func (s *transactionService) GetTransaction(ctx context.Context, ownerID, transactionID int64) (*domain.Transaction, error) {
	return s.txRepo.FindTransactionByID(ctx, ownerID, transactionID)
}

// ListTransactions returns a page ordered by date then id, newest first.
func (s *transactionService) ListTransactions(ctx context.Context, ownerID int64, params dto.ListTransactionsParams) ([]domain.Transaction, *string, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := domain.TransactionFilter{
		AccountID:    params.AccountID,
		CreditCardID: params.CreditCardID,
		CategoryID:   params.CategoryID,
	}
	if params.Type != "" {
		t := domain.TransactionType(params.Type)
		if !t.Valid() {
			return nil, nil, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, params.Type)
		}
		filter.Type = &t
	}
	var err error
	if filter.StartDate, err = parseOptionalDate(params.StartDate); err != nil {
		return nil, nil, err
	}
	if filter.EndDate, err = parseOptionalDate(params.EndDate); err != nil {
		return nil, nil, err
	}
	if params.NextToken != "" {
		date, id, err := pagination.DecodeToken(params.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		filter.After = &domain.TransactionCursor{Date: date, ID: id}
	}

	txns, err := s.txRepo.ListTransactions(ctx, ownerID, filter, limit+1)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions")
		return nil, nil, err
	}

	var next *string
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[limit-1]
		token := pagination.EncodeToken(last.Date, last.ID)
		next = &token
	}
	return txns, next, nil
}

// checkAndLock locks every account and card referenced by the given transactions and checks
// ownership and category rules for the first one. The account t debits must hold t's amount
// once prior is undone; accounts t only credits are never checked, so lowering an income that
// was already spent is allowed, as deleting it is.
func (s *transactionService) checkAndLock(ctx context.Context, tx pgx.Tx, ownerID int64, prior ledger.Delta, t domain.Transaction, others ...domain.Transaction) error {
	accounts, _, err := s.lockRefs(ctx, tx, ownerID, append([]domain.Transaction{t}, others...)...)
	if err != nil {
		return err
	}

	if t.CategoryID != nil {
		cat, err := s.categoryRepo.FindCategoryByID(ctx, ownerID, *t.CategoryID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: category %d", apperrors.ErrNotFound, *t.CategoryID)
			}
			return err
		}
		if !cat.Accepts(t.Type) {
			return fmt.Errorf("%w: category %q (%s) cannot be used for %s transactions",
				apperrors.ErrValidation, cat.Name, cat.Type, t.Type)
		}
	}

	if src := t.DebitedAccountID(); src != nil {
		acc := accounts[*src]
		available := acc.Balance.Add(prior.Accounts[*src])
		if available.LessThan(t.Amount) {
			return fmt.Errorf("%w: account %q has %s, needs %s",
				apperrors.ErrInsufficientFunds, acc.Name, available.StringFixed(2), t.Amount.StringFixed(2))
		}
	}
	return nil
}

// lockRefs locks the accounts then the cards referenced by txns, in ascending id order.
// Any reference the owner does not have is ErrNotFound.
func (s *transactionService) lockRefs(ctx context.Context, tx pgx.Tx, ownerID int64, txns ...domain.Transaction) (map[int64]domain.Account, map[int64]domain.CreditCard, error) {
	var accountIDs, cardIDs []int64
	for _, t := range txns {
		accountIDs = append(accountIDs, t.AccountIDs()...)
		if t.CreditCardID != nil {
			cardIDs = append(cardIDs, *t.CreditCardID)
		}
	}
	accountIDs, cardIDs = uniqueSorted(accountIDs), uniqueSorted(cardIDs)

	accounts, err := s.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, ownerID, accountIDs)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range accountIDs {
		if _, ok := accounts[id]; !ok {
			return nil, nil, fmt.Errorf("%w: account %d", apperrors.ErrNotFound, id)
		}
	}

	cards, err := s.cardRepo.FindCreditCardsByIDsForUpdate(ctx, tx, ownerID, cardIDs)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range cardIDs {
		if _, ok := cards[id]; !ok {
			return nil, nil, fmt.Errorf("%w: credit card %d", apperrors.ErrNotFound, id)
		}
	}
	return accounts, cards, nil
}

func (s *transactionService) persistDelta(ctx context.Context, tx pgx.Tx, delta ledger.Delta, now time.Time) error {
	if err := s.accountRepo.UpdateAccountBalancesInTx(ctx, tx, delta.Accounts, now); err != nil {
		s.LogError(ctx, err, "Failed to update account balances")
		return err
	}
	if err := s.cardRepo.UpdateCreditCardBillsInTx(ctx, tx, delta.CreditCards, now); err != nil {
		s.LogError(ctx, err, "Failed to update credit card bills")
		return err
	}
	return nil
}

// mergeTransaction overlays req on old. Clear flags win over values for the same field.
func mergeTransaction(old domain.Transaction, req dto.UpdateTransactionRequest) (domain.Transaction, error) {
	next := old
	if req.Description != nil {
		next.Description = strings.TrimSpace(*req.Description)
	}
	if req.Amount != nil {
		next.Amount = *req.Amount
	}
	if req.Type != nil {
		next.Type = *req.Type
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return domain.Transaction{}, err
		}
		next.Date = date
	}

	next.CategoryID = pick(next.CategoryID, req.CategoryID, req.ClearCategory)
	next.AccountID = pick(next.AccountID, req.AccountID, req.ClearAccount)
	next.CreditCardID = pick(next.CreditCardID, req.CreditCardID, req.ClearCreditCard)
	next.ToAccountID = pick(next.ToAccountID, req.ToAccountID, req.ClearToAccount)
	return next, nil
}

func pick(current, patch *int64, clear bool) *int64 {
	switch {
	case clear:
		return nil
	case patch != nil:
		v := *patch
		return &v
	default:
		return current
	}
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(domain.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", apperrors.ErrValidation, s)
	}
	return d, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func uniqueSorted(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
