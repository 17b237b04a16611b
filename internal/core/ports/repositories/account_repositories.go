package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves an account owned by ownerID.
	FindAccountByID(ctx context.Context, ownerID, accountID int64) (*domain.Account, error)

	// ListAccounts retrieves every account of the owner ordered by name.
	ListAccounts(ctx context.Context, ownerID int64) ([]domain.Account, error)
}

// AccountTransactionSupport defines operations that support ledger mutations
type AccountTransactionSupport interface {
	// FindAccountsByIDsForUpdate locks the owner's accounts in ascending id order.
	// Ids that do not exist or belong to someone else are absent from the result.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, ownerID int64, accountIDs []int64) (map[int64]domain.Account, error)

	// UpdateAccountBalancesInTx adds each signed change to the account balance.
	UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[int64]decimal.Decimal, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountTransactionSupport
}
