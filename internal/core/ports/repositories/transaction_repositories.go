package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// TransactionReader defines read operations for ledger transactions
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction owned by ownerID.
	FindTransactionByID(ctx context.Context, ownerID, transactionID int64) (*domain.Transaction, error)

	// ListTransactions returns up to limit transactions ordered by (date, id) descending,
	// starting strictly after the cursor in filter when one is set.
	ListTransactions(ctx context.Context, ownerID int64, filter domain.TransactionFilter, limit int) ([]domain.Transaction, error)

	// FindDuplicateCandidates returns the owner's transactions on the card dated within [from, to].
	FindDuplicateCandidates(ctx context.Context, ownerID, creditCardID int64, from, to time.Time) ([]domain.Transaction, error)
}

// TransactionWriter defines the transactional write operations
type TransactionWriter interface {
	// FindTransactionForUpdate locks the row. Returns ErrNotFound for rows of other owners.
	FindTransactionForUpdate(ctx context.Context, tx pgx.Tx, ownerID, transactionID int64) (*domain.Transaction, error)

	// InsertTransactionInTx persists t and fills in its ID and audit fields.
	InsertTransactionInTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error

	// UpdateTransactionInTx overwrites every mutable column of t.
	UpdateTransactionInTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error

	// DeleteTransactionInTx removes the row.
	DeleteTransactionInTx(ctx context.Context, tx pgx.Tx, ownerID, transactionID int64) error
}

// TransactionRepositoryFacade combines all transaction repository interfaces
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
