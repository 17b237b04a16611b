package services

import (
	"context"

	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/SscSPs/fintrack/internal/dto"
	"github.com/jackc/pgx/v5"
)

// TransactionReaderSvc defines read operations for ledger transactions
type TransactionReaderSvc interface {
	// GetTransaction retrieves a transaction owned by ownerID.
	GetTransaction(ctx context.Context, ownerID, transactionID int64) (*domain.Transaction, error)

	// ListTransactions returns one page and the token for the next one, if any.
	ListTransactions(ctx context.Context, ownerID int64, params dto.ListTransactionsParams) ([]domain.Transaction, *string, error)
}

// TransactionWriterSvc defines the ledger-consistent write operations
type TransactionWriterSvc interface {
	// CreateTransaction validates, persists and applies a transaction in its own unit of work.
	CreateTransaction(ctx context.Context, ownerID int64, req dto.CreateTransactionRequest) (*domain.Transaction, error)

	// CreateTransactionInTx is CreateTransaction inside a caller-owned transaction.
	CreateTransactionInTx(ctx context.Context, tx pgx.Tx, ownerID int64, req dto.CreateTransactionRequest) (*domain.Transaction, error)

	// UpdateTransaction reverses the stored effect and applies the merged one atomically.
	UpdateTransaction(ctx context.Context, ownerID, transactionID int64, req dto.UpdateTransactionRequest) (*domain.Transaction, error)

	// DeleteTransaction reverses the stored effect and removes the row atomically.
	DeleteTransaction(ctx context.Context, ownerID, transactionID int64) error
}

// TransactionSvcFacade combines all transaction service interfaces
type TransactionSvcFacade interface {
	TransactionReaderSvc
	TransactionWriterSvc
}
