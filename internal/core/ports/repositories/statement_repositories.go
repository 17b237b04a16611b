package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// StatementReader defines read operations for statements and their line items
type StatementReader interface {
	FindStatementByID(ctx context.Context, ownerID, statementID int64) (*domain.Statement, error)

	// FindStatementByHash looks up an upload of the same file by the same owner.
	FindStatementByHash(ctx context.Context, ownerID int64, fileHash string) (*domain.Statement, error)

	// ListStatements returns the owner's statements, newest first.
	ListStatements(ctx context.Context, ownerID int64, filter domain.StatementFilter, limit, offset int) ([]domain.Statement, error)

	// ListLineItems returns a statement's line items ordered by date then id.
	ListLineItems(ctx context.Context, statementID int64) ([]domain.LineItem, error)
}

// StatementWriter defines non-transactional statement writes
type StatementWriter interface {
	// SaveStatement inserts a new statement and fills in its ID and audit fields.
	// A second upload of the same hash by the same owner returns ErrDuplicateUpload.
	SaveStatement(ctx context.Context, s *domain.Statement) error

	// MarkStatementFailed cancels a pending statement and records why.
	MarkStatementFailed(ctx context.Context, ownerID, statementID int64, reason string, now time.Time) error
}

// StatementTransactionSupport defines operations run inside a caller-owned transaction
type StatementTransactionSupport interface {
	// FindStatementForUpdate locks the statement row.
	FindStatementForUpdate(ctx context.Context, tx pgx.Tx, ownerID, statementID int64) (*domain.Statement, error)

	// UpdateStatementInTx persists status, dates, totals, failure reason and importedAt.
	UpdateStatementInTx(ctx context.Context, tx pgx.Tx, s *domain.Statement) error

	// InsertLineItemsInTx persists items and fills in their IDs.
	InsertLineItemsInTx(ctx context.Context, tx pgx.Tx, items []domain.LineItem) error

	// ListLineItemsInTx is ListLineItems inside tx.
	ListLineItemsInTx(ctx context.Context, tx pgx.Tx, statementID int64) ([]domain.LineItem, error)

	// UpdateLineItemReviewInTx persists the user-editable fields: final category and duplicate flag.
	UpdateLineItemReviewInTx(ctx context.Context, tx pgx.Tx, item domain.LineItem) error

	// LinkLineItemInTx records the transaction created from an item. It only succeeds once;
	// an already linked item returns ErrDuplicate.
	LinkLineItemInTx(ctx context.Context, tx pgx.Tx, lineItemID, transactionID int64) error
}

// StatementRepositoryFacade combines all statement repository interfaces
type StatementRepositoryFacade interface {
	StatementReader
	StatementWriter
	StatementTransactionSupport
}
