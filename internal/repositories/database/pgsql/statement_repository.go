package pgsql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/fintrack/internal/apperrors"
	"github.com/SscSPs/fintrack/internal/core/domain"
	portsrepo "github.com/SscSPs/fintrack/internal/core/ports/repositories"
	"github.com/SscSPs/fintrack/internal/models"
	"github.com/SscSPs/fintrack/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const statementColumns = `id, owner_id, credit_card_id, bank_code, file_name, file_hash, file_size, storage_uri,
	status, statement_date, due_date, previous_balance, payments_received, purchases, fees, interest,
	total_amount, failure_reason, imported_at, created_at, updated_at`

const lineItemColumns = `id, statement_id, date, description, amount, type, raw_category, suggested_category_id,
	final_category_id, is_duplicate, duplicate_reason, duplicate_confidence, matched_transaction_id,
	transaction_id, created_at`

type PgxStatementRepository struct {
	BaseRepository
}

func newPgxStatementRepository(pool *pgxpool.Pool) *PgxStatementRepository {
	return &PgxStatementRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.StatementRepositoryFacade = (*PgxStatementRepository)(nil)

func (r *PgxStatementRepository) FindStatementByID(ctx context.Context, ownerID, statementID int64) (*domain.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE id = $1 AND owner_id = $2;`
	rows, _ := r.Pool.Query(ctx, query, statementID, ownerID)
	return collectOneStatement(rows, statementID)
}

func (r *PgxStatementRepository) FindStatementByHash(ctx context.Context, ownerID int64, fileHash string) (*domain.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE owner_id = $1 AND file_hash = $2;`
	rows, _ := r.Pool.Query(ctx, query, ownerID, fileHash)
	return collectOneStatement(rows, 0)
}

// ListStatements retrieves the owner's statements, newest first.
func (r *PgxStatementRepository) ListStatements(ctx context.Context, ownerID int64, filter domain.StatementFilter, limit, offset int) ([]domain.Statement, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	conds := []string{"owner_id = $1"}
	args := []any{ownerID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.CreditCardID != nil {
		add("credit_card_id = $%d", *filter.CreditCardID)
	}
	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	}
	if filter.StartDate != nil {
		add("statement_date >= $%d", domain.TruncateToDate(*filter.StartDate))
	}
	if filter.EndDate != nil {
		add("statement_date <= $%d", domain.TruncateToDate(*filter.EndDate))
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s FROM statements WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d;`,
		statementColumns, strings.Join(conds, " AND "), len(args)-1, len(args))

	rows, _ := r.Pool.Query(ctx, query, args...)
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Statement])
	if err != nil {
		return nil, fmt.Errorf("failed to list statements for owner %d: %w", ownerID, err)
	}
	statements := make([]domain.Statement, len(ms))
	for i, m := range ms {
		statements[i] = mapping.ToDomainStatement(m)
	}
	return statements, nil
}

func (r *PgxStatementRepository) ListLineItems(ctx context.Context, statementID int64) ([]domain.LineItem, error) {
	return listLineItems(ctx, r.Pool, statementID)
}

// SaveStatement inserts a new statement. The (owner_id, file_hash) unique index backs
// the duplicate upload check.
func (r *PgxStatementRepository) SaveStatement(ctx context.Context, s *domain.Statement) error {
	m := mapping.ToModelStatement(*s)
	query := `
		INSERT INTO statements (owner_id, credit_card_id, bank_code, file_name, file_hash, file_size,
			storage_uri, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id;`

	err := r.Pool.QueryRow(ctx, query,
		m.OwnerID, m.CreditCardID, m.BankCode, m.FileName, m.FileHash, m.FileSize,
		m.StorageURI, m.Status, m.CreatedAt, m.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateUpload
		}
		return fmt.Errorf("failed to save statement: %w", err)
	}
	return nil
}

// MarkStatementFailed moves a pending statement to cancelled. Statements that already
// left pending are not touched.
func (r *PgxStatementRepository) MarkStatementFailed(ctx context.Context, ownerID, statementID int64, reason string, now time.Time) error {
	query := `
		UPDATE statements
		SET status = $3, failure_reason = $4, updated_at = $5
		WHERE id = $1 AND owner_id = $2 AND status = $6;`

	ct, err := r.Pool.Exec(ctx, query, statementID, ownerID, string(domain.StatementCancelled), reason, now, string(domain.StatementPending))
	if err != nil {
		return fmt.Errorf("failed to mark statement %d as failed: %w", statementID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: statement %d is no longer pending", apperrors.ErrInvalidStatus, statementID)
	}
	return nil
}

func (r *PgxStatementRepository) FindStatementForUpdate(ctx context.Context, tx pgx.Tx, ownerID, statementID int64) (*domain.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE id = $1 AND owner_id = $2 FOR UPDATE;`
	rows, _ := tx.Query(ctx, query, statementID, ownerID)
	return collectOneStatement(rows, statementID)
}

func (r *PgxStatementRepository) UpdateStatementInTx(ctx context.Context, tx pgx.Tx, s *domain.Statement) error {
	m := mapping.ToModelStatement(*s)
	query := `
		UPDATE statements
		SET status = $3, statement_date = $4, due_date = $5, previous_balance = $6, payments_received = $7,
			purchases = $8, fees = $9, interest = $10, total_amount = $11, failure_reason = $12,
			imported_at = $13, updated_at = $14
		WHERE id = $1 AND owner_id = $2;`

	ct, err := tx.Exec(ctx, query,
		m.ID, m.OwnerID, m.Status, m.StatementDate, m.DueDate, m.PreviousBalance, m.PaymentsReceived,
		m.Purchases, m.Fees, m.Interest, m.TotalAmount, m.FailureReason, m.ImportedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update statement %d: %w", s.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// InsertLineItemsInTx inserts items in one batch and fills in their ids.
func (r *PgxStatementRepository) InsertLineItemsInTx(ctx context.Context, tx pgx.Tx, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
		INSERT INTO statement_line_items (statement_id, date, description, amount, type, raw_category,
			suggested_category_id, final_category_id, is_duplicate, duplicate_reason, duplicate_confidence,
			matched_transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id;`

	batch := &pgx.Batch{}
	for _, item := range items {
		m := mapping.ToModelLineItem(item)
		batch.Queue(query, m.StatementID, m.Date, m.Description, m.Amount, m.Type, m.RawCategory,
			m.SuggestedCategoryID, m.FinalCategoryID, m.IsDuplicate, m.DuplicateReason, m.DuplicateConfidence,
			m.MatchedTransactionID, m.CreatedAt)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for i := range items {
		if err := br.QueryRow().Scan(&items[i].ID); err != nil {
			return fmt.Errorf("failed to insert line item %d of %d: %w", i+1, len(items), err)
		}
	}
	return br.Close()
}

func (r *PgxStatementRepository) ListLineItemsInTx(ctx context.Context, tx pgx.Tx, statementID int64) ([]domain.LineItem, error) {
	return listLineItems(ctx, tx, statementID)
}

// UpdateLineItemReviewInTx persists the fields editable while a statement is in review.
func (r *PgxStatementRepository) UpdateLineItemReviewInTx(ctx context.Context, tx pgx.Tx, item domain.LineItem) error {
	query := `
		UPDATE statement_line_items
		SET final_category_id = $3, is_duplicate = $4
		WHERE id = $1 AND statement_id = $2;`

	ct, err := tx.Exec(ctx, query, item.ID, item.StatementID, item.FinalCategoryID, item.IsDuplicate)
	if err != nil {
		return fmt.Errorf("failed to update line item %d: %w", item.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// LinkLineItemInTx sets transaction_id once.
func (r *PgxStatementRepository) LinkLineItemInTx(ctx context.Context, tx pgx.Tx, lineItemID, transactionID int64) error {
	query := `UPDATE statement_line_items SET transaction_id = $2 WHERE id = $1 AND transaction_id IS NULL;`

	ct, err := tx.Exec(ctx, query, lineItemID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to link line item %d: %w", lineItemID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: line item %d is already linked", apperrors.ErrDuplicate, lineItemID)
	}
	return nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listLineItems(ctx context.Context, q querier, statementID int64) ([]domain.LineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM statement_line_items WHERE statement_id = $1 ORDER BY date, id;`

	rows, _ := q.Query(ctx, query, statementID)
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.LineItem])
	if err != nil {
		return nil, fmt.Errorf("failed to list line items for statement %d: %w", statementID, err)
	}
	items := make([]domain.LineItem, len(ms))
	for i, m := range ms {
		items[i] = mapping.ToDomainLineItem(m)
	}
	return items, nil
}

func collectOneStatement(rows pgx.Rows, statementID int64) (*domain.Statement, error) {
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Statement])
	if err != nil {
		return nil, notFoundOr(err, "failed to find statement %d", statementID)
	}
	s := mapping.ToDomainStatement(m)
	return &s, nil
}
