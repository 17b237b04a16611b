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

const transactionColumns = `id, owner_id, description, amount, type, date, category_id, account_id,
	credit_card_id, to_account_id, created_at, updated_at`

type PgxTransactionRepository struct {
	BaseRepository
}

func newPgxTransactionRepository(pool *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

// FindTransactionByID retrieves a transaction by its ID.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, ownerID, transactionID int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND owner_id = $2;`

	rows, _ := r.Pool.Query(ctx, query, transactionID, ownerID)
	return collectOneTransaction(rows, transactionID)
}

// ListTransactions retrieves a page of transactions ordered by date and id, newest first.
func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, ownerID int64, filter domain.TransactionFilter, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}

	conds := []string{"owner_id = $1"}
	args := []any{ownerID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Type != nil {
		add("type = $%d", string(*filter.Type))
	}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		conds = append(conds, fmt.Sprintf("(account_id = $%[1]d OR to_account_id = $%[1]d)", len(args)))
	}
	if filter.CreditCardID != nil {
		add("credit_card_id = $%d", *filter.CreditCardID)
	}
	if filter.CategoryID != nil {
		add("category_id = $%d", *filter.CategoryID)
	}
	if filter.StartDate != nil {
		add("date >= $%d", domain.TruncateToDate(*filter.StartDate))
	}
	if filter.EndDate != nil {
		add("date <= $%d", domain.TruncateToDate(*filter.EndDate))
	}
	if filter.After != nil {
		args = append(args, domain.TruncateToDate(filter.After.Date), filter.After.ID)
		conds = append(conds, fmt.Sprintf("(date, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY date DESC, id DESC LIMIT $%d;`,
		transactionColumns, strings.Join(conds, " AND "), len(args))

	rows, _ := r.Pool.Query(ctx, query, args...)
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Transaction])
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for owner %d: %w", ownerID, err)
	}
	return mapping.ToDomainTransactionSlice(ms), nil
}

// FindDuplicateCandidates returns the owner's card transactions dated within [from, to].
func (r *PgxTransactionRepository) FindDuplicateCandidates(ctx context.Context, ownerID, creditCardID int64, from, to time.Time) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE owner_id = $1 AND credit_card_id = $2 AND date BETWEEN $3 AND $4
		ORDER BY date, id;`

	rows, _ := r.Pool.Query(ctx, query, ownerID, creditCardID, domain.TruncateToDate(from), domain.TruncateToDate(to))
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Transaction])
	if err != nil {
		return nil, fmt.Errorf("failed to load duplicate candidates for card %d: %w", creditCardID, err)
	}
	return mapping.ToDomainTransactionSlice(ms), nil
}

// FindTransactionForUpdate retrieves a transaction and locks its row.
func (r *PgxTransactionRepository) FindTransactionForUpdate(ctx context.Context, tx pgx.Tx, ownerID, transactionID int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND owner_id = $2 FOR UPDATE;`

	rows, _ := tx.Query(ctx, query, transactionID, ownerID)
	return collectOneTransaction(rows, transactionID)
}

// InsertTransactionInTx inserts t and fills in the generated id and timestamps.
func (r *PgxTransactionRepository) InsertTransactionInTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	m := mapping.ToModelTransaction(*t)
	query := `
		INSERT INTO transactions (owner_id, description, amount, type, date, category_id, account_id,
			credit_card_id, to_account_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id;`

	err := tx.QueryRow(ctx, query,
		m.OwnerID, m.Description, m.Amount, m.Type, m.Date, m.CategoryID, m.AccountID,
		m.CreditCardID, m.ToAccountID, m.CreatedAt, m.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// UpdateTransactionInTx overwrites the mutable columns of t.
func (r *PgxTransactionRepository) UpdateTransactionInTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	m := mapping.ToModelTransaction(*t)
	query := `
		UPDATE transactions
		SET description = $3, amount = $4, type = $5, date = $6, category_id = $7, account_id = $8,
			credit_card_id = $9, to_account_id = $10, updated_at = $11
		WHERE id = $1 AND owner_id = $2;`

	ct, err := tx.Exec(ctx, query,
		m.ID, m.OwnerID, m.Description, m.Amount, m.Type, m.Date, m.CategoryID, m.AccountID,
		m.CreditCardID, m.ToAccountID, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", t.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteTransactionInTx removes the row. Linked line items keep their history through
// ON DELETE SET NULL.
func (r *PgxTransactionRepository) DeleteTransactionInTx(ctx context.Context, tx pgx.Tx, ownerID, transactionID int64) error {
	ct, err := tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND owner_id = $2;`, transactionID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", transactionID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func collectOneTransaction(rows pgx.Rows, transactionID int64) (*domain.Transaction, error) {
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Transaction])
	if err != nil {
		return nil, notFoundOr(err, "failed to find transaction by ID %d", transactionID)
	}
	t := mapping.ToDomainTransaction(m)
	return &t, nil
}
