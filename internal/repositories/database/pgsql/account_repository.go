package pgsql

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/fintrack/internal/apperrors"
	"github.com/SscSPs/fintrack/internal/core/domain"
	portsrepo "github.com/SscSPs/fintrack/internal/core/ports/repositories"
	"github.com/SscSPs/fintrack/internal/models"
	"github.com/SscSPs/fintrack/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, owner_id, name, currency, balance, created_at, updated_at`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, ownerID, accountID int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND owner_id = $2;`

	rows, _ := r.Pool.Query(ctx, query, accountID, ownerID)
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, notFoundOr(err, "failed to find account by ID %d", accountID)
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// ListAccounts retrieves every account of the owner.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, ownerID int64) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE owner_id = $1 ORDER BY name, id;`

	rows, _ := r.Pool.Query(ctx, query, ownerID)
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for owner %d: %w", ownerID, err)
	}
	accounts := make([]domain.Account, len(ms))
	for i, m := range ms {
		accounts[i] = mapping.ToDomainAccount(m)
	}
	return accounts, nil
}

// FindAccountsByIDsForUpdate retrieves the owner's accounts by IDs and locks the rows.
// Rows are locked in ascending id order so concurrent mutations cannot deadlock.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, ownerID int64, accountIDs []int64) (map[int64]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[int64]domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ANY($1) AND owner_id = $2
		ORDER BY id
		FOR UPDATE;`

	rows, _ := tx.Query(ctx, query, accountIDs, ownerID)
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs for update: %w", err)
	}

	accountsMap := make(map[int64]domain.Account, len(ms))
	for _, m := range ms {
		accountsMap[m.ID] = mapping.ToDomainAccount(m)
	}
	return accountsMap, nil
}

// UpdateAccountBalancesInTx adds each delta to its account balance within tx.
func (r *PgxAccountRepository) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[int64]decimal.Decimal, now time.Time) error {
	query := `
		UPDATE accounts
		SET balance = COALESCE(balance, 0) + $2, updated_at = $3
		WHERE id = $1;`
	return applyDeltas(ctx, tx, query, "account", balanceChanges, now)
}

// applyDeltas queues one UPDATE per non-zero change, in ascending id order, and checks
// every row was hit.
func applyDeltas(ctx context.Context, tx pgx.Tx, query, kind string, changes map[int64]decimal.Decimal, now time.Time) error {
	ids := make([]int64, 0, len(changes))
	for id, delta := range changes {
		if !delta.IsZero() {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue(query, id, changes[id], now)
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for _, id := range ids {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = fmt.Errorf("failed to update %s %d: %w", kind, id, err)
			}
		} else if ct.RowsAffected() == 0 && batchErr == nil {
			batchErr = fmt.Errorf("%w: %s %d not found during balance update", apperrors.ErrNotFound, kind, id)
		}
	}

	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close %s update batch: %w", kind, err)
	}
	if batchErr != nil {
		slog.WarnContext(ctx, "Balance update batch failed", slog.String("kind", kind), slog.String("error", batchErr.Error()))
	}
	return batchErr
}
