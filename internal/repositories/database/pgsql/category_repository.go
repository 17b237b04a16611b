package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/fintrack/internal/core/domain"
	portsrepo "github.com/SscSPs/fintrack/internal/core/ports/repositories"
	"github.com/SscSPs/fintrack/internal/models"
	"github.com/SscSPs/fintrack/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxCategoryRepository struct {
	pool *pgxpool.Pool
}

func newPgxCategoryRepository(pool *pgxpool.Pool) *PgxCategoryRepository {
	return &PgxCategoryRepository{pool: pool}
}

var _ portsrepo.CategoryRepositoryFacade = (*PgxCategoryRepository)(nil)

func (r *PgxCategoryRepository) FindCategoryByID(ctx context.Context, ownerID, categoryID int64) (*domain.Category, error) {
	query := `SELECT id, owner_id, name, type FROM categories WHERE id = $1 AND owner_id = $2;`

	rows, _ := r.pool.Query(ctx, query, categoryID, ownerID)
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Category])
	if err != nil {
		return nil, notFoundOr(err, "failed to find category by ID %d", categoryID)
	}
	c := mapping.ToDomainCategory(m)
	return &c, nil
}

func (r *PgxCategoryRepository) ListCategories(ctx context.Context, ownerID int64) ([]domain.Category, error) {
	query := `SELECT id, owner_id, name, type FROM categories WHERE owner_id = $1 ORDER BY name, id;`

	rows, _ := r.pool.Query(ctx, query, ownerID)
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Category])
	if err != nil {
		return nil, fmt.Errorf("failed to list categories for owner %d: %w", ownerID, err)
	}
	cats := make([]domain.Category, len(ms))
	for i, m := range ms {
		cats[i] = mapping.ToDomainCategory(m)
	}
	return cats, nil
}
