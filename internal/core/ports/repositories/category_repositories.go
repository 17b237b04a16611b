package repositories

import (
	"context"

	"github.com/SscSPs/fintrack/internal/core/domain"
)

// CategoryRepositoryFacade exposes category lookups. Categories are managed elsewhere.
type CategoryRepositoryFacade interface {
	// FindCategoryByID retrieves a category owned by ownerID.
	FindCategoryByID(ctx context.Context, ownerID, categoryID int64) (*domain.Category, error)

	// ListCategories retrieves every category of the owner ordered by name.
	ListCategories(ctx context.Context, ownerID int64) ([]domain.Category, error)
}
