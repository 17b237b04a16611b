package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/fintrack/internal/core/domain"
	portsrepo "github.com/SscSPs/fintrack/internal/core/ports/repositories"
	"github.com/SscSPs/fintrack/internal/models"
	"github.com/SscSPs/fintrack/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const creditCardColumns = `id, owner_id, name, credit_limit, current_bill, created_at, updated_at`

type PgxCreditCardRepository struct {
	BaseRepository
}

func newPgxCreditCardRepository(pool *pgxpool.Pool) *PgxCreditCardRepository {
	return &PgxCreditCardRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CreditCardRepositoryFacade = (*PgxCreditCardRepository)(nil)

// FindCreditCardByID retrieves a credit card by its ID.
func (r *PgxCreditCardRepository) FindCreditCardByID(ctx context.Context, ownerID, cardID int64) (*domain.CreditCard, error) {
	query := `SELECT ` + creditCardColumns + ` FROM credit_cards WHERE id = $1 AND owner_id = $2;`

	rows, _ := r.Pool.Query(ctx, query, cardID, ownerID)
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.CreditCard])
	if err != nil {
		return nil, notFoundOr(err, "failed to find credit card by ID %d", cardID)
	}
	card := mapping.ToDomainCreditCard(m)
	return &card, nil
}

func (r *PgxCreditCardRepository) ListCreditCards(ctx context.Context, ownerID int64) ([]domain.CreditCard, error) {
	query := `SELECT ` + creditCardColumns + ` FROM credit_cards WHERE owner_id = $1 ORDER BY name, id;`

	rows, _ := r.Pool.Query(ctx, query, ownerID)
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.CreditCard])
	if err != nil {
		return nil, fmt.Errorf("failed to list credit cards for owner %d: %w", ownerID, err)
	}
	cards := make([]domain.CreditCard, len(ms))
	for i, m := range ms {
		cards[i] = mapping.ToDomainCreditCard(m)
	}
	return cards, nil
}

// FindCreditCardsByIDsForUpdate locks the owner's cards in ascending id order.
func (r *PgxCreditCardRepository) FindCreditCardsByIDsForUpdate(ctx context.Context, tx pgx.Tx, ownerID int64, cardIDs []int64) (map[int64]domain.CreditCard, error) {
	if len(cardIDs) == 0 {
		return map[int64]domain.CreditCard{}, nil
	}

	query := `SELECT ` + creditCardColumns + `
		FROM credit_cards
		WHERE id = ANY($1) AND owner_id = $2
		ORDER BY id
		FOR UPDATE;`

	rows, _ := tx.Query(ctx, query, cardIDs, ownerID)
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.CreditCard])
	if err != nil {
		return nil, fmt.Errorf("failed to query credit cards by IDs for update: %w", err)
	}
	cards := make(map[int64]domain.CreditCard, len(ms))
	for _, m := range ms {
		cards[m.ID] = mapping.ToDomainCreditCard(m)
	}
	return cards, nil
}

// UpdateCreditCardBillsInTx adds each delta to the card's current bill within tx.
func (r *PgxCreditCardRepository) UpdateCreditCardBillsInTx(ctx context.Context, tx pgx.Tx, billChanges map[int64]decimal.Decimal, now time.Time) error {
	query := `
		UPDATE credit_cards
		SET current_bill = COALESCE(current_bill, 0) + $2, updated_at = $3
		WHERE id = $1;`
	return applyDeltas(ctx, tx, query, "credit card", billChanges, now)
}
