package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CreditCardReader defines read operations for credit cards
type CreditCardReader interface {
	FindCreditCardByID(ctx context.Context, ownerID, cardID int64) (*domain.CreditCard, error)
	ListCreditCards(ctx context.Context, ownerID int64) ([]domain.CreditCard, error)
}

// CreditCardTransactionSupport defines the locked operations used by ledger mutations
type CreditCardTransactionSupport interface {
	// FindCreditCardsByIDsForUpdate locks the owner's cards in ascending id order.
	FindCreditCardsByIDsForUpdate(ctx context.Context, tx pgx.Tx, ownerID int64, cardIDs []int64) (map[int64]domain.CreditCard, error)

	// UpdateCreditCardBillsInTx adds each signed change to the card's current bill.
	UpdateCreditCardBillsInTx(ctx context.Context, tx pgx.Tx, billChanges map[int64]decimal.Decimal, now time.Time) error
}

// CreditCardRepositoryFacade combines all credit card repository interfaces
type CreditCardRepositoryFacade interface {
	CreditCardReader
	CreditCardTransactionSupport
}
