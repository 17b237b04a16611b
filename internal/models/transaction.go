package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a row of the transactions table.
type Transaction struct {
	ID           int64           `db:"id"`
	OwnerID      int64           `db:"owner_id"`
	Description  string          `db:"description"`
	Amount       decimal.Decimal `db:"amount"`
	Type         string          `db:"type"`
	Date         time.Time       `db:"date"`
	CategoryID   *int64          `db:"category_id"`
	AccountID    *int64          `db:"account_id"`
	CreditCardID *int64          `db:"credit_card_id"`
	ToAccountID  *int64          `db:"to_account_id"`
	AuditFields
}
