package models

import (
	"github.com/shopspring/decimal"
)

// Account is a row of the accounts table.
type Account struct {
	ID       int64           `db:"id"`
	OwnerID  int64           `db:"owner_id"`
	Name     string          `db:"name"`
	Currency string          `db:"currency"`
	Balance  decimal.Decimal `db:"balance"`
	AuditFields
}

// CreditCard is a row of the credit_cards table.
type CreditCard struct {
	ID          int64           `db:"id"`
	OwnerID     int64           `db:"owner_id"`
	Name        string          `db:"name"`
	CreditLimit decimal.Decimal `db:"credit_limit"`
	CurrentBill decimal.Decimal `db:"current_bill"`
	AuditFields
}

// Category is a row of the categories table.
type Category struct {
	ID      int64  `db:"id"`
	OwnerID int64  `db:"owner_id"`
	Name    string `db:"name"`
	Type    string `db:"type"`
}
