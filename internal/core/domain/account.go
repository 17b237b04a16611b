package domain

import (
	"github.com/shopspring/decimal"
)

// DefaultCurrency is applied to accounts created without an explicit currency.
const DefaultCurrency = "BRL"

// Account is a bank account whose balance is mutated only by the ledger engine.
type Account struct {
	ID       int64           `json:"id"`
	OwnerID  int64           `json:"ownerId"`
	Name     string          `json:"name"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	AuditFields
}

// CreditCard accumulates expense transactions in CurrentBill.
type CreditCard struct {
	ID          int64           `json:"id"`
	OwnerID     int64           `json:"ownerId"`
	Name        string          `json:"name"`
	Limit       decimal.Decimal `json:"limit"`
	CurrentBill decimal.Decimal `json:"currentBill"`
	AuditFields
}
