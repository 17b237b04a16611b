package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statement is a row of the statements table.
type Statement struct {
	ID               int64           `db:"id"`
	OwnerID          int64           `db:"owner_id"`
	CreditCardID     int64           `db:"credit_card_id"`
	BankCode         string          `db:"bank_code"`
	FileName         string          `db:"file_name"`
	FileHash         string          `db:"file_hash"`
	FileSize         int64           `db:"file_size"`
	StorageURI       string          `db:"storage_uri"`
	Status           string          `db:"status"`
	StatementDate    *time.Time      `db:"statement_date"`
	DueDate          *time.Time      `db:"due_date"`
	PreviousBalance  decimal.Decimal `db:"previous_balance"`
	PaymentsReceived decimal.Decimal `db:"payments_received"`
	Purchases        decimal.Decimal `db:"purchases"`
	Fees             decimal.Decimal `db:"fees"`
	Interest         decimal.Decimal `db:"interest"`
	TotalAmount      decimal.Decimal `db:"total_amount"`
	FailureReason    *string         `db:"failure_reason"`
	ImportedAt       *time.Time      `db:"imported_at"`
	AuditFields
}

// LineItem is a row of the statement_line_items table.
type LineItem struct {
	ID                   int64           `db:"id"`
	StatementID          int64           `db:"statement_id"`
	Date                 time.Time       `db:"date"`
	Description          string          `db:"description"`
	Amount               decimal.Decimal `db:"amount"`
	Type                 string          `db:"type"`
	RawCategory          *string         `db:"raw_category"`
	SuggestedCategoryID  *int64          `db:"suggested_category_id"`
	FinalCategoryID      *int64          `db:"final_category_id"`
	IsDuplicate          bool            `db:"is_duplicate"`
	DuplicateReason      *string         `db:"duplicate_reason"`
	DuplicateConfidence  int             `db:"duplicate_confidence"`
	MatchedTransactionID *int64          `db:"matched_transaction_id"`
	TransactionID        *int64          `db:"transaction_id"`
	CreatedAt            time.Time       `db:"created_at"`
}
