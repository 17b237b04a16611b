package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// StatementStatus tracks a statement through the import pipeline.
type StatementStatus string

const (
	StatementPending   StatementStatus = "pending"
	StatementReviewed  StatementStatus = "reviewed"
	StatementImported  StatementStatus = "imported"
	StatementCancelled StatementStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s StatementStatus) Valid() bool {
	switch s {
	case StatementPending, StatementReviewed, StatementImported, StatementCancelled:
		return true
	}
	return false
}

// CanTransitionTo enforces the monotonic status machine:
// pending->reviewed, pending->cancelled, reviewed->imported.
func (s StatementStatus) CanTransitionTo(next StatementStatus) bool {
	switch s {
	case StatementPending:
		return next == StatementReviewed || next == StatementCancelled
	case StatementReviewed:
		return next == StatementImported
	}
	return false
}

// StatementTotals are the header amounts of a credit-card statement.
type StatementTotals struct {
	PreviousBalance  decimal.Decimal `json:"previousBalance"`
	PaymentsReceived decimal.Decimal `json:"paymentsReceived"`
	Purchases        decimal.Decimal `json:"purchases"`
	Fees             decimal.Decimal `json:"fees"`
	Interest         decimal.Decimal `json:"interest"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
}

// Statement is an uploaded credit-card statement file and its review state.
type Statement struct {
	ID            int64           `json:"id"`
	OwnerID       int64           `json:"ownerId"`
	CreditCardID  int64           `json:"creditCardId"`
	BankCode      string          `json:"bankCode"`
	FileName      string          `json:"fileName"`
	FileHash      string          `json:"fileHash"`
	FileSize      int64           `json:"fileSize"`
	StorageURI    string          `json:"-"`
	Status        StatementStatus `json:"status"`
	StatementDate *time.Time      `json:"statementDate,omitempty"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	Totals        StatementTotals `json:"totals"`
	FailureReason *string         `json:"failureReason,omitempty"`
	ImportedAt    *time.Time      `json:"importedAt,omitempty"`
	AuditFields
}

// LineItemType classifies a parsed statement entry.
type LineItemType string

const (
	LineItemPurchase LineItemType = "purchase"
	LineItemPayment  LineItemType = "payment"
	LineItemFee      LineItemType = "fee"
	LineItemInterest LineItemType = "interest"
	LineItemReversal LineItemType = "reversal"
)

// Valid reports whether t is a known line item type.
func (t LineItemType) Valid() bool {
	switch t {
	case LineItemPurchase, LineItemPayment, LineItemFee, LineItemInterest, LineItemReversal:
		return true
	}
	return false
}

// TransactionType maps a line item type onto the ledger. Charges become expenses;
// payments and reversals are credits and become income.
func (t LineItemType) TransactionType() TransactionType {
	switch t {
	case LineItemPayment, LineItemReversal:
		return TransactionIncome
	default:
		return TransactionExpense
	}
}

// LineItem is one persisted entry of a parsed statement.
type LineItem struct {
	ID                   int64           `json:"id"`
	StatementID          int64           `json:"statementId"`
	Date                 time.Time       `json:"date"`
	Description          string          `json:"description"`
	Amount               decimal.Decimal `json:"amount"`
	Type                 LineItemType    `json:"type"`
	RawCategory          *string         `json:"rawCategory,omitempty"`
	SuggestedCategoryID  *int64          `json:"suggestedCategoryId,omitempty"`
	FinalCategoryID      *int64          `json:"finalCategoryId,omitempty"`
	IsDuplicate          bool            `json:"isDuplicate"`
	DuplicateReason      *string         `json:"duplicateReason,omitempty"`
	DuplicateConfidence  int             `json:"duplicateConfidence"`
	MatchedTransactionID *int64          `json:"matchedTransactionId,omitempty"`
	TransactionID        *int64          `json:"transactionId,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
}

// CategoryID is the category chosen for import: the user override, else the suggestion.
func (li LineItem) CategoryID() *int64 {
	if li.FinalCategoryID != nil {
		return li.FinalCategoryID
	}
	return li.SuggestedCategoryID
}

// MaxRawCategoryLength is the width, in characters, of a line item's bank category.
const MaxRawCategoryLength = 100

// TruncateRawCategory cuts s to MaxRawCategoryLength characters.
func TruncateRawCategory(s string) string {
	return truncateRunes(s, MaxRawCategoryLength)
}

// ParsedLineItem is a line item as produced by a StatementParser, before persistence.
type ParsedLineItem struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        LineItemType    `json:"type"`
	Category    string          `json:"category,omitempty"`
}

// ParsedStatement is the structured output of a StatementParser.
type ParsedStatement struct {
	StatementDate *time.Time       `json:"statementDate,omitempty"`
	DueDate       *time.Time       `json:"dueDate,omitempty"`
	Totals        StatementTotals  `json:"totals"`
	LineItems     []ParsedLineItem `json:"lineItems"`
}

// StatementFilter narrows a statement listing. Dates apply to the statement date.
type StatementFilter struct {
	CreditCardID *int64
	Status       *StatementStatus
	StartDate    *time.Time
	EndDate      *time.Time
}

// ValidFileName rejects names that could address anything but a single file.
func ValidFileName(name string) bool {
	if strings.TrimSpace(name) == "" || utf8.RuneCountInString(name) > 255 {
		return false
	}
	return !strings.Contains(name, "..") && !strings.ContainsAny(name, `/\`)
}
