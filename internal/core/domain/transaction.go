package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SscSPs/fintrack/internal/apperrors"
	"github.com/shopspring/decimal"
)

// MaxDescriptionLength is the width, in characters, of every description column.
const MaxDescriptionLength = 255

// TruncateDescription cuts s to MaxDescriptionLength characters.
func TruncateDescription(s string) string {
	return truncateRunes(s, MaxDescriptionLength)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// TransactionType is the ledger effect of a transaction.
type TransactionType string

const (
	TransactionIncome   TransactionType = "income"
	TransactionExpense  TransactionType = "expense"
	TransactionTransfer TransactionType = "transfer"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionIncome, TransactionExpense, TransactionTransfer:
		return true
	}
	return false
}

// Transaction is a single ledger entry. Amount is always positive; direction comes from Type.
type Transaction struct {
	ID           int64           `json:"id"`
	OwnerID      int64           `json:"ownerId"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Type         TransactionType `json:"type"`
	Date         time.Time       `json:"date"`
	CategoryID   *int64          `json:"categoryId,omitempty"`
	AccountID    *int64          `json:"accountId,omitempty"`
	CreditCardID *int64          `json:"creditCardId,omitempty"`
	ToAccountID  *int64          `json:"toAccountId,omitempty"`
	AuditFields
}

// Validate checks the field-shape invariants of a transaction. It does not touch the store.
//
// Non-transfers reference exactly one of account or credit card. Transfers reference two
// distinct accounts and no card.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", apperrors.ErrValidation, MaxDescriptionLength)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, t.Type)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrValidation)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date is required", apperrors.ErrValidation)
	}

	switch t.Type {
	case TransactionTransfer:
		if t.AccountID == nil || t.ToAccountID == nil {
			return fmt.Errorf("%w: transfer requires accountId and toAccountId", apperrors.ErrValidation)
		}
		if *t.AccountID == *t.ToAccountID {
			return fmt.Errorf("%w: transfer source and destination must differ", apperrors.ErrValidation)
		}
		if t.CreditCardID != nil {
			return fmt.Errorf("%w: transfer cannot reference a credit card", apperrors.ErrValidation)
		}
	default:
		if (t.AccountID == nil) == (t.CreditCardID == nil) {
			return fmt.Errorf("%w: %s requires exactly one of accountId or creditCardId", apperrors.ErrValidation, t.Type)
		}
		if t.ToAccountID != nil {
			return fmt.Errorf("%w: toAccountId is only valid for transfers", apperrors.ErrValidation)
		}
	}
	return nil
}

// DebitedAccountID is the account t draws money from: the account of an expense or the
// source of a transfer. Income and card expenses debit no account.
func (t Transaction) DebitedAccountID() *int64 {
	switch t.Type {
	case TransactionExpense, TransactionTransfer:
		return t.AccountID
	}
	return nil
}

// AccountIDs returns the distinct accounts referenced by t, sorted ascending.
func (t Transaction) AccountIDs() []int64 {
	ids := make([]int64, 0, 2)
	if t.AccountID != nil {
		ids = append(ids, *t.AccountID)
	}
	if t.ToAccountID != nil && (t.AccountID == nil || *t.ToAccountID != *t.AccountID) {
		ids = append(ids, *t.ToAccountID)
	}
	if len(ids) == 2 && ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	return ids
}

// TransactionCursor is the keyset position of the last row of a page.
type TransactionCursor struct {
	Date time.Time
	ID   int64
}

// TransactionFilter narrows a transaction listing. Nil fields do not filter.
type TransactionFilter struct {
	Type         *TransactionType
	AccountID    *int64
	CreditCardID *int64
	CategoryID   *int64
	StartDate    *time.Time
	EndDate      *time.Time
	After        *TransactionCursor
}
