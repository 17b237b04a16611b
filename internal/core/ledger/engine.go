// Package ledger computes the balance and bill deltas caused by a single transaction.
//
// Every stored transaction receives exactly one Apply at creation, a Reverse/Apply pair on
// each update and a final Reverse on deletion. The functions here are pure: persisting the
// resulting Delta is the caller's job, inside the same database transaction as the row change.
package ledger

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/SscSPs/fintrack/internal/apperrors"
	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that are not finite, non-negative decimals
// with at most Scale fractional digits.
var ErrInvalidAmount = fmt.Errorf("%w: invalid amount", apperrors.ErrValidation)

// Scale is the number of fractional digits balances and amounts are stored with.
const Scale = 2

// Mutation is the subset of a transaction that drives balances.
type Mutation struct {
	Type         domain.TransactionType
	Amount       decimal.Decimal
	AccountID    *int64
	CreditCardID *int64
	ToAccountID  *int64
}

// FromTransaction extracts the mutation fields of t.
func FromTransaction(t domain.Transaction) Mutation {
	return Mutation{
		Type:         t.Type,
		Amount:       t.Amount,
		AccountID:    t.AccountID,
		CreditCardID: t.CreditCardID,
		ToAccountID:  t.ToAccountID,
	}
}

// Delta holds signed changes per account balance and per card bill.
type Delta struct {
	Accounts    map[int64]decimal.Decimal
	CreditCards map[int64]decimal.Decimal
}

// NewDelta returns an empty Delta.
func NewDelta() Delta {
	return Delta{
		Accounts:    map[int64]decimal.Decimal{},
		CreditCards: map[int64]decimal.Decimal{},
	}
}

func (d Delta) addAccount(id int64, v decimal.Decimal) {
	d.Accounts[id] = d.Accounts[id].Add(v)
}

func (d Delta) addCard(id int64, v decimal.Decimal) {
	d.CreditCards[id] = d.CreditCards[id].Add(v)
}

// Add merges o into a copy of d. Entries that cancel out are dropped.
func (d Delta) Add(o Delta) Delta {
	out := NewDelta()
	for id, v := range d.Accounts {
		out.addAccount(id, v)
	}
	for id, v := range o.Accounts {
		out.addAccount(id, v)
	}
	for id, v := range d.CreditCards {
		out.addCard(id, v)
	}
	for id, v := range o.CreditCards {
		out.addCard(id, v)
	}
	out.prune()
	return out
}

// Neg returns the algebraic inverse of d.
func (d Delta) Neg() Delta {
	out := NewDelta()
	for id, v := range d.Accounts {
		out.Accounts[id] = v.Neg()
	}
	for id, v := range d.CreditCards {
		out.CreditCards[id] = v.Neg()
	}
	return out
}

// IsZero reports whether d changes nothing.
func (d Delta) IsZero() bool {
	for _, v := range d.Accounts {
		if !v.IsZero() {
			return false
		}
	}
	for _, v := range d.CreditCards {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

func (d Delta) prune() {
	for id, v := range d.Accounts {
		if v.IsZero() {
			delete(d.Accounts, id)
		}
	}
	for id, v := range d.CreditCards {
		if v.IsZero() {
			delete(d.CreditCards, id)
		}
	}
}

// Apply returns the forward delta of m.
//
//	income:   account += amount
//	expense:  account -= amount (if set); card bill += amount (if set)
//	transfer: from -= amount; to += amount
func Apply(m Mutation) (Delta, error) {
	if m.Amount.IsNegative() {
		return Delta{}, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, m.Amount)
	}
	if !m.Amount.Equal(m.Amount.Round(Scale)) {
		return Delta{}, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, m.Amount, Scale)
	}

	d := NewDelta()
	switch m.Type {
	case domain.TransactionIncome:
		if m.AccountID != nil {
			d.addAccount(*m.AccountID, m.Amount)
		}
	case domain.TransactionExpense:
		if m.AccountID != nil {
			d.addAccount(*m.AccountID, m.Amount.Neg())
		}
		if m.CreditCardID != nil {
			d.addCard(*m.CreditCardID, m.Amount)
		}
	case domain.TransactionTransfer:
		if m.AccountID == nil || m.ToAccountID == nil {
			return Delta{}, fmt.Errorf("%w: transfer requires both accounts", apperrors.ErrValidation)
		}
		d.addAccount(*m.AccountID, m.Amount.Neg())
		d.addAccount(*m.ToAccountID, m.Amount)
	default:
		return Delta{}, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, m.Type)
	}
	d.prune()
	return d, nil
}

// Reverse returns the exact inverse of Apply(m).
func Reverse(m Mutation) (Delta, error) {
	d, err := Apply(m)
	if err != nil {
		return Delta{}, err
	}
	return d.Neg(), nil
}

// ParseAmount parses s as a finite, non-negative decimal. Both "1234.56" and the
// Brazilian "1.234,56" notation are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return decimal.Zero, fmt.Errorf("%w: %q is not finite", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(normalizeAmount(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	return d, nil
}

// ParseSignedAmount is ParseAmount without the sign restriction. Statement parsers use it
// because credits arrive as negative values.
func ParseSignedAmount(s string) (decimal.Decimal, error) {
	neg := false
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

func normalizeAmount(s string) string {
	s = strings.NewReplacer("R$", "", " ", "", "\u00a0", "").Replace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}
