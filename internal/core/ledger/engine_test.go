package ledger_test

import (
	"testing"

	"github.com/SscSPs/fintrack/internal/apperrors"
	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/SscSPs/fintrack/internal/core/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(v int64) *int64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		m         ledger.Mutation
		wantAccts map[int64]string
		wantCards map[int64]string
	}{
		{
			name:      "income credits the account",
			m:         ledger.Mutation{Type: domain.TransactionIncome, Amount: dec("10.50"), AccountID: id(1)},
			wantAccts: map[int64]string{1: "10.50"},
		},
		{
			name:      "expense debits the account",
			m:         ledger.Mutation{Type: domain.TransactionExpense, Amount: dec("150.00"), AccountID: id(1)},
			wantAccts: map[int64]string{1: "-150.00"},
		},
		{
			name:      "expense on card raises the bill",
			m:         ledger.Mutation{Type: domain.TransactionExpense, Amount: dec("75.00"), CreditCardID: id(2)},
			wantCards: map[int64]string{2: "75.00"},
		},
		{
			name: "income on card touches nothing",
			m:    ledger.Mutation{Type: domain.TransactionIncome, Amount: dec("30.00"), CreditCardID: id(2)},
		},
		{
			name:      "transfer moves between accounts",
			m:         ledger.Mutation{Type: domain.TransactionTransfer, Amount: dec("200.00"), AccountID: id(1), ToAccountID: id(3)},
			wantAccts: map[int64]string{1: "-200.00", 3: "200.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ledger.Apply(tt.m)
			require.NoError(t, err)
			assert.Len(t, d.Accounts, len(tt.wantAccts))
			for acct, want := range tt.wantAccts {
				assert.True(t, dec(want).Equal(d.Accounts[acct]), "account %d: got %s want %s", acct, d.Accounts[acct], want)
			}
			assert.Len(t, d.CreditCards, len(tt.wantCards))
			for card, want := range tt.wantCards {
				assert.True(t, dec(want).Equal(d.CreditCards[card]), "card %d: got %s want %s", card, d.CreditCards[card], want)
			}
		})
	}
}

func TestApplyThenReverseRestoresBalances(t *testing.T) {
	mutations := []ledger.Mutation{
		{Type: domain.TransactionIncome, Amount: dec("0.01"), AccountID: id(1)},
		{Type: domain.TransactionExpense, Amount: dec("99.99"), AccountID: id(1)},
		{Type: domain.TransactionExpense, Amount: dec("500.75"), CreditCardID: id(2)},
		{Type: domain.TransactionTransfer, Amount: dec("1234.56"), AccountID: id(1), ToAccountID: id(3)},
		{Type: domain.TransactionExpense, Amount: decimal.Zero, AccountID: id(1)},
	}

	for _, m := range mutations {
		t.Run(string(m.Type), func(t *testing.T) {
			forward, err := ledger.Apply(m)
			require.NoError(t, err)
			backward, err := ledger.Reverse(m)
			require.NoError(t, err)
			assert.True(t, forward.Add(backward).IsZero())
		})
	}
}

func TestBillOnlyChangesForExpenses(t *testing.T) {
	for _, typ := range []domain.TransactionType{domain.TransactionIncome, domain.TransactionTransfer} {
		m := ledger.Mutation{Type: typ, Amount: dec("10"), AccountID: id(1), ToAccountID: id(3), CreditCardID: id(2)}
		d, err := ledger.Apply(m)
		require.NoError(t, err)
		assert.Empty(t, d.CreditCards, string(typ))
	}
}

func TestApplyRejectsInvalidInput(t *testing.T) {
	_, err := ledger.Apply(ledger.Mutation{Type: domain.TransactionIncome, Amount: dec("-1"), AccountID: id(1)})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = ledger.Reverse(ledger.Mutation{Type: "gift", Amount: dec("1"), AccountID: id(1)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = ledger.Apply(ledger.Mutation{Type: domain.TransactionTransfer, Amount: dec("1"), AccountID: id(1)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestApplyRejectsSubCentAmounts(t *testing.T) {
	for _, amount := range []string{"10.005", "0.001", "99.999"} {
		t.Run(amount, func(t *testing.T) {
			_, err := ledger.Apply(ledger.Mutation{Type: domain.TransactionExpense, Amount: dec(amount), AccountID: id(1)})
			assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
		})
	}

	// Trailing zeros are not extra precision.
	d, err := ledger.Apply(ledger.Mutation{Type: domain.TransactionIncome, Amount: dec("10.500"), AccountID: id(1)})
	require.NoError(t, err)
	assert.True(t, dec("10.50").Equal(d.Accounts[1]))
}

func TestDeltaAddDropsCancelledEntries(t *testing.T) {
	old := ledger.Mutation{Type: domain.TransactionExpense, Amount: dec("100.00"), AccountID: id(1)}
	updated := ledger.Mutation{Type: domain.TransactionExpense, Amount: dec("250.00"), AccountID: id(1)}

	rev, err := ledger.Reverse(old)
	require.NoError(t, err)
	fwd, err := ledger.Apply(updated)
	require.NoError(t, err)

	net := rev.Add(fwd)
	assert.True(t, dec("-150.00").Equal(net.Accounts[1]))

	same := rev.Add(rev.Neg())
	assert.True(t, same.IsZero())
	assert.Empty(t, same.Accounts)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "150.00", want: "150"},
		{in: "1.234,56", want: "1234.56"},
		{in: "R$ 89,90", want: "89.9"},
		{in: "0", want: "0"},
		{in: "-5", wantErr: true},
		{in: "NaN", wantErr: true},
		{in: "Inf", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ledger.ParseAmount(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}

	neg, err := ledger.ParseSignedAmount("-1.234,56")
	require.NoError(t, err)
	assert.True(t, dec("-1234.56").Equal(neg))
}
