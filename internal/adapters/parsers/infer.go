package parsers

import (
	"strings"

	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/SscSPs/fintrack/internal/core/reconcile"
	"github.com/shopspring/decimal"
)

// keyword lists are matched against the normalized description, in this order.
var typeKeywords = []struct {
	t        domain.LineItemType
	keywords []string
}{
	{domain.LineItemReversal, []string{"estorno", "reversal", "chargeback"}},
	{domain.LineItemInterest, []string{"juros", "interest"}},
	{domain.LineItemFee, []string{"iof", "tarifa", "anuidade", "fee"}},
	{domain.LineItemPayment, []string{"pagamento", "payment"}},
}

// InferType classifies a statement row. Negative amounts are credits to the card: they are
// payments unless the description says reversal. The returned amount is always absolute.
func InferType(description string, amount decimal.Decimal) (domain.LineItemType, decimal.Decimal) {
	words := strings.Fields(reconcile.Normalize(description))
	has := func(keywords []string) bool {
		for _, w := range words {
			for _, k := range keywords {
				if w == k {
					return true
				}
			}
		}
		return false
	}

	if amount.IsNegative() {
		if has(typeKeywords[0].keywords) {
			return domain.LineItemReversal, amount.Abs()
		}
		return domain.LineItemPayment, amount.Abs()
	}
	for _, tk := range typeKeywords {
		if has(tk.keywords) {
			return tk.t, amount
		}
	}
	return domain.LineItemPurchase, amount
}
