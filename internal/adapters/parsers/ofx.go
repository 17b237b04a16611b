package parsers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/SscSPs/fintrack/internal/apperrors"
	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

// OFXParser reads OFX/QFX credit-card statements. OFX signs card rows from the holder's
// side: charges are negative and payments positive, the opposite of the CSV exports.
type OFXParser struct{}

// NewOFXParser returns an OFX parser. It is stateless and safe for concurrent use.
func NewOFXParser() *OFXParser {
	return &OFXParser{}
}

// BankCode returns "ofx".
func (p *OFXParser) BankCode() string { return "ofx" }

func (p *OFXParser) Parse(ctx context.Context, data []byte, fileName string) (*domain.ParsedStatement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := ofxgo.ParseResponse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse OFX file %s: %v", apperrors.ErrValidation, fileName, err)
	}
	if len(resp.CreditCard) == 0 {
		return nil, fmt.Errorf("%w: %s has no credit card statement (CREDITCARDMSGSRSV1)", apperrors.ErrValidation, fileName)
	}
	stmt, ok := resp.CreditCard[0].(*ofxgo.CCStatementResponse)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected credit card message %T", apperrors.ErrValidation, resp.CreditCard[0])
	}
	if stmt.BankTranList == nil {
		return nil, fmt.Errorf("%w: %s has no transaction list", apperrors.ErrValidation, fileName)
	}

	out := &domain.ParsedStatement{}
	if !stmt.DtAsOf.IsZero() {
		d := domain.TruncateToDate(stmt.DtAsOf.Time)
		out.StatementDate = &d
	} else if !stmt.BankTranList.DtEnd.IsZero() {
		d := domain.TruncateToDate(stmt.BankTranList.DtEnd.Time)
		out.StatementDate = &d
	}
	if bal, err := ratToDecimal(stmt.BalAmt); err == nil {
		out.Totals.TotalAmount = bal.Neg()
	}

	for i, txn := range stmt.BankTranList.Transactions {
		item, err := ofxLineItem(txn)
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %d: %v", apperrors.ErrValidation, i+1, err)
		}
		out.LineItems = append(out.LineItems, item)
	}
	return out, nil
}

func ofxLineItem(txn ofxgo.Transaction) (domain.ParsedLineItem, error) {
	date := txn.DtPosted.Time
	if date.IsZero() && txn.DtUser != nil {
		date = txn.DtUser.Time
	}
	if date.IsZero() {
		return domain.ParsedLineItem{}, fmt.Errorf("%s has no date", txn.FiTID)
	}

	desc := strings.TrimSpace(txn.Name.String())
	if desc == "" {
		desc = strings.TrimSpace(txn.Memo.String())
	}
	if desc == "" {
		return domain.ParsedLineItem{}, fmt.Errorf("%s has no name or memo", txn.FiTID)
	}

	amount, err := ratToDecimal(txn.TrnAmt)
	if err != nil {
		return domain.ParsedLineItem{}, err
	}
	// flip to the card's perspective so charges are positive
	itemType, abs := InferType(desc, amount.Neg())
	switch txn.TrnType {
	case ofxgo.TrnTypeFee, ofxgo.TrnTypeSrvChg:
		if itemType == domain.LineItemPurchase {
			itemType = domain.LineItemFee
		}
	case ofxgo.TrnTypeInt:
		if itemType == domain.LineItemPurchase {
			itemType = domain.LineItemInterest
		}
	}

	return domain.ParsedLineItem{
		Date:        domain.TruncateToDate(date),
		Description: desc,
		Amount:      abs,
		Type:        itemType,
	}, nil
}

func ratToDecimal(a ofxgo.Amount) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(a.Rat.FloatString(2))
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad amount %s: %w", a.Rat.String(), err)
	}
	return d, nil
}
