package parsers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/fintrack/internal/adapters/gemini"
	"github.com/SscSPs/fintrack/internal/apperrors"
	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/SscSPs/fintrack/internal/core/ledger"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

const pdfPrompt = `You extract data from a credit card statement PDF.
Return ONLY one JSON object, no Markdown, with this shape:
{
  "statementDate": "YYYY-MM-DD" or null,
  "dueDate": "YYYY-MM-DD" or null,
  "previousBalance": "0.00",
  "totalAmount": "0.00",
  "lineItems": [
    {"date": "YYYY-MM-DD", "description": "...", "amount": "0.00",
     "type": "purchase|payment|fee|interest|reversal", "category": "..." or null}
  ]
}
Rules:
- Amounts are positive decimals with a dot separator; the type carries the direction.
- Installment purchases keep their installment text (e.g. "02/10") in the description.
- Payments received and refunds ("estorno") are credits: use type payment or reversal.
- IOF, annual fee ("anuidade") and other charges are type fee; finance charges ("juros") are interest.
- Use the statement year for dates that omit it.`

// GeminiPDFParser sends PDF statements to a Gemini model and validates the extracted JSON.
type GeminiPDFParser struct {
	gen   gemini.Generator
	model string
}

// NewGeminiPDFParser creates the "gemini-pdf" parser.
func NewGeminiPDFParser(gen gemini.Generator, model string) *GeminiPDFParser {
	if model == "" {
		model = gemini.DefaultModel
	}
	return &GeminiPDFParser{gen: gen, model: model}
}

func (p *GeminiPDFParser) BankCode() string { return "gemini-pdf" }

func (p *GeminiPDFParser) Parse(ctx context.Context, data []byte, fileName string) (*domain.ParsedStatement, error) {
	if err := validatePDF(data, fileName); err != nil {
		return nil, err
	}

	payload, err := gemini.GenerateJSON(ctx, p.gen, p.model,
		&genai.Part{Text: pdfPrompt},
		&genai.Part{InlineData: &genai.Blob{MIMEType: "application/pdf", Data: data}},
	)
	if err != nil {
		return nil, err
	}

	var doc pdfStatement
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("%w: model returned invalid JSON for %s: %v", apperrors.ErrValidation, fileName, err)
	}
	return doc.toParsed()
}

// validatePDF rejects files pdfcpu cannot open or that have no pages.
func validatePDF(data []byte, fileName string) error {
	info, err := api.PDFInfo(bytes.NewReader(data), fileName, nil, model.NewDefaultConfiguration())
	if err != nil {
		return fmt.Errorf("%w: %s is not a readable PDF: %v", apperrors.ErrValidation, fileName, err)
	}
	if info.PageCount < 1 {
		return fmt.Errorf("%w: %s has no pages", apperrors.ErrValidation, fileName)
	}
	return nil
}

// jsonAmount accepts both JSON numbers and strings in either decimal notation.
type jsonAmount struct {
	decimal.Decimal
}

func (a *jsonAmount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	d, err := ledger.ParseSignedAmount(s)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

type pdfLineItem struct {
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Amount      jsonAmount `json:"amount"`
	Type        string     `json:"type"`
	Category    *string    `json:"category"`
}

type pdfStatement struct {
	StatementDate   *string       `json:"statementDate"`
	DueDate         *string       `json:"dueDate"`
	PreviousBalance jsonAmount    `json:"previousBalance"`
	TotalAmount     jsonAmount    `json:"totalAmount"`
	LineItems       []pdfLineItem `json:"lineItems"`
}

func (s pdfStatement) toParsed() (*domain.ParsedStatement, error) {
	out := &domain.ParsedStatement{
		Totals: domain.StatementTotals{
			PreviousBalance: s.PreviousBalance.Decimal,
			TotalAmount:     s.TotalAmount.Decimal,
		},
	}
	var err error
	if out.StatementDate, err = optionalDate(s.StatementDate); err != nil {
		return nil, err
	}
	if out.DueDate, err = optionalDate(s.DueDate); err != nil {
		return nil, err
	}

	for i, li := range s.LineItems {
		date, err := time.Parse(domain.DateLayout, strings.TrimSpace(li.Date))
		if err != nil {
			return nil, fmt.Errorf("%w: line item %d has bad date %q", apperrors.ErrValidation, i+1, li.Date)
		}
		desc := strings.TrimSpace(li.Description)
		itemType := domain.LineItemType(strings.ToLower(strings.TrimSpace(li.Type)))
		amount := li.Amount.Decimal
		if !itemType.Valid() {
			itemType, amount = InferType(desc, amount)
		}
		item := domain.ParsedLineItem{
			Date:        date,
			Description: desc,
			Amount:      amount.Abs(),
			Type:        itemType,
		}
		if li.Category != nil {
			item.Category = strings.TrimSpace(*li.Category)
		}
		out.LineItems = append(out.LineItems, item)
	}
	return out, nil
}

func optionalDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := time.Parse(domain.DateLayout, strings.TrimSpace(*s))
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", apperrors.ErrValidation, *s)
	}
	return &d, nil
}
