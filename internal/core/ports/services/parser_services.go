package services

import (
	"context"

	"github.com/SscSPs/fintrack/internal/core/domain"
)

// StatementParser turns the raw bytes of one bank's statement format into line items.
type StatementParser interface {
	// BankCode is the registry key, e.g. "ofx" or "nubank".
	BankCode() string

	Parse(ctx context.Context, data []byte, fileName string) (*domain.ParsedStatement, error)
}

// ParserRegistry resolves parsers by bank code.
type ParserRegistry interface {
	// Get returns the parser for bankCode or an ErrValidation-wrapped error.
	Get(bankCode string) (StatementParser, error)

	// Codes lists registered bank codes in sorted order.
	Codes() []string
}

// Categorizer suggests categories for parsed line items.
type Categorizer interface {
	// CategorizeBatch maps item description to a suggested category id from categories.
	// Descriptions without a suggestion may be absent or map to nil.
	CategorizeBatch(ctx context.Context, items []domain.ParsedLineItem, categories []domain.Category) (map[string]*int64, error)
}
