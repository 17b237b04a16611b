package dto

import (
	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/SscSPs/fintrack/internal/core/reconcile"
	"github.com/shopspring/decimal"
)

// UploadStatementRequest carries the form fields of a statement upload. FileName comes
// from the multipart header.
type UploadStatementRequest struct {
	CreditCardID int64  `form:"creditCardId" binding:"required,min=1"`
	BankCode     string `form:"bankCode" binding:"required,min=1,max=50,bank_code"`
	FileName     string `form:"-"`
}

// ParseSummary reports what the parse step found.
type ParseSummary struct {
	TotalLineItems     int `json:"totalLineItems"`
	Categorized        int `json:"categorized"`
	Duplicates         int `json:"duplicates"`
	PossibleDuplicates int `json:"possibleDuplicates"`
	Unique             int `json:"unique"`
}

// NewParseSummary builds a ParseSummary from the detector summary.
func NewParseSummary(s reconcile.Summary, categorized int) ParseSummary {
	return ParseSummary{
		TotalLineItems:     s.Total,
		Categorized:        categorized,
		Duplicates:         s.Duplicates,
		PossibleDuplicates: s.PossibleDuplicates,
		Unique:             s.Unique,
	}
}

// ParseStatementResponse is returned after a successful parse.
type ParseStatementResponse struct {
	Statement domain.Statement  `json:"statement"`
	LineItems []domain.LineItem `json:"lineItems"`
	Summary   ParseSummary      `json:"summary"`
}

// LineItemUpdate overrides review fields of one line item before import.
type LineItemUpdate struct {
	ID              int64  `json:"id" binding:"required,min=1"`
	FinalCategoryID *int64 `json:"finalCategoryId"`
	IsDuplicate     *bool  `json:"isDuplicate"`
}

// ImportStatementRequest defines what to import from a reviewed statement.
type ImportStatementRequest struct {
	ExcludeLineItemIDs []int64          `json:"excludeLineItemIds"`
	LineItemUpdates    []LineItemUpdate `json:"lineItemUpdates" binding:"omitempty,dive"`
	UpdateCurrentBill  bool             `json:"updateCurrentBill"`
}

// ImportSummary counts the fate of every line item.
type ImportSummary struct {
	TotalItems int `json:"totalItems"`
	Imported   int `json:"imported"`
	Skipped    int `json:"skipped"`
	Excluded   int `json:"excluded"`
	Duplicates int `json:"duplicates"`
}

// ImportStatementResponse is returned after an import.
type ImportStatementResponse struct {
	CreatedTransactionIDs []int64          `json:"createdTransactionIds"`
	SkippedLineItemIDs    []int64          `json:"skippedLineItemIds"`
	UpdatedCurrentBill    bool             `json:"updatedCurrentBill"`
	NewCurrentBill        *decimal.Decimal `json:"newCurrentBill,omitempty"`
	Summary               ImportSummary    `json:"summary"`
}

// ListStatementsParams defines query parameters for listing statements.
type ListStatementsParams struct {
	CreditCardID *int64 `form:"creditCardId"`
	Status       string `form:"status" binding:"omitempty,oneof=pending reviewed imported cancelled"`
	StartDate    string `form:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate      string `form:"endDate" binding:"omitempty,datetime=2006-01-02"`
	Page         int    `form:"page,default=1" binding:"min=1"`
	Limit        int    `form:"limit,default=20" binding:"min=1,max=100"`
}

// ListStatementsResponse wraps a page of statements.
type ListStatementsResponse struct {
	Statements []domain.Statement `json:"statements"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
}

// LineItemSummary counts review state across a statement's line items.
type LineItemSummary struct {
	Total       int `json:"total"`
	Duplicates  int `json:"duplicates"`
	Categorized int `json:"categorized"`
	Imported    int `json:"imported"`
}

// LineItemsResponse lists a statement's line items with a summary.
type LineItemsResponse struct {
	LineItems []domain.LineItem `json:"lineItems"`
	Summary   LineItemSummary   `json:"summary"`
}

// NewLineItemsResponse summarizes items.
func NewLineItemsResponse(items []domain.LineItem) LineItemsResponse {
	res := LineItemsResponse{LineItems: items, Summary: LineItemSummary{Total: len(items)}}
	for _, li := range items {
		if li.IsDuplicate {
			res.Summary.Duplicates++
		}
		if li.CategoryID() != nil {
			res.Summary.Categorized++
		}
		if li.TransactionID != nil {
			res.Summary.Imported++
		}
	}
	return res
}

// UpdateLineItemRequest edits the review fields of a single line item.
type UpdateLineItemRequest struct {
	FinalCategoryID    *int64 `json:"finalCategoryId"`
	ClearFinalCategory bool   `json:"clearFinalCategory"`
	IsDuplicate        *bool  `json:"isDuplicate"`
}
