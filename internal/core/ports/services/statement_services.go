package services

import (
	"context"

	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/SscSPs/fintrack/internal/dto"
)

// StatementIngestionSvc accepts raw statement files
type StatementIngestionSvc interface {
	// UploadStatement stores the file and creates a pending statement.
	UploadStatement(ctx context.Context, ownerID int64, req dto.UploadStatementRequest, data []byte) (*domain.Statement, error)
}

// StatementPipelineSvc moves statements through parse and import
type StatementPipelineSvc interface {
	// ParseStatement turns a pending statement into reviewed line items, or cancels it.
	ParseStatement(ctx context.Context, ownerID, statementID int64) (*dto.ParseStatementResponse, error)

	// ImportStatement creates transactions from a reviewed statement's line items.
	ImportStatement(ctx context.Context, ownerID, statementID int64, req dto.ImportStatementRequest) (*dto.ImportStatementResponse, error)
}

// StatementReviewSvc defines reads and review edits
type StatementReviewSvc interface {
	GetStatement(ctx context.Context, ownerID, statementID int64) (*domain.Statement, error)
	ListStatements(ctx context.Context, ownerID int64, params dto.ListStatementsParams) ([]domain.Statement, error)
	ListLineItems(ctx context.Context, ownerID, statementID int64) ([]domain.LineItem, error)

	// UpdateLineItem edits the final category or duplicate flag while the statement is reviewed.
	UpdateLineItem(ctx context.Context, ownerID, statementID, lineItemID int64, req dto.UpdateLineItemRequest) (*domain.LineItem, error)
}

// StatementSvcFacade combines all statement service interfaces
type StatementSvcFacade interface {
	StatementIngestionSvc
	StatementPipelineSvc
	StatementReviewSvc
}
