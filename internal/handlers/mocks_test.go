package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/fintrack/internal/core/domain"
	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
	"github.com/SscSPs/fintrack/internal/dto"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetAccount(ctx context.Context, ownerID, accountID int64) (*domain.Account, error) {
	args := m.Called(ctx, ownerID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) ListAccounts(ctx context.Context, ownerID int64) ([]domain.Account, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}
func (m *MockAccountService) GetCreditCard(ctx context.Context, ownerID, cardID int64) (*domain.CreditCard, error) {
	args := m.Called(ctx, ownerID, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreditCard), args.Error(1)
}
func (m *MockAccountService) ListCreditCards(ctx context.Context, ownerID int64) ([]domain.CreditCard, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CreditCard), args.Error(1)
}
func (m *MockAccountService) ListCategories(ctx context.Context, ownerID int64) ([]domain.Category, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Mock TransactionService ---
type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) GetTransaction(ctx context.Context, ownerID, transactionID int64) (*domain.Transaction, error) {
	args := m.Called(ctx, ownerID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) ListTransactions(ctx context.Context, ownerID int64, params dto.ListTransactionsParams) ([]domain.Transaction, *string, error) {
	args := m.Called(ctx, ownerID, params)
	var next *string
	if s, ok := args.Get(1).(*string); ok {
		next = s
	}
	if args.Get(0) == nil {
		return nil, next, args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), next, args.Error(2)
}
func (m *MockTransactionService) CreateTransaction(ctx context.Context, ownerID int64, req dto.CreateTransactionRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) CreateTransactionInTx(ctx context.Context, tx pgx.Tx, ownerID int64, req dto.CreateTransactionRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, tx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) UpdateTransaction(ctx context.Context, ownerID, transactionID int64, req dto.UpdateTransactionRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, ownerID, transactionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) DeleteTransaction(ctx context.Context, ownerID, transactionID int64) error {
	args := m.Called(ctx, ownerID, transactionID)
	return args.Error(0)
}

var _ portssvc.TransactionSvcFacade = (*MockTransactionService)(nil)

// --- Mock StatementService ---
type MockStatementService struct {
	mock.Mock
}

func (m *MockStatementService) UploadStatement(ctx context.Context, ownerID int64, req dto.UploadStatementRequest, data []byte) (*domain.Statement, error) {
	args := m.Called(ctx, ownerID, req, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statement), args.Error(1)
}
func (m *MockStatementService) ParseStatement(ctx context.Context, ownerID, statementID int64) (*dto.ParseStatementResponse, error) {
	args := m.Called(ctx, ownerID, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ParseStatementResponse), args.Error(1)
}
func (m *MockStatementService) ImportStatement(ctx context.Context, ownerID, statementID int64, req dto.ImportStatementRequest) (*dto.ImportStatementResponse, error) {
	args := m.Called(ctx, ownerID, statementID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ImportStatementResponse), args.Error(1)
}
func (m *MockStatementService) GetStatement(ctx context.Context, ownerID, statementID int64) (*domain.Statement, error) {
	args := m.Called(ctx, ownerID, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statement), args.Error(1)
}
func (m *MockStatementService) ListStatements(ctx context.Context, ownerID int64, params dto.ListStatementsParams) ([]domain.Statement, error) {
	args := m.Called(ctx, ownerID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Statement), args.Error(1)
}
func (m *MockStatementService) ListLineItems(ctx context.Context, ownerID, statementID int64) ([]domain.LineItem, error) {
	args := m.Called(ctx, ownerID, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}
func (m *MockStatementService) UpdateLineItem(ctx context.Context, ownerID, statementID, lineItemID int64, req dto.UpdateLineItemRequest) (*domain.LineItem, error) {
	args := m.Called(ctx, ownerID, statementID, lineItemID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LineItem), args.Error(1)
}

var _ portssvc.StatementSvcFacade = (*MockStatementService)(nil)

// --- Mock AuthService ---
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, time.Time, *domain.User, error) {
	args := m.Called(ctx, email, password)
	var user *domain.User
	if u, ok := args.Get(2).(*domain.User); ok {
		user = u
	}
	return args.String(0), args.Get(1).(time.Time), user, args.Error(3)
}
func (m *MockAuthService) RegisterUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

var _ portssvc.AuthSvcFacade = (*MockAuthService)(nil)

type staticParsers []string

func (p staticParsers) Get(string) (portssvc.StatementParser, error) { return nil, nil }
func (p staticParsers) Codes() []string                              { return p }
