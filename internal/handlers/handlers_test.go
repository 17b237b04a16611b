package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/fintrack/internal/apperrors"
	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/SscSPs/fintrack/internal/dto"
	"github.com/SscSPs/fintrack/internal/handlers"
	"github.com/SscSPs/fintrack/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const (
	testUserID     int64 = 7
	testMaxUpload        = 64
	testJWTSecret        = "test-secret-key-that-is-long-enough"
	testLoginLimit       = "1000-M"
)

type HandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	accounts     *MockAccountService
	transactions *MockTransactionService
	statements   *MockStatementService
	auth         *MockAuthService
}

// generateTestToken creates a signed JWT for userID.
func (suite *HandlerTestSuite) generateTestToken(userID int64) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "fintrack-test",
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.accounts = new(MockAccountService)
	suite.transactions = new(MockTransactionService)
	suite.statements = new(MockStatementService)
	suite.auth = new(MockAuthService)

	loginLimiter, err := middleware.NewRateLimiter(testLoginLimit)
	suite.Require().NoError(err)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterAuthRoutes(v1, suite.auth, loginLimiter)
	protected := v1.Group("", middleware.AuthMiddleware(testJWTSecret, ""))
	handlers.RegisterAccountRoutes(protected, suite.accounts)
	handlers.RegisterTransactionRoutes(protected, suite.transactions)
	suite.Require().NoError(handlers.RegisterStatementRoutes(protected, suite.statements, staticParsers{"csv-br", "nubank", "ofx"}, testMaxUpload))
}

func (suite *HandlerTestSuite) do(method, url string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(testUserID))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) doJSON(method, url, body string) *httptest.ResponseRecorder {
	return suite.do(method, url, strings.NewReader(body), "application/json")
}

func (suite *HandlerTestSuite) errorOf(w *httptest.ResponseRecorder) string {
	var body handlers.ErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func int64Ptr(v int64) *int64 { return &v }

// --- Accounts ---

func (suite *HandlerTestSuite) TestGetAccount_Success() {
	suite.accounts.On("GetAccount", mock.Anything, testUserID, int64(3)).
		Return(&domain.Account{ID: 3, OwnerID: testUserID, Name: "Checking", Balance: decimal.RequireFromString("950.00")}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/3", nil, "")

	suite.Equal(http.StatusOK, w.Code)
	var got domain.Account
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal("950", got.Balance.String())
	suite.accounts.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestGetAccount_Errors() {
	suite.accounts.On("GetAccount", mock.Anything, testUserID, int64(99)).
		Return(nil, fmt.Errorf("%w: account 99", apperrors.ErrNotFound)).Once()

	suite.Equal(http.StatusNotFound, suite.do(http.MethodGet, "/api/v1/accounts/99", nil, "").Code)
	suite.Equal(http.StatusBadRequest, suite.do(http.MethodGet, "/api/v1/accounts/abc", nil, "").Code)
	suite.Equal(http.StatusBadRequest, suite.do(http.MethodGet, "/api/v1/accounts/0", nil, "").Code)
	suite.accounts.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestRequiresToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/credit-cards", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.accounts.AssertNotCalled(suite.T(), "ListCreditCards", mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestListCreditCards() {
	suite.accounts.On("ListCreditCards", mock.Anything, testUserID).
		Return([]domain.CreditCard{{ID: 1, Name: "Visa", CurrentBill: decimal.RequireFromString("600.75")}}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/credit-cards", nil, "")

	suite.Equal(http.StatusOK, w.Code)
	var got dto.ListCreditCardsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Require().Len(got.CreditCards, 1)
	suite.Equal("600.75", got.CreditCards[0].CurrentBill.StringFixed(2))
}

// --- Transactions ---

func (suite *HandlerTestSuite) TestCreateTransaction_Created() {
	suite.transactions.On("CreateTransaction", mock.Anything, testUserID, mock.MatchedBy(func(r dto.CreateTransactionRequest) bool {
		return r.Type == domain.TransactionExpense && r.Amount.Equal(decimal.RequireFromString("50.5")) && *r.AccountID == 1
	})).Return(&domain.Transaction{
		ID: 10, Description: "Lunch", Amount: decimal.RequireFromString("50.50"), Type: domain.TransactionExpense,
		Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), AccountID: int64Ptr(1),
	}, nil).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/transactions",
		`{"description":"Lunch","amount":"50.50","type":"expense","date":"2024-03-01","accountId":1}`)

	suite.Equal(http.StatusCreated, w.Code)
	var got dto.TransactionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal(int64(10), got.ID)
	suite.Equal("2024-03-01", got.Date)
	suite.transactions.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestCreateTransaction_InsufficientFunds() {
	suite.transactions.On("CreateTransaction", mock.Anything, testUserID, mock.Anything).
		Return(nil, apperrors.ErrInsufficientFunds).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/transactions",
		`{"description":"TV","amount":5000,"type":"expense","date":"2024-03-01","accountId":1}`)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Equal(apperrors.ErrInsufficientFunds.Error(), suite.errorOf(w))
}

func (suite *HandlerTestSuite) TestCreateTransaction_BadBody() {
	cases := []string{
		`{"description":"x","amount":1,"date":"2024-03-01"}`,
		`{"description":"x","amount":1,"type":"gift","date":"2024-03-01"}`,
		`{"description":"x","amount":1,"type":"income","date":"01/03/2024"}`,
		`not json`,
	}
	for _, body := range cases {
		suite.Equal(http.StatusBadRequest, suite.doJSON(http.MethodPost, "/api/v1/transactions", body).Code, body)
	}
	suite.transactions.AssertNotCalled(suite.T(), "CreateTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestListTransactions_PassesParams() {
	next := "token-2"
	suite.transactions.On("ListTransactions", mock.Anything, testUserID, mock.MatchedBy(func(p dto.ListTransactionsParams) bool {
		return p.Limit == 5 && p.Type == "expense" && p.NextToken == "token-1" && p.CreditCardID != nil && *p.CreditCardID == 2
	})).Return([]domain.Transaction{{ID: 4, Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)}}, &next, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/transactions?limit=5&type=expense&creditCardId=2&nextToken=token-1", nil, "")

	suite.Equal(http.StatusOK, w.Code)
	var got dto.ListTransactionsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Len(got.Transactions, 1)
	suite.Require().NotNil(got.NextToken)
	suite.Equal("token-2", *got.NextToken)
}

func (suite *HandlerTestSuite) TestListTransactions_RejectsLimit() {
	suite.Equal(http.StatusBadRequest, suite.do(http.MethodGet, "/api/v1/transactions?limit=500", nil, "").Code)
}

func (suite *HandlerTestSuite) TestUpdateTransaction() {
	suite.transactions.On("UpdateTransaction", mock.Anything, testUserID, int64(4), mock.MatchedBy(func(r dto.UpdateTransactionRequest) bool {
		return r.CreditCardID != nil && *r.CreditCardID == 2 && r.ClearAccount
	})).Return(&domain.Transaction{ID: 4, CreditCardID: int64Ptr(2)}, nil).Once()

	w := suite.doJSON(http.MethodPatch, "/api/v1/transactions/4", `{"creditCardId":2,"clearAccount":true}`)

	suite.Equal(http.StatusOK, w.Code)
	suite.transactions.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestDeleteTransaction() {
	suite.transactions.On("DeleteTransaction", mock.Anything, testUserID, int64(4)).Return(nil).Once()
	suite.transactions.On("DeleteTransaction", mock.Anything, testUserID, int64(5)).Return(apperrors.ErrNotFound).Once()

	suite.Equal(http.StatusNoContent, suite.do(http.MethodDelete, "/api/v1/transactions/4", nil, "").Code)
	suite.Equal(http.StatusNotFound, suite.do(http.MethodDelete, "/api/v1/transactions/5", nil, "").Code)
}

// --- Statements ---

func multipartBody(fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if fileName != "" {
		fw, _ := mw.CreateFormFile("file", fileName)
		_, _ = fw.Write(content)
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func (suite *HandlerTestSuite) TestUploadStatement_Created() {
	content := []byte("OFXHEADER:100")
	suite.statements.On("UploadStatement", mock.Anything, testUserID,
		dto.UploadStatementRequest{CreditCardID: 3, BankCode: "ofx", FileName: "fatura.ofx"}, content).
		Return(&domain.Statement{ID: 12, CreditCardID: 3, BankCode: "ofx", Status: domain.StatementPending, FileSize: int64(len(content))}, nil).Once()

	body, ct := multipartBody(map[string]string{"creditCardId": "3", "bankCode": "ofx"}, "fatura.ofx", content)
	w := suite.do(http.MethodPost, "/api/v1/statements", body, ct)

	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	var got domain.Statement
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal(domain.StatementPending, got.Status)
	suite.statements.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestUploadStatement_Duplicate() {
	suite.statements.On("UploadStatement", mock.Anything, testUserID, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrDuplicateUpload).Once()

	body, ct := multipartBody(map[string]string{"creditCardId": "3", "bankCode": "ofx"}, "fatura.ofx", []byte("x"))
	w := suite.do(http.MethodPost, "/api/v1/statements", body, ct)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestUploadStatement_Rejected() {
	cases := []struct {
		name   string
		fields map[string]string
		file   string
		size   int
		status int
	}{
		{"missing file", map[string]string{"creditCardId": "3", "bankCode": "ofx"}, "", 0, http.StatusBadRequest},
		{"missing card", map[string]string{"bankCode": "ofx"}, "a.ofx", 4, http.StatusBadRequest},
		{"bank code with spaces", map[string]string{"creditCardId": "3", "bankCode": "bad code"}, "a.ofx", 4, http.StatusBadRequest},
		{"bank code too long", map[string]string{"creditCardId": "3", "bankCode": strings.Repeat("b", 51)}, "a.ofx", 4, http.StatusBadRequest},
		{"too large", map[string]string{"creditCardId": "3", "bankCode": "ofx"}, "a.ofx", testMaxUpload + 1, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		body, ct := multipartBody(tc.fields, tc.file, bytes.Repeat([]byte("x"), tc.size))
		w := suite.do(http.MethodPost, "/api/v1/statements", body, ct)
		suite.Equal(tc.status, w.Code, tc.name)
	}
	suite.statements.AssertNotCalled(suite.T(), "UploadStatement", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestParseStatement() {
	suite.statements.On("ParseStatement", mock.Anything, testUserID, int64(12)).
		Return(&dto.ParseStatementResponse{Summary: dto.ParseSummary{TotalLineItems: 3}}, nil).Once()
	suite.statements.On("ParseStatement", mock.Anything, testUserID, int64(13)).
		Return(nil, apperrors.ErrInvalidStatus).Once()
	suite.statements.On("ParseStatement", mock.Anything, testUserID, int64(14)).
		Return(nil, errors.New("connection reset")).Once()

	w := suite.do(http.MethodPost, "/api/v1/statements/12/parse", nil, "")
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/statements/13/parse", nil, "")
	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/statements/14/parse", nil, "")
	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal("Failed to parse statement", suite.errorOf(w))
}

func (suite *HandlerTestSuite) TestImportStatement_EmptyBody() {
	suite.statements.On("ImportStatement", mock.Anything, testUserID, int64(12), dto.ImportStatementRequest{}).
		Return(&dto.ImportStatementResponse{CreatedTransactionIDs: []int64{1, 2}, Summary: dto.ImportSummary{Imported: 2}}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/statements/12/import", nil, "")

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	suite.statements.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestImportStatement_WithOverrides() {
	suite.statements.On("ImportStatement", mock.Anything, testUserID, int64(12), mock.MatchedBy(func(r dto.ImportStatementRequest) bool {
		return r.UpdateCurrentBill && len(r.ExcludeLineItemIDs) == 1 && len(r.LineItemUpdates) == 1 && *r.LineItemUpdates[0].FinalCategoryID == 4
	})).Return(nil, apperrors.ErrNothingToImport).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/statements/12/import",
		`{"excludeLineItemIds":[5],"lineItemUpdates":[{"id":6,"finalCategoryId":4}],"updateCurrentBill":true}`)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.statements.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestListLineItems_Summary() {
	suite.statements.On("ListLineItems", mock.Anything, testUserID, int64(12)).Return([]domain.LineItem{
		{ID: 1, IsDuplicate: true},
		{ID: 2, SuggestedCategoryID: int64Ptr(4), TransactionID: int64Ptr(9)},
	}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/statements/12/line-items", nil, "")

	suite.Equal(http.StatusOK, w.Code)
	var got dto.LineItemsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal(dto.LineItemSummary{Total: 2, Duplicates: 1, Categorized: 1, Imported: 1}, got.Summary)
}

func (suite *HandlerTestSuite) TestUpdateLineItem() {
	suite.statements.On("UpdateLineItem", mock.Anything, testUserID, int64(12), int64(6), mock.MatchedBy(func(r dto.UpdateLineItemRequest) bool {
		return r.IsDuplicate != nil && *r.IsDuplicate
	})).Return(&domain.LineItem{ID: 6, IsDuplicate: true}, nil).Once()

	w := suite.doJSON(http.MethodPatch, "/api/v1/statements/12/line-items/6", `{"isDuplicate":true}`)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(http.StatusBadRequest, suite.doJSON(http.MethodPatch, "/api/v1/statements/12/line-items/x", `{}`).Code)
}

func (suite *HandlerTestSuite) TestListStatements() {
	suite.statements.On("ListStatements", mock.Anything, testUserID, mock.MatchedBy(func(p dto.ListStatementsParams) bool {
		return p.Page == 1 && p.Limit == 20 && p.Status == "reviewed"
	})).Return([]domain.Statement{{ID: 1}}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/statements?status=reviewed", nil, "")
	suite.Equal(http.StatusOK, w.Code)

	suite.Equal(http.StatusBadRequest, suite.do(http.MethodGet, "/api/v1/statements?status=archived", nil, "").Code)
}

func (suite *HandlerTestSuite) TestListParsers() {
	w := suite.do(http.MethodGet, "/api/v1/parsers", nil, "")

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"bankCodes":["csv-br","nubank","ofx"]}`, w.Body.String())
}

// --- Auth ---

func (suite *HandlerTestSuite) TestLogin() {
	expires := time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)
	suite.auth.On("Login", mock.Anything, "ana@example.com", "s3cretpass").
		Return("signed.jwt", expires, &domain.User{ID: 7, Name: "Ana", Email: "ana@example.com"}, nil).Once()
	suite.auth.On("Login", mock.Anything, "ana@example.com", "wrong").
		Return("", time.Time{}, nil, apperrors.ErrUnauthorized).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"s3cretpass"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	var got dto.LoginResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal("signed.jwt", got.Token)
	suite.Equal(int64(7), got.User.ID)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal("Invalid email or password", suite.errorOf(w))
}

func (suite *HandlerTestSuite) TestRegister_Duplicate() {
	suite.auth.On("RegisterUser", mock.Anything, mock.Anything).Return(nil, apperrors.ErrDuplicate).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"name":"Ana","email":"ana@example.com","password":"longenough"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusConflict, w.Code)
}

// --- Run Test Suite ---
func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
