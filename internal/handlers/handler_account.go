package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
	"github.com/SscSPs/fintrack/internal/dto"
	"github.com/gin-gonic/gin"
)

// accountHandler serves read-only views of accounts, credit cards and categories.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
}

// RegisterAccountRoutes registers account, credit card and category routes.
func RegisterAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade) {
	h := &accountHandler{accountService: accountService}

	rg.GET("/accounts", h.listAccounts)
	rg.GET("/accounts/:id", h.getAccount)
	rg.GET("/credit-cards", h.listCreditCards)
	rg.GET("/credit-cards/:id", h.getCreditCard)
	rg.GET("/categories", h.listCategories)
}

// getAccount godoc
// @Summary Get an account by ID
// @Description Returns the account and its current balance.
// @Tags accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} domain.Account
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /accounts/{id} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	accountID, ok := idParam(c, "id")
	if !ok {
		return
	}
	account, err := h.accountService.GetAccount(c.Request.Context(), userID, accountID)
	if err != nil {
		respondError(c, err, "Failed to retrieve account")
		return
	}
	c.JSON(http.StatusOK, account)
}

// listAccounts godoc
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Success 200 {object} dto.ListAccountsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	accounts, err := h.accountService.ListAccounts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list accounts")
		return
	}
	c.JSON(http.StatusOK, dto.ListAccountsResponse{Accounts: accounts})
}

// getCreditCard godoc
// @Summary Get a credit card by ID
// @Description Returns the card and its current bill.
// @Tags credit-cards
// @Produce json
// @Param id path int true "Credit card ID"
// @Success 200 {object} domain.CreditCard
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /credit-cards/{id} [get]
func (h *accountHandler) getCreditCard(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	cardID, ok := idParam(c, "id")
	if !ok {
		return
	}
	card, err := h.accountService.GetCreditCard(c.Request.Context(), userID, cardID)
	if err != nil {
		respondError(c, err, "Failed to retrieve credit card")
		return
	}
	c.JSON(http.StatusOK, card)
}

// listCreditCards godoc
// @Summary List credit cards
// @Tags credit-cards
// @Produce json
// @Success 200 {object} dto.ListCreditCardsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /credit-cards [get]
func (h *accountHandler) listCreditCards(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	cards, err := h.accountService.ListCreditCards(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list credit cards")
		return
	}
	c.JSON(http.StatusOK, dto.ListCreditCardsResponse{CreditCards: cards})
}

// listCategories godoc
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} dto.ListCategoriesResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /categories [get]
func (h *accountHandler) listCategories(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	categories, err := h.accountService.ListCategories(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list categories")
		return
	}
	c.JSON(http.StatusOK, dto.ListCategoriesResponse{Categories: categories})
}
