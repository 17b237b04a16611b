package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
	"github.com/SscSPs/fintrack/internal/core/services"
	"github.com/SscSPs/fintrack/internal/dto"
	"github.com/SscSPs/fintrack/internal/middleware"
	"github.com/gin-gonic/gin"
)

// multipartOverhead is the allowance for form fields and boundaries on top of the file itself.
const multipartOverhead = 1 << 20

// statementHandler handles statement upload, parse, review and import.
type statementHandler struct {
	statementService portssvc.StatementSvcFacade
	parsers          portssvc.ParserRegistry
	maxUploadBytes   int64
}

// RegisterStatementRoutes registers the /statements and /parsers routes. A non-positive
// maxUploadBytes falls back to services.DefaultMaxUploadBytes. Nothing is registered when
// the custom binding validators cannot be installed.
func RegisterStatementRoutes(rg *gin.RouterGroup, statementService portssvc.StatementSvcFacade, parsers portssvc.ParserRegistry, maxUploadBytes int64) error {
	if err := RegisterValidators(); err != nil {
		return err
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = services.DefaultMaxUploadBytes
	}
	h := &statementHandler{statementService: statementService, parsers: parsers, maxUploadBytes: maxUploadBytes}

	rg.GET("/parsers", h.listParsers)

	statements := rg.Group("/statements")
	{
		statements.POST("", h.uploadStatement)
		statements.GET("", h.listStatements)
		statements.GET("/:id", h.getStatement)
		statements.POST("/:id/parse", h.parseStatement)
		statements.POST("/:id/import", h.importStatement)
		statements.GET("/:id/line-items", h.listLineItems)
		statements.PATCH("/:id/line-items/:itemId", h.updateLineItem)
	}
	return nil
}

// listParsers godoc
// @Summary List supported bank codes
// @Tags statements
// @Produce json
// @Success 200 {object} map[string][]string
// @Security BearerAuth
// @Router /parsers [get]
func (h *statementHandler) listParsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"bankCodes": h.parsers.Codes()})
}

// uploadStatement godoc
// @Summary Upload a statement file
// @Description Stores the file and creates a pending statement. The same file cannot be uploaded twice.
// @Tags statements
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Statement file"
// @Param creditCardId formData int true "Credit card the statement belongs to"
// @Param bankCode formData string true "Parser to use, see /parsers"
// @Success 201 {object} domain.Statement
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Credit card not found"
// @Failure 409 {object} ErrorResponse "File already uploaded"
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /statements [post]
func (h *statementHandler) uploadStatement(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	var req dto.UploadStatementRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid form: " + err.Error()})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "A statement file is required"})
		return
	}
	if fh.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "File too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err, "Failed to read uploaded file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		respondError(c, err, "Failed to read uploaded file")
		return
	}
	req.FileName = fh.Filename

	st, err := h.statementService.UploadStatement(c.Request.Context(), userID, req, data)
	if err != nil {
		respondError(c, err, "Failed to upload statement")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Statement uploaded",
		slog.Int64("statement_id", st.ID), slog.String("bank_code", st.BankCode), slog.Int64("size", st.FileSize))
	c.JSON(http.StatusCreated, st)
}

// listStatements godoc
// @Summary List statements
// @Tags statements
// @Produce json
// @Param creditCardId query int false "Credit card filter"
// @Param status query string false "pending, reviewed, imported or cancelled"
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} dto.ListStatementsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /statements [get]
func (h *statementHandler) listStatements(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var params dto.ListStatementsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}
	statements, err := h.statementService.ListStatements(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, err, "Failed to list statements")
		return
	}
	c.JSON(http.StatusOK, dto.ListStatementsResponse{Statements: statements, Page: params.Page, Limit: params.Limit})
}

// getStatement godoc
// @Summary Get a statement
// @Tags statements
// @Produce json
// @Param id path int true "Statement ID"
// @Success 200 {object} domain.Statement
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /statements/{id} [get]
func (h *statementHandler) getStatement(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	st, err := h.statementService.GetStatement(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err, "Failed to retrieve statement")
		return
	}
	c.JSON(http.StatusOK, st)
}

// parseStatement godoc
// @Summary Parse a pending statement
// @Description Extracts line items, suggests categories and flags duplicates. A failed parse cancels the statement.
// @Tags statements
// @Produce json
// @Param id path int true "Statement ID"
// @Success 200 {object} dto.ParseStatementResponse
// @Failure 400 {object} ErrorResponse "File could not be parsed"
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Statement is not pending"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /statements/{id}/parse [post]
func (h *statementHandler) parseStatement(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.statementService.ParseStatement(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err, "Failed to parse statement")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Statement parsed",
		slog.Int64("statement_id", id), slog.Int("line_items", res.Summary.TotalLineItems))
	c.JSON(http.StatusOK, res)
}

// importStatement godoc
// @Summary Import a reviewed statement
// @Description Creates a transaction per remaining line item. The body is optional.
// @Tags statements
// @Accept json
// @Produce json
// @Param id path int true "Statement ID"
// @Param import body dto.ImportStatementRequest false "Exclusions and review overrides"
// @Success 200 {object} dto.ImportStatementResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Statement is not reviewed or nothing is left to import"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /statements/{id}/import [post]
func (h *statementHandler) importStatement(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.ImportStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}
	res, err := h.statementService.ImportStatement(c.Request.Context(), userID, id, req)
	if err != nil {
		respondError(c, err, "Failed to import statement")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Statement imported",
		slog.Int64("statement_id", id), slog.Int("imported", res.Summary.Imported), slog.Int("skipped", res.Summary.Skipped))
	c.JSON(http.StatusOK, res)
}

// listLineItems godoc
// @Summary List a statement's line items
// @Tags statements
// @Produce json
// @Param id path int true "Statement ID"
// @Success 200 {object} dto.LineItemsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /statements/{id}/line-items [get]
func (h *statementHandler) listLineItems(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	items, err := h.statementService.ListLineItems(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err, "Failed to list line items")
		return
	}
	c.JSON(http.StatusOK, dto.NewLineItemsResponse(items))
}

// updateLineItem godoc
// @Summary Review a line item
// @Description Sets the final category or the duplicate flag while the statement is reviewed.
// @Tags statements
// @Accept json
// @Produce json
// @Param id path int true "Statement ID"
// @Param itemId path int true "Line item ID"
// @Param item body dto.UpdateLineItemRequest true "Review fields"
// @Success 200 {object} domain.LineItem
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Statement is not reviewed"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /statements/{id}/line-items/{itemId} [patch]
func (h *statementHandler) updateLineItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	var req dto.UpdateLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}
	item, err := h.statementService.UpdateLineItem(c.Request.Context(), userID, id, itemID, req)
	if err != nil {
		respondError(c, err, "Failed to update line item")
		return
	}
	c.JSON(http.StatusOK, item)
}
