package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/SscSPs/fintrack/internal/apperrors"
	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/SscSPs/fintrack/internal/core/ledger"
	portsrepo "github.com/SscSPs/fintrack/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
	"github.com/SscSPs/fintrack/internal/core/reconcile"
	"github.com/SscSPs/fintrack/internal/dto"
	"github.com/SscSPs/fintrack/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// DefaultMaxUploadBytes caps statement uploads when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20

// statementService drives statements through upload, parse, review and import.
type statementService struct {
	BaseService
	txManager      portsrepo.TransactionManager
	statementRepo  portsrepo.StatementRepositoryFacade
	cardRepo       portsrepo.CreditCardRepositoryFacade
	categoryRepo   portsrepo.CategoryRepositoryFacade
	blobs          portsrepo.BlobStore
	parsers        portssvc.ParserRegistry
	categorizer    portssvc.Categorizer
	detector       *reconcile.Detector
	transactions   portssvc.TransactionWriterSvc
	maxUploadBytes int64
}

// StatementServiceOption configures optional statement service collaborators
type StatementServiceOption func(*statementService)

// WithCategorizer enables category suggestions during parse.
func WithCategorizer(c portssvc.Categorizer) StatementServiceOption {
	return func(s *statementService) {
		s.categorizer = c
	}
}

// WithMaxUploadBytes overrides DefaultMaxUploadBytes.
func WithMaxUploadBytes(n int64) StatementServiceOption {
	return func(s *statementService) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithStatementClock replaces time.Now, mainly for tests.
func WithStatementClock(now func() time.Time) StatementServiceOption {
	return func(s *statementService) {
		s.now = now
	}
}

// NewStatementService creates the statement pipeline service. Imported line items become
// ledger transactions through transactions, so balances follow the same rules as manual entry.
func NewStatementService(
	repos portsrepo.RepositoryProvider,
	parsers portssvc.ParserRegistry,
	transactions portssvc.TransactionWriterSvc,
	opts ...StatementServiceOption,
) portssvc.StatementSvcFacade {
	svc := &statementService{
		BaseService:    newBaseService(),
		txManager:      repos.TxManager,
		statementRepo:  repos.StatementRepo,
		cardRepo:       repos.CreditCardRepo,
		categoryRepo:   repos.CategoryRepo,
		blobs:          repos.BlobStore,
		parsers:        parsers,
		detector:       reconcile.NewDetector(repos.TransactionRepo),
		transactions:   transactions,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

var _ portssvc.StatementSvcFacade = (*statementService)(nil)

// UploadStatement stores the file and creates a pending statement for it.
func (s *statementService) UploadStatement(ctx context.Context, ownerID int64, req dto.UploadStatementRequest, data []byte) (*domain.Statement, error) {
	bankCode := strings.TrimSpace(req.BankCode)
	if bankCode == "" || len(bankCode) > 50 {
		return nil, fmt.Errorf("%w: bankCode must be 1 to 50 characters", apperrors.ErrValidation)
	}
	if _, err := s.parsers.Get(bankCode); err != nil {
		return nil, err
	}
	if !domain.ValidFileName(req.FileName) {
		return nil, fmt.Errorf("%w: invalid file name %q", apperrors.ErrValidation, req.FileName)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", apperrors.ErrValidation)
	}
	if int64(len(data)) > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", apperrors.ErrValidation, s.maxUploadBytes)
	}

	if _, err := s.cardRepo.FindCreditCardByID(ctx, ownerID, req.CreditCardID); err != nil {
		return nil, err
	}

	hash := utils.ContentHash(data)
	existing, err := s.statementRepo.FindStatementByHash(ctx, ownerID, hash)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: same file as statement %d", apperrors.ErrDuplicateUpload, existing.ID)
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, err
	}

	key := fmt.Sprintf("statements/%d/%s%s", ownerID, uuid.NewString(), strings.ToLower(filepath.Ext(req.FileName)))
	uri, err := s.blobs.Put(ctx, key, data)
	if err != nil {
		s.LogError(ctx, err, "Failed to store statement file", slog.String("key", key))
		return nil, err
	}

	now := s.Now()
	st := &domain.Statement{
		OwnerID:      ownerID,
		CreditCardID: req.CreditCardID,
		BankCode:     bankCode,
		FileName:     req.FileName,
		FileHash:     hash,
		FileSize:     int64(len(data)),
		StorageURI:   uri,
		Status:       domain.StatementPending,
		AuditFields:  domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	if err := s.statementRepo.SaveStatement(ctx, st); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Statement uploaded",
		slog.Int64("statement_id", st.ID),
		slog.String("bank_code", bankCode),
		slog.Int64("size", st.FileSize))
	return st, nil
}

// ParseStatement turns a pending statement into reviewed line items. Any failure after the
// status check cancels the statement with the failure reason and returns the original error.
func (s *statementService) ParseStatement(ctx context.Context, ownerID, statementID int64) (*dto.ParseStatementResponse, error) {
	st, err := s.statementRepo.FindStatementByID(ctx, ownerID, statementID)
	if err != nil {
		return nil, err
	}
	if st.Status != domain.StatementPending {
		return nil, fmt.Errorf("%w: statement %d is %s, expected %s",
			apperrors.ErrInvalidStatus, st.ID, st.Status, domain.StatementPending)
	}

	res, err := s.parse(ctx, st)
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvalidStatus) {
			s.LogError(ctx, err, "Statement parse failed", slog.Int64("statement_id", statementID))
			if markErr := s.statementRepo.MarkStatementFailed(context.WithoutCancel(ctx), ownerID, statementID, err.Error(), s.Now()); markErr != nil {
				s.LogError(ctx, markErr, "Failed to cancel statement", slog.Int64("statement_id", statementID))
			}
		}
		return nil, err
	}

	s.LogInfo(ctx, "Statement parsed",
		slog.Int64("statement_id", statementID),
		slog.Int("line_items", res.Summary.TotalLineItems),
		slog.Int("duplicates", res.Summary.Duplicates))
	return res, nil
}

func (s *statementService) parse(ctx context.Context, st *domain.Statement) (*dto.ParseStatementResponse, error) {
	parser, err := s.parsers.Get(st.BankCode)
	if err != nil {
		return nil, err
	}
	data, err := s.blobs.Get(ctx, st.StorageURI)
	if err != nil {
		return nil, fmt.Errorf("failed to load statement file: %w", err)
	}
	parsed, err := parser.Parse(ctx, data, st.FileName)
	if err != nil {
		return nil, err
	}
	normalizeParsed(parsed)
	if err := validateParsedItems(parsed.LineItems); err != nil {
		return nil, err
	}

	suggestions := s.suggestCategories(ctx, st.OwnerID, parsed.LineItems)

	results, err := s.detector.DetectBatch(ctx, parsed.LineItems, st.CreditCardID, st.OwnerID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	items := make([]domain.LineItem, len(parsed.LineItems))
	categorized := 0
	for i, p := range parsed.LineItems {
		li := domain.LineItem{
			StatementID:         st.ID,
			Date:                domain.TruncateToDate(p.Date),
			Description:         strings.TrimSpace(p.Description),
			Amount:              p.Amount.Abs(),
			Type:                p.Type,
			SuggestedCategoryID: suggestions[p.Description],
			IsDuplicate:         results[i].IsDuplicate,
			CreatedAt:           now,
		}
		if raw := strings.TrimSpace(p.Category); raw != "" {
			li.RawCategory = &raw
		}
		if best := results[i].BestMatch; best != nil {
			reason := results[i].Reason()
			matched := best.TransactionID
			li.DuplicateConfidence = best.Score
			li.DuplicateReason = &reason
			li.MatchedTransactionID = &matched
		}
		if li.SuggestedCategoryID != nil {
			categorized++
		}
		items[i] = li
	}

	err = s.WithTransaction(ctx, s.txManager, func(tx pgx.Tx) error {
		locked, err := s.statementRepo.FindStatementForUpdate(ctx, tx, st.OwnerID, st.ID)
		if err != nil {
			return err
		}
		if locked.Status != domain.StatementPending {
			return fmt.Errorf("%w: statement %d is %s, expected %s",
				apperrors.ErrInvalidStatus, locked.ID, locked.Status, domain.StatementPending)
		}
		if err := s.statementRepo.InsertLineItemsInTx(ctx, tx, items); err != nil {
			return err
		}

		locked.Totals = computeTotals(parsed, items)
		locked.StatementDate = parsed.StatementDate
		locked.DueDate = parsed.DueDate
		locked.Status = domain.StatementReviewed
		locked.UpdatedAt = now
		if err := s.statementRepo.UpdateStatementInTx(ctx, tx, locked); err != nil {
			return err
		}
		*st = *locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.ParseStatementResponse{
		Statement: *st,
		LineItems: items,
		Summary:   dto.NewParseSummary(reconcile.Summarize(results), categorized),
	}, nil
}

// suggestCategories never fails the parse: categorizer errors are logged and produce no
// suggestions. Suggested ids outside the owner's categories are dropped.
func (s *statementService) suggestCategories(ctx context.Context, ownerID int64, items []domain.ParsedLineItem) map[string]*int64 {
	if s.categorizer == nil || len(items) == 0 {
		return nil
	}
	categories, err := s.categoryRepo.ListCategories(ctx, ownerID)
	if err != nil {
		s.LogWarn(ctx, "Skipping categorization, categories unavailable", slog.String("error", err.Error()))
		return nil
	}
	if len(categories) == 0 {
		return nil
	}
	raw, err := s.categorizer.CategorizeBatch(ctx, items, categories)
	if err != nil {
		s.LogWarn(ctx, "Categorizer failed, continuing without suggestions", slog.String("error", err.Error()))
		return nil
	}

	owned := make(map[int64]bool, len(categories))
	for _, c := range categories {
		owned[c.ID] = true
	}
	out := make(map[string]*int64, len(raw))
	for desc, id := range raw {
		if id != nil && owned[*id] {
			v := *id
			out[desc] = &v
		}
	}
	return out
}

// normalizeParsed fits parser output to the columns it is stored in: amounts are rounded to
// cents and descriptions cut to the column width.
func normalizeParsed(parsed *domain.ParsedStatement) {
	t := &parsed.Totals
	for _, v := range []*decimal.Decimal{&t.PreviousBalance, &t.PaymentsReceived, &t.Purchases, &t.Fees, &t.Interest, &t.TotalAmount} {
		*v = v.Round(ledger.Scale)
	}
	for i := range parsed.LineItems {
		p := &parsed.LineItems[i]
		p.Amount = p.Amount.Round(ledger.Scale)
		p.Description = domain.TruncateDescription(strings.TrimSpace(p.Description))
		p.Category = domain.TruncateRawCategory(strings.TrimSpace(p.Category))
	}
}

func validateParsedItems(items []domain.ParsedLineItem) error {
	for i, p := range items {
		if strings.TrimSpace(p.Description) == "" {
			return fmt.Errorf("%w: line item %d has no description", apperrors.ErrValidation, i+1)
		}
		if p.Date.IsZero() {
			return fmt.Errorf("%w: line item %d has no date", apperrors.ErrValidation, i+1)
		}
		if !p.Type.Valid() {
			return fmt.Errorf("%w: line item %d has unknown type %q", apperrors.ErrValidation, i+1, p.Type)
		}
		if p.Amount.IsZero() {
			return fmt.Errorf("%w: line item %d has a zero amount after rounding to cents", apperrors.ErrValidation, i+1)
		}
	}
	return nil
}

// computeTotals sums the line items per type. The parser's previous balance and dates are
// kept; its total is kept only when positive.
func computeTotals(parsed *domain.ParsedStatement, items []domain.LineItem) domain.StatementTotals {
	t := domain.StatementTotals{PreviousBalance: parsed.Totals.PreviousBalance}
	reversals := decimal.Zero
	for _, li := range items {
		switch li.Type {
		case domain.LineItemPurchase:
			t.Purchases = t.Purchases.Add(li.Amount)
		case domain.LineItemFee:
			t.Fees = t.Fees.Add(li.Amount)
		case domain.LineItemInterest:
			t.Interest = t.Interest.Add(li.Amount)
		case domain.LineItemPayment:
			t.PaymentsReceived = t.PaymentsReceived.Add(li.Amount)
		case domain.LineItemReversal:
			reversals = reversals.Add(li.Amount)
		}
	}
	if parsed.Totals.TotalAmount.IsPositive() {
		t.TotalAmount = parsed.Totals.TotalAmount
	} else {
		t.TotalAmount = t.PreviousBalance.
			Add(t.Purchases).Add(t.Fees).Add(t.Interest).
			Sub(t.PaymentsReceived).Sub(reversals)
	}
	return t
}

// ImportStatement creates one transaction per importable line item. The review edits are
// committed first; each item then gets its own database transaction so one bad item does
// not block the rest.
func (s *statementService) ImportStatement(ctx context.Context, ownerID, statementID int64, req dto.ImportStatementRequest) (*dto.ImportStatementResponse, error) {
	var (
		st       *domain.Statement
		all      []domain.LineItem
		toImport []domain.LineItem
		summary  dto.ImportSummary
	)

	err := s.WithTransaction(ctx, s.txManager, func(tx pgx.Tx) error {
		var err error
		st, err = s.statementRepo.FindStatementForUpdate(ctx, tx, ownerID, statementID)
		if err != nil {
			return err
		}
		if st.Status != domain.StatementReviewed {
			return fmt.Errorf("%w: statement %d is %s, expected %s",
				apperrors.ErrInvalidStatus, st.ID, st.Status, domain.StatementReviewed)
		}
		all, err = s.statementRepo.ListLineItemsInTx(ctx, tx, statementID)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			return fmt.Errorf("%w: statement %d has no line items", apperrors.ErrNothingToImport, statementID)
		}

		byID := make(map[int64]int, len(all))
		for i, li := range all {
			byID[li.ID] = i
		}
		excluded := make(map[int64]bool, len(req.ExcludeLineItemIDs))
		for _, id := range req.ExcludeLineItemIDs {
			if _, ok := byID[id]; !ok {
				return fmt.Errorf("%w: line item %d does not belong to statement %d", apperrors.ErrValidation, id, statementID)
			}
			excluded[id] = true
		}

		changed := map[int64]bool{}
		for _, u := range req.LineItemUpdates {
			idx, ok := byID[u.ID]
			if !ok {
				return fmt.Errorf("%w: line item %d does not belong to statement %d", apperrors.ErrValidation, u.ID, statementID)
			}
			if u.FinalCategoryID != nil {
				if _, err := s.categoryRepo.FindCategoryByID(ctx, ownerID, *u.FinalCategoryID); err != nil {
					return err
				}
				v := *u.FinalCategoryID
				all[idx].FinalCategoryID = &v
			}
			if u.IsDuplicate != nil {
				all[idx].IsDuplicate = *u.IsDuplicate
			}
			changed[u.ID] = true
		}

		summary.TotalItems = len(all)
		for _, li := range all {
			if li.IsDuplicate {
				summary.Duplicates++
			}
			switch {
			case excluded[li.ID]:
				summary.Excluded++
			case li.IsDuplicate, li.TransactionID != nil:
			default:
				toImport = append(toImport, li)
			}
		}
		if len(toImport) == 0 {
			return fmt.Errorf("%w: every line item of statement %d is excluded, duplicate or already imported",
				apperrors.ErrNothingToImport, statementID)
		}

		for _, li := range all {
			if !changed[li.ID] {
				continue
			}
			if err := s.statementRepo.UpdateLineItemReviewInTx(ctx, tx, li); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &dto.ImportStatementResponse{
		CreatedTransactionIDs: []int64{},
		SkippedLineItemIDs:    []int64{},
	}
	credits := decimal.Zero
	for _, li := range toImport {
		txnID, err := s.importLineItem(ctx, ownerID, st, li)
		if err != nil {
			s.LogWarn(ctx, "Skipping line item",
				slog.Int64("statement_id", statementID),
				slog.Int64("line_item_id", li.ID),
				slog.String("error", err.Error()))
			res.SkippedLineItemIDs = append(res.SkippedLineItemIDs, li.ID)
			continue
		}
		res.CreatedTransactionIDs = append(res.CreatedTransactionIDs, txnID)
		if li.Type == domain.LineItemPayment || li.Type == domain.LineItemReversal {
			credits = credits.Add(li.Amount)
		}
	}

	err = s.WithTransaction(ctx, s.txManager, func(tx pgx.Tx) error {
		locked, err := s.statementRepo.FindStatementForUpdate(ctx, tx, ownerID, statementID)
		if err != nil {
			return err
		}
		now := s.Now()
		if locked.Status == domain.StatementReviewed {
			locked.Status = domain.StatementImported
			locked.ImportedAt = &now
			locked.UpdatedAt = now
			if err := s.statementRepo.UpdateStatementInTx(ctx, tx, locked); err != nil {
				return err
			}
		}

		if !req.UpdateCurrentBill {
			return nil
		}
		cards, err := s.cardRepo.FindCreditCardsByIDsForUpdate(ctx, tx, ownerID, []int64{st.CreditCardID})
		if err != nil {
			return err
		}
		card, ok := cards[st.CreditCardID]
		if !ok {
			return fmt.Errorf("%w: credit card %d", apperrors.ErrNotFound, st.CreditCardID)
		}
		if !credits.IsZero() {
			change := map[int64]decimal.Decimal{st.CreditCardID: credits.Neg()}
			if err := s.cardRepo.UpdateCreditCardBillsInTx(ctx, tx, change, now); err != nil {
				return err
			}
		}
		bill := card.CurrentBill.Sub(credits)
		res.UpdatedCurrentBill = true
		res.NewCurrentBill = &bill
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to finalize statement import", slog.Int64("statement_id", statementID))
		return nil, err
	}

	summary.Imported = len(res.CreatedTransactionIDs)
	summary.Skipped = len(res.SkippedLineItemIDs)
	res.Summary = summary

	s.LogInfo(ctx, "Statement imported",
		slog.Int64("statement_id", statementID),
		slog.Int("imported", summary.Imported),
		slog.Int("skipped", summary.Skipped))
	return res, nil
}

// importLineItem records li as a card transaction and links it, atomically.
func (s *statementService) importLineItem(ctx context.Context, ownerID int64, st *domain.Statement, li domain.LineItem) (int64, error) {
	txnType := li.Type.TransactionType()
	categoryID, err := s.importCategory(ctx, ownerID, li, txnType)
	if err != nil {
		return 0, err
	}

	cardID := st.CreditCardID
	req := dto.CreateTransactionRequest{
		Description:  li.Description,
		Amount:       li.Amount.Abs(),
		Type:         txnType,
		Date:         li.Date.Format(domain.DateLayout),
		CategoryID:   categoryID,
		CreditCardID: &cardID,
	}

	var txnID int64
	err = s.WithTransaction(ctx, s.txManager, func(tx pgx.Tx) error {
		t, err := s.transactions.CreateTransactionInTx(ctx, tx, ownerID, req)
		if err != nil {
			return err
		}
		if err := s.statementRepo.LinkLineItemInTx(ctx, tx, li.ID, t.ID); err != nil {
			return err
		}
		txnID = t.ID
		return nil
	})
	return txnID, err
}

// importCategory resolves the category to file li under. A category that does not accept
// the mapped transaction type is dropped rather than failing the item.
func (s *statementService) importCategory(ctx context.Context, ownerID int64, li domain.LineItem, t domain.TransactionType) (*int64, error) {
	id := li.CategoryID()
	if id == nil {
		return nil, nil
	}
	cat, err := s.categoryRepo.FindCategoryByID(ctx, ownerID, *id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !cat.Accepts(t) {
		return nil, nil
	}
	v := cat.ID
	return &v, nil
}

func (s *statementService) GetStatement(ctx context.Context, ownerID, statementID int64) (*domain.Statement, error) {
	return s.statementRepo.FindStatementByID(ctx, ownerID, statementID)
}

func (s *statementService) ListStatements(ctx context.Context, ownerID int64, params dto.ListStatementsParams) ([]domain.Statement, error) {
	page, limit := params.Page, params.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := domain.StatementFilter{CreditCardID: params.CreditCardID}
	if params.Status != "" {
		status := domain.StatementStatus(params.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown statement status %q", apperrors.ErrValidation, params.Status)
		}
		filter.Status = &status
	}
	var err error
	if filter.StartDate, err = parseOptionalDate(params.StartDate); err != nil {
		return nil, err
	}
	if filter.EndDate, err = parseOptionalDate(params.EndDate); err != nil {
		return nil, err
	}

	statements, err := s.statementRepo.ListStatements(ctx, ownerID, filter, limit, (page-1)*limit)
	if err != nil {
		s.LogError(ctx, err, "Failed to list statements")
		return nil, err
	}
	return statements, nil
}

func (s *statementService) ListLineItems(ctx context.Context, ownerID, statementID int64) ([]domain.LineItem, error) {
	if _, err := s.statementRepo.FindStatementByID(ctx, ownerID, statementID); err != nil {
		return nil, err
	}
	return s.statementRepo.ListLineItems(ctx, statementID)
}

func (s *statementService) UpdateLineItem(ctx context.Context, ownerID, statementID, lineItemID int64, req dto.UpdateLineItemRequest) (*domain.LineItem, error) {
	var updated *domain.LineItem
	err := s.WithTransaction(ctx, s.txManager, func(tx pgx.Tx) error {
		st, err := s.statementRepo.FindStatementForUpdate(ctx, tx, ownerID, statementID)
		if err != nil {
			return err
		}
		if st.Status != domain.StatementReviewed {
			return fmt.Errorf("%w: statement %d is %s, expected %s",
				apperrors.ErrInvalidStatus, st.ID, st.Status, domain.StatementReviewed)
		}
		items, err := s.statementRepo.ListLineItemsInTx(ctx, tx, statementID)
		if err != nil {
			return err
		}
		var li *domain.LineItem
		for i := range items {
			if items[i].ID == lineItemID {
				li = &items[i]
				break
			}
		}
		if li == nil {
			return fmt.Errorf("%w: line item %d", apperrors.ErrNotFound, lineItemID)
		}

		switch {
		case req.ClearFinalCategory:
			li.FinalCategoryID = nil
		case req.FinalCategoryID != nil:
			if _, err := s.categoryRepo.FindCategoryByID(ctx, ownerID, *req.FinalCategoryID); err != nil {
				return err
			}
			v := *req.FinalCategoryID
			li.FinalCategoryID = &v
		}
		if req.IsDuplicate != nil {
			li.IsDuplicate = *req.IsDuplicate
		}
		if err := s.statementRepo.UpdateLineItemReviewInTx(ctx, tx, *li); err != nil {
			return err
		}
		updated = li
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
