package services_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/fintrack/internal/apperrors"
	"github.com/SscSPs/fintrack/internal/core/domain"
	portsrepo "github.com/SscSPs/fintrack/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// fakeTx stands in for a pgx.Tx; the store only uses it as a handle.
type fakeTx struct {
	pgx.Tx
	id        int
	committed bool
	done      bool
}

type storeState struct {
	accounts   map[int64]domain.Account
	cards      map[int64]domain.CreditCard
	categories map[int64]domain.Category
	txns       map[int64]domain.Transaction
	statements map[int64]domain.Statement
	lineItems  map[int64]domain.LineItem
	users      map[int64]domain.User
}

func (s storeState) clone() storeState {
	return storeState{
		accounts:   cloneMap(s.accounts),
		cards:      cloneMap(s.cards),
		categories: cloneMap(s.categories),
		txns:       cloneMap(s.txns),
		statements: cloneMap(s.statements),
		lineItems:  cloneMap(s.lineItems),
		users:      cloneMap(s.users),
	}
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// fakeStore is an in-memory implementation of every repository port. Begin snapshots the
// state and Rollback restores it, so a failed unit of work leaves no trace.
type fakeStore struct {
	mu sync.Mutex
	storeState
	blobs     map[string][]byte
	nextID    int64
	txSeq     int
	snapshots map[int]storeState

	// failures injected by tests
	failInsertTxn func(t domain.Transaction) error
	failCandidate error
	failBlobGet   error
	commits       int
	rollbacks     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		storeState: storeState{
			accounts:   map[int64]domain.Account{},
			cards:      map[int64]domain.CreditCard{},
			categories: map[int64]domain.Category{},
			txns:       map[int64]domain.Transaction{},
			statements: map[int64]domain.Statement{},
			lineItems:  map[int64]domain.LineItem{},
			users:      map[int64]domain.User{},
		},
		blobs:     map[string][]byte{},
		nextID:    1000,
		snapshots: map[int]storeState{},
	}
}

func (f *fakeStore) provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:       f,
		AccountRepo:     f,
		CreditCardRepo:  f,
		CategoryRepo:    f,
		TransactionRepo: f,
		StatementRepo:   f,
		UserRepo:        f,
		BlobStore:       f,
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

// --- seeding helpers ---

func (f *fakeStore) addAccount(id, owner int64, balance string) {
	f.accounts[id] = domain.Account{ID: id, OwnerID: owner, Name: fmt.Sprintf("account-%d", id), Currency: domain.DefaultCurrency, Balance: decimal.RequireFromString(balance)}
}

func (f *fakeStore) addCard(id, owner int64, bill string) {
	f.cards[id] = domain.CreditCard{ID: id, OwnerID: owner, Name: fmt.Sprintf("card-%d", id), Limit: decimal.NewFromInt(5000), CurrentBill: decimal.RequireFromString(bill)}
}

func (f *fakeStore) addCategory(id, owner int64, name string, t domain.CategoryType) {
	f.categories[id] = domain.Category{ID: id, OwnerID: owner, Name: name, Type: t}
}

func (f *fakeStore) balance(id int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[id].Balance.StringFixed(2)
}

func (f *fakeStore) bill(id int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cards[id].CurrentBill.StringFixed(2)
}

// --- TransactionManager ---

func (f *fakeStore) Begin(ctx context.Context) (pgx.Tx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txSeq++
	f.snapshots[f.txSeq] = f.storeState.clone()
	return &fakeTx{id: f.txSeq}, nil
}

func (f *fakeStore) Commit(ctx context.Context, tx pgx.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ft := tx.(*fakeTx)
	if ft.done {
		return pgx.ErrTxClosed
	}
	ft.done, ft.committed = true, true
	delete(f.snapshots, ft.id)
	f.commits++
	return nil
}

func (f *fakeStore) Rollback(ctx context.Context, tx pgx.Tx) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ft := tx.(*fakeTx)
	if ft.done {
		return nil
	}
	ft.done = true
	f.storeState = f.snapshots[ft.id]
	delete(f.snapshots, ft.id)
	f.rollbacks++
	return nil
}

// --- accounts ---

func (f *fakeStore) FindAccountByID(ctx context.Context, ownerID, accountID int64) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[accountID]
	if !ok || a.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: account %d", apperrors.ErrNotFound, accountID)
	}
	return &a, nil
}

func (f *fakeStore) ListAccounts(ctx context.Context, ownerID int64) ([]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Account
	for _, a := range f.accounts {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, ownerID int64, ids []int64) (map[int64]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int64]domain.Account{}
	for _, id := range ids {
		if a, ok := f.accounts[id]; ok && a.OwnerID == ownerID {
			out[id] = a
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateAccountBalancesInTx(ctx context.Context, tx pgx.Tx, changes map[int64]decimal.Decimal, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, v := range changes {
		a, ok := f.accounts[id]
		if !ok {
			return fmt.Errorf("%w: account %d", apperrors.ErrNotFound, id)
		}
		a.Balance = numeric(a.Balance.Add(v))
		a.UpdatedAt = now
		f.accounts[id] = a
	}
	return nil
}

// --- credit cards ---

func (f *fakeStore) FindCreditCardByID(ctx context.Context, ownerID, cardID int64) (*domain.CreditCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[cardID]
	if !ok || c.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: credit card %d", apperrors.ErrNotFound, cardID)
	}
	return &c, nil
}

func (f *fakeStore) ListCreditCards(ctx context.Context, ownerID int64) ([]domain.CreditCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CreditCard
	for _, c := range f.cards {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) FindCreditCardsByIDsForUpdate(ctx context.Context, tx pgx.Tx, ownerID int64, ids []int64) (map[int64]domain.CreditCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int64]domain.CreditCard{}
	for _, id := range ids {
		if c, ok := f.cards[id]; ok && c.OwnerID == ownerID {
			out[id] = c
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateCreditCardBillsInTx(ctx context.Context, tx pgx.Tx, changes map[int64]decimal.Decimal, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, v := range changes {
		c, ok := f.cards[id]
		if !ok {
			return fmt.Errorf("%w: credit card %d", apperrors.ErrNotFound, id)
		}
		c.CurrentBill = numeric(c.CurrentBill.Add(v))
		c.UpdatedAt = now
		f.cards[id] = c
	}
	return nil
}

// --- categories ---

func (f *fakeStore) FindCategoryByID(ctx context.Context, ownerID, categoryID int64) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[categoryID]
	if !ok || c.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: category %d", apperrors.ErrNotFound, categoryID)
	}
	return &c, nil
}

func (f *fakeStore) ListCategories(ctx context.Context, ownerID int64) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Category
	for _, c := range f.categories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- transactions ---

func (f *fakeStore) FindTransactionByID(ctx context.Context, ownerID, id int64) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.txns[id]
	if !ok || t.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: transaction %d", apperrors.ErrNotFound, id)
	}
	return &t, nil
}

func (f *fakeStore) ListTransactions(ctx context.Context, ownerID int64, filter domain.TransactionFilter, limit int) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Transaction
	for _, t := range f.txns {
		if t.OwnerID != ownerID {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if filter.CreditCardID != nil && (t.CreditCardID == nil || *t.CreditCardID != *filter.CreditCardID) {
			continue
		}
		if c := filter.After; c != nil && !(t.Date.Before(c.Date) || (t.Date.Equal(c.Date) && t.ID < c.ID)) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) FindDuplicateCandidates(ctx context.Context, ownerID, cardID int64, from, to time.Time) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCandidate != nil {
		return nil, f.failCandidate
	}
	var out []domain.Transaction
	for _, t := range f.txns {
		if t.OwnerID == ownerID && t.CreditCardID != nil && *t.CreditCardID == cardID &&
			!t.Date.Before(from) && !t.Date.After(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) FindTransactionForUpdate(ctx context.Context, tx pgx.Tx, ownerID, id int64) (*domain.Transaction, error) {
	return f.FindTransactionByID(ctx, ownerID, id)
}

func (f *fakeStore) InsertTransactionInTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertTxn != nil {
		if err := f.failInsertTxn(*t); err != nil {
			return err
		}
	}
	t.ID = f.id()
	stored := *t
	stored.Amount = numeric(stored.Amount)
	f.txns[t.ID] = stored
	return nil
}

func (f *fakeStore) UpdateTransactionInTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.txns[t.ID]; !ok {
		return apperrors.ErrNotFound
	}
	stored := *t
	stored.Amount = numeric(stored.Amount)
	f.txns[t.ID] = stored
	return nil
}

func (f *fakeStore) DeleteTransactionInTx(ctx context.Context, tx pgx.Tx, ownerID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.txns, id)
	for lid, li := range f.lineItems {
		if li.TransactionID != nil && *li.TransactionID == id {
			li.TransactionID = nil
			f.lineItems[lid] = li
		}
	}
	return nil
}

// --- statements ---

func (f *fakeStore) FindStatementByID(ctx context.Context, ownerID, id int64) (*domain.Statement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.statements[id]
	if !ok || s.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: statement %d", apperrors.ErrNotFound, id)
	}
	return &s, nil
}

func (f *fakeStore) FindStatementByHash(ctx context.Context, ownerID int64, hash string) (*domain.Statement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.statements {
		if s.OwnerID == ownerID && s.FileHash == hash {
			return &s, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeStore) ListStatements(ctx context.Context, ownerID int64, filter domain.StatementFilter, limit, offset int) ([]domain.Statement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Statement
	for _, s := range f.statements {
		if s.OwnerID != ownerID || (filter.Status != nil && s.Status != *filter.Status) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) listItems(statementID int64) []domain.LineItem {
	var out []domain.LineItem
	for _, li := range f.lineItems {
		if li.StatementID == statementID {
			out = append(out, li)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakeStore) ListLineItems(ctx context.Context, statementID int64) ([]domain.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listItems(statementID), nil
}

func (f *fakeStore) SaveStatement(ctx context.Context, s *domain.Statement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.statements {
		if existing.OwnerID == s.OwnerID && existing.FileHash == s.FileHash {
			return apperrors.ErrDuplicateUpload
		}
	}
	s.ID = f.id()
	f.statements[s.ID] = *s
	return nil
}

func (f *fakeStore) MarkStatementFailed(ctx context.Context, ownerID, id int64, reason string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.statements[id]
	if !ok || s.OwnerID != ownerID {
		return apperrors.ErrNotFound
	}
	if s.Status != domain.StatementPending {
		return apperrors.ErrInvalidStatus
	}
	s.Status = domain.StatementCancelled
	s.FailureReason = &reason
	s.UpdatedAt = now
	f.statements[id] = s
	return nil
}

func (f *fakeStore) FindStatementForUpdate(ctx context.Context, tx pgx.Tx, ownerID, id int64) (*domain.Statement, error) {
	return f.FindStatementByID(ctx, ownerID, id)
}

func (f *fakeStore) UpdateStatementInTx(ctx context.Context, tx pgx.Tx, s *domain.Statement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statements[s.ID] = *s
	return nil
}

func (f *fakeStore) InsertLineItemsInTx(ctx context.Context, tx pgx.Tx, items []domain.LineItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range items {
		items[i].ID = f.id()
		f.lineItems[items[i].ID] = items[i]
	}
	return nil
}

func (f *fakeStore) ListLineItemsInTx(ctx context.Context, tx pgx.Tx, statementID int64) ([]domain.LineItem, error) {
	return f.ListLineItems(ctx, statementID)
}

func (f *fakeStore) UpdateLineItemReviewInTx(ctx context.Context, tx pgx.Tx, item domain.LineItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	li, ok := f.lineItems[item.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	li.FinalCategoryID = item.FinalCategoryID
	li.IsDuplicate = item.IsDuplicate
	f.lineItems[item.ID] = li
	return nil
}

func (f *fakeStore) LinkLineItemInTx(ctx context.Context, tx pgx.Tx, lineItemID, txnID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	li, ok := f.lineItems[lineItemID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if li.TransactionID != nil {
		return fmt.Errorf("%w: line item %d already imported", apperrors.ErrDuplicate, lineItemID)
	}
	li.TransactionID = &txnID
	f.lineItems[lineItemID] = li
	return nil
}

// --- users ---

func (f *fakeStore) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeStore) SaveUser(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperrors.ErrDuplicate
		}
	}
	u.ID = f.id()
	f.users[u.ID] = *u
	return nil
}

// --- blobs ---

func (f *fakeStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uri := "mem://" + key
	f.blobs[uri] = append([]byte(nil), data...)
	return uri, nil
}

func (f *fakeStore) Get(ctx context.Context, uri string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBlobGet != nil {
		return nil, f.failBlobGet
	}
	data, ok := f.blobs[uri]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return data, nil
}

// --- parsers ---

type stubParser struct {
	code   string
	parsed *domain.ParsedStatement
	err    error
}

func (p *stubParser) BankCode() string { return p.code }

func (p *stubParser) Parse(ctx context.Context, data []byte, fileName string) (*domain.ParsedStatement, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.parsed, nil
}

type stubRegistry map[string]portssvc.StatementParser

func (r stubRegistry) Get(code string) (portssvc.StatementParser, error) {
	p, ok := r[strings.ToLower(code)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported bank code %q", apperrors.ErrValidation, code)
	}
	return p, nil
}

func (r stubRegistry) Codes() []string {
	codes := make([]string, 0, len(r))
	for c := range r {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// numeric stores v the way a NUMERIC(14,2) column does.
func numeric(v decimal.Decimal) decimal.Decimal { return v.Round(2) }
