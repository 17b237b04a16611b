package categorizers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func item(desc string, amount string, typ domain.LineItemType) domain.ParsedLineItem {
	return domain.ParsedLineItem{
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Type:        typ,
	}
}

var userCategories = []domain.Category{
	{ID: 1, OwnerID: 7, Name: "Alimentação", Type: domain.CategoryExpense},
	{ID: 2, OwnerID: 7, Name: "transporte", Type: domain.CategoryExpense},
	{ID: 3, OwnerID: 7, Name: "Salário", Type: domain.CategoryIncome},
	{ID: 4, OwnerID: 7, Name: "Outros Gastos", Type: domain.CategoryBoth},
}

func TestLoadRules_EmbeddedDefaults(t *testing.T) {
	c, err := LoadRules("")
	require.NoError(t, err)

	got, err := c.CategorizeBatch(context.Background(), []domain.ParsedLineItem{
		item("MERCADO EXTRA 123", "100.00", domain.LineItemPurchase),
		item("Uber *Trip", "25.00", domain.LineItemPurchase),
		item("Netflix.com", "39.90", domain.LineItemPurchase),
		item("Loja sem regra", "10.00", domain.LineItemPurchase),
	}, userCategories)

	require.NoError(t, err)
	require.NotNil(t, got["MERCADO EXTRA 123"])
	assert.Equal(t, int64(1), *got["MERCADO EXTRA 123"])
	require.NotNil(t, got["Uber *Trip"])
	assert.Equal(t, int64(2), *got["Uber *Trip"])
	assert.Nil(t, got["Netflix.com"], "user has no Entretenimento category")
	assert.Nil(t, got["Loja sem regra"])
}

func TestRulesCategorizer_PriorityAndMatchType(t *testing.T) {
	yml := []byte(`
rules:
  - name: low
    pattern: posto
    priority: 1
    category: Outros Gastos
  - name: high
    pattern: posto shell
    match_type: exact
    priority: 50
    category: Transporte
`)
	c, err := NewRulesCategorizer(yml)
	require.NoError(t, err)

	got, err := c.CategorizeBatch(context.Background(), []domain.ParsedLineItem{
		item("Posto Shell", "80.00", domain.LineItemPurchase),
		item("Posto Shell Centro", "80.00", domain.LineItemPurchase),
	}, userCategories)

	require.NoError(t, err)
	assert.Equal(t, int64(2), *got["Posto Shell"])
	assert.Equal(t, int64(4), *got["Posto Shell Centro"])
}

func TestRulesCategorizer_SkipsCategoryOfWrongType(t *testing.T) {
	yml := []byte(`
rules:
  - name: salary
    pattern: pagamento
    category: Salário
  - name: groceries
    pattern: mercado
    category: Alimentação
`)
	c, err := NewRulesCategorizer(yml)
	require.NoError(t, err)

	got, err := c.CategorizeBatch(context.Background(), []domain.ParsedLineItem{
		item("Pagamento recebido", "300.00", domain.LineItemPayment),
		item("Estorno mercado", "20.00", domain.LineItemReversal),
	}, userCategories)

	require.NoError(t, err)
	assert.Equal(t, int64(3), *got["Pagamento recebido"])
	assert.Nil(t, got["Estorno mercado"], "an expense category cannot hold a reversal")
}

func TestNewRulesCategorizer_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":       "rules: [",
		"bad match type": "rules:\n  - pattern: a\n    match_type: regex\n    category: b\n",
		"empty pattern":  "rules:\n  - pattern: '  '\n    category: b\n",
		"empty category": "rules:\n  - pattern: a\n",
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewRulesCategorizer([]byte(yml))
			assert.Error(t, err)
		})
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules("/nonexistent/rules.yaml")
	assert.Error(t, err)
}

type MockCategorizer struct {
	mock.Mock
}

func (m *MockCategorizer) CategorizeBatch(ctx context.Context, items []domain.ParsedLineItem, categories []domain.Category) (map[string]*int64, error) {
	args := m.Called(ctx, items, categories)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*int64), args.Error(1)
}

func id(v int64) *int64 { return &v }

func TestChain_FirstSuggestionWins(t *testing.T) {
	first, second := new(MockCategorizer), new(MockCategorizer)
	first.On("CategorizeBatch", mock.Anything, mock.Anything, mock.Anything).
		Return(map[string]*int64{"a": id(1), "b": nil}, nil)
	second.On("CategorizeBatch", mock.Anything, mock.Anything, mock.Anything).
		Return(map[string]*int64{"a": id(9), "b": id(2)}, nil)

	got, err := NewChain(first, nil, second).CategorizeBatch(context.Background(), nil, userCategories)

	require.NoError(t, err)
	assert.Equal(t, int64(1), *got["a"])
	assert.Equal(t, int64(2), *got["b"])
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestChain_ToleratesPartialFailure(t *testing.T) {
	broken, ok := new(MockCategorizer), new(MockCategorizer)
	broken.On("CategorizeBatch", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("quota"))
	ok.On("CategorizeBatch", mock.Anything, mock.Anything, mock.Anything).Return(map[string]*int64{"a": id(4)}, nil)

	got, err := NewChain(broken, ok).CategorizeBatch(context.Background(), nil, userCategories)

	require.NoError(t, err)
	assert.Equal(t, int64(4), *got["a"])
}

func TestChain_AllFail(t *testing.T) {
	broken := new(MockCategorizer)
	broken.On("CategorizeBatch", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("quota"))

	_, err := NewChain(broken).CategorizeBatch(context.Background(), nil, userCategories)

	assert.ErrorContains(t, err, "quota")
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.GenerateContentResponse), args.Error(1)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
	}
}

func TestGeminiCategorizer_FiltersAnswer(t *testing.T) {
	gen := new(MockGenerator)
	answer := "```json\n" + `[
	  {"index": 0, "categoryId": 1},
	  {"index": 1, "categoryId": 1},
	  {"index": 2, "categoryId": 99},
	  {"index": 7, "categoryId": 2},
	  {"index": 3, "categoryId": null}
	]` + "\n```"
	gen.On("GenerateContent", mock.Anything, "gemini-test", mock.Anything, mock.Anything).Return(textResponse(answer), nil)

	items := []domain.ParsedLineItem{
		item("Padaria", "12.00", domain.LineItemPurchase),
		item("Pagamento", "300.00", domain.LineItemPayment),
		item("Loja", "5.00", domain.LineItemPurchase),
		item("Outra", "5.00", domain.LineItemPurchase),
	}
	got, err := NewGeminiCategorizer(gen, "gemini-test").CategorizeBatch(context.Background(), items, userCategories)

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int64(1), *got["Padaria"])
	gen.AssertExpectations(t)
}

func TestGeminiCategorizer_Errors(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("unavailable")).Once()
	gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(textResponse("no json here"), nil).Once()
	c := NewGeminiCategorizer(gen, "m")
	items := []domain.ParsedLineItem{item("Padaria", "12.00", domain.LineItemPurchase)}

	_, err := c.CategorizeBatch(context.Background(), items, userCategories)
	assert.Error(t, err)

	_, err = c.CategorizeBatch(context.Background(), items, userCategories)
	assert.Error(t, err)
}

func TestGeminiCategorizer_NoCallWithoutInput(t *testing.T) {
	gen := new(MockGenerator)

	got, err := NewGeminiCategorizer(gen, "m").CategorizeBatch(context.Background(), nil, userCategories)

	require.NoError(t, err)
	assert.Empty(t, got)
	gen.AssertNotCalled(t, "GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
