package categorizers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SscSPs/fintrack/internal/adapters/gemini"
	"github.com/SscSPs/fintrack/internal/core/domain"
	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
	"google.golang.org/genai"
)

// GeminiCategorizer asks a Gemini model to pick one of the user's categories per item.
type GeminiCategorizer struct {
	gen   gemini.Generator
	model string
}

// NewGeminiCategorizer creates a model-backed categorizer.
func NewGeminiCategorizer(gen gemini.Generator, model string) *GeminiCategorizer {
	return &GeminiCategorizer{gen: gen, model: model}
}

var _ portssvc.Categorizer = (*GeminiCategorizer)(nil)

type promptCategory struct {
	ID   int64               `json:"id"`
	Name string              `json:"name"`
	Type domain.CategoryType `json:"type"`
}

type promptItem struct {
	Index       int                 `json:"index"`
	Description string              `json:"description"`
	Amount      string              `json:"amount"`
	Type        domain.LineItemType `json:"type"`
}

type suggestion struct {
	Index      int    `json:"index"`
	CategoryID *int64 `json:"categoryId"`
}

func (c *GeminiCategorizer) CategorizeBatch(ctx context.Context, items []domain.ParsedLineItem, categories []domain.Category) (map[string]*int64, error) {
	out := map[string]*int64{}
	if len(items) == 0 || len(categories) == 0 {
		return out, nil
	}

	cats := make([]promptCategory, len(categories))
	byID := make(map[int64]domain.Category, len(categories))
	for i, cat := range categories {
		cats[i] = promptCategory{ID: cat.ID, Name: cat.Name, Type: cat.Type}
		byID[cat.ID] = cat
	}
	list := make([]promptItem, len(items))
	for i, item := range items {
		list[i] = promptItem{Index: i, Description: item.Description, Amount: item.Amount.StringFixed(2), Type: item.Type}
	}
	catJSON, err := json.Marshal(cats)
	if err != nil {
		return nil, err
	}
	itemJSON, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}

	var prompt strings.Builder
	prompt.WriteString("Categorize credit card statement line items.\n")
	prompt.WriteString("Pick at most one category id per item from this list. Purchases, fees and interest ")
	prompt.WriteString("need an expense or both category; payments and reversals need an income or both category.\n")
	prompt.WriteString("Categories: ")
	prompt.Write(catJSON)
	prompt.WriteString("\nItems: ")
	prompt.Write(itemJSON)
	prompt.WriteString("\nAnswer ONLY with a JSON array of {\"index\": n, \"categoryId\": id or null}.")

	payload, err := gemini.GenerateJSON(ctx, c.gen, c.model, &genai.Part{Text: prompt.String()})
	if err != nil {
		return nil, err
	}
	var answers []suggestion
	if err := json.Unmarshal([]byte(payload), &answers); err != nil {
		return nil, fmt.Errorf("gemini categorizer: invalid answer: %w", err)
	}

	for _, a := range answers {
		if a.Index < 0 || a.Index >= len(items) || a.CategoryID == nil {
			continue
		}
		cat, ok := byID[*a.CategoryID]
		item := items[a.Index]
		if !ok || !cat.Accepts(item.Type.TransactionType()) {
			continue
		}
		if _, seen := out[item.Description]; seen {
			continue
		}
		id := cat.ID
		out[item.Description] = &id
	}
	return out, nil
}
