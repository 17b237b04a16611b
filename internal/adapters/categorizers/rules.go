// Package categorizers suggests categories for parsed statement line items.
package categorizers

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/SscSPs/fintrack/internal/core/domain"
	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
	"github.com/SscSPs/fintrack/internal/core/reconcile"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var embeddedRules []byte

// MatchType defines how patterns are matched against line item descriptions
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
)

// Rule maps a description pattern to a category name.
type Rule struct {
	Name      string    `yaml:"name"`
	Pattern   string    `yaml:"pattern"`
	MatchType MatchType `yaml:"match_type"`
	Priority  int       `yaml:"priority"`
	Category  string    `yaml:"category"`

	pattern  string
	category string
}

type ruleSet struct {
	Rules []Rule `yaml:"rules"`
}

// RulesCategorizer matches descriptions against YAML rules, highest priority first.
type RulesCategorizer struct {
	rules []Rule
}

// NewRulesCategorizer parses and validates a YAML rule set.
func NewRulesCategorizer(data []byte) (*RulesCategorizer, error) {
	var rs ruleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse category rules: %w", err)
	}
	for i := range rs.Rules {
		r := &rs.Rules[i]
		if r.MatchType == "" {
			r.MatchType = MatchContains
		}
		if r.MatchType != MatchExact && r.MatchType != MatchContains {
			return nil, fmt.Errorf("rule %d (%s): invalid match_type %q", i, r.Name, r.MatchType)
		}
		r.pattern = reconcile.Normalize(r.Pattern)
		if r.pattern == "" {
			return nil, fmt.Errorf("rule %d (%s): pattern cannot be empty", i, r.Name)
		}
		r.category = reconcile.Normalize(r.Category)
		if r.category == "" {
			return nil, fmt.Errorf("rule %d (%s): category cannot be empty", i, r.Name)
		}
	}
	sort.SliceStable(rs.Rules, func(i, j int) bool {
		return rs.Rules[i].Priority > rs.Rules[j].Priority
	})
	return &RulesCategorizer{rules: rs.Rules}, nil
}

// LoadRules reads rules from path, or the embedded defaults when path is empty.
func LoadRules(path string) (*RulesCategorizer, error) {
	if path == "" {
		return NewRulesCategorizer(embeddedRules)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category rules: %w", err)
	}
	c, err := NewRulesCategorizer(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

var _ portssvc.Categorizer = (*RulesCategorizer)(nil)

// CategorizeBatch suggests, per description, the category named by the first matching rule
// that exists for the user and accepts the item's transaction type.
func (c *RulesCategorizer) CategorizeBatch(ctx context.Context, items []domain.ParsedLineItem, categories []domain.Category) (map[string]*int64, error) {
	out := make(map[string]*int64, len(items))
	for _, item := range items {
		if _, done := out[item.Description]; done {
			continue
		}
		if id := c.match(item, categories); id != nil {
			out[item.Description] = id
		}
	}
	return out, ctx.Err()
}

func (c *RulesCategorizer) match(item domain.ParsedLineItem, categories []domain.Category) *int64 {
	desc := reconcile.Normalize(item.Description)
	txnType := item.Type.TransactionType()
	for _, r := range c.rules {
		var hit bool
		switch r.MatchType {
		case MatchExact:
			hit = desc == r.pattern
		default:
			hit = strings.Contains(desc, r.pattern)
		}
		if !hit {
			continue
		}
		for _, cat := range categories {
			if reconcile.Normalize(cat.Name) == r.category && cat.Accepts(txnType) {
				id := cat.ID
				return &id
			}
		}
	}
	return nil
}
