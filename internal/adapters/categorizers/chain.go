package categorizers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/fintrack/internal/core/domain"
	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
	"github.com/SscSPs/fintrack/internal/middleware"
)

// Chain asks each categorizer in turn; the first suggestion for a description wins.
// A failing categorizer is logged and skipped. Chain fails only when every link fails.
type Chain struct {
	links []portssvc.Categorizer
}

// NewChain builds a Chain, dropping nil links.
func NewChain(links ...portssvc.Categorizer) *Chain {
	c := &Chain{}
	for _, l := range links {
		if l != nil {
			c.links = append(c.links, l)
		}
	}
	return c
}

var _ portssvc.Categorizer = (*Chain)(nil)

func (c *Chain) CategorizeBatch(ctx context.Context, items []domain.ParsedLineItem, categories []domain.Category) (map[string]*int64, error) {
	out := map[string]*int64{}
	var errs []error
	for _, link := range c.links {
		got, err := link.CategorizeBatch(ctx, items, categories)
		if err != nil {
			middleware.GetLoggerFromCtx(ctx).Warn("Categorizer failed", slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		for desc, id := range got {
			if id != nil && out[desc] == nil {
				out[desc] = id
			}
		}
	}
	if len(c.links) > 0 && len(errs) == len(c.links) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
