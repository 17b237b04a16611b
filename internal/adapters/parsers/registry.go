// Package parsers holds the built-in statement parsers, keyed by bank code.
package parsers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SscSPs/fintrack/internal/apperrors"
	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
)

// Registry resolves statement parsers by their bank code. It is read-only after construction.
type Registry struct {
	parsers map[string]portssvc.StatementParser
}

// NewRegistry registers ps. A later parser with the same bank code replaces an earlier one.
func NewRegistry(ps ...portssvc.StatementParser) *Registry {
	r := &Registry{parsers: make(map[string]portssvc.StatementParser, len(ps))}
	for _, p := range ps {
		r.parsers[normalizeCode(p.BankCode())] = p
	}
	return r
}

// Default registers the parsers that need no external service.
func Default() *Registry {
	return NewRegistry(NewOFXParser(), NewNubankParser(), NewBrazilianCSVParser())
}

var _ portssvc.ParserRegistry = (*Registry)(nil)

// Get returns the parser for bankCode, case-insensitively.
func (r *Registry) Get(bankCode string) (portssvc.StatementParser, error) {
	p, ok := r.parsers[normalizeCode(bankCode)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported bank code %q (supported: %s)",
			apperrors.ErrValidation, bankCode, strings.Join(r.Codes(), ", "))
	}
	return p, nil
}

// Codes lists the registered bank codes in sorted order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.parsers))
	for c := range r.parsers {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
