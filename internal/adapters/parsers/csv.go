package parsers

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/SscSPs/fintrack/internal/apperrors"
	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/SscSPs/fintrack/internal/core/ledger"
	"github.com/SscSPs/fintrack/internal/core/reconcile"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// csvDialect describes one bank's CSV export.
type csvDialect struct {
	code       string
	comma      rune
	dateLayout string
	// header aliases, compared after reconcile.Normalize
	dateCols     []string
	descCols     []string
	amountCols   []string
	categoryCols []string
}

// CSVParser reads header-addressed CSV exports. Charges are positive and credits negative.
type CSVParser struct {
	dialect csvDialect
}

// NewNubankParser parses Nubank's "date,category,title,amount" export (category optional).
func NewNubankParser() *CSVParser {
	return &CSVParser{dialect: csvDialect{
		code:         "nubank",
		comma:        ',',
		dateLayout:   domain.DateLayout,
		dateCols:     []string{"date"},
		descCols:     []string{"title"},
		amountCols:   []string{"amount"},
		categoryCols: []string{"category"},
	}}
}

// NewBrazilianCSVParser parses semicolon separated "data;descrição;valor" files with
// dd/mm/yyyy dates and 1.234,56 amounts.
func NewBrazilianCSVParser() *CSVParser {
	return &CSVParser{dialect: csvDialect{
		code:         "csv-br",
		comma:        ';',
		dateLayout:   "02/01/2006",
		dateCols:     []string{"data", "date"},
		descCols:     []string{"descricao", "historico", "lancamento", "description"},
		amountCols:   []string{"valor", "amount"},
		categoryCols: []string{"categoria", "category"},
	}}
}

func (p *CSVParser) BankCode() string { return p.dialect.code }

func (p *CSVParser) Parse(ctx context.Context, data []byte, fileName string) (*domain.ParsedStatement, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.Comma = p.dialect.comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: cannot read header: %v", apperrors.ErrValidation, fileName, err)
	}
	cols, err := p.columns(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrValidation, fileName, err)
	}

	out := &domain.ParsedStatement{}
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", apperrors.ErrValidation, fileName, line, err)
		}
		if blank(rec) {
			continue
		}
		item, err := p.row(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", apperrors.ErrValidation, fileName, line, err)
		}
		out.LineItems = append(out.LineItems, item)
	}

	if n := len(out.LineItems); n > 0 {
		last := out.LineItems[0].Date
		for _, li := range out.LineItems[1:] {
			if li.Date.After(last) {
				last = li.Date
			}
		}
		out.StatementDate = &last
	}
	return out, nil
}

type csvColumns struct {
	date, desc, amount, category int
}

func (p *CSVParser) columns(header []string) (csvColumns, error) {
	find := func(aliases []string) int {
		for i, h := range header {
			name := reconcile.Normalize(h)
			for _, a := range aliases {
				if name == a {
					return i
				}
			}
		}
		return -1
	}
	cols := csvColumns{
		date:     find(p.dialect.dateCols),
		desc:     find(p.dialect.descCols),
		amount:   find(p.dialect.amountCols),
		category: find(p.dialect.categoryCols),
	}
	if cols.date < 0 || cols.desc < 0 || cols.amount < 0 {
		return cols, fmt.Errorf("header %q must name %s, %s and %s columns",
			strings.Join(header, string(p.dialect.comma)),
			p.dialect.dateCols[0], p.dialect.descCols[0], p.dialect.amountCols[0])
	}
	return cols, nil
}

func (p *CSVParser) row(rec []string, cols csvColumns) (domain.ParsedLineItem, error) {
	field := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date, err := time.Parse(p.dialect.dateLayout, field(cols.date))
	if err != nil {
		return domain.ParsedLineItem{}, fmt.Errorf("bad date %q", field(cols.date))
	}
	desc := field(cols.desc)
	if desc == "" {
		return domain.ParsedLineItem{}, errors.New("empty description")
	}
	amount, err := ledger.ParseSignedAmount(field(cols.amount))
	if err != nil {
		return domain.ParsedLineItem{}, err
	}
	if amount.IsZero() {
		return domain.ParsedLineItem{}, fmt.Errorf("zero amount for %q", desc)
	}

	t, abs := InferType(desc, amount)
	return domain.ParsedLineItem{
		Date:        date,
		Description: desc,
		Amount:      abs,
		Type:        t,
		Category:    field(cols.category),
	}, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
