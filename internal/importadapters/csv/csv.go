// Package csv adapts CSV bank/card statement exports into importrules
// SingleEntry records, driven by an importrules.Entry's FormatSpec.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okane-project/ledgerkit/internal/importrules"
	"github.com/okane-project/ledgerkit/internal/syntax"
)

// Capabilities lists the rewrite-rule fields a CSV record exposes.
var Capabilities = importrules.FieldSet{
	"payee":               true,
	"category":            true,
	"commodity":           true,
	"secondary_commodity": true,
}

// fieldMap resolves an importrules.FormatSpec's abstract field keys to
// concrete 0-based column indices, -1 meaning the field isn't mapped.
type fieldMap struct {
	date, payee, amount, credit, debit, balance int
	category, commodity                         int
	secondaryAmount, secondaryCommodity, rate    int
}

func resolveFieldMap(fields map[string]string, header []string) (fieldMap, error) {
	fm := fieldMap{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1, -1}
	index := func(name string) (int, error) {
		spec, ok := fields[name]
		if !ok || spec == "" {
			return -1, nil
		}
		if i, err := strconv.Atoi(spec); err == nil {
			if i < 1 {
				return -1, fmt.Errorf("format.fields.%s: column index must be 1-based", name)
			}
			return i - 1, nil
		}
		for idx, h := range header {
			if h == spec {
				return idx, nil
			}
		}
		return -1, fmt.Errorf("format.fields.%s: column %q not found in header", name, spec)
	}
	var err error
	targets := []struct {
		name string
		dst  *int
	}{
		{"date", &fm.date}, {"payee", &fm.payee}, {"amount", &fm.amount},
		{"credit", &fm.credit}, {"debit", &fm.debit}, {"balance", &fm.balance},
		{"category", &fm.category}, {"commodity", &fm.commodity},
		{"secondary_amount", &fm.secondaryAmount}, {"secondary_commodity", &fm.secondaryCommodity},
		{"rate", &fm.rate},
	}
	for _, t := range targets {
		if *t.dst, err = index(t.name); err != nil {
			return fm, err
		}
	}
	if fm.date < 0 {
		return fm, fmt.Errorf("format.fields must map \"date\"")
	}
	if fm.payee < 0 {
		return fm, fmt.Errorf("format.fields must map \"payee\"")
	}
	if fm.amount < 0 && fm.credit < 0 && fm.debit < 0 {
		return fm, fmt.Errorf("format.fields must map \"amount\" or \"credit\"/\"debit\"")
	}
	return fm, nil
}

type record struct {
	row []string
	fm  fieldMap
}

func (r record) cell(i int) string {
	if i < 0 || i >= len(r.row) {
		return ""
	}
	return r.row[i]
}

func (r record) Field(key string) (string, bool) {
	switch key {
	case "payee":
		return r.cell(r.fm.payee), true
	case "category":
		return r.cell(r.fm.category), true
	case "commodity":
		return r.cell(r.fm.commodity), true
	case "secondary_commodity":
		return r.cell(r.fm.secondaryCommodity), true
	default:
		return "", false
	}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// Import reads r as CSV per entry's FormatSpec, runs entry's rewrite rules
// against every row, and returns the resulting single-entry transactions in
// file order (regardless of entry.Format.RowOrder; callers that need
// chronological order should sort the ledger after merging, the same as any
// other include).
func Import(r io.Reader, entry *importrules.Entry) ([]*syntax.Transaction, error) {
	delimiter := ','
	if entry.Format.Delimiter != "" {
		delimiter = rune(entry.Format.Delimiter[0])
	}
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1

	for i := 0; i < entry.Format.SkipHead; i++ {
		if _, err := cr.Read(); err != nil {
			return nil, fmt.Errorf("skip header line %d: %w", i+1, err)
		}
	}
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	fm, err := resolveFieldMap(entry.Format.Fields, header)
	if err != nil {
		return nil, err
	}
	extractor, err := importrules.NewExtractor(entry.Rewrite, Capabilities)
	if err != nil {
		return nil, err
	}

	dateLayout := entry.Format.Date
	if dateLayout == "" {
		dateLayout = "2006-01-02"
	}

	var txns []*syntax.Transaction
	lineNo := entry.Format.SkipHead + 1
	for {
		lineNo++
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rec := record{row: row, fm: fm}
		if rec.cell(fm.date) == "" {
			continue
		}
		date, err := time.Parse(dateLayout, rec.cell(fm.date))
		if err != nil {
			return nil, fmt.Errorf("line %d: parse date: %w", lineNo, err)
		}

		amount, err := computeAmount(rec, entry.AccountType)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		commodity := rec.cell(fm.commodity)
		if commodity == "" {
			commodity = entry.Commodity.Primary
		}
		if renamed, ok := entry.Commodity.Rename[commodity]; ok {
			commodity = renamed
		}

		frag := extractor.Extract(rec)

		entryRecord := importrules.SingleEntry{
			Date:        syntax.Date{Time: date},
			Payee:       firstNonEmpty(frag.Payee, rec.cell(fm.payee)),
			Code:        frag.Code,
			Cleared:     frag.Cleared,
			Account:     entry.Account,
			Amount:      amount,
			Commodity:   commodity,
			DestAccount: frag.Account,
		}
		if bal := rec.cell(fm.balance); bal != "" {
			b, err := parseDecimal(bal)
			if err != nil {
				return nil, fmt.Errorf("line %d: parse balance: %w", lineNo, err)
			}
			entryRecord.Balance = &b
		}
		if conv := frag.Conversion; conv != nil && !conv.Disabled {
			resolved, err := resolveConversion(rec, fm, *conv, amount, lineNo)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			entryRecord.Conversion = resolved
		}

		txns = append(txns, entryRecord.ToTransaction())
	}
	return txns, nil
}

func computeAmount(rec record, accountType importrules.AccountType) (decimal.Decimal, error) {
	var amount decimal.Decimal
	if rec.fm.amount >= 0 {
		v, err := parseDecimal(rec.cell(rec.fm.amount))
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse amount: %w", err)
		}
		amount = v
	} else {
		credit, err := parseDecimal(rec.cell(rec.fm.credit))
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse credit: %w", err)
		}
		debit, err := parseDecimal(rec.cell(rec.fm.debit))
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse debit: %w", err)
		}
		amount = credit.Sub(debit)
	}
	if accountType == importrules.AccountLiability {
		amount = amount.Neg()
	}
	return amount, nil
}

// resolveConversion computes the secondary-commodity total price a matched
// rule's conversion spec implies, per its amount/rate modes.
func resolveConversion(rec record, fm fieldMap, conv importrules.CommodityConversionSpec, amount decimal.Decimal, lineNo int) (*importrules.ResolvedConversion, error) {
	commodity := conv.Commodity
	if commodity == "" {
		commodity = rec.cell(fm.secondaryCommodity)
	}
	if commodity == "" {
		return nil, fmt.Errorf("conversion requires a secondary commodity")
	}

	if conv.Amount == importrules.ConversionAmountExtract {
		secondary, err := parseDecimal(rec.cell(fm.secondaryAmount))
		if err != nil {
			return nil, fmt.Errorf("parse secondary_amount: %w", err)
		}
		return &importrules.ResolvedConversion{Commodity: commodity, Amount: secondary}, nil
	}

	rate, err := parseDecimal(rec.cell(fm.rate))
	if err != nil {
		return nil, fmt.Errorf("parse rate: %w", err)
	}
	if rate.IsZero() {
		return nil, &importrules.NoConversionRateError{Line: lineNo}
	}
	switch conv.Rate {
	case importrules.ConversionRatePriceOfPrimary:
		return &importrules.ResolvedConversion{Commodity: commodity, Amount: amount.Mul(rate)}, nil
	default: // ConversionRatePriceOfSecondary
		return &importrules.ResolvedConversion{Commodity: commodity, Amount: amount.Div(rate)}, nil
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
