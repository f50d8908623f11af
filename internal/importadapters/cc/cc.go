// Package cc adapts a credit-card issuer's line-oriented proprietary
// statement text into importrules SingleEntry records: one transaction
// line followed by an optional category line, an optional foreign-exchange
// line (when the transaction was spent in a currency other than the card's
// own), and an optional processing-fee line.
package cc

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okane-project/ledgerkit/internal/importrules"
	"github.com/okane-project/ledgerkit/internal/syntax"
)

// Capabilities lists the rewrite-rule fields a credit-card record exposes.
var Capabilities = importrules.FieldSet{
	"payee":               true,
	"category":            true,
	"secondary_commodity": true,
}

var (
	transactionLine = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{2}) (\d{2}\.\d{2}\.\d{2}) (.*?)(?: ([A-Z]{3}) ([0-9'.]+))? ([0-9'.]+)( -)?$`)
	exchangeLine    = regexp.MustCompile(`^Exchange rate ([0-9.]+) of (\d{2}\.\d{2}\.\d{2}) ([A-Z]{3}) ([0-9'.]+)$`)
	feeLine         = regexp.MustCompile(`^(Credit of )?[Pp]rocessing fee ([0-9.]+)% ([A-Z]{3}) ([0-9'.]+)$`)
	airTagLine      = regexp.MustCompile(`Air-[[:alnum:]-]+:`)
)

// entry is one parsed statement line group: a transaction, its category,
// and its optional exchange-rate/fee annotations.
type entry struct {
	date          syntax.Date
	effectiveDate syntax.Date
	payee         string
	amount        decimal.Decimal
	category      string
	spentCommodity string
	spentAmount   decimal.Decimal
	hasSpent      bool
}

func (e entry) Field(key string) (string, bool) {
	switch key {
	case "payee":
		return e.payee, true
	case "category":
		return e.category, true
	case "secondary_commodity":
		return e.spentCommodity, true
	default:
		return "", false
	}
}

func parseSwissDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(s, "'", ""))
}

func parseEuroDate(s string) (syntax.Date, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return syntax.Date{}, fmt.Errorf("malformed date %q", s)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return syntax.Date{}, fmt.Errorf("malformed date %q: %w", s, err)
	}
	century := 2000
	if year >= 70 {
		century = 1900
	}
	return syntax.ParseDate(fmt.Sprintf("%d/%s/%s", century+year, parts[1], parts[0]))
}

// lineScanner wraps bufio.Scanner with one line of lookahead, since
// parseEntry must peek at the next line to decide whether a category line
// follows (it doesn't, when the next transaction starts immediately).
type lineScanner struct {
	sc      *bufio.Scanner
	peeked  *string
	lineNo  int
}

func newLineScanner(r io.Reader) *lineScanner {
	return &lineScanner{sc: bufio.NewScanner(r)}
}

func (s *lineScanner) peek() (string, bool) {
	if s.peeked == nil {
		if !s.sc.Scan() {
			return "", false
		}
		line := s.sc.Text()
		s.peeked = &line
	}
	return *s.peeked, true
}

func (s *lineScanner) next() (string, bool) {
	if s.peeked != nil {
		line := *s.peeked
		s.peeked = nil
		s.lineNo++
		return line, true
	}
	if !s.sc.Scan() {
		return "", false
	}
	s.lineNo++
	return s.sc.Text(), true
}

func startsWithDigit(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}

func parseEntry(s *lineScanner, cardCommodity string) (*entry, error) {
	line, ok := s.next()
	if !ok {
		return nil, nil
	}
	e, err := parseTransactionLine(strings.TrimRight(line, " \t"))
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", s.lineNo, err)
	}

	next, ok := s.peek()
	if !ok || startsWithDigit(next) {
		return e, nil
	}
	categoryLine, _ := s.next()
	e.category = strings.TrimSpace(categoryLine)

	if e.hasSpent && e.spentCommodity != cardCommodity {
		line, ok := s.next()
		if !ok {
			return nil, fmt.Errorf("line %d: exchange rate line expected but input ended", s.lineNo)
		}
		if err := applyExchangeLine(e, strings.TrimRight(line, " \t")); err != nil {
			return nil, fmt.Errorf("line %d: %w", s.lineNo, err)
		}
	}

	if e.hasSpent {
		if next, ok := s.peek(); ok && isFeeLine(next) {
			line, _ := s.next()
			if err := applyFeeLine(e, strings.TrimRight(line, " \t")); err != nil {
				return nil, fmt.Errorf("line %d: %w", s.lineNo, err)
			}
		}
	}

	for {
		next, ok := s.peek()
		if !ok || !airTagLine.MatchString(next) {
			break
		}
		s.next()
	}
	return e, nil
}

func isFeeLine(line string) bool {
	return strings.HasPrefix(line, "Processing fee") || strings.HasPrefix(line, "Credit of processing fee")
}

func parseTransactionLine(line string) (*entry, error) {
	m := transactionLine.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("unsupported entry line: %q", line)
	}
	date, err := parseEuroDate(m[1])
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	effectiveDate, err := parseEuroDate(m[2])
	if err != nil {
		return nil, fmt.Errorf("effective date: %w", err)
	}
	sign := decimal.NewFromInt(1)
	if m[7] != "" {
		sign = decimal.NewFromInt(-1)
	}
	e := &entry{date: date, effectiveDate: effectiveDate, payee: m[3]}
	if m[4] != "" {
		spent, err := parseSwissDecimal(m[5])
		if err != nil {
			return nil, fmt.Errorf("exchanged amount: %w", err)
		}
		e.hasSpent = true
		e.spentCommodity = m[4]
		e.spentAmount = spent.Mul(sign)
	}
	amount, err := parseSwissDecimal(m[6])
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	e.amount = amount.Mul(sign)
	return e, nil
}

// applyExchangeLine checks that an exchange line's rate, rate date and
// settlement-currency equivalent all parse, then discards them; the entry
// keeps the amount already booked in the card's own commodity.
func applyExchangeLine(e *entry, line string) error {
	m := exchangeLine.FindStringSubmatch(line)
	if m == nil {
		return fmt.Errorf("exchange rate line expected, got: %q", line)
	}
	if _, err := decimal.NewFromString(m[1]); err != nil {
		return fmt.Errorf("rate: %w", err)
	}
	if _, err := parseEuroDate(m[2]); err != nil {
		return fmt.Errorf("rate date: %w", err)
	}
	if _, err := parseSwissDecimal(m[4]); err != nil {
		return fmt.Errorf("equivalent amount: %w", err)
	}
	return nil
}

func applyFeeLine(e *entry, line string) error {
	m := feeLine.FindStringSubmatch(line)
	if m == nil {
		return fmt.Errorf("processing fee line expected, got: %q", line)
	}
	sign := decimal.NewFromInt(1)
	if m[1] != "" {
		sign = decimal.NewFromInt(-1)
	}
	fee, err := parseSwissDecimal(m[4])
	if err != nil {
		return fmt.Errorf("fee amount: %w", err)
	}
	e.amount = e.amount.Add(fee.Mul(sign))
	return nil
}

// Import reads r as a credit-card statement export, running entry's
// rewrite rules against every parsed entry.
func Import(r io.Reader, configEntry *importrules.Entry) ([]*syntax.Transaction, error) {
	extractor, err := importrules.NewExtractor(configEntry.Rewrite, Capabilities)
	if err != nil {
		return nil, err
	}
	cardCommodity := configEntry.Commodity.Primary

	s := newLineScanner(r)
	var txns []*syntax.Transaction
	for {
		e, err := parseEntry(s, cardCommodity)
		if err != nil {
			return nil, err
		}
		if e == nil {
			break
		}

		frag := extractor.Extract(*e)
		single := importrules.SingleEntry{
			Date:        e.date,
			Payee:       firstNonEmpty(frag.Payee, e.payee),
			Code:        frag.Code,
			Cleared:     frag.Cleared,
			Account:     configEntry.Account,
			Amount:      e.amount,
			Commodity:   cardCommodity,
			DestAccount: frag.Account,
		}
		if configEntry.AccountType == importrules.AccountLiability {
			single.Amount = single.Amount.Neg()
		}
		txns = append(txns, single.ToTransaction())
	}
	return txns, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
