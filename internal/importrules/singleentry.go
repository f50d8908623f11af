package importrules

import (
	"github.com/shopspring/decimal"

	"github.com/okane-project/ledgerkit/internal/syntax"
)

// fallback destination accounts used when no rewrite rule matched.
const (
	UnknownIncome   = "Income:Unknown"
	UnknownExpenses = "Expenses:Unknown"
)

// SingleEntry is one imported record collapsed to the side of the ledger
// that owns the account being imported into. A format adapter builds one of
// these per record (already sign-normalized per the config's AccountType)
// and ToTransaction expands it into the balanced double-entry transaction
// book-keeping expects (internal/book.Process's shape): the owned account's
// posting carries the concrete amount (and an explicit total price when a
// commodity conversion applies); the other leg is left for book-keeping to
// deduce, posted to the rule-matched destination account or, absent a
// match, the Income/Expenses:Unknown fallback chosen by the amount's sign.
type SingleEntry struct {
	Date        syntax.Date
	Payee       string
	Code        string
	Cleared     bool
	Account     string
	Amount      decimal.Decimal
	Commodity   string
	Balance     *decimal.Decimal
	DestAccount string
	Conversion  *ResolvedConversion
}

// ResolvedConversion is a record's secondary-commodity conversion once
// CommodityConversionSpec's amount/rate modes have been resolved to a
// concrete total price.
type ResolvedConversion struct {
	Commodity string
	Amount    decimal.Decimal
}

// ToTransaction builds the double-entry syntax.Transaction this entry
// implies.
func (e SingleEntry) ToTransaction() *syntax.Transaction {
	dest := e.DestAccount
	if dest == "" {
		if e.Amount.IsNegative() {
			dest = UnknownExpenses
		} else {
			dest = UnknownIncome
		}
	}

	clear := syntax.Pending
	if e.Cleared {
		clear = syntax.Cleared
	}

	// text keeps the decimal's own scale, so "42.50" is not rendered "42.5".
	text := func(d decimal.Decimal) string {
		if exp := d.Exponent(); exp < 0 {
			return d.StringFixed(-exp)
		}
		return d.String()
	}
	own := &syntax.Posting{
		Account: e.Account,
		Amount:  &syntax.PostingAmount{Expr: text(e.Amount), Commodity: e.Commodity},
	}
	if e.Balance != nil {
		own.Balance = &syntax.PostingAmount{Expr: text(*e.Balance), Commodity: e.Commodity}
	}
	if e.Conversion != nil {
		own.Price = &syntax.Exchange{
			IsTotal:   true,
			Expr:      e.Conversion.Amount.Abs().String(),
			Commodity: e.Conversion.Commodity,
		}
	}

	txn := &syntax.Transaction{
		Date:     e.Date,
		Clear:    clear,
		Code:     e.Code,
		Payee:    e.Payee,
		Postings: []*syntax.Posting{own, {Account: dest}},
	}
	return txn
}
