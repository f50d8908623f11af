// Package report answers the three queries the command-line surface
// exposes over a book-kept ledger (internal/book's output): the accounts
// touched, a per-account balance (optionally windowed by date and
// converted to a single commodity), and a posting-by-posting register.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okane-project/ledgerkit/internal/book"
	"github.com/okane-project/ledgerkit/internal/prices"
	"github.com/okane-project/ledgerkit/internal/syntax"
)

// Accounts returns every account referenced by any posting, in the order
// each was first touched.
func Accounts(b *book.Book) []string {
	seen := make(map[string]bool)
	var order []string
	for _, txn := range b.Transactions {
		for _, p := range txn.Postings {
			if !seen[p.Account] {
				seen[p.Account] = true
				order = append(order, p.Account)
			}
		}
	}
	return order
}

// BalanceQuery parameterizes Balance.
type BalanceQuery struct {
	// Start/End bound the period summed, [Start, End). Both nil sums every
	// posting ever made (the book's final running balance).
	Start, End *syntax.Date

	// Exchange, when non-empty, converts every leg into it before summing.
	// PolicyFor picks the conversion policy for a given transaction's date
	// — callers pass a closure over prices.Historical (re-evaluated per
	// transaction, for "what was this worth the day it happened") or a
	// single prices.UpToDate value wrapped in a closure that ignores its
	// argument (for "what is everything worth as of today"), matching the
	// CLI's --historical flag. A leg with no conversion path is an error.
	Exchange  string
	Prices    *prices.Repository
	PolicyFor func(txnDate syntax.Date) prices.Policy
}

// BalanceEntry is one account's summed legs for a BalanceQuery.
type BalanceEntry struct {
	Account string
	Legs    book.Legs
}

// Balance sums every posting's converted amount per account over q's
// period, sorted by account name. When q.Exchange is set, each posting is
// converted at its own transaction's date before being added to the
// running total, so a historical policy reflects the rate on the day the
// posting happened rather than a single rate applied retroactively to
// every posting.
func Balance(b *book.Book, q BalanceQuery) ([]BalanceEntry, error) {
	var totals map[string]book.Legs
	if q.Exchange == "" && q.Start == nil && q.End == nil {
		totals = b.Balances.Snapshot()
	} else {
		totals = make(map[string]book.Legs)
		for _, txn := range b.Transactions {
			if !inPeriod(txn.Source.Date, q.Start, q.End) {
				continue
			}
			for _, p := range txn.Postings {
				legs := p.Converted
				if q.Exchange != "" {
					converted, err := convertLegs(legs, q.Exchange, q.Prices, q.PolicyFor(txn.Source.Date))
					if err != nil {
						return nil, fmt.Errorf("%s: %w", txn.Source.Position, err)
					}
					legs = converted
				}
				totals[p.Account] = totals[p.Account].Add(legs)
			}
		}
	}

	accounts := make([]string, 0, len(totals))
	for account := range totals {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	entries := make([]BalanceEntry, 0, len(accounts))
	for _, account := range accounts {
		entries = append(entries, BalanceEntry{Account: account, Legs: totals[account]})
	}
	return entries, nil
}

func inPeriod(date syntax.Date, start, end *syntax.Date) bool {
	if start != nil && date.Before(start.Time) {
		return false
	}
	if end != nil && !date.Before(end.Time) {
		return false
	}
	return true
}

func convertLegs(legs book.Legs, target string, repo *prices.Repository, policy prices.Policy) (book.Legs, error) {
	total := book.Legs{}
	for commodity, amount := range legs {
		converted, err := repo.Convert(prices.Amount{Value: amount, Commodity: commodity}, target, policy)
		if err != nil {
			return nil, err
		}
		total = total.Add(book.Legs{converted.Commodity: converted.Value})
	}
	return total, nil
}

// RegisterQuery parameterizes Register.
type RegisterQuery struct {
	// AccountSubstring restricts the listing to postings whose account
	// contains it; empty matches every account.
	AccountSubstring string

	// Exchange, when non-empty, converts each posting (and its running
	// total) into it the same way BalanceQuery.Exchange does: one
	// conversion per posting, at its own transaction's date.
	Exchange  string
	Prices    *prices.Repository
	PolicyFor func(txnDate syntax.Date) prices.Policy
}

// RegisterEntry is one matching posting, annotated with the running
// balance of its account up to and including this posting.
type RegisterEntry struct {
	Date    syntax.Date
	Payee   string
	Account string
	Amount  book.Legs
	Running book.Legs
}

// Register lists every posting matching q, in source (chronological)
// order, each carrying its account's running balance.
func Register(b *book.Book, q RegisterQuery) ([]RegisterEntry, error) {
	running := make(map[string]book.Legs)
	var entries []RegisterEntry
	for _, txn := range b.Transactions {
		for _, p := range txn.Postings {
			if q.AccountSubstring != "" && !strings.Contains(p.Account, q.AccountSubstring) {
				continue
			}
			legs := p.Converted
			if q.Exchange != "" {
				converted, err := convertLegs(legs, q.Exchange, q.Prices, q.PolicyFor(txn.Source.Date))
				if err != nil {
					return nil, fmt.Errorf("%s: %w", txn.Source.Position, err)
				}
				legs = converted
			}
			running[p.Account] = running[p.Account].Add(legs)
			entries = append(entries, RegisterEntry{
				Date:    txn.Source.Date,
				Payee:   txn.Source.Payee,
				Account: p.Account,
				Amount:  legs,
				Running: running[p.Account],
			})
		}
	}
	return entries, nil
}
