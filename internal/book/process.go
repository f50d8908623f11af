// Package book implements the book-keeping engine: it walks a parsed
// syntax.Tree, resolves each transaction's postings against running
// per-account balances, deduces the one posting per transaction allowed to
// omit its amount, checks that every transaction balances (explicitly, or
// implicitly via a two-commodity price quote), and records the PriceEvents
// a cost, price, or implicit quote implies.
package book

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/okane-project/ledgerkit/internal/syntax"
	"github.com/okane-project/ledgerkit/internal/valueexpr"
)

// ComputedPosting is a posting after evaluation: its own (raw) amount, and
// the balance-contributing amount once any cost/price conversion has been
// applied (they differ only when a lot cost or `@`/`@@` price is present).
type ComputedPosting struct {
	Source    *syntax.Posting
	Account   string
	Own       Legs // the posting's own amount, in its own commodity
	Converted Legs // the amount actually added to the account's balance

	// ConvertedAmount is the reported cost/lot conversion of Own: nil unless
	// the posting carries a cost or a lot price. When both are present it
	// differs from Converted, which prefers the lot for the balance sum;
	// ConvertedAmount prefers the cost, matching the original engine's
	// calculate_converted_amount.
	ConvertedAmount Legs
}

// ComputedTransaction is a transaction after book-keeping: every posting
// resolved to concrete legs, including any posting whose amount was deduced.
type ComputedTransaction struct {
	Source   *syntax.Transaction
	Postings []*ComputedPosting
}

// Book is the result of processing an entire tree: every account's final
// balance, the processed transactions in source order, and every price
// event recorded along the way.
type Book struct {
	Balances     *Balances
	Transactions []*ComputedTransaction
	Prices       []PriceEvent

	scales map[string]int32
}

// SymbolRegistrar receives account/commodity declarations as Process walks
// the tree, so the interner (internal/symtab.Context) stays in sync with
// book-keeping without book importing symtab's concrete types.
type SymbolRegistrar interface {
	RegisterAccount(*syntax.AccountDecl)
	RegisterCommodity(*syntax.CommodityDecl)
}

// Process walks tree, book-keeping every transaction in order. Account and
// commodity declarations only register names and format exemplars with
// symbols; they don't affect balances.
func Process(tree *syntax.Tree, symbols SymbolRegistrar) (*Book, error) {
	b := &Book{Balances: NewBalances(), scales: make(map[string]int32)}

	for _, entry := range tree.Entries {
		switch e := entry.(type) {
		case *syntax.AccountDecl:
			if symbols != nil {
				symbols.RegisterAccount(e)
			}
		case *syntax.CommodityDecl:
			if symbols != nil {
				symbols.RegisterCommodity(e)
			}
			if e.Format != "" {
				b.observeFormat(e.Name, e.Format)
			}
		case *syntax.Transaction:
			ct, err := b.processTransaction(e)
			if err != nil {
				return nil, err
			}
			b.Transactions = append(b.Transactions, ct)
		}
	}
	return b, nil
}

func (b *Book) observeFormat(commodity, literal string) {
	scale := scaleOfLiteral(literal)
	if cur, ok := b.scales[commodity]; !ok || scale > cur {
		b.scales[commodity] = scale
	}
}

func (b *Book) observeScale(commodity string, amount decimal.Decimal) {
	if e := amount.Exponent(); e < 0 {
		scale := -e
		if cur, ok := b.scales[commodity]; !ok || scale > cur {
			b.scales[commodity] = scale
		}
	}
}

func (b *Book) scaleOf(commodity string) int32 {
	return b.scales[commodity]
}

// scaleOfLiteral counts the digits after the decimal point in a format
// exemplar like "1,000.00" (scale 2) or "1234" (scale 0).
func scaleOfLiteral(literal string) int32 {
	for i := len(literal) - 1; i >= 0; i-- {
		if literal[i] == '.' {
			return int32(len(literal) - i - 1)
		}
	}
	return 0
}

func (b *Book) processTransaction(txn *syntax.Transaction) (*ComputedTransaction, error) {
	computed := make([]*ComputedPosting, len(txn.Postings))
	deducibleIdx := -1
	total := Legs{}

	for i, p := range txn.Postings {
		switch {
		case p.Amount == nil && p.Balance == nil:
			if deducibleIdx != -1 {
				return nil, &UndeducibleAmountError{Position: p.Position}
			}
			deducibleIdx = i
			computed[i] = &ComputedPosting{Source: p, Account: p.Account}

		case p.Amount == nil && p.Balance != nil:
			cp, err := b.processAssertionOnlyPosting(p)
			if err != nil {
				return nil, err
			}
			computed[i] = cp
			total = total.Add(cp.Converted)

		default:
			cp, events, err := b.processPosting(txn.Date, p)
			if err != nil {
				return nil, err
			}
			computed[i] = cp
			total = total.Add(cp.Converted)
			b.Prices = append(b.Prices, events...)
		}
	}

	if deducibleIdx != -1 {
		deduced := total.Negated()
		cp := computed[deducibleIdx]
		cp.Own = deduced
		cp.Converted = deduced
		for commodity, amount := range deduced {
			b.Balances.Add(cp.Account, commodity, amount)
			b.observeScale(commodity, amount)
		}
		return &ComputedTransaction{Source: txn, Postings: computed}, nil
	}

	if err := b.checkBalance(txn, computed, total); err != nil {
		return nil, err
	}
	return &ComputedTransaction{Source: txn, Postings: computed}, nil
}

// processAssertionOnlyPosting handles `account = expr` with no explicit
// amount: the posting's contributed amount is the delta between the
// asserted balance and the account's previous balance for that commodity.
func (b *Book) processAssertionOnlyPosting(p *syntax.Posting) (*ComputedPosting, error) {
	commodity, amount, err := evalTaggedAmount(p.Balance.Expr, p.Balance.Commodity, p.Position)
	if err != nil {
		return nil, err
	}
	previous := b.Balances.Get(p.Account, commodity)
	delta := amount.Sub(previous)
	b.Balances.Set(p.Account, commodity, amount)
	b.observeScale(commodity, amount)
	legs := legsOf(commodity, delta)
	return &ComputedPosting{Source: p, Account: p.Account, Own: legs, Converted: legs}, nil
}

// processPosting handles a posting with an explicit amount: it evaluates
// the amount, resolves any lot cost or `@`/`@@` price into the
// balance-contributing (converted) amount, applies the converted amount to
// the running balance, and verifies a same-posting balance assertion if
// present.
func (b *Book) processPosting(date syntax.Date, p *syntax.Posting) (*ComputedPosting, []PriceEvent, error) {
	commodity, amount, err := evalTaggedAmount(p.Amount.Expr, p.Amount.Commodity, p.Position)
	if err != nil {
		return nil, nil, err
	}
	b.observeScale(commodity, amount)
	own := legsOf(commodity, amount)

	hasLot := p.Lot != nil && (p.Lot.Price != nil || p.Lot.TotalPrice != nil)
	var lotCommodity string
	var lotRate decimal.Decimal
	if hasLot {
		exch := p.Lot.Price
		if exch == nil {
			exch = p.Lot.TotalPrice
		}
		rateCommodity, rate, err := resolveExchange(exch, amount, commodity, p.Lot.TotalPrice != nil && p.Lot.Price == nil)
		if err != nil {
			return nil, nil, err
		}
		lotCommodity, lotRate = rateCommodity, rate
	}

	hasCost := p.Price != nil
	var costCommodity string
	var costRate decimal.Decimal
	if hasCost {
		rateCommodity, rate, err := resolveExchange(p.Price, amount, commodity, p.Price.IsTotal)
		if err != nil {
			return nil, nil, err
		}
		costCommodity, costRate = rateCommodity, rate
	}

	// A posting records at most one price event. When both cost and lot are
	// given, the cost's rate is the one observed (posting_price_event prefers
	// cost.or(lot) in the original engine); the lot's own rate never reaches
	// the price repository in that case.
	var events []PriceEvent
	switch {
	case hasCost:
		events = pricePair(date, commodity, costCommodity, costRate)
	case hasLot:
		events = pricePair(date, commodity, lotCommodity, lotRate)
	}

	// The amount that actually lands in the account's balance prefers the lot
	// over the cost (calculate_balance_amount: lot.or(cost)) — the lot is
	// what the posting was actually settled at.
	convertedCommodity, convertedAmount := commodity, amount
	switch {
	case hasLot:
		convertedCommodity, convertedAmount = lotCommodity, amount.Mul(lotRate)
	case hasCost:
		convertedCommodity, convertedAmount = costCommodity, amount.Mul(costRate)
	}
	b.Balances.Add(p.Account, convertedCommodity, convertedAmount)
	b.observeScale(convertedCommodity, convertedAmount)
	converted := legsOf(convertedCommodity, convertedAmount)

	// The reported converted amount is the opposite preference: cost over lot
	// (calculate_converted_amount: cost.or(lot)), nil when neither is given.
	var reported Legs
	switch {
	case hasCost:
		reported = legsOf(costCommodity, amount.Mul(costRate))
	case hasLot:
		reported = legsOf(lotCommodity, amount.Mul(lotRate))
	}

	if p.Balance != nil {
		assertCommodity, asserted, err := evalTaggedAmount(p.Balance.Expr, p.Balance.Commodity, p.Position)
		if err != nil {
			return nil, nil, err
		}
		actual := b.Balances.Get(p.Account, assertCommodity)
		if !actual.Equal(asserted) {
			return nil, nil, &BalanceAssertionError{
				Position: p.Position, Account: p.Account, Commodity: assertCommodity,
				Expected: asserted.String(), Actual: actual.String(),
			}
		}
	}

	return &ComputedPosting{Source: p, Account: p.Account, Own: own, Converted: converted, ConvertedAmount: reported}, events, nil
}

// checkBalance validates a transaction's residual once every posting but
// the (nonexistent) deducible one has contributed: zero is fine; exactly
// two nonzero commodities is treated as an implicit price quote rather than
// an error; anything else fails.
func (b *Book) checkBalance(txn *syntax.Transaction, postings []*ComputedPosting, total Legs) error {
	residual := total.RoundedNonZero(b.scaleOf)
	if len(residual) == 0 {
		return nil
	}
	if len(residual) != 2 {
		residuals := make(map[string]string, len(residual))
		for c, a := range residual {
			residuals[c] = a.String()
		}
		return &UnbalancedPostingsError{Position: txn.Position, Residuals: residuals}
	}

	commodities := residual.Commodities()
	c1, c2 := commodities[0], commodities[1]
	a1, a2 := residual[c1], residual[c2]
	if a1.IsZero() || a2.IsZero() {
		return nil
	}
	rate := a2.Neg().Div(a1)

	for _, cp := range postings {
		amount, ok := cp.Converted[c1]
		if ok {
			cp.Converted = cp.Converted.Add(legsOf(c2, amount.Mul(rate)))
			continue
		}
		amount, ok = cp.Converted[c2]
		if ok {
			cp.Converted = cp.Converted.Add(legsOf(c1, amount.Div(rate)))
		}
	}

	b.Prices = append(b.Prices, pricePair(txn.Date, c1, c2, rate)...)
	return nil
}

// resolveExchange evaluates a cost/price annotation into a per-unit rate,
// enforcing the invariants every exchange carries: the rate can't be zero,
// can't name the posting's own commodity, and can't apply to a zero-amount
// posting.
func resolveExchange(exch *syntax.Exchange, ownAmount decimal.Decimal, ownCommodity string, isTotal bool) (rateCommodity string, perUnit decimal.Decimal, err error) {
	if ownAmount.IsZero() {
		return "", decimal.Zero, &ZeroAmountWithExchangeError{Position: exch.Position}
	}
	commodity, amount, err := evalTaggedAmount(exch.Expr, exch.Commodity, exch.Position)
	if err != nil {
		return "", decimal.Zero, err
	}
	rate := amount
	if isTotal {
		rate = amount.Div(ownAmount).Abs()
	}
	if rate.IsZero() {
		return "", decimal.Zero, &ZeroExchangeRateError{Position: exch.Position}
	}
	if commodity == ownCommodity {
		return "", decimal.Zero, &ExchangeWithAmountCommodityError{Position: exch.Position, Commodity: commodity}
	}
	return commodity, rate, nil
}

// evalTaggedAmount evaluates expr and resolves its commodity, preferring an
// explicit trailing commodity (from the grammar) over one the expression
// itself tagged.
func evalTaggedAmount(expr, explicitCommodity string, pos syntax.Position) (commodity string, amount decimal.Decimal, err error) {
	v, err := valueexpr.Evaluate(expr)
	if err != nil {
		return "", decimal.Zero, &InvalidValueExpressionError{Position: pos, Expr: expr, Err: err}
	}
	if explicitCommodity != "" {
		if v.IsNumber() {
			return explicitCommodity, v.Number(), nil
		}
		if c, a, ok := v.Single(); ok && c == explicitCommodity {
			return c, a, nil
		}
		return "", decimal.Zero, &InvalidValueExpressionError{
			Position: pos, Expr: expr,
			Err: fmt.Errorf("expression commodity conflicts with explicit commodity %s", explicitCommodity),
		}
	}
	if v.IsNumber() {
		return "", decimal.Zero, &InvalidValueExpressionError{Position: pos, Expr: expr, Err: fmt.Errorf("amount has no commodity")}
	}
	c, a, ok := v.Single()
	if !ok {
		return "", decimal.Zero, &InvalidValueExpressionError{Position: pos, Expr: expr, Err: fmt.Errorf("amount must tag exactly one commodity")}
	}
	return c, a, nil
}
