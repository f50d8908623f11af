package book

import (
	"fmt"

	"github.com/okane-project/ledgerkit/internal/syntax"
)

// UndeducibleAmountError is returned when a transaction has more than one
// posting with neither an amount nor a balance assertion — at most one such
// slot can be deduced per transaction.
type UndeducibleAmountError struct {
	Position syntax.Position
}

func (e *UndeducibleAmountError) Error() string {
	return fmt.Sprintf("%s: more than one posting has no amount; at most one can be deduced", e.Position)
}

// ZeroExchangeRateError is returned when a posting's cost or price
// annotation evaluates to zero.
type ZeroExchangeRateError struct {
	Position syntax.Position
}

func (e *ZeroExchangeRateError) Error() string {
	return fmt.Sprintf("%s: exchange rate cannot be zero", e.Position)
}

// ExchangeWithAmountCommodityError is returned when a posting's cost or
// price commodity is the same as the posting amount's own commodity.
type ExchangeWithAmountCommodityError struct {
	Position  syntax.Position
	Commodity string
}

func (e *ExchangeWithAmountCommodityError) Error() string {
	return fmt.Sprintf("%s: exchange commodity %s cannot match the posting amount's own commodity", e.Position, e.Commodity)
}

// ZeroAmountWithExchangeError is returned when a cost or price annotation is
// given for a posting whose own amount is zero.
type ZeroAmountWithExchangeError struct {
	Position syntax.Position
}

func (e *ZeroAmountWithExchangeError) Error() string {
	return fmt.Sprintf("%s: a zero-amount posting cannot carry a cost or price", e.Position)
}

// BalanceAssertionError is returned when a posting's balance assertion
// doesn't match the account's running balance for that commodity.
type BalanceAssertionError struct {
	Position  syntax.Position
	Account   string
	Commodity string
	Expected  string
	Actual    string
}

func (e *BalanceAssertionError) Error() string {
	return fmt.Sprintf("%s: balance assertion failed for %s: expected %s %s, got %s %s",
		e.Position, e.Account, e.Expected, e.Commodity, e.Actual, e.Commodity)
}

// UnbalancedPostingsError is returned when a transaction's residual doesn't
// settle to zero and can't be explained as an implicit two-commodity price
// quote either.
type UnbalancedPostingsError struct {
	Position  syntax.Position
	Residuals map[string]string // commodity -> amount string
}

func (e *UnbalancedPostingsError) Error() string {
	msg := fmt.Sprintf("%s: transaction does not balance:", e.Position)
	for commodity, amount := range e.Residuals {
		msg += fmt.Sprintf(" %s %s", amount, commodity)
	}
	return msg
}

// InvalidValueExpressionError wraps a value-expression parse/eval failure
// with the posting position that embeds it.
type InvalidValueExpressionError struct {
	Position syntax.Position
	Expr     string
	Err      error
}

func (e *InvalidValueExpressionError) Error() string {
	return fmt.Sprintf("%s: invalid value expression %q: %v", e.Position, e.Expr, e.Err)
}

func (e *InvalidValueExpressionError) Unwrap() error { return e.Err }
