// Package errs classifies the error types the rest of the module returns
// into a small, stable taxonomy, and renders them for the CLI in text or
// JSON. It mirrors the teacher's errors package split (presentation
// separated from the domain packages that actually detect the failure),
// but instead of matching on a handful of ad hoc interfaces it keys off the
// concrete error types internal/parser, internal/book, internal/valueexpr,
// internal/decimal, and internal/importrules already define.
package errs

import (
	"errors"
	"io/fs"

	"github.com/okane-project/ledgerkit/internal/book"
	"github.com/okane-project/ledgerkit/internal/decimal"
	"github.com/okane-project/ledgerkit/internal/importrules"
	"github.com/okane-project/ledgerkit/internal/parser"
	"github.com/okane-project/ledgerkit/internal/syntax"
	"github.com/okane-project/ledgerkit/internal/valueexpr"
)

// Kind tags an error with the category a caller (or a test) can switch on
// without parsing its message.
type Kind string

const (
	IO                          Kind = "IO"
	Parse                       Kind = "Parse"
	Include                     Kind = "Include"
	InvalidConfig               Kind = "InvalidConfig"
	EvalFailure                 Kind = "EvalFailure"
	UnmatchingCommodities       Kind = "UnmatchingCommodities"
	CommodityAmountRequired     Kind = "CommodityAmountRequired"
	SingleAmountRequired        Kind = "SingleAmountRequired"
	PostingAmountRequired       Kind = "PostingAmountRequired"
	ComplexPostingAmount        Kind = "ComplexPostingAmount"
	UndeduciblePostingAmount    Kind = "UndeduciblePostingAmount"
	UnbalancedPostings          Kind = "UnbalancedPostings"
	BalanceAssertionFailure     Kind = "BalanceAssertionFailure"
	ZeroAmountWithExchange      Kind = "ZeroAmountWithExchange"
	ZeroExchangeRate            Kind = "ZeroExchangeRate"
	ExchangeWithAmountCommodity Kind = "ExchangeWithAmountCommodity"
	CommodityNotFound           Kind = "CommodityNotFound"
	Unknown                     Kind = "Unknown"
)

// Classified pairs an error with the Kind it was sorted into and, when the
// underlying type carries one, the source position it points at.
type Classified struct {
	Kind     Kind
	Err      error
	Position *syntax.Position
}

func (c *Classified) Error() string { return c.Err.Error() }
func (c *Classified) Unwrap() error { return c.Err }

// Classify inspects err's concrete type (walking Unwrap chains via
// errors.As) and returns the Kind it belongs to, along with a source
// position when one is available.
func Classify(err error) *Classified {
	if err == nil {
		return nil
	}

	var pos *syntax.Position
	withPosition := func(p syntax.Position) *syntax.Position { return &p }

	switch {
	case errors.As(err, new(*fs.PathError)):
		return &Classified{Kind: IO, Err: err}

	case errors.As(err, new(parser.ErrorList)):
		var list parser.ErrorList
		errors.As(err, &list)
		if len(list) > 0 {
			pos = withPosition(list[0].Position)
		}
		return &Classified{Kind: Parse, Err: err, Position: pos}

	case errors.As(err, new(*parser.Error)):
		var e *parser.Error
		errors.As(err, &e)
		return &Classified{Kind: Parse, Err: err, Position: withPosition(e.Position)}

	case errors.As(err, new(*decimal.ParseError)):
		return &Classified{Kind: EvalFailure, Err: err}

	case errors.As(err, new(*valueexpr.Error)):
		return &Classified{Kind: EvalFailure, Err: err}

	case errors.As(err, new(*importrules.InvalidConfigError)):
		return &Classified{Kind: InvalidConfig, Err: err}

	case errors.As(err, new(*importrules.NoConversionRateError)):
		return &Classified{Kind: EvalFailure, Err: err}

	case errors.As(err, new(*book.UndeducibleAmountError)):
		var e *book.UndeducibleAmountError
		errors.As(err, &e)
		return &Classified{Kind: UndeduciblePostingAmount, Err: err, Position: withPosition(e.Position)}

	case errors.As(err, new(*book.UnbalancedPostingsError)):
		var e *book.UnbalancedPostingsError
		errors.As(err, &e)
		return &Classified{Kind: UnbalancedPostings, Err: err, Position: withPosition(e.Position)}

	case errors.As(err, new(*book.BalanceAssertionError)):
		var e *book.BalanceAssertionError
		errors.As(err, &e)
		return &Classified{Kind: BalanceAssertionFailure, Err: err, Position: withPosition(e.Position)}

	case errors.As(err, new(*book.ZeroAmountWithExchangeError)):
		var e *book.ZeroAmountWithExchangeError
		errors.As(err, &e)
		return &Classified{Kind: ZeroAmountWithExchange, Err: err, Position: withPosition(e.Position)}

	case errors.As(err, new(*book.ZeroExchangeRateError)):
		var e *book.ZeroExchangeRateError
		errors.As(err, &e)
		return &Classified{Kind: ZeroExchangeRate, Err: err, Position: withPosition(e.Position)}

	case errors.As(err, new(*book.ExchangeWithAmountCommodityError)):
		var e *book.ExchangeWithAmountCommodityError
		errors.As(err, &e)
		return &Classified{Kind: ExchangeWithAmountCommodity, Err: err, Position: withPosition(e.Position)}

	case errors.As(err, new(*book.InvalidValueExpressionError)):
		var e *book.InvalidValueExpressionError
		errors.As(err, &e)
		return &Classified{Kind: EvalFailure, Err: err, Position: withPosition(e.Position)}

	default:
		return &Classified{Kind: Unknown, Err: err}
	}
}
