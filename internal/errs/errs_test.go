package errs_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/okane-project/ledgerkit/internal/book"
	"github.com/okane-project/ledgerkit/internal/errs"
	"github.com/okane-project/ledgerkit/internal/parser"
	"github.com/okane-project/ledgerkit/internal/syntax"
)

func TestClassifyBalanceAssertionFailure(t *testing.T) {
	err := &book.BalanceAssertionError{
		Position:  syntax.Position{Filename: "main.ledger", Line: 6, Column: 3},
		Account:   "Assets:Checking",
		Commodity: "USD",
		Expected:  "100.00",
		Actual:    "80.00",
	}
	c := errs.Classify(err)
	assert.Equal(t, errs.BalanceAssertionFailure, c.Kind)
	assert.Equal(t, "main.ledger:6:3", c.Position.String())
}

func TestClassifyParseErrorList(t *testing.T) {
	list := parser.ErrorList{
		{Position: syntax.Position{Filename: "a.ledger", Line: 2, Column: 1}, Msg: "unexpected token"},
	}
	c := errs.Classify(list)
	assert.Equal(t, errs.Parse, c.Kind)
	assert.Equal(t, 2, c.Position.Line)
}

func TestClassifyUnknownFallsBackToUnknownKind(t *testing.T) {
	c := errs.Classify(errors.New("something unclassified went wrong"))
	assert.Equal(t, errs.Unknown, c.Kind)
}

func TestTextFormatterIncludesPositionAndMessage(t *testing.T) {
	err := &book.UnbalancedPostingsError{
		Position:  syntax.Position{Filename: "main.ledger", Line: 10, Column: 1},
		Residuals: map[string]string{"USD": "5.00"},
	}
	f := errs.NewTextFormatter(nil)
	out := f.Format(err)
	assert.True(t, strings.Contains(out, "main.ledger:10:1"))
	assert.True(t, strings.Contains(out, "transaction does not balance"))
}

func TestJSONFormatterEmitsKindTag(t *testing.T) {
	err := &book.ZeroExchangeRateError{Position: syntax.Position{Filename: "p.ledger", Line: 1, Column: 1}}
	f := errs.NewJSONFormatter()
	out := f.Format(err)
	assert.True(t, strings.Contains(out, `"kind":"ZeroExchangeRate"`))
	assert.True(t, strings.Contains(out, `"line":1`))
}
