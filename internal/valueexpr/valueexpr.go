// Package valueexpr evaluates the value-expression grammar postings, price
// annotations, and balance assertions embed: arithmetic over decimal
// literals, each optionally tagged with a commodity
// (`amount := decimal ws? commodity?`), e.g. "(100 + 50) USD" or
// "10 HOOL + 2 HOOL". It generalizes the teacher's plain-decimal Pratt
// parser (ledger.EvaluateExpression) to the two result shapes a posting
// amount can take: a bare Number, or Commodities — one decimal per distinct
// commodity touched while evaluating the expression.
package valueexpr

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Value is the result of evaluating an expression: either a bare Number, or
// Commodities — one decimal amount per distinct commodity the expression
// touched. legs is nil for a bare Number; its sole "" key never appears in
// Commodities values, since every commodity name is non-empty.
type Value struct {
	number decimal.Decimal
	legs   map[string]decimal.Decimal
}

// NewNumber builds a bare, untagged Value.
func NewNumber(n decimal.Decimal) Value { return Value{number: n} }

// NewAmount builds a single-commodity Value.
func NewAmount(commodity string, amount decimal.Decimal) Value {
	return Value{legs: map[string]decimal.Decimal{commodity: amount}}
}

// IsNumber reports whether v is an untagged bare number.
func (v Value) IsNumber() bool { return v.legs == nil }

// Number returns v's numeric value; valid only when IsNumber is true.
func (v Value) Number() decimal.Decimal { return v.number }

// Legs returns the per-commodity amounts of a tagged Value; empty for a
// bare Number.
func (v Value) Legs() map[string]decimal.Decimal { return v.legs }

// Single returns the lone (commodity, amount) pair when v tags exactly one
// commodity — the common case for a posting amount.
func (v Value) Single() (commodity string, amount decimal.Decimal, ok bool) {
	if v.IsNumber() || len(v.legs) != 1 {
		return "", decimal.Zero, false
	}
	for c, a := range v.legs {
		return c, a, true
	}
	return "", decimal.Zero, false
}

// Error reports a malformed expression or an operation the evaluator
// refuses (division by zero, mixing tagged and untagged operands in a way
// that has no defined meaning).
type Error struct {
	Msg string
	Pos int
}

func (e *Error) Error() string { return fmt.Sprintf("value expression: %s (at %d)", e.Msg, e.Pos) }

// Evaluate parses and evaluates expr, e.g. "(10 + 5) USD" or "-3.5".
func Evaluate(expr string) (Value, error) {
	p := &parser{lex: newLexer(expr)}
	v, err := p.parseExpr(0)
	if err != nil {
		return Value{}, err
	}
	if tok := p.lex.peek(); tok.kind != tokEOF {
		return Value{}, &Error{fmt.Sprintf("unexpected trailing input %q", tok.text), tok.pos}
	}
	return v, nil
}

func (v Value) add(other Value, pos int) (Value, error) {
	if v.IsNumber() && other.IsNumber() {
		return NewNumber(v.number.Add(other.number)), nil
	}
	// A bare number that is exactly zero coerces to an empty (neutral)
	// Amount, so e.g. "10 USD + 0" combines instead of erroring.
	if v.IsNumber() && v.number.IsZero() {
		v = Value{legs: map[string]decimal.Decimal{}}
	}
	if other.IsNumber() && other.number.IsZero() {
		other = Value{legs: map[string]decimal.Decimal{}}
	}
	if v.IsNumber() != other.IsNumber() {
		return Value{}, &Error{"cannot add a bare number to a commodity amount", pos}
	}
	merged := mergeLegs(v.legs, other.legs, func(a, b decimal.Decimal) decimal.Decimal { return a.Add(b) })
	return Value{legs: merged}, nil
}

func (v Value) sub(other Value, pos int) (Value, error) {
	return v.add(other.neg(), pos)
}

func (v Value) neg() Value {
	if v.IsNumber() {
		return NewNumber(v.number.Neg())
	}
	neg := make(map[string]decimal.Decimal, len(v.legs))
	for c, a := range v.legs {
		neg[c] = a.Neg()
	}
	return Value{legs: neg}
}

func (v Value) mul(other Value, pos int) (Value, error) {
	switch {
	case v.IsNumber() && other.IsNumber():
		return NewNumber(v.number.Mul(other.number)), nil
	case v.IsNumber() && !other.IsNumber():
		return scale(other, v.number), nil
	case !v.IsNumber() && other.IsNumber():
		return scale(v, other.number), nil
	default:
		return Value{}, &Error{"cannot multiply two commodity amounts together", pos}
	}
}

func (v Value) div(other Value, pos int) (Value, error) {
	if !other.IsNumber() {
		return Value{}, &Error{"cannot divide by a commodity amount", pos}
	}
	if other.number.IsZero() {
		return Value{}, &Error{"division by zero", pos}
	}
	if v.IsNumber() {
		return NewNumber(v.number.Div(other.number)), nil
	}
	return scale(v, decimal.NewFromInt(1).Div(other.number)), nil
}

func scale(v Value, by decimal.Decimal) Value {
	scaled := make(map[string]decimal.Decimal, len(v.legs))
	for c, a := range v.legs {
		scaled[c] = a.Mul(by)
	}
	return Value{legs: scaled}
}

func mergeLegs(a, b map[string]decimal.Decimal, combine func(a, b decimal.Decimal) decimal.Decimal) map[string]decimal.Decimal {
	merged := make(map[string]decimal.Decimal, len(a)+len(b))
	for c, v := range a {
		merged[c] = v
	}
	for c, v := range b {
		if existing, ok := merged[c]; ok {
			merged[c] = combine(existing, v)
		} else {
			merged[c] = v
		}
	}
	return merged
}
