// Package decimal wraps github.com/shopspring/decimal with the "pretty"
// format memory the pretty-printer needs: a value parsed as "1,234.50" must
// render back as "1,234.50", not "1234.5", even though both parse to the
// same underlying decimal.Decimal. Neg and Rescale keep format memory; a
// value built from a bare shopspring decimal has only the format its
// constructor gives it.
package decimal

import (
	"fmt"
	"math/big"
	"strings"

	shopspring "github.com/shopspring/decimal"
)

// Format records how a Decimal's digits were grouped in source text.
type Format int

const (
	// Unformatted means the source had too few integral digits (< 4) to
	// tell Plain and Comma3Dot apart, e.g. "123" or "0.5".
	Unformatted Format = iota
	// Plain is an unformatted run of 4+ integral digits, e.g. "1234".
	Plain
	// Comma3Dot groups the integral part in 3s separated by commas, e.g.
	// "1,234.50".
	Comma3Dot
)

// Decimal is a shopspring/decimal.Decimal plus the Format it was written
// with, so the formatter can reproduce commas the way the source had them.
type Decimal struct {
	format Format
	value  shopspring.Decimal
}

// UnformattedValue constructs a Decimal with no format opinion.
func UnformattedValue(v shopspring.Decimal) Decimal { return Decimal{Unformatted, v} }

// PlainValue constructs a Decimal explicitly tagged Plain.
func PlainValue(v shopspring.Decimal) Decimal { return Decimal{Plain, v} }

// Comma3DotValue constructs a Decimal explicitly tagged Comma3Dot.
func Comma3DotValue(v shopspring.Decimal) Decimal { return Decimal{Comma3Dot, v} }

// Value returns the underlying shopspring decimal, discarding format memory.
func (d Decimal) Value() shopspring.Decimal { return d.value }

// Format returns how d was written in source, if known.
func (d Decimal) Format() Format { return d.format }

// Scale returns the number of digits to the right of the decimal point.
func (d Decimal) Scale() int32 {
	if e := d.value.Exponent(); e < 0 {
		return -e
	}
	return 0
}

// Neg flips the sign, preserving format memory.
func (d Decimal) Neg() Decimal { return Decimal{d.format, d.value.Neg()} }

// Rescale adjusts the decimal to carry exactly places digits after the
// point, preserving format memory.
func (d Decimal) Rescale(places int32) Decimal {
	return Decimal{d.format, d.value.Rescale(-places)}
}

// IsSignPositive reports whether d is not negative.
func (d Decimal) IsSignPositive() bool { return !d.value.IsNegative() }

// ParseError reports a malformed pretty-decimal literal.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid decimal %q at byte %d: %s", e.Input, e.Pos, e.Msg)
}

// Parse parses a pretty decimal literal such as "1,234.50", "-0.003", or
// "1234". It infers the Format from comma placement and validates comma
// alignment strictly: every group after the first must be exactly three
// digits, and the first group must be one to three digits.
func Parse(s string) (Decimal, error) {
	var (
		commaPos  = -1 // -1 means "no pending comma expectation"
		format    = Unformatted
		haveComma = false
		mantissa  strings.Builder
		scale     = -1 // -1 means "no decimal point seen yet"
		prefixLen = 0
		negative  = false
	)

	alignedComma := func(offset, pos int) bool {
		if !haveComma {
			return pos > offset && pos <= 3+offset
		}
		return commaPos == pos
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case i == 0 && c == '-':
			prefixLen = 1
			negative = true
		case c == ',' && alignedComma(prefixLen, i):
			format = Comma3Dot
			haveComma = true
			commaPos = i + 4
		case c == '.' && (!haveComma || commaPos == i):
			scale = 0
			haveComma = false
			commaPos = -1
		case haveComma && commaPos == i:
			return Decimal{}, &ParseError{s, i, "comma required here to keep groups of three digits"}
		case c >= '0' && c <= '9':
			if scale < 0 && format == Unformatted && i >= 3+prefixLen {
				format = Plain
			}
			mantissa.WriteByte(c)
			if scale >= 0 {
				scale++
			}
		default:
			return Decimal{}, &ParseError{s, i, fmt.Sprintf("unexpected character %q", c)}
		}
	}
	if haveComma && commaPos != len(s) {
		return Decimal{}, &ParseError{s, len(s), "last comma group has fewer than three digits"}
	}

	digits := mantissa.String()
	if digits == "" {
		digits = "0"
	}
	if scale < 0 {
		scale = 0
	}

	var lit strings.Builder
	if negative {
		lit.WriteByte('-')
	}
	intLen := len(digits) - scale
	if intLen <= 0 {
		lit.WriteString("0.")
		lit.WriteString(strings.Repeat("0", -intLen))
		lit.WriteString(digits)
	} else {
		lit.WriteString(digits[:intLen])
		if scale > 0 {
			lit.WriteByte('.')
			lit.WriteString(digits[intLen:])
		}
	}

	value, err := shopspring.NewFromString(lit.String())
	if err != nil {
		return Decimal{}, &ParseError{s, 0, err.Error()}
	}
	return Decimal{format, value}, nil
}

// MustParse is Parse, panicking on error. Intended for literals in tests.
func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String renders d the way its Format dictates: Unformatted and Plain both
// render as a plain decimal string; Comma3Dot groups the integral part in
// runs of three. Every format keeps the original trailing-zero scale.
func (d Decimal) String() string {
	if d.format != Comma3Dot {
		return d.value.StringFixed(d.Scale())
	}
	if d.value.Abs().LessThan(shopspring.NewFromInt(1000)) {
		return d.value.StringFixed(d.Scale())
	}

	var buf strings.Builder
	if d.value.IsNegative() {
		buf.WriteByte('-')
	}

	mantissa, scale := mantissaAndScale(d.value)
	remainder := mantissa
	commaPos := (len(mantissa) - scale) % 3
	if commaPos == 0 {
		commaPos = 3
	}
	first := true
	for len(remainder) > scale {
		if !first {
			buf.WriteByte(',')
		}
		if commaPos > len(remainder) {
			commaPos = len(remainder)
		}
		buf.WriteString(remainder[:commaPos])
		remainder = remainder[commaPos:]
		commaPos = 3
		first = false
	}
	if remainder != "" {
		buf.WriteByte('.')
		buf.WriteString(remainder)
	}
	return buf.String()
}

// mantissaAndScale returns the unsigned digit string of v and how many of
// its trailing digits are fractional, regardless of how v's exponent was
// represented internally.
func mantissaAndScale(v shopspring.Decimal) (string, int) {
	v = v.Abs()
	coeff := v.Coefficient()
	exp := v.Exponent()
	if exp >= 0 {
		if exp > 0 {
			mul := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
			coeff = new(big.Int).Mul(coeff, mul)
		}
		return coeff.String(), 0
	}
	return coeff.String(), int(-exp)
}
