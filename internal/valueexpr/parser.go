package valueexpr

import (
	"github.com/shopspring/decimal"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent // a commodity symbol
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer { return &lexer{input: input} }

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
}

// peek returns, without consuming, the next token.
func (l *lexer) peek() token {
	save := l.pos
	tok := l.next()
	l.pos = save
	return tok
}

// next consumes and returns the next token.
func (l *lexer) next() token {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}
	}
	start := l.pos
	c := l.input[l.pos]
	switch {
	case c == '(':
		l.pos++
		return token{kind: tokLParen, text: "(", pos: start}
	case c == ')':
		l.pos++
		return token{kind: tokRParen, text: ")", pos: start}
	case c == '+' || c == '-' || c == '*' || c == '/':
		l.pos++
		return token{kind: tokOp, text: string(c), pos: start}
	case c >= '0' && c <= '9':
		return l.lexNumber(start)
	case isIdentStart(c):
		for l.pos < len(l.input) && isIdentRune(l.input[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.input[start:l.pos], pos: start}
	default:
		l.pos++
		return token{kind: tokOp, text: string(c), pos: start}
	}
}

func (l *lexer) lexNumber(start int) token {
	sawDot := false
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c >= '0' && c <= '9' {
			l.pos++
		} else if c == '.' && !sawDot {
			sawDot = true
			l.pos++
		} else if c == ',' {
			// thousands separators are tolerated inside value expressions
			l.pos++
		} else {
			break
		}
	}
	return token{kind: tokNumber, text: l.input[start:l.pos], pos: start}
}

func isIdentStart(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isIdentRune(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '_' || c == '.'
}

// parser is a Pratt parser over the value-expression grammar:
//
//	expr       := term (('+' | '-') term)*
//	term       := primary (('*' | '/') primary)*
//	primary    := '-' primary | '(' expr ')' tagged? | amount
//	amount     := number tagged?
//	tagged     := ws? ident
type parser struct {
	lex *lexer
}

func precedence(op string) int {
	switch op {
	case "+", "-":
		return 1
	case "*", "/":
		return 2
	default:
		return 0
	}
}

func (p *parser) parseExpr(minPrec int) (Value, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return Value{}, err
	}
	for {
		tok := p.lex.peek()
		if tok.kind != tokOp || precedence(tok.text) == 0 {
			break
		}
		prec := precedence(tok.text)
		if prec < minPrec {
			break
		}
		op := p.lex.next()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return Value{}, err
		}
		switch op.text {
		case "+":
			left, err = left.add(right, op.pos)
		case "-":
			left, err = left.sub(right, op.pos)
		case "*":
			left, err = left.mul(right, op.pos)
		case "/":
			left, err = left.div(right, op.pos)
		}
		if err != nil {
			return Value{}, err
		}
	}
	return left, nil
}

func (p *parser) parsePrimary() (Value, error) {
	tok := p.lex.peek()
	switch {
	case tok.kind == tokOp && tok.text == "-":
		p.lex.next()
		operand, err := p.parsePrimary()
		if err != nil {
			return Value{}, err
		}
		return operand.neg(), nil

	case tok.kind == tokLParen:
		p.lex.next()
		inner, err := p.parseExpr(0)
		if err != nil {
			return Value{}, err
		}
		closing := p.lex.next()
		if closing.kind != tokRParen {
			return Value{}, &Error{"expected ')'", closing.pos}
		}
		return p.maybeTag(inner)

	case tok.kind == tokNumber:
		p.lex.next()
		n, err := decimal.NewFromString(normalizeDigits(tok.text))
		if err != nil {
			return Value{}, &Error{"invalid number " + tok.text, tok.pos}
		}
		return p.maybeTag(NewNumber(n))

	default:
		return Value{}, &Error{"expected a number or '('", tok.pos}
	}
}

// maybeTag attaches a trailing commodity identifier to an untagged Number,
// implementing the `amount := decimal ws? commodity?` rule. A value that's
// already tagged (e.g. the result of "10 HOOL + 2 HOOL") is left alone.
func (p *parser) maybeTag(v Value) (Value, error) {
	tok := p.lex.peek()
	if tok.kind != tokIdent {
		return v, nil
	}
	p.lex.next()
	if !v.IsNumber() {
		return Value{}, &Error{"commodity already determined by subexpression", tok.pos}
	}
	return NewAmount(tok.text, v.Number()), nil
}

func normalizeDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != ',' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
