package parser

import (
	"strings"

	"github.com/okane-project/ledgerkit/internal/syntax"
)

// splitTokens splits on any run of whitespace, unlike splitFields, but still
// keeps quoted strings and brace/bracket/paren groups intact — used to pull
// apart the amount/lot/price portion of a posting, where "10 HOOL {518.73
// USD} @@ 5190.00 USD" is six meaningful tokens separated by single spaces.
func splitTokens(b []byte) []string {
	var tokens []string
	depth := 0
	inQuotes := false
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			tokens = append(tokens, string(b[start:end]))
		}
		start = -1
	}
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			if start < 0 {
				start = i
			}
		case inQuotes:
		case c == '{' || c == '[' || c == '(':
			depth++
			if start < 0 {
				start = i
			}
		case c == '}' || c == ']' || c == ')':
			if depth > 0 {
				depth--
			}
		case depth > 0:
		case c == ' ' || c == '\t':
			flush(i)
			continue
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(b))
	return tokens
}

// parsePosting parses one indented, non-metadata posting line into a
// syntax.Posting. The account is the first splitFields field; everything
// after it is the amount/lot/price/balance portion, further split on single
// spaces (splitTokens) since those pieces chain together without the
// field-separating double space.
func parsePosting(pos syntax.Position, content []byte) (*syntax.Posting, error) {
	fields := splitFields(content)
	if len(fields) == 0 {
		return nil, &Error{pos, "empty posting line"}
	}

	p := &syntax.Posting{Position: pos}
	account := fields[0]
	if len(account) > 1 && (account[0] == '*' || account[0] == '!') && account[1] == ' ' {
		p.Clear = syntax.ClearState(account[0])
		account = strings.TrimSpace(account[1:])
	}
	p.Account = account

	var balanceField string
	var valueFields []string
	for _, f := range fields[1:] {
		if strings.HasPrefix(f, "=") {
			balanceField = f
			continue
		}
		valueFields = append(valueFields, f)
	}

	if balanceField != "" {
		expr, commodity := splitAmountExpr(strings.TrimSpace(strings.TrimPrefix(balanceField, "=")))
		p.Balance = &syntax.PostingAmount{Expr: expr, Commodity: commodity, Position: pos}
	}

	if len(valueFields) == 0 {
		return p, nil
	}

	tokens := splitTokens([]byte(strings.Join(valueFields, " ")))
	if len(tokens) == 0 {
		return p, nil
	}

	idx := 0
	p.Amount = &syntax.PostingAmount{Expr: tokens[idx], Position: pos}
	idx++
	if idx < len(tokens) && !isLotOrPriceToken(tokens[idx]) {
		p.Amount.Commodity = tokens[idx]
		idx++
	}

	for idx < len(tokens) {
		tok := tokens[idx]
		switch {
		case strings.HasPrefix(tok, "{"):
			lot, err := parseLot(pos, tok)
			if err != nil {
				return nil, err
			}
			p.Lot = lot
			idx++
		case strings.HasPrefix(tok, "@"):
			exch := &syntax.Exchange{IsTotal: strings.HasPrefix(tok, "@@"), Position: pos}
			idx++
			if idx < len(tokens) {
				exch.Expr, idx = tokens[idx], idx+1
				if idx < len(tokens) && !isLotOrPriceToken(tokens[idx]) {
					exch.Commodity = tokens[idx]
					idx++
				}
			}
			p.Price = exch
		case p.Lot != nil && strings.HasPrefix(tok, "("):
			p.Lot.Note = strings.TrimSuffix(tok[1:], ")")
			idx++
		case p.Lot != nil && strings.HasPrefix(tok, "["):
			d, err := syntax.ParseDate(strings.TrimSuffix(tok[1:], "]"))
			if err != nil {
				return nil, &Error{pos, "invalid lot acquisition date: " + err.Error()}
			}
			p.Lot.AcqDate = &d
			idx++
		default:
			return nil, &Error{pos, "unexpected token " + tok + " in posting"}
		}
	}
	return p, nil
}

func isLotOrPriceToken(tok string) bool {
	return strings.HasPrefix(tok, "{") || strings.HasPrefix(tok, "@")
}

// splitAmountExpr separates a trailing commodity identifier from a balance
// or lot expression, e.g. "312.40 USD" -> ("312.40", "USD").
func splitAmountExpr(s string) (expr, commodity string) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

// parseLot parses a brace-delimited cost/lot annotation: "{}", "{*}",
// "{518.73 USD}", "{{5187.30 USD}}", optionally with ", acq-date" inside the
// braces and a "(note)" written directly after the closing brace, which
// splitTokens keeps in this one token. A "[date]" or "(note)" after a space
// is a token of its own, which parsePosting attaches to the lot.
func parseLot(pos syntax.Position, tok string) (*syntax.Lot, error) {
	lot := &syntax.Lot{Position: pos}
	body := tok
	var note string
	if i := strings.LastIndex(body, ")"); strings.HasSuffix(body, ")") {
		if j := strings.LastIndex(body[:i], "("); j >= 0 {
			note = body[j+1 : i]
			body = strings.TrimSpace(body[:j])
		}
	}
	lot.Note = note

	total := strings.HasPrefix(body, "{{")
	body = strings.TrimPrefix(body, "{{")
	body = strings.TrimPrefix(body, "{")
	body = strings.TrimSuffix(body, "}}")
	body = strings.TrimSuffix(body, "}")
	body = strings.TrimSpace(body)

	switch {
	case body == "":
		lot.IsEmpty = true
		return lot, nil
	case body == "*":
		lot.IsMerge = true
		return lot, nil
	}

	costPart := body
	if i := strings.Index(body, ","); i >= 0 {
		costPart = strings.TrimSpace(body[:i])
		datePart := strings.TrimSpace(body[i+1:])
		d, err := syntax.ParseDate(datePart)
		if err != nil {
			return nil, &Error{pos, "invalid lot acquisition date: " + err.Error()}
		}
		lot.AcqDate = &d
	}
	expr, commodity := splitAmountExpr(costPart)
	exch := &syntax.Exchange{Expr: expr, Commodity: commodity, Position: pos}
	if total {
		lot.TotalPrice = exch
	} else {
		lot.Price = exch
	}
	return lot, nil
}
