package parser

import (
	"strings"

	"github.com/okane-project/ledgerkit/internal/syntax"
)

// Parse parses source into a syntax.Tree, recovering from malformed
// constructs rather than stopping at the first one: a bad line is recorded
// in the returned ErrorList and the parser resumes at the next blank or
// unindented line, the same tolerance the teacher's recursive-descent parser
// gives a malformed directive.
func Parse(filename string, source []byte) (*syntax.Tree, ErrorList) {
	lines := splitLines(filename, source)
	tree := &syntax.Tree{}
	var errs ErrorList

	i := 0
	for i < len(lines) {
		l := lines[i]
		switch {
		case l.isBlank():
			i++
		case l.isIndented():
			errs = append(errs, &Error{l.pos, "indented line has no preceding directive"})
			i++
		case l.isComment():
			i++
		default:
			code, _ := stripComment(l.content)
			if len(code) == 0 {
				i++
				continue
			}
			entry, consumed, err := parseTopLevel(lines, i, code)
			if err != nil {
				errs = append(errs, err.(*Error))
				i += consumed
				for i < len(lines) && !lines[i].isBlank() && lines[i].isIndented() {
					i++
				}
				continue
			}
			if entry != nil {
				tree.Entries = append(tree.Entries, entry)
				if inc, ok := entry.(*syntax.Include); ok {
					tree.Includes = append(tree.Includes, inc)
				}
			}
			i += consumed
		}
	}
	return tree, errs
}

func parseTopLevel(lines []line, i int, code []byte) (syntax.Entry, int, error) {
	pos := lines[i].pos
	switch {
	case hasKeyword(code, "include"):
		entry, err := parseInclude(pos, code)
		return entry, 1, err
	case hasKeyword(code, "apply"):
		entry, err := parseApplyTag(pos, code)
		return entry, 1, err
	case hasKeyword(code, "end"):
		return &syntax.EndApplyTag{Position: pos}, 1, nil
	case hasKeyword(code, "account"):
		decl, consumed, err := parseAccountDecl(lines, i)
		return decl, consumed, err
	case hasKeyword(code, "commodity"):
		decl, consumed, err := parseCommodityDecl(lines, i)
		return decl, consumed, err
	default:
		txn, consumed, err := parseTransaction(lines, i)
		return txn, consumed, err
	}
}

func hasKeyword(code []byte, kw string) bool {
	if len(code) < len(kw) || string(code[:len(kw)]) != kw {
		return false
	}
	return len(code) == len(kw) || code[len(kw)] == ' ' || code[len(kw)] == '\t'
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1], true
	}
	return "", false
}

func parseInclude(pos syntax.Position, code []byte) (*syntax.Include, error) {
	rest := strings.TrimSpace(string(code[len("include"):]))
	filename, ok := unquote(rest)
	if !ok {
		return nil, &Error{pos, "include expects a quoted path"}
	}
	return &syntax.Include{Position: pos, Filename: filename}, nil
}

func parseApplyTag(pos syntax.Position, code []byte) (*syntax.ApplyTag, error) {
	fields := strings.Fields(string(code))
	if len(fields) != 3 || fields[1] != "tag" {
		return nil, &Error{pos, "expected 'apply tag NAME'"}
	}
	return &syntax.ApplyTag{Position: pos, Tag: fields[2]}, nil
}

func parseAccountDecl(lines []line, i int) (*syntax.AccountDecl, int, error) {
	header := lines[i]
	code, _ := stripComment(header.content)
	rest := strings.TrimSpace(string(code[len("account"):]))
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, 1, &Error{header.pos, "account declaration has no name"}
	}
	decl := &syntax.AccountDecl{Position: header.pos, Name: fields[0]}
	if len(fields) >= 3 && fields[1] == "alias" {
		decl.Aliases = append(decl.Aliases, fields[2])
	}

	j := i + 1
	for j < len(lines) {
		l := lines[j]
		if l.isBlank() || !l.isIndented() {
			break
		}
		if !l.isComment() {
			sub, _ := stripComment(l.content)
			if f := strings.Fields(string(sub)); len(f) >= 2 && f[0] == "alias" {
				decl.Aliases = append(decl.Aliases, f[1])
			}
		}
		j++
	}
	return decl, j - i, nil
}

func parseCommodityDecl(lines []line, i int) (*syntax.CommodityDecl, int, error) {
	header := lines[i]
	code, _ := stripComment(header.content)
	rest := strings.TrimSpace(string(code[len("commodity"):]))
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, 1, &Error{header.pos, "commodity declaration has no name"}
	}
	decl := &syntax.CommodityDecl{Position: header.pos, Name: fields[0]}
	if len(fields) >= 3 && fields[1] == "alias" {
		decl.Aliases = append(decl.Aliases, fields[2])
	}

	j := i + 1
	for j < len(lines) {
		l := lines[j]
		if l.isBlank() || !l.isIndented() {
			break
		}
		if !l.isComment() {
			sub, _ := stripComment(l.content)
			f := strings.Fields(string(sub))
			switch {
			case len(f) >= 2 && f[0] == "alias":
				decl.Aliases = append(decl.Aliases, f[1])
			case len(f) >= 2 && f[0] == "format":
				decl.Format = strings.Join(f[1:], " ")
			}
		}
		j++
	}
	return decl, j - i, nil
}

// parseTransaction parses a transaction header plus every indented posting
// and metadata line beneath it.
func parseTransaction(lines []line, i int) (*syntax.Transaction, int, error) {
	header := lines[i]
	code, _ := stripComment(header.content)
	txn, err := parseTransactionHeader(header.pos, string(code))
	if err != nil {
		return nil, 1, err
	}

	j := i + 1
	for j < len(lines) {
		l := lines[j]
		if l.isBlank() || !l.isIndented() {
			break
		}
		if l.isComment() {
			j++
			continue
		}
		body, _ := stripComment(l.content)
		if len(body) == 0 {
			j++
			continue
		}
		if body[0] == ':' || looksLikeMetadataLine(body) {
			parseMetadataLine(l.pos, body, &txn.Metadata)
			j++
			continue
		}
		p, err := parsePosting(l.pos, body)
		if err != nil {
			return txn, j - i + 1, err
		}
		txn.Postings = append(txn.Postings, p)
		j++
	}
	return txn, j - i, nil
}

// looksLikeMetadataLine distinguishes "key: value" / "key:: expr" from a
// posting whose account happens to contain colons (e.g.
// "Assets:Bank:Checking"): a metadata key is a single identifier, so the
// character right after its colon is a space or another colon, never the
// next path segment's first letter.
func looksLikeMetadataLine(body []byte) bool {
	inQuotes := false
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '"':
			inQuotes = !inQuotes
		case ':':
			if inQuotes {
				continue
			}
			if i+1 >= len(body) {
				return true
			}
			return body[i+1] == ' ' || body[i+1] == ':'
		case ' ', '\t':
			return false
		}
	}
	return false
}

// parseTransactionHeader parses
//
//	DATE[=EFFDATE] [*|!] [(CODE)] PAYEE
func parseTransactionHeader(pos syntax.Position, code string) (*syntax.Transaction, error) {
	code = strings.TrimSpace(code)
	dateEnd := strings.IndexAny(code, " \t")
	if dateEnd < 0 {
		dateEnd = len(code)
	}
	dateToken := code[:dateEnd]
	rest := strings.TrimSpace(code[dateEnd:])

	txn := &syntax.Transaction{Position: pos}
	datePart := dateToken
	if eq := strings.IndexByte(dateToken, '='); eq >= 0 {
		datePart = dateToken[:eq]
		eff, err := syntax.ParseDate(dateToken[eq+1:])
		if err != nil {
			return nil, &Error{pos, "invalid effective date: " + err.Error()}
		}
		txn.EffectiveDate = &eff
	}
	date, err := syntax.ParseDate(datePart)
	if err != nil {
		return nil, &Error{pos, "invalid transaction date: " + err.Error()}
	}
	txn.Date = date

	if len(rest) > 0 && (rest[0] == '*' || rest[0] == '!') {
		txn.Clear = syntax.ClearState(rest[0])
		rest = strings.TrimSpace(rest[1:])
	}

	if len(rest) > 0 && rest[0] == '(' {
		if close := strings.IndexByte(rest, ')'); close >= 0 {
			txn.Code = rest[1:close]
			rest = strings.TrimSpace(rest[close+1:])
		}
	}

	rest, txn.Metadata.Tags = extractTrailingTags(rest)

	txn.Payee = rest
	return txn, nil
}

// extractTrailingTags strips a trailing ":tag1:tag2:" block, if present,
// from a transaction header's description.
func extractTrailingTags(rest string) (string, []string) {
	trimmed := strings.TrimRight(rest, " \t")
	if !strings.HasSuffix(trimmed, ":") {
		return rest, nil
	}
	space := strings.LastIndexAny(trimmed, " \t")
	candidate := trimmed
	if space >= 0 {
		candidate = trimmed[space+1:]
	}
	if len(candidate) < 2 || candidate[0] != ':' {
		return rest, nil
	}
	tags := splitTagLine([]byte(candidate))
	if len(tags) == 0 {
		return rest, nil
	}
	if space < 0 {
		return "", tags
	}
	return strings.TrimRight(trimmed[:space], " \t"), tags
}
