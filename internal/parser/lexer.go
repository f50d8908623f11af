// Package parser implements a streaming, recoverable, zero-copy parser for
// ledger files: it lexes the source buffer into lines without copying, then
// recursive-descends each line into a syntax.Entry. Like the teacher's
// hand-rolled parser package, byte offsets into the original buffer are kept
// as long as possible so error messages can re-slice exact source text
// instead of reconstructing it.
package parser

import "github.com/okane-project/ledgerkit/internal/syntax"

// line is one physical line of source: zero-copy span plus its indentation
// depth, which the parser uses to tell a transaction header from a posting
// from a metadata line.
type line struct {
	pos     syntax.Position
	raw     []byte // full line, including leading whitespace
	indent  int    // number of leading whitespace bytes
	content []byte // raw with leading/trailing whitespace trimmed
}

// splitLines scans source into lines with byte-accurate positions, the way
// the teacher's lexer tracks Line/Column while walking source without
// allocating per-token strings.
func splitLines(filename string, source []byte) []line {
	var lines []line
	lineNo := 1
	start := 0
	for i := 0; i <= len(source); i++ {
		if i == len(source) || source[i] == '\n' {
			raw := source[start:i]
			lines = append(lines, makeLine(filename, lineNo, start, raw))
			lineNo++
			start = i + 1
		}
	}
	return lines
}

func makeLine(filename string, lineNo, offset int, raw []byte) line {
	indent := 0
	for indent < len(raw) && (raw[indent] == ' ' || raw[indent] == '\t') {
		indent++
	}
	end := len(raw)
	for end > indent && isTrimmable(raw[end-1]) {
		end--
	}
	return line{
		pos:     syntax.Position{Filename: filename, Offset: offset, Line: lineNo, Column: 1},
		raw:     raw,
		indent:  indent,
		content: raw[indent:end],
	}
}

func isTrimmable(b byte) bool { return b == ' ' || b == '\t' || b == '\r' }

// isBlank reports whether the line is empty or all whitespace.
func (l line) isBlank() bool { return len(l.content) == 0 }

// isComment reports whether the line is a full-line comment.
func (l line) isComment() bool {
	return len(l.content) > 0 && (l.content[0] == ';' || l.content[0] == '#')
}

// isIndented reports whether the line is indented relative to a directive
// header, i.e. a posting or metadata line belonging to the transaction above.
func (l line) isIndented() bool { return l.indent > 0 }

// stripComment removes a trailing `; comment` or `# comment`, honoring
// quoted strings so a `;` inside a narration isn't mistaken for a comment
// marker.
func stripComment(b []byte) (code []byte, comment string) {
	inQuotes := false
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '"':
			inQuotes = !inQuotes
		case ';', '#':
			if !inQuotes {
				return trimRight(b[:i]), string(trimSpaceBytes(b[i+1:]))
			}
		}
	}
	return b, ""
}

func trimRight(b []byte) []byte {
	end := len(b)
	for end > 0 && isTrimmable(b[end-1]) {
		end--
	}
	return b[:end]
}

func trimSpaceBytes(b []byte) []byte {
	start := 0
	for start < len(b) && isTrimmable(b[start]) {
		start++
	}
	end := len(b)
	for end > start && isTrimmable(b[end-1]) {
		end--
	}
	return b[start:end]
}
