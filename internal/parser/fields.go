package parser

// splitFields splits a posting or header body on runs of two or more spaces
// (or a single tab), the field separator ledger-format text uses so account
// names and narrations can contain single spaces. Quoted strings, braces,
// brackets, and parens are tracked so a separator inside one of them never
// splits a field in two.
func splitFields(b []byte) []string {
	var fields []string
	depth := 0
	inQuotes := false
	start := -1
	i := 0
	flush := func(end int) {
		if start >= 0 && end > start {
			fields = append(fields, string(trimSpaceBytes(b[start:end])))
		}
		start = -1
	}
	for i < len(b) {
		c := b[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			if start < 0 {
				start = i
			}
			i++
		case inQuotes:
			i++
		case c == '{' || c == '[' || c == '(':
			depth++
			if start < 0 {
				start = i
			}
			i++
		case c == '}' || c == ']' || c == ')':
			if depth > 0 {
				depth--
			}
			i++
		case depth > 0:
			i++
		case c == '\t':
			flush(i)
			i++
		case c == ' ' && i+1 < len(b) && b[i+1] == ' ':
			flush(i)
			for i < len(b) && b[i] == ' ' {
				i++
			}
		default:
			if start < 0 {
				start = i
			}
			i++
		}
	}
	flush(len(b))
	return fields
}
