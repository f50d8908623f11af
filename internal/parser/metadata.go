package parser

import "github.com/okane-project/ledgerkit/internal/syntax"

// parseMetadataLine classifies one indented metadata line as either a
// word-tag line (`:commute:errand:`) or a key-value line (`key: value` /
// `key:: expr`), appending the result to meta.
func parseMetadataLine(pos syntax.Position, content []byte, meta *syntax.Metadata) {
	if len(content) == 0 {
		return
	}
	if content[0] == ':' {
		for _, tag := range splitTagLine(content) {
			meta.Tags = append(meta.Tags, tag)
		}
		return
	}
	key, value, isExpr, ok := splitKeyValue(content)
	if !ok {
		return
	}
	meta.KeyValues = append(meta.KeyValues, syntax.KeyValue{
		Key:      key,
		Value:    value,
		IsExpr:   isExpr,
		Position: pos,
	})
}

// splitTagLine splits `:a:b:c:` into ["a", "b", "c"], ignoring a missing
// trailing colon.
func splitTagLine(content []byte) []string {
	var tags []string
	start := 1
	for i := 1; i <= len(content); i++ {
		if i == len(content) || content[i] == ':' {
			if i > start {
				tags = append(tags, string(content[start:i]))
			}
			start = i + 1
		}
	}
	return tags
}

// splitKeyValue splits `key: value` or `key:: expr`, honoring quoted strings
// so a colon inside a quoted value isn't mistaken for the separator.
func splitKeyValue(content []byte) (key, value string, isExpr bool, ok bool) {
	inQuotes := false
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '"':
			inQuotes = !inQuotes
		case ':':
			if inQuotes {
				continue
			}
			k := string(trimSpaceBytes(content[:i]))
			if k == "" {
				return "", "", false, false
			}
			rest := i + 1
			expr := false
			if rest < len(content) && content[rest] == ':' {
				expr = true
				rest++
			}
			return k, string(trimSpaceBytes(content[rest:])), expr, true
		}
	}
	return "", "", false, false
}
