package importrules

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Record is one source entry (a CSV row, an ISO camt.053 entry, a
// credit-card statement line) being matched and extracted from. Field
// returns the record's value for a rewrite-rule field key and whether this
// source format supports that field at all; an unsupported field fails
// Extractor construction rather than silently never matching.
type Record interface {
	Field(key string) (value string, supported bool)
}

// FieldSet is the set of rewrite-rule field keys one source format exposes.
type FieldSet map[string]bool

// fieldMatcher is one `{field: pattern, ...}` map; every field must match
// (AND-combined) for the matcher to be satisfied.
type fieldMatcher map[string]string

// Matcher is a rewrite rule's `matcher`: either a single fieldMatcher, or an
// `Or` sequence of them evaluated in order with the first satisfied branch
// winning.
type Matcher struct {
	branches []fieldMatcher
}

// UnmarshalYAML accepts either a bare field map (AND matcher) or a sequence
// of field maps (OR matcher), matching the config's untagged matcher shape.
func (m *Matcher) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var branches []fieldMatcher
		if err := node.Decode(&branches); err != nil {
			return err
		}
		m.branches = branches
	case yaml.MappingNode:
		var fm fieldMatcher
		if err := node.Decode(&fm); err != nil {
			return err
		}
		m.branches = []fieldMatcher{fm}
	default:
		return fmt.Errorf("matcher must be a map or a sequence of maps")
	}
	return nil
}

// fields returns every field key referenced anywhere in m, for capability
// validation at Extractor construction time.
func (m Matcher) fields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, fm := range m.branches {
		for field := range fm {
			if !seen[field] {
				seen[field] = true
				out = append(out, field)
			}
		}
	}
	return out
}

// compiledMatcher is Matcher with every pattern compiled to a
// case-insensitive regexp (named captures `payee`/`code` propagate).
type compiledMatcher struct {
	branches []map[string]*regexp.Regexp
}

func compileMatcher(m Matcher, capabilities FieldSet) (compiledMatcher, error) {
	for _, field := range m.fields() {
		if !capabilities[field] {
			return compiledMatcher{}, fmt.Errorf("matcher references unsupported field %q", field)
		}
	}
	var branches []map[string]*regexp.Regexp
	for _, fm := range m.branches {
		compiled := make(map[string]*regexp.Regexp, len(fm))
		for field, pattern := range fm {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return compiledMatcher{}, fmt.Errorf("field %q: %w", field, err)
			}
			compiled[field] = re
		}
		branches = append(branches, compiled)
	}
	return compiledMatcher{branches: branches}, nil
}

type capture struct {
	payee string
	code  string
}

// evaluate tries each branch in order (OR semantics), returning the first
// one whose every field matches (AND semantics within a branch).
func (m compiledMatcher) evaluate(rec Record) (capture, bool) {
	for _, branch := range m.branches {
		if c, ok := evaluateBranch(branch, rec); ok {
			return c, true
		}
	}
	return capture{}, false
}

func evaluateBranch(branch map[string]*regexp.Regexp, rec Record) (capture, bool) {
	var c capture
	for field, re := range branch {
		value, _ := rec.Field(field)
		groups := re.FindStringSubmatch(value)
		if groups == nil {
			return capture{}, false
		}
		for i, name := range re.SubexpNames() {
			if i >= len(groups) {
				continue
			}
			switch name {
			case "payee":
				c.payee = groups[i]
			case "code":
				c.code = groups[i]
			}
		}
	}
	return c, true
}

// Fragment is the information extracted out of one record: the side of the
// ledger transaction the import is still missing once every rule has run.
type Fragment struct {
	Cleared    bool
	Payee      string
	Account    string
	Code       string
	Conversion *CommodityConversionSpec
}

type compiledRule struct {
	match      compiledMatcher
	pending    bool
	payee      string
	account    string
	conversion *CommodityConversionSpec
}

// Extractor evaluates a config's rewrite rules, in order, against a record.
type Extractor struct {
	rules []compiledRule
}

// NewExtractor compiles rules against a format's declared field
// capabilities, rejecting any matcher that references an unsupported field.
func NewExtractor(rules []RewriteRule, capabilities FieldSet) (*Extractor, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cm, err := compileMatcher(r.Matcher, capabilities)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledRule{
			match: cm, pending: r.Pending, payee: r.Payee, account: r.Account, conversion: r.Conversion,
		})
	}
	return &Extractor{rules: compiled}, nil
}

// Extract runs every rule against rec in order, accumulating a Fragment.
//
// A matched rule's captured payee/code fill the fragment if non-empty; its
// configured payee, if any, then overrides that. Its account is *set*, not
// merged, replacing whatever a previous rule left there (even if this
// rule's own account is empty) — the last matching rule decides the
// destination account entirely. Once any matching, non-pending rule leaves
// a non-empty account, the fragment is cleared for good.
func (e *Extractor) Extract(rec Record) Fragment {
	var frag Fragment
	for _, r := range e.rules {
		c, ok := r.match.evaluate(rec)
		if !ok {
			continue
		}
		if c.payee != "" {
			frag.Payee = c.payee
		}
		if c.code != "" {
			frag.Code = c.code
		}
		if r.payee != "" {
			frag.Payee = r.payee
		}
		frag.Account = r.account
		if r.conversion != nil {
			frag.Conversion = r.conversion
		}
		if frag.Account != "" && !r.pending {
			frag.Cleared = true
		}
	}
	return frag
}
