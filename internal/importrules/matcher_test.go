package importrules_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"gopkg.in/yaml.v3"

	"github.com/okane-project/ledgerkit/internal/importrules"
)

type fakeRecord map[string]string

func (r fakeRecord) Field(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}

func parseRules(t *testing.T, src string) []importrules.RewriteRule {
	t.Helper()
	var rules []importrules.RewriteRule
	assert.NoError(t, yaml.Unmarshal([]byte(src), &rules))
	return rules
}

func TestExtractSetsAccountAndClearsOnMatch(t *testing.T) {
	rules := parseRules(t, `
- matcher:
    payee: "(?P<payee>.*) SUPERMARKET"
  account: Expenses:Groceries
`)
	caps := importrules.FieldSet{"payee": true}
	ex, err := importrules.NewExtractor(rules, caps)
	assert.NoError(t, err)

	frag := ex.Extract(fakeRecord{"payee": "ACME SUPERMARKET"})
	assert.Equal(t, "Expenses:Groceries", frag.Account)
	assert.Equal(t, "ACME", frag.Payee)
	assert.True(t, frag.Cleared)
}

func TestExtractPendingRuleLeavesUncleared(t *testing.T) {
	rules := parseRules(t, `
- matcher:
    payee: "UNKNOWN"
  account: Expenses:Unsorted
  pending: true
`)
	ex, err := importrules.NewExtractor(rules, importrules.FieldSet{"payee": true})
	assert.NoError(t, err)
	frag := ex.Extract(fakeRecord{"payee": "UNKNOWN VENDOR"})
	assert.Equal(t, "Expenses:Unsorted", frag.Account)
	assert.True(t, !frag.Cleared)
}

func TestExtractOrMatcherShortCircuits(t *testing.T) {
	rules := parseRules(t, `
- matcher:
    - payee: "COFFEE"
    - category: "dining"
  account: Expenses:Dining
`)
	ex, err := importrules.NewExtractor(rules, importrules.FieldSet{"payee": true, "category": true})
	assert.NoError(t, err)

	frag := ex.Extract(fakeRecord{"payee": "BLUE BOTTLE COFFEE", "category": "groceries"})
	assert.Equal(t, "Expenses:Dining", frag.Account)

	frag = ex.Extract(fakeRecord{"payee": "RANDOM STORE", "category": "dining"})
	assert.Equal(t, "Expenses:Dining", frag.Account)

	frag = ex.Extract(fakeRecord{"payee": "RANDOM STORE", "category": "groceries"})
	assert.Equal(t, "", frag.Account)
}

func TestExtractAndMatcherRequiresAllFields(t *testing.T) {
	rules := parseRules(t, `
- matcher:
    payee: "CARD"
    category: "travel"
  account: Expenses:Travel
`)
	ex, err := importrules.NewExtractor(rules, importrules.FieldSet{"payee": true, "category": true})
	assert.NoError(t, err)

	frag := ex.Extract(fakeRecord{"payee": "AIRLINE CARD", "category": "groceries"})
	assert.Equal(t, "", frag.Account)

	frag = ex.Extract(fakeRecord{"payee": "AIRLINE CARD", "category": "travel"})
	assert.Equal(t, "Expenses:Travel", frag.Account)
}

func TestExtractLaterRuleReplacesAccount(t *testing.T) {
	rules := parseRules(t, `
- matcher:
    payee: "STORE"
  account: Expenses:Shopping
- matcher:
    payee: "STORE"
  payee: "The Store"
`)
	ex, err := importrules.NewExtractor(rules, importrules.FieldSet{"payee": true})
	assert.NoError(t, err)
	frag := ex.Extract(fakeRecord{"payee": "STORE"})
	assert.Equal(t, "", frag.Account) // second matching rule's empty account replaces the first's
	assert.Equal(t, "The Store", frag.Payee)
	assert.True(t, frag.Cleared) // stays true from the first rule's match
}

func TestNewExtractorRejectsUnsupportedField(t *testing.T) {
	rules := parseRules(t, `
- matcher:
    creditor_name: "ACME"
  account: Expenses:Misc
`)
	_, err := importrules.NewExtractor(rules, importrules.FieldSet{"payee": true})
	assert.Error(t, err)
}
