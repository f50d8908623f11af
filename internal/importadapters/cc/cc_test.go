package cc_test

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/okane-project/ledgerkit/internal/importadapters/cc"
	"github.com/okane-project/ledgerkit/internal/importrules"
)

func entry(t *testing.T, yamlSrc string) *importrules.Entry {
	t.Helper()
	set, err := importrules.LoadYAML([]byte(yamlSrc))
	assert.NoError(t, err)
	e, err := set.Select("anything.txt")
	assert.NoError(t, err)
	assert.True(t, e != nil)
	return e
}

func TestImportPlainTransactionWithCategory(t *testing.T) {
	e := entry(t, `
path: ""
encoding: utf-8
account: Liabilities:CreditCard
account_type: liability
commodity: CHF
`)
	src := "10.08.20 11.08.20 Local Shop 42.50\nGroceries\n"
	txns, err := cc.Import(strings.NewReader(src), e)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(txns))
	assert.Equal(t, "Local Shop", txns[0].Payee)
	assert.Equal(t, "-42.50", txns[0].Postings[0].Amount.Expr)
	assert.Equal(t, importrules.UnknownExpenses, txns[0].Postings[1].Account)
}

func TestImportForeignCurrencyWithExchangeAndFee(t *testing.T) {
	e := entry(t, `
path: ""
encoding: utf-8
account: Liabilities:CreditCard
account_type: liability
commodity: CHF
`)
	src := strings.Join([]string{
		"10.08.20 11.08.20 Super gas EUR 46.88 52.10",
		"Fuel",
		"Exchange rate 1.1116 of 10.08.20 EUR 46.88",
		"Processing fee 1.5% CHF 0.78",
	}, "\n") + "\n"
	txns, err := cc.Import(strings.NewReader(src), e)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(txns))
	assert.Equal(t, "-52.88", txns[0].Postings[0].Amount.Expr)
}

func TestImportNegativeTransactionIsCredit(t *testing.T) {
	e := entry(t, `
path: ""
encoding: utf-8
account: Liabilities:CreditCard
account_type: liability
commodity: CHF
`)
	src := "10.08.20 11.08.20 Refund 20.00 -\n"
	txns, err := cc.Import(strings.NewReader(src), e)
	assert.NoError(t, err)
	assert.Equal(t, "20.00", txns[0].Postings[0].Amount.Expr)
}

func TestImportStopsAtDigitLineWithoutCategory(t *testing.T) {
	e := entry(t, `
path: ""
encoding: utf-8
account: Liabilities:CreditCard
account_type: liability
commodity: CHF
`)
	src := "10.08.20 11.08.20 First 10.00\n11.08.20 12.08.20 Second 20.00\n"
	txns, err := cc.Import(strings.NewReader(src), e)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(txns))
	assert.Equal(t, "Liabilities:CreditCard", txns[0].Postings[0].Account)
	assert.Equal(t, "Second", txns[1].Payee)
}
