package book_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/okane-project/ledgerkit/internal/book"
	"github.com/okane-project/ledgerkit/internal/parser"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	assert.NoError(t, err)
	return d
}

func parse(t *testing.T, src string) *book.Book {
	t.Helper()
	tree, errs := parser.Parse("test.ledger", []byte(src))
	assert.Equal(t, 0, len(errs))
	b, err := book.Process(tree, nil)
	assert.NoError(t, err)
	return b
}

func TestProcessDeducesUnfilledPosting(t *testing.T) {
	b := parse(t, `2024/05/01 Groceries
    Assets:Bank:Checking       -12.00 USD
    Expenses:Groceries
`)
	assert.Equal(t, 1, len(b.Transactions))
	groceries := b.Transactions[0].Postings[1]
	assert.Equal(t, "Expenses:Groceries", groceries.Account)
	amount, ok := groceries.Converted["USD"]
	assert.True(t, ok)
	assert.True(t, amount.Equal(decimalFromString(t, "12.00")))
}

func TestProcessRejectsTwoUndeduciblePostings(t *testing.T) {
	tree, errs := parser.Parse("test.ledger", []byte(`2024/05/01 Groceries
    Assets:Bank:Checking
    Expenses:Groceries
`))
	assert.Equal(t, 0, len(errs))
	_, err := book.Process(tree, nil)
	assert.Error(t, err)
	_, ok := err.(*book.UndeducibleAmountError)
	assert.True(t, ok)
}

func TestProcessBalanceAssertionOnAmountedPosting(t *testing.T) {
	b := parse(t, `2024/05/01 Paycheck
    Assets:Bank:Checking         1000.00 USD  = 1000.00 USD
    Income:Salary
`)
	assert.Equal(t, decimalFromString(t, "1000.00").String(), b.Balances.Get("Assets:Bank:Checking", "USD").String())
}

func TestProcessBalanceAssertionOnlyPostingDerivesDelta(t *testing.T) {
	b := parse(t, `2024/05/01 Opening
    Assets:Bank:Checking         = 500.00 USD
    Equity:Opening-Balances
`)
	checking := b.Transactions[0].Postings[0]
	amount := checking.Converted["USD"]
	assert.True(t, amount.Equal(decimalFromString(t, "500.00")))
}

func TestProcessFailedBalanceAssertion(t *testing.T) {
	tree, errs := parser.Parse("test.ledger", []byte(`2024/05/01 Paycheck
    Assets:Bank:Checking         1000.00 USD  = 999.00 USD
    Income:Salary
`))
	assert.Equal(t, 0, len(errs))
	_, err := book.Process(tree, nil)
	assert.Error(t, err)
	_, ok := err.(*book.BalanceAssertionError)
	assert.True(t, ok)
}

func TestProcessLotCostTakesPrecedenceOverPrice(t *testing.T) {
	b := parse(t, `2024/05/01 Buy stock
    Assets:Brokerage:HOOL        10 HOOL {500.00 USD} @@ 5190.00 USD
    Assets:Brokerage:Cash
`)
	stock := b.Transactions[0].Postings[0]
	converted, ok := stock.Converted["USD"]
	assert.True(t, ok)
	assert.True(t, converted.Equal(decimalFromString(t, "5000.00"))) // balance sum prefers the lot

	reported, ok := stock.ConvertedAmount["USD"]
	assert.True(t, ok)
	assert.True(t, reported.Equal(decimalFromString(t, "5190.00"))) // reported amount prefers the cost

	assert.Equal(t, 2, len(b.Prices)) // only the cost's rate is recorded, not the lot's
	assert.True(t, b.Prices[0].Rate.Equal(decimalFromString(t, "519")))
}

func TestProcessLotAndCostDivergeOnBalanceVsReportedAmount(t *testing.T) {
	b := parse(t, `2024/08/01 Sell
    Assets:Broker   -12 OKANE {100 JPY} @ 120 JPY
    Assets:Bank    1440 JPY
    Income         -240 JPY
`)
	broker := b.Transactions[0].Postings[0]

	balance, ok := broker.Converted["JPY"]
	assert.True(t, ok)
	assert.True(t, balance.Equal(decimalFromString(t, "-1200"))) // balance sum uses the lot (100 JPY/unit)

	reported, ok := broker.ConvertedAmount["JPY"]
	assert.True(t, ok)
	assert.True(t, reported.Equal(decimalFromString(t, "-1440"))) // reported amount uses the cost (120 JPY/unit)

	assert.Equal(t, 2, len(b.Prices))
	assert.True(t, b.Prices[0].Rate.Equal(decimalFromString(t, "120")))
}

func TestProcessImplicitTwoCommodityPriceInference(t *testing.T) {
	b := parse(t, `2024/05/01 Currency exchange
    Assets:Bank:USD              100.00 USD
    Assets:Bank:EUR              -90.00 EUR
`)
	assert.Equal(t, 1, len(b.Transactions))
	assert.True(t, len(b.Prices) >= 2)

	usdLeg := b.Transactions[0].Postings[0]
	_, hasEUR := usdLeg.Converted["EUR"]
	assert.True(t, hasEUR)
}

func TestProcessUnbalancedThreeCommoditiesErrors(t *testing.T) {
	tree, errs := parser.Parse("test.ledger", []byte(`2024/05/01 Broken
    Assets:A        100 USD
    Assets:B        -50 EUR
    Assets:C        -10 GBP
`))
	assert.Equal(t, 0, len(errs))
	_, err := book.Process(tree, nil)
	assert.Error(t, err)
	_, ok := err.(*book.UnbalancedPostingsError)
	assert.True(t, ok)
}

func TestProcessZeroExchangeRateRejected(t *testing.T) {
	tree, errs := parser.Parse("test.ledger", []byte(`2024/05/01 Bad price
    Assets:Brokerage:HOOL        10 HOOL @ 0.00 USD
    Assets:Brokerage:Cash
`))
	assert.Equal(t, 0, len(errs))
	_, err := book.Process(tree, nil)
	assert.Error(t, err)
	_, ok := err.(*book.ZeroExchangeRateError)
	assert.True(t, ok)
}
