package importrules_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/okane-project/ledgerkit/internal/importrules"
	"github.com/okane-project/ledgerkit/internal/syntax"
)

func TestToTransactionCarriesCode(t *testing.T) {
	e := importrules.SingleEntry{
		Date:      syntax.Date{},
		Payee:     "Whole Foods",
		Code:      "CHK100",
		Account:   "Assets:Bank:Checking",
		Amount:    decimal.RequireFromString("-20.00"),
		Commodity: "USD",
	}
	txn := e.ToTransaction()
	assert.Equal(t, "CHK100", txn.Code)
	assert.Equal(t, "Whole Foods", txn.Payee)
}

func TestToTransactionFallsBackToUnknownExpensesOnNegativeAmount(t *testing.T) {
	e := importrules.SingleEntry{
		Account:   "Assets:Bank:Checking",
		Amount:    decimal.RequireFromString("-20.00"),
		Commodity: "USD",
	}
	txn := e.ToTransaction()
	assert.Equal(t, importrules.UnknownExpenses, txn.Postings[1].Account)
}
