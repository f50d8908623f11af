package parser_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/okane-project/ledgerkit/internal/parser"
	"github.com/okane-project/ledgerkit/internal/syntax"
)

func TestParseSimpleTransaction(t *testing.T) {
	src := `2024/05/01 * Whole Foods, Groceries for the week
    Assets:Bank:Checking       -125.00 USD
    Expenses:Groceries          125.00 USD
`
	tree, errs := parser.Parse("test.ledger", []byte(src))
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, 1, len(tree.Entries))

	txn, ok := tree.Entries[0].(*syntax.Transaction)
	assert.True(t, ok)
	assert.Equal(t, syntax.Cleared, txn.Clear)
	assert.Equal(t, "Whole Foods, Groceries for the week", txn.Payee)
	assert.Equal(t, 2, len(txn.Postings))
	assert.Equal(t, "Assets:Bank:Checking", txn.Postings[0].Account)
	assert.Equal(t, "-125.00", txn.Postings[0].Amount.Expr)
	assert.Equal(t, "USD", txn.Postings[0].Amount.Commodity)
}

func TestParseTransactionWithCode(t *testing.T) {
	src := `2024/01/01 * (CHK100) Payee
    Assets:Bank:Checking       -20.00 USD
    Expenses:Misc
`
	tree, errs := parser.Parse("test.ledger", []byte(src))
	assert.Equal(t, 0, len(errs))
	txn := tree.Entries[0].(*syntax.Transaction)
	assert.Equal(t, syntax.Cleared, txn.Clear)
	assert.Equal(t, "CHK100", txn.Code)
	assert.Equal(t, "Payee", txn.Payee)
}

func TestParseTransactionWithCodeAndPayee(t *testing.T) {
	src := `2024/01/01 (CHK100) Whole Foods, Groceries
    Assets:Bank:Checking       -20.00 USD
    Expenses:Groceries
`
	tree, errs := parser.Parse("test.ledger", []byte(src))
	assert.Equal(t, 0, len(errs))
	txn := tree.Entries[0].(*syntax.Transaction)
	assert.Equal(t, "CHK100", txn.Code)
	assert.Equal(t, "Whole Foods, Groceries", txn.Payee)
}

func TestParsePostingWithBalanceAssertion(t *testing.T) {
	src := `2024/05/02 Paycheck
    Assets:Bank:Checking         1000.00 USD  = 875.00 USD
    Income:Salary
`
	tree, errs := parser.Parse("test.ledger", []byte(src))
	assert.Equal(t, 0, len(errs))
	txn := tree.Entries[0].(*syntax.Transaction)
	assert.Equal(t, "875.00", txn.Postings[0].Balance.Expr)
	assert.Equal(t, "USD", txn.Postings[0].Balance.Commodity)
	assert.True(t, txn.Postings[1].Amount == nil)
}

func TestParsePostingWithLotAndPrice(t *testing.T) {
	src := `2024/05/03 Buy stock
    Assets:Brokerage:HOOL        10 HOOL {518.73 USD} @@ 5190.00 USD
    Assets:Brokerage:Cash
`
	tree, errs := parser.Parse("test.ledger", []byte(src))
	assert.Equal(t, 0, len(errs))
	txn := tree.Entries[0].(*syntax.Transaction)
	p := txn.Postings[0]
	assert.Equal(t, "10", p.Amount.Expr)
	assert.Equal(t, "HOOL", p.Amount.Commodity)
	assert.Equal(t, "518.73", p.Lot.Price.Expr)
	assert.Equal(t, "USD", p.Lot.Price.Commodity)
	assert.True(t, p.Price.IsTotal)
	assert.Equal(t, "5190.00", p.Price.Expr)
	assert.Equal(t, "USD", p.Price.Commodity)
}

func TestParseMetadataTagsAndKeyValues(t *testing.T) {
	src := `2024/05/04 Dinner
    :commute:errand:
    total:: (10 + 2) USD
    Assets:Bank:Checking        -12.00 USD
    Expenses:Food
`
	tree, errs := parser.Parse("test.ledger", []byte(src))
	assert.Equal(t, 0, len(errs))
	txn := tree.Entries[0].(*syntax.Transaction)
	assert.Equal(t, []string{"commute", "errand"}, txn.Metadata.Tags)
	assert.Equal(t, 1, len(txn.Metadata.KeyValues))
	assert.Equal(t, "total", txn.Metadata.KeyValues[0].Key)
	assert.True(t, txn.Metadata.KeyValues[0].IsExpr)
	assert.Equal(t, 2, len(txn.Postings))
}

func TestParseAccountAndCommodityDecls(t *testing.T) {
	src := `account Assets:Bank:Checking
    alias checking

commodity USD
    format 1,000.00
`
	tree, errs := parser.Parse("test.ledger", []byte(src))
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, 2, len(tree.Entries))

	acct := tree.Entries[0].(*syntax.AccountDecl)
	assert.Equal(t, "Assets:Bank:Checking", acct.Name)
	assert.Equal(t, []string{"checking"}, acct.Aliases)

	comm := tree.Entries[1].(*syntax.CommodityDecl)
	assert.Equal(t, "USD", comm.Name)
	assert.Equal(t, "1,000.00", comm.Format)
}

func TestParseIncludeAndApplyTag(t *testing.T) {
	src := `include "accounts.ledger"
apply tag trip-2024
end apply tag
`
	tree, errs := parser.Parse("test.ledger", []byte(src))
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, 3, len(tree.Entries))

	inc := tree.Entries[0].(*syntax.Include)
	assert.Equal(t, "accounts.ledger", inc.Filename)

	apply := tree.Entries[1].(*syntax.ApplyTag)
	assert.Equal(t, "trip-2024", apply.Tag)

	_, ok := tree.Entries[2].(*syntax.EndApplyTag)
	assert.True(t, ok)
}

func TestParseRecoversFromBadDirective(t *testing.T) {
	src := `not-a-date garbage line

2024/05/05 Valid transaction
    Assets:Bank:Checking        -1.00 USD
    Expenses:Misc
`
	tree, errs := parser.Parse("test.ledger", []byte(src))
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, 1, len(tree.Entries))
}

func TestParseIgnoresCommentsAndBlankLines(t *testing.T) {
	src := `; full line comment
2024/05/06 Trip  ; trailing comment
    Assets:Bank:Checking        -1.00 USD  ; another comment
    Expenses:Misc

`
	tree, errs := parser.Parse("test.ledger", []byte(src))
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, 1, len(tree.Entries))
	txn := tree.Entries[0].(*syntax.Transaction)
	assert.Equal(t, "Trip", txn.Payee)
}
