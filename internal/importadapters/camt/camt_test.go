package camt_test

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/okane-project/ledgerkit/internal/importadapters/camt"
	"github.com/okane-project/ledgerkit/internal/importrules"
)

func entry(t *testing.T, yamlSrc string) *importrules.Entry {
	t.Helper()
	set, err := importrules.LoadYAML([]byte(yamlSrc))
	assert.NoError(t, err)
	e, err := set.Select("statement.xml")
	assert.NoError(t, err)
	assert.True(t, e != nil)
	return e
}

const minimalDocument = `<?xml version="1.0" encoding="UTF-8"?>
<Document>
  <BkToCstmrStmt>
    <Stmt>
      <Ntry>
        <Amt Ccy="EUR">42.50</Amt>
        <CdtDbtInd>DBIT</CdtDbtInd>
        <BookgDt><Dt>2024-01-15</Dt></BookgDt>
        <NtryDtls>
          <TxDtls>
            <Refs><AcctSvcrRef>REF123</AcctSvcrRef></Refs>
            <Amt Ccy="EUR">42.50</Amt>
            <CdtDbtInd>DBIT</CdtDbtInd>
            <RltdPties>
              <Cdtr><Nm>ACME SUPERMARKET</Nm></Cdtr>
            </RltdPties>
          </TxDtls>
        </NtryDtls>
      </Ntry>
    </Stmt>
  </BkToCstmrStmt>
</Document>`

func TestImportDebitEntryUsesCreditorAsPayee(t *testing.T) {
	e := entry(t, `
path: ""
encoding: utf-8
account: Assets:Bank:Checking
account_type: asset
commodity: EUR
`)
	txns, err := camt.Import(strings.NewReader(minimalDocument), e)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(txns))
	assert.Equal(t, "ACME SUPERMARKET", txns[0].Payee)
	assert.Equal(t, "Assets:Bank:Checking", txns[0].Postings[0].Account)
	assert.Equal(t, "-42.50", txns[0].Postings[0].Amount.Expr)
	assert.Equal(t, "EUR", txns[0].Postings[0].Amount.Commodity)
	assert.Equal(t, importrules.UnknownExpenses, txns[0].Postings[1].Account)
}

func TestImportLiabilityAccountNegatesSign(t *testing.T) {
	e := entry(t, `
path: ""
encoding: utf-8
account: Liabilities:CreditCard
account_type: liability
commodity: EUR
`)
	txns, err := camt.Import(strings.NewReader(minimalDocument), e)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(txns))
	assert.Equal(t, "42.50", txns[0].Postings[0].Amount.Expr)
}

func TestImportRewriteRuleMatchesOnCreditorName(t *testing.T) {
	e := entry(t, `
path: ""
encoding: utf-8
account: Assets:Bank:Checking
account_type: asset
commodity: EUR
rewrite:
  - matcher:
      creditor_name: "ACME SUPERMARKET"
    account: Expenses:Groceries
`)
	txns, err := camt.Import(strings.NewReader(minimalDocument), e)
	assert.NoError(t, err)
	assert.Equal(t, "Expenses:Groceries", txns[0].Postings[1].Account)
}

const entryWithoutDetails = `<?xml version="1.0" encoding="UTF-8"?>
<Document>
  <BkToCstmrStmt>
    <Stmt>
      <Ntry>
        <Amt Ccy="USD">10.00</Amt>
        <CdtDbtInd>CRDT</CdtDbtInd>
        <BookgDt><Dt>2024-02-01</Dt></BookgDt>
        <AddtlNtryInf>Interest payment</AddtlNtryInf>
      </Ntry>
    </Stmt>
  </BkToCstmrStmt>
</Document>`

func TestImportEntryWithoutTransactionDetailsFallsBackToAdditionalInfo(t *testing.T) {
	e := entry(t, `
path: ""
encoding: utf-8
account: Assets:Bank:Savings
account_type: asset
commodity: USD
`)
	txns, err := camt.Import(strings.NewReader(entryWithoutDetails), e)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(txns))
	assert.Equal(t, "Interest payment", txns[0].Payee)
	assert.Equal(t, "10.00", txns[0].Postings[0].Amount.Expr)
}
