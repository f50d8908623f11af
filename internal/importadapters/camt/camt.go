// Package camt adapts ISO 20022 camt.053 (bank-to-customer statement) XML
// exports into importrules SingleEntry records.
package camt

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okane-project/ledgerkit/internal/importrules"
	"github.com/okane-project/ledgerkit/internal/syntax"
)

// Capabilities lists the rewrite-rule fields a camt.053 record exposes.
var Capabilities = importrules.FieldSet{
	"payee":                         true,
	"commodity":                     true,
	"creditor_name":                 true,
	"creditor_account_id":           true,
	"ultimate_creditor_name":        true,
	"debtor_name":                   true,
	"debtor_account_id":             true,
	"ultimate_debtor_name":          true,
	"remittance_unstructured_info":  true,
	"additional_entry_info":         true,
	"additional_transaction_info":   true,
	"domain_code":                   true,
	"domain_family":                 true,
	"domain_sub_family":             true,
}

type document struct {
	Statements []statement `xml:"BkToCstmrStmt>Stmt"`
}

type statement struct {
	Balances []balance `xml:"Bal"`
	Entries  []entry   `xml:"Ntry"`
}

type balance struct {
	Type      balanceType `xml:"Tp"`
	Amount    amountNode  `xml:"Amt"`
	CreditOrDebit string  `xml:"CdtDbtInd"`
}

type balanceType struct {
	Code string `xml:"CdOrPrtry>Cd"`
}

type amountNode struct {
	Currency string `xml:"Ccy,attr"`
	Value    string `xml:",chardata"`
}

type entry struct {
	Amount        amountNode   `xml:"Amt"`
	CreditOrDebit string       `xml:"CdtDbtInd"`
	BookingDate   dateNode     `xml:"BookgDt"`
	ValueDate     dateNode     `xml:"ValDt"`
	BankTxCode    bankTxCode   `xml:"BkTxCd"`
	AddtlInfo     string       `xml:"AddtlNtryInf"`
	Details       entryDetails `xml:"NtryDtls"`
}

func (e entry) date() string {
	if e.ValueDate.Date != "" {
		return e.ValueDate.Date
	}
	return e.BookingDate.Date
}

type dateNode struct {
	Date string `xml:"Dt"`
}

type bankTxCode struct {
	Code       string `xml:"Domn>Cd"`
	FamilyCode string `xml:"Domn>Fmly>Cd"`
	SubFamily  string `xml:"Domn>Fmly>SubFmlyCd"`
}

type entryDetails struct {
	Transactions []transactionDetails `xml:"TxDtls"`
}

type transactionDetails struct {
	Reference     string         `xml:"Refs>AcctSvcrRef"`
	Amount        amountNode     `xml:"Amt"`
	CreditOrDebit string         `xml:"CdtDbtInd"`
	RelatedParties relatedParties `xml:"RltdPties"`
	Remittance    remittanceInfo `xml:"RmtInf"`
	AddtlInfo     string         `xml:"AddtlTxInf"`
}

type remittanceInfo struct {
	Unstructured string `xml:"Ustrd"`
}

type relatedParties struct {
	Debtor          party   `xml:"Dbtr"`
	Creditor        party   `xml:"Cdtr"`
	CreditorAccount account `xml:"CdtrAcct"`
	DebtorAccount   account `xml:"DbtrAcct"`
	UltimateDebtor  party   `xml:"UltmtDbtr"`
	UltimateCreditor party  `xml:"UltmtCdtr"`
}

type party struct {
	Name string `xml:"Nm"`
}

type account struct {
	IBAN string `xml:"Id>IBAN"`
	ID   string `xml:"Id>Othr>Id"`
}

func (a account) id() string {
	if a.IBAN != "" {
		return a.IBAN
	}
	return a.ID
}

// record adapts one camt.053 entry, together with one of its transaction
// details when it has any, to importrules.Record. Import builds one record
// per transaction detail, or one for the entry alone when it has none.
type record struct {
	entry entry
	tx    *transactionDetails
}

func (r record) Field(key string) (string, bool) {
	rp := relatedParties{}
	if r.tx != nil {
		rp = r.tx.RelatedParties
	}
	switch key {
	case "payee":
		return r.payee(rp), true
	case "commodity":
		return r.entry.Amount.Currency, true
	case "creditor_name":
		return rp.Creditor.Name, true
	case "creditor_account_id":
		return rp.CreditorAccount.id(), true
	case "ultimate_creditor_name":
		return rp.UltimateCreditor.Name, true
	case "debtor_name":
		return rp.Debtor.Name, true
	case "debtor_account_id":
		return rp.DebtorAccount.id(), true
	case "ultimate_debtor_name":
		return rp.UltimateDebtor.Name, true
	case "remittance_unstructured_info":
		if r.tx != nil {
			return r.tx.Remittance.Unstructured, true
		}
		return "", true
	case "additional_entry_info":
		return r.entry.AddtlInfo, true
	case "additional_transaction_info":
		if r.tx != nil {
			return r.tx.AddtlInfo, true
		}
		return "", true
	case "domain_code":
		return r.entry.BankTxCode.Code, true
	case "domain_family":
		return r.entry.BankTxCode.FamilyCode, true
	case "domain_sub_family":
		return r.entry.BankTxCode.SubFamily, true
	default:
		return "", false
	}
}

// payee picks the opposite side of the transaction: the creditor on a debit
// (money leaving the account) or the debtor on a credit, falling back to
// the entry's free-text remittance/additional info.
func (r record) payee(rp relatedParties) string {
	indicator := r.entry.CreditOrDebit
	if r.tx != nil {
		indicator = r.tx.CreditOrDebit
	}
	if indicator == "DBIT" && rp.Creditor.Name != "" {
		return rp.Creditor.Name
	}
	if indicator == "CRDT" && rp.Debtor.Name != "" {
		return rp.Debtor.Name
	}
	if r.tx != nil && r.tx.Remittance.Unstructured != "" {
		return r.tx.Remittance.Unstructured
	}
	return r.entry.AddtlInfo
}

func signedAmount(a amountNode, indicator string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(a.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", a.Value, err)
	}
	if indicator == "DBIT" {
		v = v.Neg()
	}
	return v, nil
}

// Import reads r as a camt.053 document, running entry's rewrite rules
// against every booking entry (and, when present, each of its transaction
// details individually).
func Import(r io.Reader, entry *importrules.Entry) ([]*syntax.Transaction, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode camt.053 document: %w", err)
	}
	extractor, err := importrules.NewExtractor(entry.Rewrite, Capabilities)
	if err != nil {
		return nil, err
	}

	var txns []*syntax.Transaction
	for _, stmt := range doc.Statements {
		entries := stmt.Entries
		if entry.Format.RowOrder == "new_to_old" {
			entries = reversed(entries)
		}
		for _, e := range entries {
			if len(e.Details.Transactions) == 0 {
				txn, err := buildTransaction(extractor, entry, record{entry: e}, e, e.Amount, e.CreditOrDebit, "")
				if err != nil {
					return nil, err
				}
				txns = append(txns, txn)
				continue
			}
			for _, tx := range e.Details.Transactions {
				tx := tx
				txn, err := buildTransaction(extractor, entry, record{entry: e, tx: &tx}, e, tx.Amount, tx.CreditOrDebit, tx.Reference)
				if err != nil {
					return nil, err
				}
				txns = append(txns, txn)
			}
		}
	}
	return txns, nil
}

func buildTransaction(extractor *importrules.Extractor, cfgEntry *importrules.Entry, rec record, e entry, amt amountNode, indicator, code string) (*syntax.Transaction, error) {
	date, err := syntax.ParseDate(strings.ReplaceAll(e.date(), "-", "/"))
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", e.date(), err)
	}
	amount, err := signedAmount(amt, indicator)
	if err != nil {
		return nil, err
	}
	if cfgEntry.AccountType == importrules.AccountLiability {
		amount = amount.Neg()
	}
	commodity := amt.Currency
	if renamed, ok := cfgEntry.Commodity.Rename[commodity]; ok {
		commodity = renamed
	}

	frag := extractor.Extract(rec)
	single := importrules.SingleEntry{
		Date:        date,
		Payee:       firstNonEmpty(frag.Payee, rec.payee(rec.relatedParties())),
		Code:        firstNonEmpty(frag.Code, code),
		Cleared:     frag.Cleared,
		Account:     cfgEntry.Account,
		Amount:      amount,
		Commodity:   commodity,
		DestAccount: frag.Account,
	}
	return single.ToTransaction(), nil
}

func (r record) relatedParties() relatedParties {
	if r.tx != nil {
		return r.tx.RelatedParties
	}
	return relatedParties{}
}

func reversed(entries []entry) []entry {
	out := make([]entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
