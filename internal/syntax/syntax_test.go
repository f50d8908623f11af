package syntax_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/okane-project/ledgerkit/internal/syntax"
)

func TestParseDateSlashAndDash(t *testing.T) {
	d1, err := syntax.ParseDate("2024/1/5")
	assert.NoError(t, err)
	d2, err := syntax.ParseDate("2024-01-05")
	assert.NoError(t, err)
	assert.Equal(t, d1.String(), d2.String())
	assert.Equal(t, "2024/01/05", d1.String())
}

func TestParseDateRejectsBadMonth(t *testing.T) {
	_, err := syntax.ParseDate("2024/13/1")
	assert.Error(t, err)
}

func TestSortEntriesOrdersAccountDeclsBeforeSameDateTransactions(t *testing.T) {
	d, _ := syntax.ParseDate("2024/1/1")
	txn := &syntax.Transaction{Position: syntax.Position{Line: 1}, Date: d}
	decl := &syntax.AccountDecl{Position: syntax.Position{Line: 5}, Name: "Assets:Bank"}

	entries := []syntax.Entry{txn, decl}
	syntax.SortEntries(entries)

	assert.Equal(t, decl, entries[0])
	assert.Equal(t, txn, entries[1])
}

func TestSortEntriesByDateThenLine(t *testing.T) {
	d1, _ := syntax.ParseDate("2024/1/1")
	d2, _ := syntax.ParseDate("2024/1/2")
	later := &syntax.Transaction{Position: syntax.Position{Line: 1}, Date: d2}
	earlier := &syntax.Transaction{Position: syntax.Position{Line: 10}, Date: d1}

	entries := []syntax.Entry{later, earlier}
	syntax.SortEntries(entries)

	assert.Equal(t, earlier, entries[0])
	assert.Equal(t, later, entries[1])
}
