// Package symtab interns account and commodity names into small comparable
// IDs and resolves declared aliases to a single canonical ID, the way the
// teacher's parser.Interner pools repeated strings, generalized into the two
// arenas a ledger needs plus alias resolution.
package symtab

import (
	"fmt"

	"github.com/okane-project/ledgerkit/internal/decimal"
)

// ID identifies an interned name. Two IDs are equal iff they name the same
// canonical entity, including when one was reached through an alias.
type ID int32

// Error reports a conflicting alias or canonical declaration.
type Error struct {
	Kind   string // "account" or "commodity"
	Name   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.Name, e.Reason)
}

// Table interns canonical names of one kind and resolves aliases to them.
type Table struct {
	kind      string
	names     []string // ID -> canonical name
	canonical map[string]ID
}

func newTable(kind string) *Table {
	return &Table{kind: kind, canonical: make(map[string]ID)}
}

// InsertCanonical registers name as its own canonical entity, returning its
// existing ID if it was already declared (directives may repeat an account
// or commodity declaration harmlessly).
func (t *Table) InsertCanonical(name string) (ID, error) {
	if id, ok := t.canonical[name]; ok {
		return id, nil
	}
	id := ID(len(t.names))
	t.names = append(t.names, name)
	t.canonical[name] = id
	return id, nil
}

// InsertAlias binds alias to canonical. Binding the same alias to the same
// canonical ID twice is harmless; binding it to a different one is an error.
func (t *Table) InsertAlias(alias string, canonical ID) error {
	if existing, ok := t.canonical[alias]; ok {
		if existing == canonical {
			return nil
		}
		return &Error{t.kind, alias, fmt.Sprintf("already aliases %q", t.names[existing])}
	}
	t.canonical[alias] = canonical
	return nil
}

// Ensure returns the canonical ID for name, implicitly registering it as its
// own canonical entity on first use. Used for names referenced in postings
// or expressions that were never declared up front.
func (t *Table) Ensure(name string) ID {
	if id, ok := t.canonical[name]; ok {
		return id
	}
	id, _ := t.InsertCanonical(name)
	return id
}

// Lookup returns the ID bound to name without registering it.
func (t *Table) Lookup(name string) (ID, bool) {
	id, ok := t.canonical[name]
	return id, ok
}

// Name returns the canonical spelling for id.
func (t *Table) Name(id ID) string { return t.names[id] }

// Len returns the number of distinct canonical entities.
func (t *Table) Len() int { return len(t.names) }

// CommodityTable is a Table that additionally remembers the first pretty-
// decimal Format each commodity was ever written with, so amounts without
// their own source formatting can be rendered using the commodity's
// "format exemplar" the way the rest of the ledger writes it.
type CommodityTable struct {
	*Table
	formats map[ID]decimal.Format
}

func newCommodityTable() *CommodityTable {
	return &CommodityTable{Table: newTable("commodity"), formats: make(map[ID]decimal.Format)}
}

// SetFormat records format for id if no exemplar has been set yet, so the
// first call wins; RegisterCommodity calls it for each commodity directive
// that has a format.
func (t *CommodityTable) SetFormat(id ID, format decimal.Format) {
	if _, ok := t.formats[id]; !ok {
		t.formats[id] = format
	}
}

// Format returns the exemplar format for id, if any was ever recorded.
func (t *CommodityTable) Format(id ID) (decimal.Format, bool) {
	f, ok := t.formats[id]
	return f, ok
}

// Context owns the two arenas a ledger interns names into: accounts and
// commodities. It is created once per load and threaded through parsing,
// book-keeping, and reporting so every component shares the same IDs.
type Context struct {
	Accounts    *Table
	Commodities *CommodityTable
}

// New creates an empty Context.
func New() *Context {
	return &Context{
		Accounts:    newTable("account"),
		Commodities: newCommodityTable(),
	}
}
