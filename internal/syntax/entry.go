package syntax

// Entry is implemented by every top-level ledger construct: transactions,
// account/commodity declarations, and includes. Comments and blank lines are
// dropped by the parser rather than kept as entries, since nothing downstream
// needs to round-trip them.
type Entry interface {
	Pos() Position
	entryNode()
}

// Tree is a fully parsed (and, once loader.Load follows includes, fully
// merged) ledger file.
type Tree struct {
	Entries  []Entry
	Includes []*Include // only populated when includes were not followed
}

// Comment is metadata attached to nearby directives, never an Entry itself.
type Comment struct {
	Position Position
	Text     string
}

// Include is `include "path/to/file.ledger"`.
type Include struct {
	Position Position
	Filename string
}

func (i *Include) Pos() Position { return i.Position }
func (*Include) entryNode()      {}

// ApplyTag is `apply tag name` / `end apply tag`. The parser keeps both as
// standalone entries in the tree; the tag is not added to the transactions
// between them.
type ApplyTag struct {
	Position Position
	Tag      string
}

func (a *ApplyTag) Pos() Position { return a.Position }
func (*ApplyTag) entryNode()      {}

// EndApplyTag is `end apply tag`.
type EndApplyTag struct {
	Position Position
}

func (e *EndApplyTag) Pos() Position { return e.Position }
func (*EndApplyTag) entryNode()      {}

// AccountDecl declares an account's canonical name and, optionally, aliases.
//
//	account Assets:Bank:Checking
//	account Assets:Bank:Checking alias checking
type AccountDecl struct {
	Position Position
	Name     string
	Aliases  []string
}

func (a *AccountDecl) Pos() Position { return a.Position }
func (*AccountDecl) entryNode()      {}

// CommodityDecl declares a commodity's canonical name, aliases, and an
// optional display-format exemplar amount (e.g. "format 1,000.00").
//
//	commodity USD
//	commodity USD alias dollars
//	commodity USD
//	    format 1,000.00
type CommodityDecl struct {
	Position Position
	Name     string
	Aliases  []string
	Format   string // raw exemplar literal, empty if none given
}

func (c *CommodityDecl) Pos() Position { return c.Position }
func (*CommodityDecl) entryNode()      {}
