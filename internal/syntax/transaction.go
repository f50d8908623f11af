package syntax

// ClearState marks how confidently a transaction or posting has cleared.
type ClearState byte

const (
	// Pending is the default when no clear marker is written.
	Pending ClearState = 0
	// Cleared is '*': reconciled against a statement.
	Cleared ClearState = '*'
	// Unreconciled is '!': recorded but not yet reconciled.
	Unreconciled ClearState = '!'
)

// Metadata is the set of word-tags and key-value pairs attached to a
// transaction or posting, e.g. `:commute:errand:` (word tags) and
// `total:: 12.00 USD` / `note: ran late` (key-value; `::` marks a value
// expression to be evaluated, `:` marks a literal string).
type Metadata struct {
	Tags      []string
	KeyValues []KeyValue
}

// KeyValue is one `key: value` or `key:: expr` metadata line.
type KeyValue struct {
	Key        string
	Value      string
	IsExpr     bool // true for `::`, meaning Value is a value-expression literal
	Position   Position
}

// HasMetadata reports whether m carries any tags or key-values.
func (m *Metadata) HasMetadata() bool {
	return m != nil && (len(m.Tags) > 0 || len(m.KeyValues) > 0)
}

// Transaction is the central ledger entry: a date, optional clear state,
// a payee, and one posting per account touched.
type Transaction struct {
	Position      Position
	Date          Date
	EffectiveDate *Date // from `=YYYY/MM/DD` after the primary date
	Clear         ClearState
	Code          string // from `(code)` between the clear state and the payee
	Payee         string
	Metadata      Metadata
	Postings      []*Posting
}

func (t *Transaction) Pos() Position { return t.Position }
func (*Transaction) entryNode()      {}

// Exchange is a posting's price annotation: `@ rate` (per-unit) or
// `@@ total` (lot total), each an unevaluated value-expression string plus
// an explicit commodity when one follows the expression in source.
type Exchange struct {
	IsTotal    bool
	Expr       string // raw value-expression text, e.g. "1.08" or "(10 * 1.08)"
	Commodity  string // may be empty if the expression itself yields a tagged value
	Position   Position
}

// Lot is the cost-basis annotation written in braces/brackets/parens after a
// posting amount:
//
//	10 HOOL {518.73 USD}              per-unit cost
//	10 HOOL {{5187.30 USD}}           total cost, converted to per-unit
//	10 HOOL {}                        empty: any lot, inferred later
//	10 HOOL {*}                       merge: average all lots
//	10 HOOL {518.73 USD, 2024/05/01}  cost with acquisition date
//	10 HOOL {518.73 USD} (first-lot)  cost with a note
type Lot struct {
	IsEmpty    bool
	IsMerge    bool
	Price      *Exchange // per-unit cost, from `{...}`
	TotalPrice *Exchange // total cost, from `{{...}}` (normalized to per-unit by book-keeping)
	AcqDate    *Date
	Note       string
	Position   Position
}

// PostingAmount is a posting's own amount: a value expression that may
// evaluate to a bare number (commodity inferred or absent) or a tagged
// Number/Commodities value, per the value-expression evaluator.
type PostingAmount struct {
	Expr      string // raw value-expression text
	Commodity string // explicit commodity following Expr, if any
	Position  Position
}

// Posting is one leg of a Transaction.
//
//	Assets:Bank:Checking       -125.00 USD
//	Expenses:Groceries          125.00 USD  = 312.40 USD
//	Assets:Brokerage:HOOL        10 HOOL {518.73 USD} @@ 5190.00 USD
//
// Amount is nil when the posting has no amount and must be deduced as the
// residual that balances the transaction (at most one posting per
// transaction may omit its amount).
type Posting struct {
	Position Position
	Clear    ClearState
	Account  string
	Amount   *PostingAmount
	Lot      *Lot
	Price    *Exchange // `@`/`@@` price annotation, distinct from Lot cost
	Balance  *PostingAmount // `= expr` balance assertion on this posting
	Metadata Metadata
}
