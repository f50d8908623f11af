// Package render writes a parsed syntax.Tree back out in the ledger
// format's canonical rendered form: fixed-column alignment (unlike the
// source, which may be written with any spacing the grammar allows).
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/okane-project/ledgerkit/internal/syntax"
)

const (
	// postingIndent is the number of spaces before an account name or
	// metadata line.
	postingIndent = 4
	// amountColumn is the display column the posting's value decimal is
	// aligned to.
	amountColumn = 48
	// balanceColumn is the display column a posting's `= value` balance
	// assertion is aligned to.
	balanceColumn = 50
	// minimumSpacing is the smallest gap kept between an account name (or
	// amount) and the text that follows it, even when the target column
	// has already been passed.
	minimumSpacing = 2
)

// Format writes every entry in tree in canonical rendered form, separated
// by a blank line.
func Format(tree *syntax.Tree, w io.Writer) error {
	for i, entry := range tree.Entries {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := formatEntry(w, entry); err != nil {
			return err
		}
	}
	return nil
}

func formatEntry(w io.Writer, entry syntax.Entry) error {
	switch e := entry.(type) {
	case *syntax.Transaction:
		return formatTransaction(w, e)
	case *syntax.AccountDecl:
		return formatAccountDecl(w, e)
	case *syntax.CommodityDecl:
		return formatCommodityDecl(w, e)
	case *syntax.Include:
		_, err := fmt.Fprintf(w, "include %q\n", e.Filename)
		return err
	case *syntax.ApplyTag:
		_, err := fmt.Fprintf(w, "apply tag %s\n", e.Tag)
		return err
	case *syntax.EndApplyTag:
		_, err := fmt.Fprintln(w, "end apply tag")
		return err
	default:
		return fmt.Errorf("render: unknown entry type %T", entry)
	}
}

func formatTransaction(w io.Writer, txn *syntax.Transaction) error {
	var head strings.Builder
	head.WriteString(txn.Date.String())
	if txn.EffectiveDate != nil {
		head.WriteString("=" + txn.EffectiveDate.String())
	}
	if txn.Clear != syntax.Pending {
		fmt.Fprintf(&head, " %c", byte(txn.Clear))
	}
	if txn.Code != "" {
		fmt.Fprintf(&head, " (%s)", txn.Code)
	}
	if txn.Payee != "" {
		head.WriteString(" " + txn.Payee)
	}
	if _, err := fmt.Fprintln(w, head.String()); err != nil {
		return err
	}
	if err := formatMetadata(w, txn.Metadata, postingIndent); err != nil {
		return err
	}
	for _, p := range txn.Postings {
		if err := formatPosting(w, p); err != nil {
			return err
		}
	}
	return nil
}

func formatPosting(w io.Writer, p *syntax.Posting) error {
	var line strings.Builder
	line.WriteString(strings.Repeat(" ", postingIndent))
	if p.Clear != syntax.Pending {
		fmt.Fprintf(&line, "%c ", byte(p.Clear))
	}
	line.WriteString(p.Account)

	if p.Amount != nil {
		padTo(&line, amountColumn, minimumSpacing)
		line.WriteString(p.Amount.Expr)
		if p.Amount.Commodity != "" {
			line.WriteString(" " + p.Amount.Commodity)
		}
		writeLot(&line, p.Lot)
		writeExchange(&line, p.Price)
	}

	if p.Balance != nil {
		padTo(&line, balanceColumn, minimumSpacing)
		line.WriteString("= " + p.Balance.Expr)
		if p.Balance.Commodity != "" {
			line.WriteString(" " + p.Balance.Commodity)
		}
	}

	if _, err := fmt.Fprintln(w, line.String()); err != nil {
		return err
	}
	return formatMetadata(w, p.Metadata, postingIndent)
}

// padTo appends spaces to line until it would display at column, leaving
// at least minimum spaces regardless.
func padTo(line *strings.Builder, column, minimum int) {
	width := runewidth.StringWidth(line.String())
	pad := column - width
	if pad < minimum {
		pad = minimum
	}
	line.WriteString(strings.Repeat(" ", pad))
}

func writeLot(line *strings.Builder, lot *syntax.Lot) {
	if lot == nil {
		return
	}
	switch {
	case lot.IsEmpty:
		line.WriteString(" {}")
	case lot.IsMerge:
		line.WriteString(" {*}")
	case lot.TotalPrice != nil:
		line.WriteString(" {{" + exchangeText(lot.TotalPrice) + "}}")
	case lot.Price != nil:
		line.WriteString(" {" + exchangeText(lot.Price) + "}")
	}
	if lot.AcqDate != nil {
		line.WriteString(" [" + lot.AcqDate.String() + "]")
	}
	if lot.Note != "" {
		line.WriteString(" (" + lot.Note + ")")
	}
}

func exchangeText(e *syntax.Exchange) string {
	if e.Commodity == "" {
		return e.Expr
	}
	return e.Expr + " " + e.Commodity
}

func writeExchange(line *strings.Builder, e *syntax.Exchange) {
	if e == nil {
		return
	}
	marker := "@"
	if e.IsTotal {
		marker = "@@"
	}
	line.WriteString(" " + marker + " " + exchangeText(e))
}

func formatMetadata(w io.Writer, m syntax.Metadata, indent int) error {
	pad := strings.Repeat(" ", indent)
	if len(m.Tags) > 0 {
		if _, err := fmt.Fprintf(w, "%s; :%s:\n", pad, strings.Join(m.Tags, ":")); err != nil {
			return err
		}
	}
	for _, kv := range m.KeyValues {
		sep := ": "
		if kv.IsExpr {
			sep = ":: "
		}
		if _, err := fmt.Fprintf(w, "%s; %s%s%s\n", pad, kv.Key, sep, kv.Value); err != nil {
			return err
		}
	}
	return nil
}

func formatAccountDecl(w io.Writer, a *syntax.AccountDecl) error {
	if _, err := fmt.Fprintf(w, "account %s\n", a.Name); err != nil {
		return err
	}
	for _, alias := range a.Aliases {
		if _, err := fmt.Fprintf(w, "%salias %s\n", strings.Repeat(" ", postingIndent), alias); err != nil {
			return err
		}
	}
	return nil
}

func formatCommodityDecl(w io.Writer, c *syntax.CommodityDecl) error {
	if _, err := fmt.Fprintf(w, "commodity %s\n", c.Name); err != nil {
		return err
	}
	pad := strings.Repeat(" ", postingIndent)
	for _, alias := range c.Aliases {
		if _, err := fmt.Fprintf(w, "%salias %s\n", pad, alias); err != nil {
			return err
		}
	}
	if c.Format != "" {
		if _, err := fmt.Fprintf(w, "%sformat %s\n", pad, c.Format); err != nil {
			return err
		}
	}
	return nil
}
