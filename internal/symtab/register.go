package symtab

import (
	"github.com/okane-project/ledgerkit/internal/decimal"
	"github.com/okane-project/ledgerkit/internal/syntax"
)

// RegisterAccount interns decl's canonical name and every alias it
// declares, satisfying book.SymbolRegistrar structurally (book never
// imports symtab, to keep the interner usable from the parser and reports
// without pulling in book-keeping).
func (c *Context) RegisterAccount(decl *syntax.AccountDecl) {
	id, _ := c.Accounts.InsertCanonical(decl.Name)
	for _, alias := range decl.Aliases {
		_ = c.Accounts.InsertAlias(alias, id)
	}
}

// RegisterCommodity interns decl's canonical name, its aliases, and its
// display-format exemplar if one was given.
func (c *Context) RegisterCommodity(decl *syntax.CommodityDecl) {
	id, _ := c.Commodities.InsertCanonical(decl.Name)
	for _, alias := range decl.Aliases {
		_ = c.Commodities.InsertAlias(alias, id)
	}
	if decl.Format != "" {
		if parsed, err := decimal.Parse(decl.Format); err == nil {
			c.Commodities.SetFormat(id, parsed.Format())
		}
	}
}
