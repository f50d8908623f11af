package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/okane-project/ledgerkit/internal/report"
)

// RegisterCmd lists every posting in chronological order, each annotated
// with its account's running balance, optionally restricted to accounts
// whose name contains Account and converted into a single commodity.
type RegisterCmd struct {
	EvalOptions
	Source  string `arg:"" help:"Ledger file to read." type:"existingfile"`
	Account string `arg:"" optional:"" help:"Restrict to accounts containing this substring."`
}

func (cmd *RegisterCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	runCtx, collector := globals.context()
	defer globals.report(ctx.Stderr, collector)

	_, b, err := processSource(runCtx, cmd.Source, true)
	if err != nil {
		return err
	}
	repo, err := cmd.priceRepo(b)
	if err != nil {
		return err
	}
	policyFor, err := cmd.policyFor()
	if err != nil {
		return err
	}

	entries, err := report.Register(b, report.RegisterQuery{
		AccountSubstring: cmd.Account,
		Exchange:         cmd.Exchange,
		Prices:           repo,
		PolicyFor:        policyFor,
	})
	if err != nil {
		return err
	}
	for _, e := range entries {
		for _, commodity := range e.Amount.Commodities() {
			fmt.Fprintf(ctx.Stdout, "%s %s %s %s %s %s\n",
				e.Date.String(), e.Account,
				e.Amount[commodity].String(), commodity,
				e.Running[commodity].String(), commodity)
		}
	}
	return nil
}
