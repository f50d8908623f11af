package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/okane-project/ledgerkit/internal/report"
)

// BalanceCmd reports each account's summed balance, optionally windowed by
// date and converted into a single commodity.
type BalanceCmd struct {
	EvalOptions
	Source string `arg:"" help:"Ledger file to read." type:"existingfile"`
}

func (cmd *BalanceCmd) Run(ctx *kong.Context, globals *Globals) error {
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
	start, end, err := cmd.dateRange()
	if err != nil {
		return err
	}
	policyFor, err := cmd.policyFor()
	if err != nil {
		return err
	}

	entries, err := report.Balance(b, report.BalanceQuery{
		Start:     start,
		End:       end,
		Exchange:  cmd.Exchange,
		Prices:    repo,
		PolicyFor: policyFor,
	})
	if err != nil {
		return err
	}
	for _, e := range entries {
		for _, commodity := range e.Legs.Commodities() {
			fmt.Fprintf(ctx.Stdout, "%s: %s %s\n", e.Account, e.Legs[commodity].String(), commodity)
		}
	}
	return nil
}
