package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/okane-project/ledgerkit/internal/report"
)

// AccountsCmd lists every account touched anywhere in source, in first-use
// order.
type AccountsCmd struct {
	Source string `arg:"" help:"Ledger file to read." type:"existingfile"`
}

func (cmd *AccountsCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, collector := globals.context()
	defer globals.report(ctx.Stderr, collector)

	_, b, err := processSource(runCtx, cmd.Source, true)
	if err != nil {
		return err
	}
	for _, account := range report.Accounts(b) {
		fmt.Fprintln(ctx.Stdout, account)
	}
	return nil
}
