package cli

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/okane-project/ledgerkit/internal/importadapters/camt"
	"github.com/okane-project/ledgerkit/internal/importadapters/cc"
	"github.com/okane-project/ledgerkit/internal/importadapters/csv"
	"github.com/okane-project/ledgerkit/internal/importrules"
	"github.com/okane-project/ledgerkit/internal/render"
	"github.com/okane-project/ledgerkit/internal/syntax"
)

// ImportCmd turns a bank or card export into ledger transactions, printed in
// the same canonical form FormatCmd produces so the output can be appended
// straight into a ledger file.
//
// Entry carries no field saying which wire format it describes — csv, ISO
// camt.053, and credit-card exports all validate into the same merged
// fragment shape — so the format has to come from the command line rather
// than from config.
type ImportCmd struct {
	Config  string `short:"c" help:"Import rule configuration (YAML)." type:"existingfile" required:""`
	Format  string `help:"Source wire format." enum:"csv,camt,cc" default:"csv"`
	Confirm bool   `help:"Ask for confirmation before printing the imported transactions."`
	Source  string `arg:"" help:"File to import." type:"existingfile"`
}

func (cmd *ImportCmd) Run(ctx *kong.Context) error {
	configData, err := os.ReadFile(cmd.Config)
	if err != nil {
		return err
	}
	set, err := importrules.LoadYAML(configData)
	if err != nil {
		return err
	}
	entry, err := set.Select(cmd.Source)
	if err != nil {
		return err
	}
	if entry == nil {
		return &importrules.InvalidConfigError{Reason: fmt.Sprintf("no import config fragment matches %s", cmd.Source)}
	}

	f, err := os.Open(cmd.Source)
	if err != nil {
		return err
	}
	defer f.Close()

	var txns []*syntax.Transaction
	switch cmd.Format {
	case "csv":
		txns, err = csv.Import(f, entry)
	case "camt":
		txns, err = camt.Import(f, entry)
	case "cc":
		txns, err = cc.Import(f, entry)
	default:
		return fmt.Errorf("unknown import format %q", cmd.Format)
	}
	if err != nil {
		return err
	}

	if cmd.Confirm {
		ok, err := promptYesNo(fmt.Sprintf("Import %d transaction(s) from %s?", len(txns), cmd.Source))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(ctx.Stderr, "import cancelled")
			return nil
		}
	}

	entries := make([]syntax.Entry, len(txns))
	for i, t := range txns {
		entries[i] = t
	}
	return render.Format(&syntax.Tree{Entries: entries}, ctx.Stdout)
}
