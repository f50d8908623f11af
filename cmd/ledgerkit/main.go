// Command ledgerkit is a plain-text double-entry bookkeeping toolchain:
// importing bank/card exports, formatting ledger files, and reporting
// balances, registers, and accounts.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/okane-project/ledgerkit/internal/cli"
	"github.com/okane-project/ledgerkit/internal/errs"
	"github.com/okane-project/ledgerkit/internal/output"
)

var (
	// Version is set via ldflags at build time.
	Version = ""

	// CommitSHA is set via ldflags at build time.
	CommitSHA = ""

	cliStruct struct {
		Version kong.VersionFlag `help:"Show version information"`
		cli.Commands
	}
)

func main() {
	ctx := kong.Parse(&cliStruct,
		kong.Vars{
			"version": buildVersion(),
		},
		kong.Name("ledgerkit"),
		kong.Description("A plain-text double-entry bookkeeping toolchain."),
		kong.UsageOnError(),
		kong.Bind(&cliStruct.Globals),
	)

	err := ctx.Run()
	if err == nil {
		return
	}

	formatter := errs.NewTextFormatter(styles(ctx))
	fmt.Fprintln(os.Stderr, formatter.Format(err))

	if errs.Classify(err).Kind == errs.InvalidConfig {
		os.Exit(2)
	}
	os.Exit(1)
}

func styles(ctx *kong.Context) *output.Styles {
	if ctx == nil {
		return output.NewStyles(os.Stderr)
	}
	return output.NewStyles(ctx.Stderr)
}

func buildVersion() string {
	if Version == "" {
		Version = "dev"
	}
	if CommitSHA == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, CommitSHA)
}
