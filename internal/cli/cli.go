// Package cli wires the subcommands the ledgerkit binary exposes: import,
// format, accounts, balance, register, and the primitive diagnostics group.
// It follows the teacher's cli/commands split — one kong-tagged struct per
// command, a shared options group embedded where several commands need the
// same flags — generalized from the teacher's single Check/Format pair to
// the six commands this project's command surface calls for.
package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/okane-project/ledgerkit/internal/book"
	"github.com/okane-project/ledgerkit/internal/loader"
	"github.com/okane-project/ledgerkit/internal/prices"
	"github.com/okane-project/ledgerkit/internal/symtab"
	"github.com/okane-project/ledgerkit/internal/syntax"
	"github.com/okane-project/ledgerkit/internal/telemetry"
)

// Globals defines the flags every subcommand shares via kong.Bind, the way
// the teacher's Globals carries a --telemetry-style debug flag to every
// command without threading it through each command's own flag set.
type Globals struct {
	Telemetry bool `help:"Print a timing breakdown of load/book-keep/report to stderr."`
}

// context builds the context.Context a command runs under, attaching a
// telemetry.TimingCollector when --telemetry is set. The returned collector
// is nil otherwise; report is a no-op in that case.
func (g *Globals) context() (context.Context, *telemetry.TimingCollector) {
	if !g.Telemetry {
		return context.Background(), nil
	}
	collector := telemetry.NewTimingCollector()
	return telemetry.WithCollector(context.Background(), collector), collector
}

func (g *Globals) report(w io.Writer, collector *telemetry.TimingCollector) {
	if collector != nil {
		collector.Report(w)
	}
}

// Commands is the full subcommand tree kong parses argv into.
type Commands struct {
	Globals

	Import    ImportCmd    `cmd:"" help:"Import a bank/card export into ledger transactions."`
	Format    FormatCmd    `cmd:"" help:"Re-render a ledger file in canonical form."`
	Accounts  AccountsCmd  `cmd:"" help:"List every account touched by a ledger file."`
	Balance   BalanceCmd   `cmd:"" help:"Report each account's balance."`
	Register  RegisterCmd  `cmd:"" help:"Report a chronological posting-by-posting register."`
	Primitive PrimitiveCmd `cmd:"" help:"Low-level diagnostics: format/flatten/eval."`
}

// EvalOptions is the flag set every balance-affecting command shares:
// --price-db, --exchange, --historical, --today, --start, --end, --current.
// Grounded on the original Rust CLI's EvalOptions (cmd.rs), which the same
// four commands (balance, register, eval, and by extension import's
// preview) all embed.
type EvalOptions struct {
	PriceDB    string `name:"price-db" help:"Path to an external price-database file." type:"existingfile"`
	Exchange   string `short:"X" help:"Convert every amount into this commodity."`
	Historical bool   `help:"Evaluate the exchange rate at each transaction's own date, instead of one fixed cutoff."`
	Today      string `help:"Today's date (YYYY-MM-DD). Defaults to the current date; used by --current and as the default conversion cutoff." placeholder:"YYYY-MM-DD"`
	Start      string `help:"Beginning of the date range (inclusive)." placeholder:"YYYY-MM-DD"`
	End        string `help:"End of the date range (exclusive)." placeholder:"YYYY-MM-DD"`
	Current    bool   `help:"Set the end of the date range to the day after --today."`
}

// Validate rejects --current together with --end, the one flag combination
// the original CLI considers an error rather than letting one silently win.
func (o *EvalOptions) Validate() error {
	if o.Current && o.End != "" {
		return &InvalidFlagError{Reason: "--current and --end cannot be set simultaneously"}
	}
	return nil
}

func (o *EvalOptions) today() (syntax.Date, error) {
	if o.Today == "" {
		return syntax.Date{Time: time.Now()}, nil
	}
	return syntax.ParseDate(o.Today)
}

// dateRange resolves --start/--end/--current into the [start, end) window
// report.BalanceQuery/RegisterQuery expect.
func (o *EvalOptions) dateRange() (start, end *syntax.Date, err error) {
	today, err := o.today()
	if err != nil {
		return nil, nil, err
	}
	if o.Start != "" {
		d, err := syntax.ParseDate(o.Start)
		if err != nil {
			return nil, nil, err
		}
		start = &d
	}
	switch {
	case o.Current:
		tomorrow := syntax.Date{Time: today.AddDate(0, 0, 1)}
		end = &tomorrow
	case o.End != "":
		d, err := syntax.ParseDate(o.End)
		if err != nil {
			return nil, nil, err
		}
		end = &d
	}
	return start, end, nil
}

// policyFor returns the per-transaction conversion policy report.Balance/
// Register apply: re-evaluated at each transaction's own date under
// --historical, otherwise one fixed --today cutoff for every posting.
func (o *EvalOptions) policyFor() (func(syntax.Date) prices.Policy, error) {
	today, err := o.today()
	if err != nil {
		return nil, err
	}
	if o.Historical {
		return func(d syntax.Date) prices.Policy { return prices.Historical(d) }, nil
	}
	return func(syntax.Date) prices.Policy { return prices.UpToDate(today) }, nil
}

// priceRepo builds a prices.Repository from the book's own recorded price
// events plus, when --price-db is set, an external price-database file.
func (o *EvalOptions) priceRepo(b *book.Book) (*prices.Repository, error) {
	builder := prices.NewBuilder()
	builder.AddEvents(b.Prices...)
	if o.PriceDB != "" {
		data, err := os.ReadFile(o.PriceDB)
		if err != nil {
			return nil, err
		}
		if err := builder.ParseFile(data); err != nil {
			return nil, err
		}
	}
	return builder.Freeze(), nil
}

// InvalidFlagError reports a flag combination kong's own grammar can't
// reject (e.g. two flags that are individually valid but mutually
// exclusive).
type InvalidFlagError struct{ Reason string }

func (e *InvalidFlagError) Error() string { return "invalid flag: " + e.Reason }

// processSource loads source (following includes when followIncludes is
// set) and book-keeps it, the shared first two steps of every command that
// reports on ledger content rather than just reformatting it.
func processSource(ctx context.Context, source string, followIncludes bool) (*syntax.Tree, *book.Book, error) {
	var opts []loader.Option
	if followIncludes {
		opts = append(opts, loader.WithFollowIncludes())
	}
	tree, err := loader.New(opts...).Load(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	symbols := symtab.New()
	b, err := book.Process(tree, symbols)
	if err != nil {
		return nil, nil, err
	}
	return tree, b, nil
}
