package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/okane-project/ledgerkit/internal/loader"
	"github.com/okane-project/ledgerkit/internal/render"
	"github.com/okane-project/ledgerkit/internal/valueexpr"
)

// PrimitiveCmd groups the three diagnostic subcommands that exercise one
// pipeline stage in isolation, rather than the full report surface: parsing
// alone (format), parsing plus includes plus book-keeping (flatten), and the
// value-expression evaluator alone (eval).
type PrimitiveCmd struct {
	Format  PrimitiveFormatCmd  `cmd:"" help:"Parse and re-render one file, without following includes."`
	Flatten PrimitiveFlattenCmd `cmd:"" help:"Follow includes, book-keep, and print the flattened posting stream."`
	Eval    PrimitiveEvalCmd    `cmd:"" help:"Evaluate a bare value expression."`
}

type PrimitiveFormatCmd struct {
	Source string `arg:"" help:"Ledger file to parse." type:"existingfile"`
}

func (cmd *PrimitiveFormatCmd) Run(ctx *kong.Context) error {
	tree, err := loader.New().Load(context.Background(), cmd.Source)
	if err != nil {
		return err
	}
	return render.Format(tree, ctx.Stdout)
}

type PrimitiveFlattenCmd struct {
	Source string `arg:"" help:"Ledger file to flatten." type:"existingfile"`
}

func (cmd *PrimitiveFlattenCmd) Run(ctx *kong.Context) error {
	_, b, err := processSource(context.Background(), cmd.Source, true)
	if err != nil {
		return err
	}
	for _, txn := range b.Transactions {
		for _, p := range txn.Postings {
			for _, commodity := range p.Converted.Commodities() {
				fmt.Fprintf(ctx.Stdout, "%s %s %s %s %s\n",
					txn.Source.Date.String(), txn.Source.Payee,
					p.Account, p.Converted[commodity].String(), commodity)
			}
		}
	}
	return nil
}

type PrimitiveEvalCmd struct {
	Expression []string `arg:"" help:"Value expression, as separate argv terms."`
}

func (cmd *PrimitiveEvalCmd) Run(ctx *kong.Context) error {
	v, err := valueexpr.Evaluate(strings.Join(cmd.Expression, " "))
	if err != nil {
		return err
	}
	if v.IsNumber() {
		fmt.Fprintln(ctx.Stdout, v.Number().String())
		return nil
	}
	legs := v.Legs()
	commodities := make([]string, 0, len(legs))
	for commodity := range legs {
		commodities = append(commodities, commodity)
	}
	sort.Strings(commodities)
	parts := make([]string, len(commodities))
	for i, commodity := range commodities {
		parts[i] = fmt.Sprintf("%s %s", legs[commodity].String(), commodity)
	}
	fmt.Fprintln(ctx.Stdout, strings.Join(parts, ", "))
	return nil
}
