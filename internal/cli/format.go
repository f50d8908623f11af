package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"

	"github.com/okane-project/ledgerkit/internal/loader"
	"github.com/okane-project/ledgerkit/internal/render"
)

// FormatCmd re-renders a ledger file into canonical form: fixed-column
// amounts, normalized spacing, one style for lots/costs/prices.
type FormatCmd struct {
	Source string `arg:"" help:"Ledger file to format." type:"existingfile"`
	Watch  bool   `help:"Re-render whenever the source file changes."`
}

func (cmd *FormatCmd) renderOnce(w io.Writer) error {
	tree, err := loader.New().Load(context.Background(), cmd.Source)
	if err != nil {
		return err
	}
	return render.Format(tree, w)
}

func (cmd *FormatCmd) Run(ctx *kong.Context) error {
	if err := cmd.renderOnce(ctx.Stdout); err != nil {
		return err
	}
	if !cmd.Watch {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(cmd.Source); err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := cmd.renderOnce(ctx.Stdout); err != nil {
				fmt.Fprintln(ctx.Stderr, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
