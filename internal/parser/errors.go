package parser

import (
	"fmt"

	"github.com/okane-project/ledgerkit/internal/syntax"
)

// Error is a single malformed construct the parser could not make sense of.
// Parse keeps going after recording one, skipping to the next blank line or
// unindented line, so a typo early in a file doesn't hide every error after
// it.
type Error struct {
	Position syntax.Position
	Msg      string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Position, e.Msg) }

// ErrorList collects every recoverable error Parse hit.
type ErrorList []*Error

func (errs ErrorList) Error() string {
	switch len(errs) {
	case 0:
		return "no errors"
	case 1:
		return errs[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more error(s))", errs[0], len(errs)-1)
	}
}
