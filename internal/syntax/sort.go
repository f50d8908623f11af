package syntax

import "golang.org/x/exp/slices"

// SortEntries orders entries by date, then by a type priority that ensures
// account/commodity declarations are seen before any transaction on the same
// date, then by source line to keep same-date same-type entries in file
// order — the same three-level comparison the teacher's
// ast.compareDirectives uses for directives.
func SortEntries(entries []Entry) {
	slices.SortStableFunc(entries, compareEntries)
}

func compareEntries(a, b Entry) int {
	ad, aHasDate := dateOf(a)
	bd, bHasDate := dateOf(b)
	switch {
	case aHasDate && bHasDate:
		if ad.Before(bd.Time) {
			return -1
		}
		if ad.After(bd.Time) {
			return 1
		}
	case aHasDate && !bHasDate:
		return 1
	case !aHasDate && bHasDate:
		return -1
	}

	ap, bp := entryPriority(a), entryPriority(b)
	if ap != bp {
		return ap - bp
	}

	al, bl := a.Pos().Line, b.Pos().Line
	return al - bl
}

func dateOf(e Entry) (Date, bool) {
	if txn, ok := e.(*Transaction); ok {
		return txn.Date, true
	}
	return Date{}, false
}

func entryPriority(e Entry) int {
	switch e.(type) {
	case *AccountDecl:
		return 0
	case *CommodityDecl:
		return 1
	default:
		return 2
	}
}
