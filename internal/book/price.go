package book

import (
	"github.com/shopspring/decimal"

	"github.com/okane-project/ledgerkit/internal/syntax"
)

// PriceEvent is one observed exchange rate: 1 unit of From is worth Rate
// units of To, on Date. Both an explicit cost/price annotation and an
// implicit two-commodity balance produce a pair of these — one per
// direction — so a later conversion never needs to invert on the fly.
type PriceEvent struct {
	Date syntax.Date
	From string
	To   string
	Rate decimal.Decimal
}

// pricePair builds the two PriceEvents (From->To and To->From) a single
// observed rate implies.
func pricePair(date syntax.Date, from, to string, rate decimal.Decimal) []PriceEvent {
	if rate.IsZero() {
		return nil
	}
	inverse := decimal.NewFromInt(1).Div(rate)
	return []PriceEvent{
		{Date: date, From: from, To: to, Rate: rate},
		{Date: date, From: to, To: from, Rate: inverse},
	}
}
