// Package prices implements the price repository: a builder that accumulates
// PriceEvents from book-keeping and an optional external price-database
// file, and a frozen Repository that answers currency-conversion queries by
// shortest-path search over the accumulated events.
package prices

import (
	"bufio"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okane-project/ledgerkit/internal/book"
	"github.com/okane-project/ledgerkit/internal/syntax"
	"github.com/okane-project/ledgerkit/internal/valueexpr"
)

// farFuture stands in for "no bottleneck yet" when walking a path: any real
// event date is before it, so the first edge on a path always tightens it.
var farFuture = syntax.Date{Time: time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)}

// Amount is a commodity-tagged value, the unit prices.Repository converts.
type Amount struct {
	Value     decimal.Decimal
	Commodity string
}

// Policy selects which of possibly several PriceEvents for a commodity pair
// a conversion uses.
type Policy struct {
	cutoff syntax.Date
}

// Historical chooses the latest event on or before date.
func Historical(date syntax.Date) Policy { return Policy{cutoff: date} }

// UpToDate chooses the latest event up to today, then applies that rate
// uniformly regardless of the converted amount's own date.
func UpToDate(today syntax.Date) Policy { return Policy{cutoff: today} }

// Builder accumulates PriceEvents before the Repository is frozen.
type Builder struct {
	events []book.PriceEvent
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// AddEvents appends PriceEvents recorded by book-keeping.
func (b *Builder) AddEvents(events ...book.PriceEvent) {
	b.events = append(b.events, events...)
}

// ParseFile reads an external price-database file, a sequence of
// `P <date> <target-commodity> <value-expr>` lines (blank lines and `#`
// comments are skipped), and accumulates the bidirectional event pair each
// line implies.
func (b *Builder) ParseFile(source []byte) error {
	scanner := bufio.NewScanner(strings.NewReader(string(source)))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[0] != "P" {
			return fmt.Errorf("price file line %d: want \"P <date> <commodity> <value-expr>\", got %q", lineNo, line)
		}
		date, err := syntax.ParseDate(fields[1])
		if err != nil {
			return fmt.Errorf("price file line %d: %w", lineNo, err)
		}
		from := fields[2]
		v, err := valueexpr.Evaluate(strings.Join(fields[3:], " "))
		if err != nil {
			return fmt.Errorf("price file line %d: %w", lineNo, err)
		}
		to, rate, ok := v.Single()
		if !ok {
			return fmt.Errorf("price file line %d: value must tag exactly one commodity", lineNo)
		}
		if rate.IsZero() {
			return fmt.Errorf("price file line %d: rate must be non-zero", lineNo)
		}
		inverse := decimal.NewFromInt(1).Div(rate)
		b.events = append(b.events,
			book.PriceEvent{Date: date, From: from, To: to, Rate: rate},
			book.PriceEvent{Date: date, From: to, To: from, Rate: inverse},
		)
	}
	return scanner.Err()
}

type pairKey struct{ From, To string }

// Repository answers conversion queries against a frozen set of events.
type Repository struct {
	byPair map[pairKey][]book.PriceEvent
}

// Freeze builds a Repository from every event accumulated so far.
func (b *Builder) Freeze() *Repository {
	r := &Repository{byPair: make(map[pairKey][]book.PriceEvent)}
	for _, e := range b.events {
		key := pairKey{e.From, e.To}
		r.byPair[key] = append(r.byPair[key], e)
	}
	for key, events := range r.byPair {
		sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date.Time) })
		r.byPair[key] = events
	}
	return r
}

type edge struct {
	to   string
	rate decimal.Decimal
	date syntax.Date
}

// edgesAsOf reduces the repository to a plain adjacency list containing, for
// every commodity pair with at least one event on or before cutoff, only the
// most recent such event (forward-fill).
func (r *Repository) edgesAsOf(cutoff syntax.Date) map[string][]edge {
	latest := make(map[pairKey]book.PriceEvent)
	for key, events := range r.byPair {
		for i := len(events) - 1; i >= 0; i-- {
			if !events[i].Date.After(cutoff.Time) {
				latest[key] = events[i]
				break
			}
		}
	}
	adj := make(map[string][]edge)
	for key, e := range latest {
		adj[key.From] = append(adj[key.From], edge{to: key.To, rate: e.Rate, date: e.Date})
	}
	return adj
}

// findRate searches adj for the shortest path from -> to, multiplying edge
// rates along the way. Ties in hop count are broken in favor of the path
// whose least-recent edge (its "bottleneck") is most recent.
func findRate(adj map[string][]edge, from, to string) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}

	type state struct {
		rate       decimal.Decimal
		bottleneck syntax.Date
	}
	settled := map[string]state{from: {decimal.NewFromInt(1), farFuture}}
	frontier := []string{from}

	for len(frontier) > 0 {
		layer := make(map[string]state)
		var order []string
		for _, node := range frontier {
			cur := settled[node]
			for _, e := range adj[node] {
				if _, ok := settled[e.to]; ok {
					continue
				}
				bottleneck := e.date
				if cur.bottleneck.Before(bottleneck.Time) {
					bottleneck = cur.bottleneck
				}
				cand := state{rate: cur.rate.Mul(e.rate), bottleneck: bottleneck}
				if existing, ok := layer[e.to]; !ok || cand.bottleneck.After(existing.bottleneck.Time) {
					if !ok {
						order = append(order, e.to)
					}
					layer[e.to] = cand
				}
			}
		}
		if len(layer) == 0 {
			break
		}
		frontier = order
		for node, st := range layer {
			settled[node] = st
			if node == to {
				return st.rate, true
			}
		}
	}
	return decimal.Zero, false
}

// Convert converts amount into target using the event graph as of policy's
// cutoff date, hopping through intermediate commodities when no direct rate
// is recorded. Same-commodity conversions always succeed with rate 1.
func (r *Repository) Convert(amount Amount, target string, policy Policy) (Amount, error) {
	if amount.Commodity == target {
		return amount, nil
	}
	adj := r.edgesAsOf(policy.cutoff)
	rate, ok := findRate(adj, amount.Commodity, target)
	if !ok {
		return Amount{}, fmt.Errorf("no conversion path from %s to %s on or before %s", amount.Commodity, target, policy.cutoff.String())
	}
	return Amount{Value: amount.Value.Mul(rate), Commodity: target}, nil
}
