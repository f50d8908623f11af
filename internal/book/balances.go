package book

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Legs is a multi-commodity amount: one decimal per distinct commodity
// touched. Most postings only ever populate one entry; a deduced posting on
// a multi-currency transaction can carry more than one.
type Legs map[string]decimal.Decimal

// legsOf builds a single-commodity Legs, the common case.
func legsOf(commodity string, amount decimal.Decimal) Legs {
	return Legs{commodity: amount}
}

// Add returns a new Legs with other's amounts merged in, commodity by
// commodity.
func (l Legs) Add(other Legs) Legs {
	merged := make(Legs, len(l)+len(other))
	for c, a := range l {
		merged[c] = a
	}
	for c, a := range other {
		if existing, ok := merged[c]; ok {
			merged[c] = existing.Add(a)
		} else {
			merged[c] = a
		}
	}
	return merged
}

// Negated returns a new Legs with every amount negated.
func (l Legs) Negated() Legs {
	neg := make(Legs, len(l))
	for c, a := range l {
		neg[c] = a.Neg()
	}
	return neg
}

// Single returns the lone (commodity, amount) pair when l has exactly one.
func (l Legs) Single() (commodity string, amount decimal.Decimal, ok bool) {
	if len(l) != 1 {
		return "", decimal.Zero, false
	}
	for c, a := range l {
		return c, a, true
	}
	return "", decimal.Zero, false
}

// Commodities returns l's commodity keys in sorted order, for deterministic
// iteration (error messages, reporting).
func (l Legs) Commodities() []string {
	cs := make([]string, 0, len(l))
	for c := range l {
		cs = append(cs, c)
	}
	sort.Strings(cs)
	return cs
}

// RoundedNonZero returns a copy of l with every commodity rounded to scale
// (per-commodity, banker's rounding to match the spec's
// "midpoint-even rounding" residual check) and zero-valued commodities
// dropped.
func (l Legs) RoundedNonZero(scaleOf func(commodity string) int32) Legs {
	out := make(Legs, len(l))
	for c, a := range l {
		rounded := a.RoundBank(scaleOf(c))
		if !rounded.IsZero() {
			out[c] = rounded
		}
	}
	return out
}

// Balances tracks each account's running per-commodity total.
type Balances struct {
	byAccount map[string]Legs
}

// NewBalances creates an empty balance tracker.
func NewBalances() *Balances {
	return &Balances{byAccount: make(map[string]Legs)}
}

// Add adds amount of commodity to account's running balance and returns the
// account's new total for that commodity.
func (b *Balances) Add(account, commodity string, amount decimal.Decimal) decimal.Decimal {
	legs, ok := b.byAccount[account]
	if !ok {
		legs = Legs{}
	}
	legs[commodity] = legs[commodity].Add(amount)
	b.byAccount[account] = legs
	return legs[commodity]
}

// Get returns account's running total for commodity (zero if untouched).
func (b *Balances) Get(account, commodity string) decimal.Decimal {
	return b.byAccount[account][commodity]
}

// Set overwrites account's running total for commodity, used by a balance
// assertion on an amount-less posting (the assertion pins the balance
// directly rather than accumulating into it).
func (b *Balances) Set(account, commodity string, amount decimal.Decimal) {
	legs, ok := b.byAccount[account]
	if !ok {
		legs = Legs{}
		b.byAccount[account] = legs
	}
	legs[commodity] = amount
}

// Snapshot returns every account's current balance. The returned map and its
// Legs values are safe to mutate without affecting the tracker.
func (b *Balances) Snapshot() map[string]Legs {
	out := make(map[string]Legs, len(b.byAccount))
	for account, legs := range b.byAccount {
		cp := make(Legs, len(legs))
		for c, a := range legs {
			cp[c] = a
		}
		out[account] = cp
	}
	return out
}
