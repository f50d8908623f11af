// Package telemetry provides hierarchical timing collection for ledgerkit's
// parse, book-keeping, and price-graph phases. It uses the context pattern so
// instrumentation can be threaded through without changing signatures, and can
// be swapped for a no-op collector with zero overhead.
package telemetry

import (
	"context"
	"io"
)

type contextKey int

const (
	collectorKey contextKey = iota
	parentTimerKey
)

// Collector collects timing data for a tree of operations. Implementations
// must be safe for concurrent calls to Start/StartStructured; the Timer
// instances they return are not safe for concurrent use by multiple
// goroutines.
type Collector interface {
	Start(name string) Timer
	StartStructured(config TimerConfig) StructuredTimer
	Report(w io.Writer)
}

// TimerConfig carries the extra bookkeeping a structured timer reports
// alongside its duration, e.g. how many directives or postings it processed.
type TimerConfig struct {
	Name  string
	Count int
	Unit  string
}

// Timer tracks one operation's duration and nests children under it.
type Timer interface {
	End()
	Child(name string) Timer
}

// StructuredTimer is a Timer that remembers the TimerConfig it was started
// with, so a report can print a rate (e.g. "1200 postings, 292.7/ms").
type StructuredTimer interface {
	Timer
	Config() TimerConfig
}

// WithCollector attaches a collector to ctx.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey, collector)
}

// FromContext returns the collector attached to ctx, or a no-op collector.
func FromContext(ctx context.Context) Collector {
	if c, ok := ctx.Value(collectorKey).(Collector); ok {
		return c
	}
	return noOpCollector{}
}

// WithParentTimer attaches timer to ctx so nested StartTimer calls parent
// their timer under it instead of starting a fresh root.
func WithParentTimer(ctx context.Context, timer Timer) context.Context {
	return context.WithValue(ctx, parentTimerKey, timer)
}

func parentTimerFromContext(ctx context.Context) (Timer, bool) {
	t, ok := ctx.Value(parentTimerKey).(Timer)
	return t, ok
}

// StartTimer starts a timer named name, nesting it under whatever timer is
// attached to ctx via WithParentTimer, or starting a new root via the
// context's collector otherwise.
func StartTimer(ctx context.Context, name string) Timer {
	if parent, ok := parentTimerFromContext(ctx); ok {
		return parent.Child(name)
	}
	return FromContext(ctx).Start(name)
}
