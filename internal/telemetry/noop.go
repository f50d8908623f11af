package telemetry

import "io"

type noOpCollector struct{}

func (noOpCollector) Start(name string) Timer                       { return noOpTimer{} }
func (noOpCollector) StartStructured(config TimerConfig) StructuredTimer {
	return noOpStructuredTimer{config}
}
func (noOpCollector) Report(w io.Writer) {}

type noOpTimer struct{}

func (noOpTimer) End()                    {}
func (noOpTimer) Child(name string) Timer { return noOpTimer{} }

type noOpStructuredTimer struct{ config TimerConfig }

func (noOpStructuredTimer) End()                    {}
func (noOpStructuredTimer) Child(name string) Timer { return noOpTimer{} }
func (t noOpStructuredTimer) Config() TimerConfig    { return t.config }
