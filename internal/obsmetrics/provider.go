// Package obsmetrics is a small metrics abstraction so the hosting and
// verification subsystems can record counters/gauges without depending
// directly on a concrete backend. The only shipped backend is Prometheus,
// behind a stable Provider interface so it can be swapped or stubbed out.
package obsmetrics

import "net/http"

// CommonOpts names a metric. Namespace/Subsystem/Name are joined with "_".
type CommonOpts struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
}

// Counter is a monotonically increasing value.
type Counter interface {
	Inc()
	Add(delta float64)
}

// Gauge can move up or down.
type Gauge interface {
	Set(value float64)
}

// Provider constructs metric instruments and, where the backend supports
// HTTP exposition, an http.Handler.
type Provider interface {
	NewCounter(opts CommonOpts) Counter
	NewGauge(opts CommonOpts) Gauge
	// Handler returns the exposition handler, or nil if the backend has
	// none (e.g. a disabled/no-op provider).
	Handler() http.Handler
}

// Noop returns a Provider whose instruments discard every observation.
func Noop() Provider { return noopProvider{} }

type noopProvider struct{}

func (noopProvider) NewCounter(CommonOpts) Counter { return noopInstrument{} }
func (noopProvider) NewGauge(CommonOpts) Gauge     { return noopInstrument{} }
func (noopProvider) Handler() http.Handler         { return nil }

type noopInstrument struct{}

func (noopInstrument) Inc()        {}
func (noopInstrument) Add(float64) {}
func (noopInstrument) Set(float64) {}
