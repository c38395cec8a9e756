package obsmetrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewPrometheusProvider returns a Provider backed by its own registry (never
// the global default registry, so multiple Apps in one process don't
// collide on metric names).
func NewPrometheusProvider() Provider {
	reg := prometheus.NewRegistry()
	return &promProvider{registry: reg, counters: map[string]*prometheus.CounterVec{}, gauges: map[string]*prometheus.GaugeVec{}}
}

type promProvider struct {
	registry *prometheus.Registry
	mu       sync.Mutex
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
}

func buildName(o CommonOpts) string {
	name := o.Name
	if o.Subsystem != "" {
		name = o.Subsystem + "_" + name
	}
	if o.Namespace != "" {
		name = o.Namespace + "_" + name
	}
	return name
}

func (p *promProvider) NewCounter(opts CommonOpts) Counter {
	name := buildName(opts)
	p.mu.Lock()
	defer p.mu.Unlock()
	cv, ok := p.counters[name]
	if !ok {
		cv = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Subsystem: opts.Subsystem,
			Name:      opts.Name,
			Help:      opts.Help,
		}, nil)
		p.registry.MustRegister(cv)
		p.counters[name] = cv
	}
	return &promCounter{c: cv.WithLabelValues()}
}

func (p *promProvider) NewGauge(opts CommonOpts) Gauge {
	name := buildName(opts)
	p.mu.Lock()
	defer p.mu.Unlock()
	gv, ok := p.gauges[name]
	if !ok {
		gv = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: opts.Namespace,
			Subsystem: opts.Subsystem,
			Name:      opts.Name,
			Help:      opts.Help,
		}, nil)
		p.registry.MustRegister(gv)
		p.gauges[name] = gv
	}
	return &promGauge{g: gv.WithLabelValues()}
}

func (p *promProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

type promCounter struct{ c prometheus.Counter }

func (c *promCounter) Inc()          { c.c.Inc() }
func (c *promCounter) Add(d float64) { c.c.Add(d) }

type promGauge struct{ g prometheus.Gauge }

func (g *promGauge) Set(v float64) { g.g.Set(v) }
