// Package metrics exports per-tick simulation reports to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/engine"
)

const (
	// Namespace for all metrics
	namespace = "colonysim"
	// Subsystem for simulation metrics
	subsystem = "sim"
)

// NewRegistry returns a registry carrying the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Collector turns tick reports into metrics. It implements engine.Observer.
type Collector struct {
	// Tick metrics
	ticks        prometheus.Counter
	lastTick     prometheus.Gauge
	tickDuration prometheus.Histogram

	// Planner and world metrics
	outcomes  *prometheus.CounterVec
	produced  *prometheus.CounterVec
	moves     prometheus.Counter
	blocked   prometheus.Counter
	collected prometheus.Counter

	// Population gauges
	openHauls  prometheus.Gauge
	characters prometheus.Gauge
	stations   prometheus.Gauge
	piles      prometheus.Gauge

	// Arena usage, in 32-bit words
	frameUsed *prometheus.GaugeVec
	arenaPeak *prometheus.GaugeVec
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector creates the simulation collector.
func NewCollector() *Collector {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
		})
	}
	return &Collector{
		ticks:    counter("ticks_total", "Total number of simulated ticks"),
		lastTick: gauge("last_tick", "Most recent tick number"),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent simulating one tick",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		}),

		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "planner_outcomes_total",
				Help:      "Goal stack changes by outcome",
			},
			[]string{"outcome"},
		),
		produced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "resources_produced_total",
				Help:      "Units produced at job stations by resource",
			},
			[]string{"resource"},
		),
		moves:     counter("moves_total", "Character steps taken"),
		blocked:   counter("moves_blocked_total", "Character steps that found no free tile"),
		collected: counter("piles_collected_total", "Empty loose piles removed"),

		openHauls:  gauge("haul_requests_open", "Unclaimed haul requests in the broker"),
		characters: gauge("characters", "Characters alive"),
		stations:   gauge("stations", "Job stations"),
		piles:      gauge("piles", "Loose piles on the floor"),

		frameUsed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "arena_used_words",
				Help:      "Words in use at the end of the tick",
			},
			[]string{"arena"},
		),
		arenaPeak: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "arena_peak_words",
				Help:      "Highest arena usage seen during the tick",
			},
			[]string{"arena"},
		),
	}
}

// Register registers all simulation metrics with reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	metrics := []prometheus.Collector{
		c.ticks,
		c.lastTick,
		c.tickDuration,
		c.outcomes,
		c.produced,
		c.moves,
		c.blocked,
		c.collected,
		c.openHauls,
		c.characters,
		c.stations,
		c.piles,
		c.frameUsed,
		c.arenaPeak,
	}
	for _, metric := range metrics {
		if err := reg.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

// ObserveTick records one tick report.
func (c *Collector) ObserveTick(r engine.TickReport) {
	c.ticks.Inc()
	c.lastTick.Set(float64(r.Tick))
	c.tickDuration.Observe(r.Duration.Seconds())

	for o, n := range r.Outcomes {
		if n > 0 && agents.Outcome(o) != agents.OutcomeNone {
			c.outcomes.WithLabelValues(agents.Outcome(o).String()).Add(float64(n))
		}
	}
	for res, n := range r.Produced {
		if n > 0 {
			c.produced.WithLabelValues(economy.ResourceKind(res).String()).Add(float64(n))
		}
	}
	c.moves.Add(float64(r.Moves))
	c.blocked.Add(float64(r.Blocked))
	c.collected.Add(float64(r.Collected))

	c.openHauls.Set(float64(r.OpenHauls))
	c.characters.Set(float64(r.Characters))
	c.stations.Set(float64(r.Stations))
	c.piles.Set(float64(r.Piles))

	c.frameUsed.WithLabelValues("frame").Set(float64(r.FrameUsed))
	c.arenaPeak.WithLabelValues("frame").Set(float64(r.FramePeak))
	c.arenaPeak.WithLabelValues("temp").Set(float64(r.TempPeak))
}
