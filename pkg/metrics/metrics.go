// Package metrics exposes Prometheus counters for engine events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-authflow/pkg/engine"
)

const namespace = "authflow"

// Collector implements engine.Observer on top of Prometheus counters.
type Collector struct {
	// CodeRequests counts verification code requests by outcome
	// (sent, invalid, rejected, failed).
	CodeRequests *prometheus.CounterVec
	// StepSubmissions counts step submissions by outcome.
	StepSubmissions *prometheus.CounterVec
	// Completions counts flows reaching completion.
	Completions *prometheus.CounterVec
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector registers the counters on reg. A nil reg uses the default
// Prometheus registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collector{
		CodeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "code",
				Name:      "requests_total",
				Help:      "Total number of verification code requests by outcome",
			},
			[]string{"flow", "outcome"},
		),
		StepSubmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "step",
				Name:      "submissions_total",
				Help:      "Total number of step submissions by outcome",
			},
			[]string{"flow", "step", "outcome"},
		),
		Completions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "flow",
				Name:      "completions_total",
				Help:      "Total number of completed flows",
			},
			[]string{"flow"},
		),
	}
}

func (c *Collector) CodeRequested(flow string, outcome engine.Outcome) {
	c.CodeRequests.WithLabelValues(flow, string(outcome)).Inc()
}

func (c *Collector) StepSubmitted(flow, step string, outcome engine.Outcome) {
	c.StepSubmissions.WithLabelValues(flow, step, string(outcome)).Inc()
}

func (c *Collector) FlowCompleted(flow string) {
	c.Completions.WithLabelValues(flow).Inc()
}
