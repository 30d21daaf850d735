// Package metrics exports Prometheus metrics for build operations and node
// outcomes.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/transformgrid/internal/buildop"
)

const namespace = "transformgrid"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the collectors registered for one application run.
type Metrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Nodes      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Build operations run, by category and outcome.",
		}, []string{"category", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of build operations, by category.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"category"}),
		Nodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_total",
			Help:      "Graph nodes finished, by kind and final state.",
		}, []string{"kind", "state"}),
	}
	reg.MustRegister(m.Operations, m.Duration, m.Nodes)
	return m
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordNode counts one finished node.
func (m *Metrics) RecordNode(kind, state string) {
	m.Nodes.WithLabelValues(kind, state).Inc()
}

// Wrap returns an executor that counts and times every operation run through
// next. The operation's error is returned as is.
func (m *Metrics) Wrap(next buildop.Executor) buildop.Executor {
	return &observed{next: next, m: m}
}

type observed struct {
	next buildop.Executor
	m    *Metrics
}

func (o *observed) Run(ctx context.Context, desc buildop.Descriptor, op buildop.Func) error {
	category := string(desc.Category)
	if category == "" {
		category = string(buildop.CategoryUnknown)
	}
	start := time.Now()
	err := o.next.Run(ctx, desc, op)
	o.m.Duration.WithLabelValues(category).Observe(time.Since(start).Seconds())
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	o.m.Operations.WithLabelValues(category, outcome).Inc()
	return err
}
