// Copyright (C) 2020-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registerer is an interface for registering prometheus metrics
type Registerer interface {
	prometheus.Registerer
}

// Registry is an interface for prometheus registry
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// NewRegistry creates a new prometheus registry
func NewRegistry() Registry {
	return prometheus.NewRegistry()
}

// MultiGatherer is a prometheus gatherer that can gather metrics from multiple sources
type MultiGatherer interface {
	prometheus.Gatherer
	
	// Register adds a new gatherer to this multi-gatherer
	Register(string, prometheus.Gatherer) error
}

// multiGatherer implements MultiGatherer
type multiGatherer struct {
	gatherers map[string]prometheus.Gatherer
}

// NewMultiGatherer creates a new multi-gatherer
func NewMultiGatherer() MultiGatherer {
	return &multiGatherer{
		gatherers: make(map[string]prometheus.Gatherer),
	}
}

// Register adds a new gatherer
func (mg *multiGatherer) Register(name string, gatherer prometheus.Gatherer) error {
	mg.gatherers[name] = gatherer
	return nil
}

// Gather implements prometheus.Gatherer
func (mg *multiGatherer) Gather() ([]*dto.MetricFamily, error) {
	var result []*dto.MetricFamily
	for _, g := range mg.gatherers {
		metrics, err := g.Gather()
		if err != nil {
			return nil, err
		}
		result = append(result, metrics...)
	}
	return result, nil
}

// SubmissionMetrics counts descriptor submissions by the network
// decision they resolved to, so an operator can see allow/deny/defer
// rates on the same Prometheus surface the Timing Guard publishes to.
type SubmissionMetrics interface {
	// Submitted tracks every submit() call, regardless of outcome.
	Submitted() prometheus.Counter

	// Allowed tracks submissions that resolved to a network Allow.
	Allowed() prometheus.Counter

	// Denied tracks submissions that resolved to a network Deny.
	Denied() prometheus.Counter

	// Deferred tracks submissions that resolved to Defer, including
	// QuorumTimeout and Cancelled.
	Deferred() prometheus.Counter
}

// NewSubmissionMetrics creates and registers a SubmissionMetrics
// instance under namespace.
func NewSubmissionMetrics(namespace string, registerer prometheus.Registerer) (SubmissionMetrics, error) {
	m := &submissionMetrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Total descriptor submissions received.",
		}),
		allowed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_allowed_total",
			Help:      "Submissions that resolved to a network Allow.",
		}),
		denied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_denied_total",
			Help:      "Submissions that resolved to a network Deny.",
		}),
		deferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_deferred_total",
			Help:      "Submissions that resolved to Defer (including QuorumTimeout and Cancelled).",
		}),
	}

	for _, c := range []prometheus.Counter{m.submitted, m.allowed, m.denied, m.deferred} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

type submissionMetrics struct {
	submitted prometheus.Counter
	allowed   prometheus.Counter
	denied    prometheus.Counter
	deferred  prometheus.Counter
}

func (m *submissionMetrics) Submitted() prometheus.Counter { return m.submitted }
func (m *submissionMetrics) Allowed() prometheus.Counter   { return m.allowed }
func (m *submissionMetrics) Denied() prometheus.Counter    { return m.denied }
func (m *submissionMetrics) Deferred() prometheus.Counter  { return m.deferred }