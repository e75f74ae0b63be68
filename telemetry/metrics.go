// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package telemetry implements the Timing Guard: per-stage latency
// tracking with a rolling coefficient of variation, used to flag when
// a stage's timing has drifted enough that it could leak information
// about which check failed (spec §4.7's constant-time monitoring
// signal, not an enforcement mechanism).
package telemetry

import (
	"math"
	"sync"
	"time"

	"github.com/luxfi/metric"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/tcpcore/metrics"
)

// Stage names the pipeline step a latency sample belongs to.
type Stage string

const (
	StageDecode    Stage = "decode"
	StageIntegrity Stage = "integrity"
	StagePolicy    Stage = "policy"
	StageQuorum    Stage = "quorum"
)

// stageTracker accumulates a rolling count/mean/variance for one
// stage's latency samples using Welford's online algorithm, so no
// sample history needs to be retained.
type stageTracker struct {
	mu    sync.Mutex
	count float64
	mean  float64
	m2    float64
}

func (s *stageTracker) observe(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	x := float64(d.Nanoseconds())
	s.count++
	delta := x - s.mean
	s.mean += delta / s.count
	delta2 := x - s.mean
	s.m2 += delta * delta2
}

// cv returns the rolling coefficient of variation: stddev / mean. A
// CV near zero means the stage's timing is effectively constant; a
// high CV means it varies a lot across samples, which for a
// constant-time-sensitive stage is worth flagging.
func (s *stageTracker) cv() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count < 2 || s.mean == 0 {
		return 0
	}
	variance := s.m2 / s.count
	return math.Sqrt(variance) / s.mean
}

// Guard tracks per-stage timing and exposes whether each stage's CV
// stays under a configured threshold.
type Guard struct {
	threshold float64

	mu     sync.Mutex
	stages map[Stage]*stageTracker

	timingOK   *prometheus.GaugeVec
	stageCount metrics.Counter
	gatherer   metric.Gatherer
}

// NewGuard constructs a Guard and registers its prometheus gauge
// vector against reg. threshold is the maximum acceptable CV per
// stage, typically config.Parameters.TimingCVThreshold. If reg also
// implements prometheus.Gatherer (as *prometheus.Registry does), the
// Guard exposes it through Metrics so a host process's metric.Registry
// can fold the Timing Guard's samples in with the rest of its
// gatherers without reaching into telemetry's prometheus internals.
func NewGuard(reg prometheus.Registerer, threshold float64) (*Guard, error) {
	g := &Guard{
		threshold: threshold,
		stages:    make(map[Stage]*stageTracker),
		timingOK: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tcp_timing_ok",
			Help: "1 if a pipeline stage's timing CV is within threshold, 0 otherwise.",
		}, []string{"stage"}),
		stageCount: metrics.NewCounter(),
	}
	if reg != nil {
		if err := reg.Register(g.timingOK); err != nil {
			return nil, err
		}
	}
	if gatherer, ok := reg.(metric.Gatherer); ok {
		g.gatherer = gatherer
	}
	return g, nil
}

// Metrics returns the registry Guard was constructed with, exposed as
// a metric.Gatherer so it can be folded into a process-wide
// metric.Registry alongside every other subsystem's metrics. It
// returns nil if reg was nil or didn't implement prometheus.Gatherer.
func (g *Guard) Metrics() metric.Gatherer {
	return g.gatherer
}

func (g *Guard) trackerFor(stage Stage) *stageTracker {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.stages[stage]; ok {
		return t
	}
	t := &stageTracker{}
	g.stages[stage] = t
	return t
}

// Observe records one latency sample for stage and updates the
// tcp_timing_ok gauge for it.
func (g *Guard) Observe(stage Stage, d time.Duration) {
	t := g.trackerFor(stage)
	t.observe(d)
	g.stageCount.Inc()

	ok := 0.0
	if t.cv() <= g.threshold {
		ok = 1.0
	}
	g.timingOK.WithLabelValues(string(stage)).Set(ok)
}

// Time runs fn, recording its duration against stage, and returns
// fn's error unchanged.
func (g *Guard) Time(stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	g.Observe(stage, time.Since(start))
	return err
}

// CV returns the current rolling coefficient of variation for stage.
func (g *Guard) CV(stage Stage) float64 {
	return g.trackerFor(stage).cv()
}

// Healthy reports whether every stage observed so far is within the
// configured CV threshold.
func (g *Guard) Healthy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range g.stages {
		if t.cv() > g.threshold {
			return false
		}
	}
	return true
}
