// Copyright (C) 2020-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apimetrics "github.com/luxfi/tcpcore/api/metrics"
	"github.com/luxfi/tcpcore/api/health"
	"github.com/luxfi/tcpcore/telemetry"
)

// GuardHealth adapts a telemetry.Guard to health.Checkable, so the
// operator-facing health endpoint reports the same timing_ok signal
// tcpctl status prints, without the CLI and the HTTP surface drifting
// out of sync.
type GuardHealth struct {
	Guard *telemetry.Guard
}

// Health implements health.Checkable.
func (g GuardHealth) Health(ctx context.Context) (interface{}, error) {
	start := time.Now()
	ok := g.Guard.Healthy()

	stages := []telemetry.Stage{telemetry.StageDecode, telemetry.StageIntegrity, telemetry.StagePolicy, telemetry.StageQuorum}
	checks := make([]health.Check, 0, len(stages))
	for _, s := range stages {
		cv := g.Guard.CV(s)
		checks = append(checks, health.Check{
			Name:    string(s),
			Healthy: cv <= 0.2,
			Details: map[string]interface{}{"cv": cv},
		})
	}

	return health.Report{
		Healthy:  ok,
		Checks:   checks,
		Duration: time.Since(start),
	}, nil
}

// NewMux wires the descriptor-source submit endpoint, an operator
// health endpoint backed by the Timing Guard, and a Prometheus scrape
// endpoint into a single HTTP surface, mirroring the teacher's
// response-envelope and gatherer conventions rather than inventing a
// new routing shape. If submitter.Metrics is unset, NewMux registers a
// fresh SubmissionMetrics against reg so submissions are always
// counted on the scrape endpoint it serves.
func NewMux(submitter *Submitter, guard *telemetry.Guard, reg *prometheus.Registry) (*http.ServeMux, error) {
	if submitter.Metrics == nil {
		sm, err := apimetrics.NewSubmissionMetrics("tcp", reg)
		if err != nil {
			return nil, err
		}
		submitter.Metrics = sm
	}

	mux := http.NewServeMux()
	mux.Handle("/submit", submitter)
	mux.HandleFunc("/health", healthHandler(GuardHealth{Guard: guard}))

	var gatherer prometheus.Gatherer = apimetrics.NewPrefixGatherer()
	if reg != nil {
		gatherer = reg
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux, nil
}

func healthHandler(checker health.Checkable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := checker.Health(r.Context())
		if err != nil {
			_ = WriteError(w, http.StatusInternalServerError, err)
			return
		}
		status := http.StatusOK
		if rep, ok := report.(health.Report); ok && !rep.Healthy {
			status = http.StatusServiceUnavailable
		}
		_ = WriteJSON(w, status, report)
	}
}
