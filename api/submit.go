// Copyright (C) 2020-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/luxfi/warp"

	"github.com/luxfi/tcpcore/audit"
	"github.com/luxfi/tcpcore/coordinator"
	"github.com/luxfi/tcpcore/migration"
	"github.com/luxfi/tcpcore/policy"
	"github.com/luxfi/tcpcore/telemetry"

	apimetrics "github.com/luxfi/tcpcore/api/metrics"
)

// SubmitRequest is the descriptor source's inbound payload: a 24-byte
// descriptor plus an optional external proof and caller context.
type SubmitRequest struct {
	Descriptor []byte          `json:"descriptor"`
	Proof      json.RawMessage `json:"proof,omitempty"`
	CallerTag  string          `json:"callerTag,omitempty"`
	Env        string          `json:"environmentTag,omitempty"`
	Lockdown   bool            `json:"lockdownActive,omitempty"`
}

// SubmitResponse mirrors the single request/response interface the
// descriptor source expects: a network decision plus the reason code
// the quorum converged on. Sequence is not filled in by Submit, which
// returns before the asynchronous audit append assigns one, so it is
// always zero in Submit's responses.
type SubmitResponse struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
	Sequence uint64 `json:"sequence,omitempty"`
}

// Submitter wires the pieces a submit() call needs: a coordinator to
// resolve the descriptor against the current validator set, a
// migration table to reject retired variants before burning a quorum
// round on them, a timing guard to time each pipeline stage, and an
// async audit writer to seal the outcome without blocking the
// response on disk. Metrics, if set, records per-decision counts so
// /metrics exposes allow/deny/defer rates alongside the Timing
// Guard's stage latencies. Signer, if set, warp-signs every sealed
// record's chain hash so a peer coordinator holding the same public
// key can trust the decision was honestly reached without replaying
// the audit chain from genesis; sealing still proceeds if signing
// fails, since Attestation is an optional side channel, not a
// condition of the chain itself.
type Submitter struct {
	Coordinator *coordinator.Coordinator
	Migration   *migration.Table
	Guard       *telemetry.Guard
	Writer      *audit.AsyncWriter
	Metrics     apimetrics.SubmissionMetrics
	Signer      warp.Signer

	requestID uint32
}

// Submit resolves one descriptor submission end to end: dispatch to a
// known variant, fan out to the validator set, tally the quorum, and
// enqueue the result for sealing. The HTTP response is returned before
// the audit write necessarily completes; Backpressure is reported back
// to the caller as Defer rather than silently dropped.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) SubmitResponse {
	if s.Metrics != nil {
		s.Metrics.Submitted().Inc()
	}

	v, ok := s.Migration.Dispatch(req.Descriptor)
	if !ok {
		s.countDecision(coordinator.NetworkDeny)
		return SubmitResponse{Decision: coordinator.NetworkDeny.String(), Reason: string(policy.ReasonBadMagic)}
	}
	if s.Migration.IsSunset(v, time.Now()) {
		s.countDecision(coordinator.NetworkDeny)
		return SubmitResponse{Decision: coordinator.NetworkDeny.String(), Reason: string(policy.ReasonVariantDeprecated)}
	}

	s.requestID++
	requestID := s.requestID

	// InProcess.Ctx carries the per-submission policy.Context; copy the
	// Coordinator by value so concurrent submissions with different
	// caller/environment tags never share mutable Transport state.
	round := *s.Coordinator
	if ip, ok := round.Transport.(coordinator.InProcess); ok {
		ip.Ctx = policy.Context{CallerTag: req.CallerTag, EnvironmentTag: req.Env, LockdownActive: req.Lockdown}
		round.Transport = ip
	}

	var res coordinator.Resolution
	err := s.Guard.Time(telemetry.StageQuorum, func() error {
		res = round.Resolve(ctx, req.Descriptor, requestID)
		return nil
	})
	if err != nil {
		s.countDecision(coordinator.NetworkDefer)
		return SubmitResponse{Decision: coordinator.NetworkDefer.String(), Reason: string(policy.ReasonCancelled)}
	}

	reason := string(policy.ReasonOK)
	if len(res.Votes) > 0 {
		reason = string(res.Votes[0].Reason)
	}
	if res.Decision == coordinator.NetworkQuorumTimeout {
		reason = string(policy.ReasonQuorumTimeout)
	}

	rec := audit.Record{
		Fingerprint: res.Fingerprint,
		Decision:    uint8(res.Decision),
		Reason:      reason,
		Votes:       res.Votes,
	}
	if s.Signer != nil {
		if att, err := audit.Attest(rec, s.Signer); err == nil {
			rec.Attestation = att
		}
	}
	s.countDecision(res.Decision)
	resp := SubmitResponse{Decision: res.Decision.String(), Reason: reason}
	if err := s.Writer.Submit(rec); err != nil {
		resp.Decision = coordinator.NetworkDefer.String()
		resp.Reason = string(policy.ReasonBackpressure)
	}
	return resp
}

func (s *Submitter) countDecision(d coordinator.NetworkDecision) {
	if s.Metrics == nil {
		return
	}
	switch d {
	case coordinator.NetworkAllow:
		s.Metrics.Allowed().Inc()
	case coordinator.NetworkDeny:
		s.Metrics.Denied().Inc()
	default:
		s.Metrics.Deferred().Inc()
	}
}

// ServeHTTP adapts Submit to the JSON HTTP surface described by
// api/response.go's Response envelope.
func (s *Submitter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		_ = WriteError(w, http.StatusMethodNotAllowed, ErrBadRequest)
		return
	}
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = WriteError(w, http.StatusBadRequest, ErrBadRequest)
		return
	}
	resp := s.Submit(r.Context(), req)
	_ = WriteSuccess(w, resp)
}
