// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package coordinator fans a descriptor out to a validator set,
// collects votes up to a deadline, and folds them into one network
// decision under the honest-quorum rule: ⌈0.75·N⌉ matching votes are
// required for Allow or Deny, otherwise the result defers.
package coordinator

import (
	"context"
	"sort"

	"github.com/luxfi/crypto/bls"

	"github.com/luxfi/tcpcore/config"
	"github.com/luxfi/tcpcore/node"
	"github.com/luxfi/tcpcore/policy"
	"github.com/luxfi/tcpcore/validators"
)

// NetworkDecision is the coordinator's final outcome for one
// descriptor, a superset of policy.Decision carrying the two
// coordination-only statuses a single validator never produces.
type NetworkDecision uint8

const (
	NetworkAllow NetworkDecision = iota
	NetworkDeny
	NetworkDefer
	NetworkQuorumTimeout
	NetworkCancelled
)

func (d NetworkDecision) String() string {
	switch d {
	case NetworkAllow:
		return "Allow"
	case NetworkDeny:
		return "Deny"
	case NetworkDefer:
		return "Defer"
	case NetworkQuorumTimeout:
		return "QuorumTimeout"
	case NetworkCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Resolution is the coordinator's full output: the decision plus the
// vote set it was derived from, in canonical (validator-ID-sorted)
// order so two coordinators sealing the same descriptor produce
// byte-identical audit records.
type Resolution struct {
	Fingerprint  [32]byte
	Decision     NetworkDecision
	Votes        []node.Vote
	AllowWeight  uint64
	DenyWeight   uint64
	DeferWeight  uint64
	TotalWeight  uint64
}

// Transport solicits a vote from one validator. Its shape mirrors the
// teacher's warp-backed AppSender (request/requestID/payload) keyed by
// validators.ID instead of ids.NodeID; an in-process implementation
// that calls node.Node.Validate directly satisfies it trivially.
type Transport interface {
	RequestVote(ctx context.Context, id validators.ID, requestID uint32, raw []byte) (node.Vote, error)
}

// InProcess is a Transport that calls each validator's Node directly,
// for single-process deployments and tests.
type InProcess struct {
	Nodes map[validators.ID]*node.Node
	Ctx   policy.Context
}

func (ip InProcess) RequestVote(_ context.Context, id validators.ID, _ uint32, raw []byte) (node.Vote, error) {
	n, ok := ip.Nodes[id]
	if !ok {
		return node.Vote{}, errUnknownValidator(id)
	}
	return n.Validate(raw, ip.Ctx), nil
}

type errUnknownValidator validators.ID

func (e errUnknownValidator) Error() string {
	return "coordinator: no node registered for " + validators.ID(e).String()
}

// Coordinator resolves descriptors against one epoch's validator set.
// Epoch is the epoch Validators is a snapshot of: a vote claiming any
// other epoch fails the EpochMismatch check in tally and is discarded
// before counting, regardless of whether its signature verifies.
type Coordinator struct {
	Transport  Transport
	Validators validators.Set
	Params     config.Parameters
	Epoch      uint64
}

// Resolve fans raw out to every validator in the set, waits up to
// Params.VoteDeadline, and folds the collected votes into a
// Resolution. Votes whose signature fails to verify under the claimed
// validator's current-epoch public key, whose epoch does not match
// c.Epoch, or whose fingerprint does not match the canonical
// descriptor fingerprint are discarded before tallying — per spec,
// individual bad votes are simply not counted, they do not fail the
// round. A descriptor that fails decode for every validator still
// yields a (unanimous) Deny, since Validate never errors.
func (c *Coordinator) Resolve(ctx context.Context, raw []byte, requestID uint32) Resolution {
	infos := c.Validators.List()
	ctx, cancel := context.WithTimeout(ctx, c.Params.VoteDeadline)
	defer cancel()

	type result struct {
		vote node.Vote
		err  error
	}
	results := make(chan result, len(infos))

	for _, info := range infos {
		info := info
		go func() {
			v, err := c.Transport.RequestVote(ctx, info.ValidatorID, requestID, raw)
			results <- result{vote: v, err: err}
		}()
	}

	votes := make([]node.Vote, 0, len(infos))
	timedOut := false
collect:
	for i := 0; i < len(infos); i++ {
		select {
		case r := <-results:
			if r.err == nil {
				votes = append(votes, r.vote)
			}
		case <-ctx.Done():
			timedOut = true
			break collect
		}
	}

	sort.Slice(votes, func(i, j int) bool { return votes[i].ValidatorID < votes[j].ValidatorID })

	res := tally(votes, c.Validators, c.Params, c.Epoch)
	if res.Decision == NetworkDefer && timedOut {
		res.Decision = NetworkQuorumTimeout
	}
	return res
}

// tally folds votes into a Resolution. Three checks gate whether a
// vote is counted at all, matching spec §4.5 and §7's consensus error
// class: its fingerprint must match the round's descriptor, its claimed
// epoch must match the validator set snapshot this round resolved
// against (EpochMismatch otherwise), and its signature must verify
// under that validator's current-epoch public key
// (VoteSignatureInvalid otherwise). None of these are reported back as
// a per-vote error; the vote is silently excluded from both the weight
// tally and Resolution.Votes, so a Byzantine minority forging
// signatures or replaying stale-epoch votes cannot shift the quorum.
func tally(votes []node.Vote, set validators.Set, params config.Parameters, epoch uint64) Resolution {
	var allowWeight, denyWeight, deferWeight uint64
	var fp [32]byte
	if len(votes) > 0 {
		fp = votes[0].Fingerprint
	}

	verified := make([]node.Vote, 0, len(votes))
	for _, v := range votes {
		if v.Fingerprint != fp {
			continue // mismatched fingerprint: excluded from the tally entirely
		}
		if v.Epoch != epoch {
			continue // EpochMismatch: claims a different epoch than this round's validator set
		}
		info, ok := set.Get(v.ValidatorID)
		if !ok || info.PublicKey == nil {
			continue // no known current-epoch key to verify the signature against
		}
		sig, err := bls.SignatureFromBytes(v.Signature)
		if err != nil || !bls.Verify(info.PublicKey, sig, node.SignableBytes(v)) {
			continue // VoteSignatureInvalid: signature fails to verify, vote discarded
		}

		weight := info.Weight
		if weight == 0 {
			weight = 1
		}
		verified = append(verified, v)
		switch v.Decision {
		case policy.Allow:
			allowWeight += weight
		case policy.Deny:
			denyWeight += weight
		default:
			deferWeight += weight
		}
	}

	// Total with the same zero-weight-counts-as-1 default as the votes.
	var total uint64
	for _, info := range set.List() {
		if info.Weight == 0 {
			total++
		} else {
			total += info.Weight
		}
	}
	threshold := params.QuorumSize()
	weightedThreshold := quorumWeight(total, params)

	decision := NetworkDefer
	switch {
	case allowWeight >= weightedThreshold && set.Len() > 0 && threshold > 0:
		decision = NetworkAllow
	case denyWeight >= weightedThreshold && set.Len() > 0 && threshold > 0:
		decision = NetworkDeny
	}

	return Resolution{
		Fingerprint: fp,
		Decision:    decision,
		Votes:       verified,
		AllowWeight: allowWeight,
		DenyWeight:  denyWeight,
		DeferWeight: deferWeight,
		TotalWeight: total,
	}
}

// quorumWeight scales the configured quorum fraction against the
// validator set's real total weight, so weighted deployments enforce
// ⌈0.75·totalWeight⌉ rather than ⌈0.75·N⌉ over unweighted counts.
func quorumWeight(totalWeight uint64, params config.Parameters) uint64 {
	if totalWeight == 0 {
		return 1
	}
	needed := params.QuorumFraction * float64(totalWeight)
	rounded := uint64(needed)
	if float64(rounded) < needed {
		rounded++
	}
	return rounded
}
