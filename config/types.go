// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the cluster-wide parameters a Consensus
// Coordinator deployment is configured with: validator count, the
// honest-quorum fraction, vote-collection deadlines, and PQ epoch
// rotation windows.
package config

import (
	"fmt"
	"time"
)

// Parameters is the cluster configuration for one Consensus Coordinator
// deployment.
type Parameters struct {
	// ValidatorCount is N, the number of validators expected to vote on
	// each descriptor submission.
	ValidatorCount int `json:"validatorCount" yaml:"validatorCount"`

	// QuorumFraction is the fraction of N that must agree for a decision
	// to be considered honest-quorum-backed. Defaults to 0.75.
	QuorumFraction float64 `json:"quorumFraction" yaml:"quorumFraction"`

	// VoteDeadline bounds how long the coordinator waits for votes
	// before declaring the round inconclusive.
	VoteDeadline time.Duration `json:"voteDeadline" yaml:"voteDeadline"`

	// MinEpochDuration is the minimum time between PQ key rotations.
	MinEpochDuration time.Duration `json:"minEpochDuration" yaml:"minEpochDuration"`

	// MaxEpochDuration forces a rotation if exceeded.
	MaxEpochDuration time.Duration `json:"maxEpochDuration" yaml:"maxEpochDuration"`

	// EpochHistoryLimit bounds how many retired epochs' keys are kept
	// around to verify late-arriving signatures.
	EpochHistoryLimit int `json:"epochHistoryLimit" yaml:"epochHistoryLimit"`

	// TimingCVThreshold is the maximum acceptable coefficient of
	// variation for a pipeline stage's latency before the timing guard
	// reports it unhealthy.
	TimingCVThreshold float64 `json:"timingCVThreshold" yaml:"timingCVThreshold"`
}

// HonestQuorumThreshold is the default fraction of validators that must
// agree before a descriptor is admitted.
const HonestQuorumThreshold = 0.75

// QuorumSize returns the minimum number of votes needed to reach
// honest-quorum, rounded up.
func (p Parameters) QuorumSize() int {
	return quorumSize(p.ValidatorCount, p.QuorumFraction)
}

func quorumSize(n int, fraction float64) int {
	if n <= 0 {
		return 0
	}
	size := int(fraction * float64(n))
	if float64(size) < fraction*float64(n) {
		size++
	}
	return size
}

// Valid returns an error describing the first invalid field, or nil.
func (p Parameters) Valid() error {
	switch {
	case p.ValidatorCount <= 0:
		return fmt.Errorf("validatorCount = %d: fails the condition that: 0 < validatorCount", p.ValidatorCount)
	case p.QuorumFraction <= 0.5 || p.QuorumFraction > 1.0:
		return fmt.Errorf("quorumFraction = %f: fails the condition that: 0.5 < quorumFraction <= 1.0", p.QuorumFraction)
	case p.VoteDeadline <= 0:
		return fmt.Errorf("voteDeadline = %s: fails the condition that: 0 < voteDeadline", p.VoteDeadline)
	case p.MinEpochDuration <= 0:
		return fmt.Errorf("minEpochDuration = %s: fails the condition that: 0 < minEpochDuration", p.MinEpochDuration)
	case p.MaxEpochDuration < p.MinEpochDuration:
		return fmt.Errorf("maxEpochDuration = %s: fails the condition that: minEpochDuration <= maxEpochDuration", p.MaxEpochDuration)
	case p.EpochHistoryLimit <= 0:
		return fmt.Errorf("epochHistoryLimit = %d: fails the condition that: 0 < epochHistoryLimit", p.EpochHistoryLimit)
	case p.TimingCVThreshold <= 0:
		return fmt.Errorf("timingCVThreshold = %f: fails the condition that: 0 < timingCVThreshold", p.TimingCVThreshold)
	}
	return nil
}
