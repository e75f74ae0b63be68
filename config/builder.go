// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "time"

// NetworkType names a deployment environment.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
	Local   NetworkType = "local"
)

// Builder constructs a Parameters value fluently, starting from a named
// preset and applying overrides one field at a time.
type Builder struct {
	params Parameters
	err    error
}

// NewBuilder starts from LocalParameters.
func NewBuilder() *Builder {
	return &Builder{params: LocalParameters}
}

// FromPreset starts from a named preset instead of the local default.
func FromPreset(network NetworkType) *Builder {
	p, err := GetParametersByName(string(network))
	return &Builder{params: p, err: err}
}

// WithValidatorCount overrides N.
func (b *Builder) WithValidatorCount(n int) *Builder {
	b.params.ValidatorCount = n
	return b
}

// WithQuorumFraction overrides the honest-quorum fraction.
func (b *Builder) WithQuorumFraction(f float64) *Builder {
	b.params.QuorumFraction = f
	return b
}

// WithVoteDeadline overrides the vote-collection deadline.
func (b *Builder) WithVoteDeadline(d time.Duration) *Builder {
	b.params.VoteDeadline = d
	return b
}

// WithEpochDurations overrides both epoch rotation bounds.
func (b *Builder) WithEpochDurations(min, max time.Duration) *Builder {
	b.params.MinEpochDuration = min
	b.params.MaxEpochDuration = max
	return b
}

// WithEpochHistoryLimit overrides how many retired epochs are retained.
func (b *Builder) WithEpochHistoryLimit(n int) *Builder {
	b.params.EpochHistoryLimit = n
	return b
}

// WithTimingCVThreshold overrides the timing guard's CV ceiling.
func (b *Builder) WithTimingCVThreshold(cv float64) *Builder {
	b.params.TimingCVThreshold = cv
	return b
}

// OptimizeForLatency shrinks the vote deadline at the cost of a smaller
// effective safety margin against slow-but-honest validators.
func (b *Builder) OptimizeForLatency() *Builder {
	b.params.VoteDeadline = b.params.VoteDeadline / 2
	return b
}

// OptimizeForSecurity raises the quorum fraction towards unanimity.
func (b *Builder) OptimizeForSecurity() *Builder {
	if b.params.QuorumFraction < 0.9 {
		b.params.QuorumFraction = 0.9
	}
	return b
}

// Build returns the constructed Parameters, validating it first.
func (b *Builder) Build() (Parameters, error) {
	if b.err != nil {
		return Parameters{}, b.err
	}
	if err := b.params.Valid(); err != nil {
		return Parameters{}, err
	}
	return b.params, nil
}
