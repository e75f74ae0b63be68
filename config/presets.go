// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "time"

// MainnetParameters is the recommended production deployment shape.
var MainnetParameters = Parameters{
	ValidatorCount:    21,
	QuorumFraction:    HonestQuorumThreshold,
	VoteDeadline:      500 * time.Millisecond,
	MinEpochDuration:  10 * time.Minute,
	MaxEpochDuration:  time.Hour,
	EpochHistoryLimit: 6,
	TimingCVThreshold: 0.2,
}

// TestnetParameters relaxes the deadline and shrinks the validator set.
var TestnetParameters = Parameters{
	ValidatorCount:    7,
	QuorumFraction:    HonestQuorumThreshold,
	VoteDeadline:      time.Second,
	MinEpochDuration:  2 * time.Minute,
	MaxEpochDuration:  20 * time.Minute,
	EpochHistoryLimit: 4,
	TimingCVThreshold: 0.2,
}

// LocalParameters is for a single-process development cluster.
var LocalParameters = Parameters{
	ValidatorCount:    4,
	QuorumFraction:    HonestQuorumThreshold,
	VoteDeadline:      2 * time.Second,
	MinEpochDuration:  30 * time.Second,
	MaxEpochDuration:  5 * time.Minute,
	EpochHistoryLimit: 3,
	TimingCVThreshold: 0.3,
}

// GetParametersByName returns a named preset, or an error if unknown.
func GetParametersByName(name string) (Parameters, error) {
	switch name {
	case "mainnet":
		return MainnetParameters, nil
	case "testnet":
		return TestnetParameters, nil
	case "local", "":
		return LocalParameters, nil
	default:
		return Parameters{}, ErrUnknownPreset
	}
}

// PresetNames lists the known preset names.
func PresetNames() []string {
	return []string{"mainnet", "testnet", "local"}
}
