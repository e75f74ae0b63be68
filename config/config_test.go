// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParametersValid(t *testing.T) {
	tests := []struct {
		name    string
		params  Parameters
		wantErr bool
	}{
		{"mainnet preset", MainnetParameters, false},
		{"testnet preset", TestnetParameters, false},
		{"local preset", LocalParameters, false},
		{"zero validator count", Parameters{}, true},
		{
			"quorum fraction too low",
			Parameters{ValidatorCount: 4, QuorumFraction: 0.4, VoteDeadline: time.Second, MinEpochDuration: time.Minute, MaxEpochDuration: time.Hour, EpochHistoryLimit: 1, TimingCVThreshold: 0.2},
			true,
		},
		{
			"max epoch before min epoch",
			Parameters{ValidatorCount: 4, QuorumFraction: 0.75, VoteDeadline: time.Second, MinEpochDuration: time.Hour, MaxEpochDuration: time.Minute, EpochHistoryLimit: 1, TimingCVThreshold: 0.2},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Valid()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestQuorumSize(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{4, 3},
		{7, 6},
		{21, 16},
		{100, 75},
	}
	for _, tt := range tests {
		p := Parameters{ValidatorCount: tt.n, QuorumFraction: HonestQuorumThreshold}
		require.Equal(t, tt.want, p.QuorumSize())
	}
}

func TestBuilder(t *testing.T) {
	p, err := NewBuilder().
		WithValidatorCount(9).
		WithQuorumFraction(0.8).
		WithVoteDeadline(250 * time.Millisecond).
		Build()
	require.NoError(t, err)
	require.Equal(t, 9, p.ValidatorCount)
	require.Equal(t, 0.8, p.QuorumFraction)
}

func TestRuntimeOverride(t *testing.T) {
	require.NoError(t, InitializeRuntime("local"))
	require.NoError(t, OverrideRuntime(map[string]interface{}{"validatorCount": 11}))
	require.Equal(t, 11, GetRuntime().ValidatorCount)

	err := OverrideRuntime(map[string]interface{}{"quorumFraction": 0.1})
	require.Error(t, err)
	require.Equal(t, 11, GetRuntime().ValidatorCount)
}

func TestValidatorDetailed(t *testing.T) {
	v := NewValidator()
	result := v.ValidateDetailed(Parameters{
		ValidatorCount: 2, QuorumFraction: 0.6, VoteDeadline: time.Second,
		MinEpochDuration: time.Minute, MaxEpochDuration: time.Hour,
		EpochHistoryLimit: 1, TimingCVThreshold: 0.2,
	})
	require.False(t, result.OK())
}
