// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/tcpcore/descriptor"
)

func descWith(flags descriptor.CapabilityFlags, risk descriptor.RiskLevel) descriptor.Descriptor {
	return descriptor.Descriptor{
		Magic:   descriptor.MagicClassical,
		Version: descriptor.VersionClassical,
		Flags:   flags,
		Risk:    risk,
	}
}

func TestDefaultTableSafeAlwaysAllows(t *testing.T) {
	table := Default()
	d := descWith(descriptor.FlagFileOps, descriptor.RiskSafe)
	decision, reason := table.Decide(d, Context{})
	require.Equal(t, Allow, decision)
	require.Equal(t, ReasonOK, reason)
}

func TestDefaultTableDeniesHighRiskSudo(t *testing.T) {
	table := Default()
	d := descWith(descriptor.FlagSudo, descriptor.RiskHigh)
	decision, reason := table.Decide(d, Context{})
	require.Equal(t, Deny, decision)
	require.Equal(t, ReasonHighRiskDeny, reason)
}

func TestDefaultTableDeniesCriticalKernel(t *testing.T) {
	table := Default()
	d := descWith(descriptor.FlagKernel, descriptor.RiskCritical)
	decision, _ := table.Decide(d, Context{})
	require.Equal(t, Deny, decision)
}

func TestAllowListOverridesDenial(t *testing.T) {
	table := Default()
	d := descWith(descriptor.FlagSudo, descriptor.RiskHigh)

	decision, _ := table.Decide(d, Context{})
	require.Equal(t, Deny, decision)

	table.AllowListSet(descriptor.RiskHigh, descriptor.FlagSudo)
	decision, reason := table.Decide(d, Context{})
	require.Equal(t, Allow, decision)
	require.Equal(t, ReasonOK, reason)
}

func TestLockdownDeniesNonSafe(t *testing.T) {
	table := Default()
	d := descWith(descriptor.FlagFileOps|descriptor.FlagNetwork, descriptor.RiskLow)
	decision, reason := table.Decide(d, Context{LockdownActive: true})
	require.Equal(t, Deny, decision)
	require.Equal(t, ReasonLockdownActive, reason)
}

func TestLockdownStillAllowsSafe(t *testing.T) {
	table := Default()
	d := descWith(descriptor.FlagFileOps, descriptor.RiskSafe)
	decision, _ := table.Decide(d, Context{LockdownActive: true})
	require.Equal(t, Allow, decision)
}

func TestReservedBitsDefer(t *testing.T) {
	table := Default()
	d := descWith(descriptor.CapabilityFlags(1<<15), descriptor.RiskLow)
	decision, reason := table.Decide(d, Context{})
	require.Equal(t, Defer, decision)
	require.Equal(t, ReasonUnknownFlagStrict, reason)
}

func TestMixedFlagsDefer(t *testing.T) {
	table := Default()
	d := descWith(descriptor.FlagNetwork|descriptor.FlagCrypto, descriptor.RiskLow)
	decision, _ := table.Decide(d, Context{})
	require.Equal(t, Defer, decision)
}

func TestDecisionDeterministic(t *testing.T) {
	table := Default()
	d := descWith(descriptor.FlagDestructive, descriptor.RiskHigh)
	ctx := Context{CallerTag: "agent-1", EnvironmentTag: "prod"}

	first, firstReason := table.Decide(d, ctx)
	for i := 0; i < 50; i++ {
		decision, reason := table.Decide(d, ctx)
		require.Equal(t, first, decision)
		require.Equal(t, firstReason, reason)
	}
}
