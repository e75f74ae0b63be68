// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package policy implements the deterministic, constant-time mapping
// from (capability_flags, risk_level, context) to a Decision. A policy
// is pure and has no I/O: the same loaded table and context always
// produce the same outcome.
package policy

import (
	"github.com/luxfi/tcpcore/descriptor"
)

// Decision is the three-way outcome a policy, a validator vote, and
// ultimately the network as a whole may reach for one descriptor.
type Decision uint8

const (
	Allow Decision = iota
	Deny
	Defer
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "Allow"
	case Deny:
		return "Deny"
	case Defer:
		return "Defer"
	default:
		return "Unknown"
	}
}

// ReasonCode tags why a Decision was reached. Parse- and auth-stage
// reasons pass through unchanged from their originating layer; the
// policy-local reasons below are assigned by Decide itself.
type ReasonCode string

const (
	ReasonOK                 ReasonCode = "ok"
	ReasonBadMagic           ReasonCode = "bad_magic"
	ReasonUnsupportedVersion ReasonCode = "unsupported_version"
	ReasonCrcMismatch        ReasonCode = "crc_mismatch"
	ReasonFlagRiskConflict   ReasonCode = "flag_risk_conflict"
	ReasonOutOfRangeField    ReasonCode = "out_of_range_field"
	ReasonBadSignature       ReasonCode = "bad_signature"
	ReasonUnknownIssuer      ReasonCode = "unknown_issuer"
	ReasonProofUnavailable   ReasonCode = "proof_unavailable"
	ReasonVariantDeprecated  ReasonCode = "variant_deprecated"
	ReasonUnknownFlagStrict  ReasonCode = "unknown_flag_strict"
	ReasonLockdownActive     ReasonCode = "lockdown_active"
	ReasonHighRiskDeny       ReasonCode = "high_risk_deny"

	// ReasonBackpressure, ReasonCancelled, ReasonQuorumTimeout,
	// ReasonVoteSignatureInvalid, and ReasonEpochMismatch are assigned
	// by the coordinator/API layer rather than Decide: a submission
	// that never reaches a validator vote, or a vote the coordinator
	// discards before tallying, still needs a reason code paired with
	// its Defer decision.
	ReasonBackpressure        ReasonCode = "backpressure"
	ReasonCancelled           ReasonCode = "cancelled"
	ReasonQuorumTimeout       ReasonCode = "quorum_timeout"
	ReasonVoteSignatureInvalid ReasonCode = "vote_signature_invalid"
	ReasonEpochMismatch       ReasonCode = "epoch_mismatch"
)

// Context is the small, fixed struct a policy evaluates alongside a
// descriptor's flags and risk level.
type Context struct {
	CallerTag      string
	EnvironmentTag string
	LockdownActive bool
}

// flagClass partitions the 256 possible (known-bit) flag combinations
// into a small number of equivalence classes so the decision table
// stays O(16) wide regardless of how many distinct flag combinations a
// deployment actually sees.
type flagClass uint8

const (
	classEmpty flagClass = iota
	classFileOpsOnly
	classNetwork
	classDestructive
	classSudo
	classKernel
	classProcess
	classCrypto
	classMixed
	numFlagClasses
)

func classify(flags descriptor.CapabilityFlags) flagClass {
	switch {
	case flags == 0:
		return classEmpty
	case flags == descriptor.FlagFileOps:
		return classFileOpsOnly
	case flags.Has(descriptor.FlagKernel):
		return classKernel
	case flags.Has(descriptor.FlagSudo):
		return classSudo
	case flags.Has(descriptor.FlagDestructive):
		return classDestructive
	case flags.Has(descriptor.FlagNetwork) && flags&^descriptor.FlagNetwork == 0:
		return classNetwork
	case flags.Has(descriptor.FlagProcess) && flags&^descriptor.FlagProcess == 0:
		return classProcess
	case flags.Has(descriptor.FlagCrypto) && flags&^descriptor.FlagCrypto == 0:
		return classCrypto
	default:
		return classMixed
	}
}

const numRiskLevels = int(descriptor.RiskCritical) + 1

// Table is a policy compiled at load time into a fixed-size decision
// table indexed by (risk level, flag class), giving branch-free,
// constant-time lookup independent of which descriptor triggered it.
type Table struct {
	entries [numRiskLevels][numFlagClasses]Decision
	allowed map[flagEntry]bool // not read or written after Default; AllowListSet writes overrides into entries
}

type flagEntry struct {
	risk  descriptor.RiskLevel
	class flagClass
}

// Default compiles the baseline policy described by the data model's
// tie-break rules: SAFE never denies, unknown-but-valid future flag
// classes under strict mode defer rather than deny, and
// HIGH/CRITICAL risk paired with SUDO/KERNEL/DESTRUCTIVE denies unless
// explicitly allow-listed.
func Default() *Table {
	t := &Table{allowed: make(map[flagEntry]bool)}

	for risk := 0; risk < numRiskLevels; risk++ {
		for class := flagClass(0); class < numFlagClasses; class++ {
			t.entries[risk][class] = decide(descriptor.RiskLevel(risk), class)
		}
	}
	return t
}

func decide(risk descriptor.RiskLevel, class flagClass) Decision {
	if risk == descriptor.RiskSafe {
		return Allow
	}
	if risk >= descriptor.RiskHigh {
		switch class {
		case classSudo, classKernel, classDestructive:
			return Deny
		}
	}
	if class == classMixed {
		return Defer
	}
	return Allow
}

// AllowListSet flips a specific (risk, flagClass) cell to Allow,
// implementing the explicit-allow-list override the tie-break rules
// require for otherwise-denied dangerous combinations.
func (t *Table) AllowListSet(risk descriptor.RiskLevel, flags descriptor.CapabilityFlags) {
	t.entries[risk][classify(flags)] = Allow
}

// Decide evaluates the compiled table against a descriptor and
// context. Lookup is a table access plus a context mask: every call
// touches the same memory regardless of which cell is selected.
func (t *Table) Decide(d descriptor.Descriptor, ctx Context) (Decision, ReasonCode) {
	if ctx.LockdownActive && d.Risk != descriptor.RiskSafe {
		return Deny, ReasonLockdownActive
	}

	if d.Flags.Reserved() != 0 {
		return Defer, ReasonUnknownFlagStrict
	}

	class := classify(d.Flags)
	decision := t.entries[d.Risk][class]

	if decision == Deny && d.Risk >= descriptor.RiskHigh {
		return Deny, ReasonHighRiskDeny
	}
	if decision == Defer {
		return Defer, ReasonUnknownFlagStrict
	}
	return Allow, ReasonOK
}
