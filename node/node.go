// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package node implements the Validator Node: a single-process unit
// that holds keys, runs the codec → integrity → policy pipeline over a
// submitted descriptor, and emits a signed vote. Parse and auth
// failures are recovered locally into Deny votes carrying a
// failure-class tag rather than surfaced as exceptions, so adversarial
// descriptors drive the same control path as benign ones.
package node

import (
	"github.com/luxfi/crypto/bls"

	"github.com/luxfi/tcpcore/descriptor"
	"github.com/luxfi/tcpcore/integrity"
	"github.com/luxfi/tcpcore/policy"
	"github.com/luxfi/tcpcore/validators"
)

// Vote is one validator's signed opinion on a descriptor, bound to it
// by fingerprint so it can be verified and tallied without re-sending
// the descriptor bytes.
type Vote struct {
	Fingerprint descriptor.Fingerprint
	ValidatorID validators.ID
	Decision    policy.Decision
	Reason      policy.ReasonCode
	Epoch       uint64
	Signature   []byte
}

// SignableBytes is the canonical byte sequence a vote's signature is
// computed over: everything in the vote except the signature itself.
// Exported so the Consensus Coordinator can recompute it to verify a
// vote's signature against the claimed validator's epoch-scoped public
// key before counting the vote.
func SignableBytes(v Vote) []byte {
	b := make([]byte, 0, 32+2+1+1+8+len(v.Reason))
	b = append(b, v.Fingerprint[:]...)
	b = append(b, byte(v.ValidatorID>>8), byte(v.ValidatorID))
	b = append(b, byte(v.Decision))
	b = append(b, byte(len(v.Reason)))
	b = append(b, v.Reason...)
	for i := 56; i >= 0; i -= 8 {
		b = append(b, byte(v.Epoch>>uint(i)))
	}
	return b
}

// Node is a single validator's pipeline: decode, verify, decide, sign.
type Node struct {
	ID       validators.ID
	Epoch    *integrity.EpochManager
	Policy   *policy.Table
	Keystore integrity.Keystore

	// Mode selects how the Codec treats reserved capability-flag bits.
	// The zero value, descriptor.ModeStrict, rejects them outright as
	// ErrOutOfRangeField; descriptor.ModeLenient preserves them so the
	// Policy Engine's unknown-flag Defer tie-break sees them.
	Mode descriptor.Mode
}

// Validate runs the full codec → integrity → policy pipeline over a
// raw 24-byte descriptor submission and returns a signed Vote. It
// never returns an error: every failure class is folded into the
// Vote's Decision/Reason so the same control path handles benign and
// adversarial input alike.
func (n *Node) Validate(raw []byte, ctx policy.Context) Vote {
	fp := descriptor.FingerprintBytes(raw)
	epoch := n.Epoch.Current()

	d, err := descriptor.DecodeMode(raw, n.Mode)
	if err != nil {
		return n.sign(Vote{Fingerprint: fp, ValidatorID: n.ID, Decision: policy.Deny, Reason: reasonForParseError(err), Epoch: epoch.Epoch}, epoch)
	}

	// Recompute the fingerprint over the canonical re-encoding so a
	// vote always references the exact bytes the policy decided over.
	fp = d.Fingerprint()

	verifier := integrity.VerifierFor(d)
	if err := verifier.Verify(d, n.Keystore); err != nil {
		return n.sign(Vote{Fingerprint: fp, ValidatorID: n.ID, Decision: policy.Deny, Reason: reasonForAuthError(err), Epoch: epoch.Epoch}, epoch)
	}

	decision, reason := n.Policy.Decide(d, ctx)
	return n.sign(Vote{Fingerprint: fp, ValidatorID: n.ID, Decision: decision, Reason: reason, Epoch: epoch.Epoch}, epoch)
}

func (n *Node) sign(v Vote, epoch integrity.EpochKeys) Vote {
	if epoch.BLSSecretKey != nil {
		if sig, err := epoch.BLSSecretKey.Sign(SignableBytes(v)); err == nil {
			v.Signature = bls.SignatureToBytes(sig)
		}
	}
	return v
}

func reasonForParseError(err error) policy.ReasonCode {
	pe, ok := err.(*descriptor.ParseError)
	if !ok {
		return policy.ReasonOutOfRangeField
	}
	switch pe.Code {
	case descriptor.ErrBadMagic:
		return policy.ReasonBadMagic
	case descriptor.ErrUnsupportedVer:
		return policy.ReasonUnsupportedVersion
	case descriptor.ErrCrcMismatch:
		return policy.ReasonCrcMismatch
	case descriptor.ErrFlagRiskConflict:
		return policy.ReasonFlagRiskConflict
	default:
		return policy.ReasonOutOfRangeField
	}
}

func reasonForAuthError(err error) policy.ReasonCode {
	ae, ok := err.(*integrity.AuthError)
	if !ok {
		return policy.ReasonBadSignature
	}
	switch ae.Code {
	case integrity.ErrUnknownIssuer:
		return policy.ReasonUnknownIssuer
	case integrity.ErrProofUnavailable:
		return policy.ReasonProofUnavailable
	case integrity.ErrVariantDeprecated:
		return policy.ReasonVariantDeprecated
	default:
		return policy.ReasonBadSignature
	}
}
