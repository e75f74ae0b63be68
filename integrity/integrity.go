// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package integrity verifies the cryptographic authenticator bound to
// a descriptor's bytes. It is pluggable over a classical signature
// path, a post-quantum proof-store path, and a hybrid combination of
// both; which path applies is selected by the descriptor's
// magic+version, never by a per-request choice.
package integrity

import (
	"errors"
	"fmt"

	"github.com/luxfi/crypto/bls"

	"github.com/luxfi/tcpcore/descriptor"
)

// AuthErrorCode enumerates the Integrity Layer's failure taxonomy.
type AuthErrorCode string

const (
	ErrBadSignature     AuthErrorCode = "bad_signature"
	ErrUnknownIssuer    AuthErrorCode = "unknown_issuer"
	ErrProofUnavailable AuthErrorCode = "proof_unavailable"
	ErrVariantDeprecated AuthErrorCode = "variant_deprecated"
)

// AuthError is a terminal failure for the descriptor it concerns: the
// request never reaches the Policy Engine.
type AuthError struct {
	Code AuthErrorCode
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("integrity: %s: %v", e.Code, e.Err)
	}
	return "integrity: " + string(e.Code)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Retryable reports whether this failure class may be retried within
// the same request's deadline. ProofUnavailable is the only retryable
// class.
func (e *AuthError) Retryable() bool {
	return e.Code == ErrProofUnavailable
}

// Mode selects how a Hybrid verifier combines its two constituent
// checks. It is a deployment-wide policy, not a per-request choice.
type Mode int

const (
	// ModeStrict requires both classical and PQ verification to
	// succeed.
	ModeStrict Mode = iota
	// ModePermissive accepts either verification succeeding.
	ModePermissive
)

// IssuerKey is the classical public key used to verify a v2
// authenticator for one issuer.
type IssuerKey struct {
	IssuerID  uint32
	PublicKey *bls.PublicKey
}

// Keystore resolves issuer and proof-store lookups the Integrity Layer
// needs. It is read-only from the core's perspective; callers publish
// new snapshots atomically (see the keystore package).
type Keystore interface {
	// IssuerKey returns the classical public key for the issuer that
	// signed a descriptor's command hash, or false if unknown.
	IssuerKey(commandHash [4]byte) (*bls.PublicKey, bool)
	// Proof fetches a post-quantum proof by its content-addressed
	// selector. ok is false on a cache miss that the caller should
	// treat as ProofUnavailable.
	Proof(selector [4]byte) (Proof, bool)
}

// Proof is a post-quantum signature retrieved from the external proof
// store, content-addressed by a truncated hash of itself.
type Proof struct {
	GroupKeyBytes []byte
	Message       []byte
	Signature     []byte
}

// Verifier checks a descriptor's authenticator against a keystore.
type Verifier interface {
	Verify(d descriptor.Descriptor, ks Keystore) error
}

// Classical verifies the 32-bit truncated BLS signature over bytes
// 0..18 carried in-band for v2 descriptors.
type Classical struct{}

// signedPrefix returns the descriptor bytes the authenticator is
// computed over: offsets 0 through 17, i.e. everything before the
// authenticator field itself.
func signedPrefix(d descriptor.Descriptor) []byte {
	wire := descriptor.Encode(d)
	return wire[0:18]
}

// Verify checks the classical authenticator. The authenticator is a
// 32-bit truncation of a BLS signature; truncation is acceptable
// because the command hash is already bound by the codec, so the
// authenticator only needs to prove issuance by an authorised party
// within a bounded forgery probability.
func (Classical) Verify(d descriptor.Descriptor, ks Keystore) error {
	pk, ok := ks.IssuerKey(d.CommandHash)
	if !ok {
		return &AuthError{Code: ErrUnknownIssuer}
	}

	sig, err := bls.SignatureFromBytes(d.Authenticator[:])
	if err != nil {
		return &AuthError{Code: ErrBadSignature, Err: err}
	}
	if !bls.Verify(pk, sig, signedPrefix(d)) {
		return &AuthError{Code: ErrBadSignature}
	}
	return nil
}

// PostQuantum verifies the v3 authenticator by resolving it as a
// selector into the external proof store and validating the lattice
// signature it names.
type PostQuantum struct{}

func (PostQuantum) Verify(d descriptor.Descriptor, ks Keystore) error {
	proof, ok := ks.Proof([4]byte(d.Authenticator))
	if !ok {
		return &AuthError{Code: ErrProofUnavailable}
	}
	if err := verifyLatticeProof(proof); err != nil {
		return &AuthError{Code: ErrBadSignature, Err: err}
	}
	return nil
}

// Hybrid carries both a classical authenticator in-band and a PQ
// proof-store pointer. In strict mode both must succeed; in permissive
// mode either is sufficient.
type Hybrid struct {
	Mode Mode
}

func (h Hybrid) Verify(d descriptor.Descriptor, ks Keystore) error {
	classicalErr := Classical{}.Verify(d, ks)
	pqErr := PostQuantum{}.Verify(d, ks)

	switch h.Mode {
	case ModeStrict:
		if classicalErr != nil {
			return classicalErr
		}
		if pqErr != nil {
			return pqErr
		}
		return nil
	case ModePermissive:
		if classicalErr == nil || pqErr == nil {
			return nil
		}
		return classicalErr
	default:
		return errors.New("integrity: unknown hybrid mode")
	}
}

// VerifierFor selects the Verifier implied by a descriptor's
// magic+version, matching the Migration Layer's variant dispatch.
func VerifierFor(d descriptor.Descriptor) Verifier {
	if d.IsPQ() {
		return PostQuantum{}
	}
	return Classical{}
}
