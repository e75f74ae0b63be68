// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package audit

import (
	"testing"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/warp"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/tcpcore/node"
	"github.com/luxfi/tcpcore/policy"
	"github.com/luxfi/tcpcore/validators"
)

// blsWarpSigner adapts a bls.SecretKey to warp.Signer for tests: it
// signs a warp.Message's Payload directly, matching the real
// signer.Sign(msg *Message) (*bls.Signature, error) shape without
// pulling in a full warp backend.
type blsWarpSigner struct {
	sk *bls.SecretKey
}

func (s blsWarpSigner) Sign(msg *warp.Message) (*bls.Signature, error) {
	return s.sk.Sign(msg.Payload)
}

func TestAppendChainsRecords(t *testing.T) {
	l := New(memdb.New())

	r1, err := l.Append(Record{Fingerprint: [32]byte{1}, Decision: 0, Reason: "ok", Epoch: 1})
	require.NoError(t, err)
	require.Equal(t, uint64(0), r1.Sequence)

	r2, err := l.Append(Record{Fingerprint: [32]byte{2}, Decision: 1, Reason: "deny", Epoch: 1})
	require.NoError(t, err)
	require.Equal(t, uint64(1), r2.Sequence)
	require.Equal(t, r1.Hash(), r2.PreviousHash)

	records, err := l.Iter()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NoError(t, VerifyChain(records))
}

func TestVerifyChainDetectsTamper(t *testing.T) {
	l := New(memdb.New())
	_, err := l.Append(Record{Fingerprint: [32]byte{1}})
	require.NoError(t, err)
	_, err = l.Append(Record{Fingerprint: [32]byte{2}})
	require.NoError(t, err)

	records, err := l.Iter()
	require.NoError(t, err)

	records[1].Reason = "tampered"
	require.ErrorIs(t, VerifyChain(records), ErrChainBroken)
}

func TestRecoverWithoutAckIsNoop(t *testing.T) {
	l := New(memdb.New())
	_, err := l.Append(Record{Fingerprint: [32]byte{1}})
	require.NoError(t, err)

	last, err := l.Recover()
	require.NoError(t, err)
	require.Equal(t, uint64(0), last)
}

func TestRecoverAfterAcknowledge(t *testing.T) {
	l := New(memdb.New())
	r1, err := l.Append(Record{Fingerprint: [32]byte{1}})
	require.NoError(t, err)
	require.NoError(t, l.Acknowledge(r1.Sequence))

	last, err := l.Recover()
	require.NoError(t, err)
	require.Equal(t, r1.Sequence, last)
}

func TestAttestProducesVerifiableSignature(t *testing.T) {
	sk, err := bls.NewSecretKey()
	require.NoError(t, err)

	rec := Record{Fingerprint: [32]byte{9}, Decision: 0, Reason: "ok", Epoch: 1}
	att, err := Attest(rec, blsWarpSigner{sk: sk})
	require.NoError(t, err)

	sig, err := bls.SignatureFromBytes(att)
	require.NoError(t, err)

	h := rec.Hash()
	require.True(t, bls.Verify(sk.PublicKey(), sig, h[:]))
}

// TestHashBindsVotes covers spec §4.5's determinism mechanism: the
// chain hash must bind exactly who voted what, not merely how many
// votes were counted, so two records differing only in their Votes
// (same count, different validator or decision) must not collide.
func TestHashBindsVotes(t *testing.T) {
	base := Record{Fingerprint: [32]byte{1}, Decision: 0, Reason: "ok", Epoch: 1}

	v1 := node.Vote{ValidatorID: validators.ID(1), Decision: policy.Allow, Epoch: 1, Signature: []byte{1, 2, 3}}
	v2 := node.Vote{ValidatorID: validators.ID(2), Decision: policy.Allow, Epoch: 1, Signature: []byte{4, 5, 6}}

	withNoVotes := base
	withV1 := base
	withV1.Votes = []node.Vote{v1}
	withV2 := base
	withV2.Votes = []node.Vote{v2}
	withBothOrderA := base
	withBothOrderA.Votes = []node.Vote{v1, v2}
	withBothOrderB := base
	withBothOrderB.Votes = []node.Vote{v2, v1}

	require.NotEqual(t, withNoVotes.Hash(), withV1.Hash())
	require.NotEqual(t, withV1.Hash(), withV2.Hash())
	require.NotEqual(t, withBothOrderA.Hash(), withBothOrderB.Hash(), "vote order must affect the hash")
	require.Equal(t, 1, withV1.VoteCount())
}

func TestAttestDoesNotAffectChainHash(t *testing.T) {
	sk, err := bls.NewSecretKey()
	require.NoError(t, err)

	rec := Record{Fingerprint: [32]byte{9}, Decision: 0, Reason: "ok", Epoch: 1}
	before := rec.Hash()

	att, err := Attest(rec, blsWarpSigner{sk: sk})
	require.NoError(t, err)
	rec.Attestation = att

	require.Equal(t, before, rec.Hash())
}
