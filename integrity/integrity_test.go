// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package integrity

import (
	"testing"
	"time"

	"github.com/luxfi/crypto/bls"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/luxfi/tcpcore/descriptor"
	"github.com/luxfi/tcpcore/integrity/integritymock"
)

func TestEpochManagerRotation(t *testing.T) {
	em, err := NewEpochManager(0, 10*time.Millisecond, 2)
	require.NoError(t, err)

	first := em.Current()

	time.Sleep(15 * time.Millisecond)
	rotated, err := em.RotateIfDue(false)
	require.NoError(t, err)
	require.True(t, rotated)

	_, ok := em.ForEpoch(first.Epoch)
	require.True(t, ok, "retired epoch should remain in history")

	second := em.Current()
	require.NotEqual(t, first.Epoch, second.Epoch)
}

type emptyKeystore struct{}

func (emptyKeystore) IssuerKey(_ [4]byte) (*bls.PublicKey, bool) { return nil, false }
func (emptyKeystore) Proof(_ [4]byte) (Proof, bool)              { return Proof{}, false }

func TestHybridModeStrictRequiresBoth(t *testing.T) {
	h := Hybrid{Mode: ModeStrict}
	d := descriptor.Descriptor{Magic: descriptor.MagicClassical, Version: descriptor.VersionClassical}
	err := h.Verify(d, emptyKeystore{})
	require.Error(t, err)
}

func TestClassicalVerifyUnknownIssuer(t *testing.T) {
	c := Classical{}
	d := descriptor.Descriptor{Magic: descriptor.MagicClassical, Version: descriptor.VersionClassical}
	err := c.Verify(d, emptyKeystore{})
	require.Error(t, err)
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, ErrUnknownIssuer, ae.Code)
}

// TestClassicalVerifyMockedKeystore exercises Classical.Verify against
// a gomock-generated Keystore double rather than the hand-written
// emptyKeystore fake above, so an EXPECT-based caller (e.g. a test
// that also wants to assert IssuerKey was consulted exactly once) has
// a supported path alongside the plain fake.
func TestClassicalVerifyMockedKeystore(t *testing.T) {
	ctrl := gomock.NewController(t)
	ks := integritymock.NewMockKeystore(ctrl)

	d := descriptor.Descriptor{Magic: descriptor.MagicClassical, Version: descriptor.VersionClassical}
	ks.EXPECT().IssuerKey(d.CommandHash).Return(nil, false).Times(1)

	err := Classical{}.Verify(d, ks)
	require.Error(t, err)
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, ErrUnknownIssuer, ae.Code)
}

// TestPostQuantumVerifyMockedKeystoreProofUnavailable confirms the PQ
// path surfaces ErrProofUnavailable, via the retryable class, when the
// mocked proof store reports a miss.
func TestPostQuantumVerifyMockedKeystoreProofUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	ks := integritymock.NewMockKeystore(ctrl)

	d := descriptor.Descriptor{Magic: descriptor.MagicPQ, Version: descriptor.VersionPQ}
	ks.EXPECT().Proof([4]byte(d.Authenticator)).Return(Proof{}, false).Times(1)

	err := PostQuantum{}.Verify(d, ks)
	require.Error(t, err)
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, ErrProofUnavailable, ae.Code)
	require.True(t, ae.Retryable())
}
