// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"testing"
	"time"

	"github.com/luxfi/crypto/bls"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/tcpcore/descriptor"
	"github.com/luxfi/tcpcore/integrity"
	"github.com/luxfi/tcpcore/policy"
)

type emptyKeystore struct{}

func (emptyKeystore) IssuerKey(_ [4]byte) (*bls.PublicKey, bool)       { return nil, false }
func (emptyKeystore) Proof(_ [4]byte) (integrity.Proof, bool)          { return integrity.Proof{}, false }

func newTestNode(t *testing.T) *Node {
	t.Helper()
	em, err := integrity.NewEpochManager(time.Hour, 24*time.Hour, 4)
	require.NoError(t, err)
	return &Node{
		ID:       1,
		Epoch:    em,
		Policy:   policy.Default(),
		Keystore: emptyKeystore{},
	}
}

func sampleRaw() []byte {
	d := descriptor.Descriptor{
		Magic:   descriptor.MagicClassical,
		Version: descriptor.VersionClassical,
		Flags:   descriptor.FlagFileOps,
		Risk:    descriptor.RiskSafe,
	}
	wire := descriptor.Encode(d)
	return wire[:]
}

func TestValidateMalformedInputDenies(t *testing.T) {
	n := newTestNode(t)
	raw := make([]byte, 10)
	vote := n.Validate(raw, policy.Context{})
	require.Equal(t, policy.Deny, vote.Decision)
}

func TestValidateBadCRCDenies(t *testing.T) {
	n := newTestNode(t)
	raw := sampleRaw()
	raw[22] ^= 0xFF
	vote := n.Validate(raw, policy.Context{})
	require.Equal(t, policy.Deny, vote.Decision)
	require.Equal(t, policy.ReasonCrcMismatch, vote.Reason)
}

func TestValidateUnknownIssuerDenies(t *testing.T) {
	n := newTestNode(t)
	raw := sampleRaw()
	vote := n.Validate(raw, policy.Context{})
	require.Equal(t, policy.Deny, vote.Decision)
	require.Equal(t, policy.ReasonUnknownIssuer, vote.Reason)
	require.Equal(t, n.ID, vote.ValidatorID)
}

func TestValidateVoteCarriesEpoch(t *testing.T) {
	n := newTestNode(t)
	raw := sampleRaw()
	vote := n.Validate(raw, policy.Context{})
	require.Equal(t, n.Epoch.Current().Epoch, vote.Epoch)
}
