// Copyright (C) 2020-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"testing"
	"time"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/warp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	apimetrics "github.com/luxfi/tcpcore/api/metrics"
	"github.com/luxfi/tcpcore/audit"
	"github.com/luxfi/tcpcore/config"
	"github.com/luxfi/tcpcore/coordinator"
	"github.com/luxfi/tcpcore/descriptor"
	"github.com/luxfi/tcpcore/integrity"
	"github.com/luxfi/tcpcore/migration"
	"github.com/luxfi/tcpcore/node"
	"github.com/luxfi/tcpcore/policy"
	"github.com/luxfi/tcpcore/telemetry"
	"github.com/luxfi/tcpcore/validators"
)

type noopKeystore struct{}

func (noopKeystore) IssuerKey(_ [4]byte) (*bls.PublicKey, bool)    { return nil, false }
func (noopKeystore) Proof(_ [4]byte) (integrity.Proof, bool)       { return integrity.Proof{}, false }

type memberSet struct {
	members map[validators.ID]validators.Info
}

func (m memberSet) Has(id validators.ID) bool { _, ok := m.members[id]; return ok }
func (m memberSet) Len() int                  { return len(m.members) }
func (m memberSet) Get(id validators.ID) (validators.Info, bool) {
	info, ok := m.members[id]
	return info, ok
}
func (m memberSet) List() []validators.Info {
	out := make([]validators.Info, 0, len(m.members))
	for _, v := range m.members {
		out = append(out, v)
	}
	return out
}
func (m memberSet) TotalWeight() uint64 {
	var total uint64
	for _, v := range m.members {
		total += v.Weight
	}
	return total
}

func buildTestSubmitter(t *testing.T, n int) (*Submitter, apimetrics.SubmissionMetrics) {
	t.Helper()

	members := make(map[validators.ID]validators.Info, n)
	nodes := make(map[validators.ID]*node.Node, n)
	for i := 0; i < n; i++ {
		id := validators.ID(i + 1)
		em, err := integrity.NewEpochManager(time.Hour, 24*time.Hour, 2)
		require.NoError(t, err)
		members[id] = validators.Info{ValidatorID: id, PublicKey: em.Current().BLSPublicKey, Weight: 1}
		nodes[id] = &node.Node{ID: id, Epoch: em, Policy: policy.Default(), Keystore: noopKeystore{}}
	}
	set := memberSet{members: members}

	guard, err := telemetry.NewGuard(nil, 0.3)
	require.NoError(t, err)

	sm, err := apimetrics.NewSubmissionMetrics("tcp_test", apimetrics.NewRegistry())
	require.NoError(t, err)

	return &Submitter{
		Coordinator: &coordinator.Coordinator{
			Transport:  coordinator.InProcess{Nodes: nodes},
			Validators: set,
			Params:     config.LocalParameters,
			Epoch:      0,
		},
		Migration: migration.Default(),
		Guard:     guard,
		Writer:    audit.NewAsyncWriter(audit.New(memdb.New()), 16, nil),
		Metrics:   sm,
	}, sm
}

func safeDescriptorBytes() []byte {
	d := descriptor.Descriptor{
		Magic:   descriptor.MagicClassical,
		Version: descriptor.VersionClassical,
		Flags:   descriptor.FlagFileOps,
		Risk:    descriptor.RiskSafe,
	}
	wire := descriptor.Encode(d)
	return wire[:]
}

func TestSubmitUnknownVariantDeniesAndCounts(t *testing.T) {
	s, sm := buildTestSubmitter(t, 4)

	resp := s.Submit(context.Background(), SubmitRequest{Descriptor: []byte{0, 0, 0, 0}})
	require.Equal(t, coordinator.NetworkDeny.String(), resp.Decision)
	require.Equal(t, string(policy.ReasonBadMagic), resp.Reason)

	require.InDelta(t, 1, testutil.ToFloat64(sm.Submitted()), 0)
	require.InDelta(t, 1, testutil.ToFloat64(sm.Denied()), 0)
}

// noopKeystore knows no issuer, so every validator votes Deny with
// ReasonUnknownIssuer for an otherwise well-formed safe descriptor.
func TestSubmitSafeDescriptorUnknownIssuerDeniesAndCounts(t *testing.T) {
	s, sm := buildTestSubmitter(t, 4)

	resp := s.Submit(context.Background(), SubmitRequest{Descriptor: safeDescriptorBytes()})
	require.Equal(t, coordinator.NetworkDeny.String(), resp.Decision)
	require.Equal(t, string(policy.ReasonUnknownIssuer), resp.Reason)
	require.InDelta(t, 1, testutil.ToFloat64(sm.Denied()), 0)
	require.InDelta(t, 0, testutil.ToFloat64(sm.Allowed()), 0)
}

// TestSubmitWithSignerStillResolves confirms a configured Signer never
// blocks or changes a submission's outcome: attestation is a side
// channel on the sealed audit record, not a condition of Resolve's
// decision, so a signer that always succeeds must be fully transparent
// to the caller-visible response.
func TestSubmitWithSignerStillResolves(t *testing.T) {
	s, sm := buildTestSubmitter(t, 4)

	sk, err := bls.NewSecretKey()
	require.NoError(t, err)
	s.Signer = submitTestSigner{sk: sk}

	resp := s.Submit(context.Background(), SubmitRequest{Descriptor: safeDescriptorBytes()})
	require.Equal(t, coordinator.NetworkDeny.String(), resp.Decision)
	require.InDelta(t, 1, testutil.ToFloat64(sm.Denied()), 0)
}

type submitTestSigner struct {
	sk *bls.SecretKey
}

func (s submitTestSigner) Sign(msg *warp.Message) (*bls.Signature, error) {
	return s.sk.Sign(msg.Payload)
}
