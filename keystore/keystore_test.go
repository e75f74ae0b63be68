// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package keystore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/tcpcore/integrity"
)

func TestStorePublishAndRead(t *testing.T) {
	s := NewStore()
	_, ok := s.IssuerKey([4]byte{1, 2, 3, 4})
	require.False(t, ok)

	snap := NewBuilder(nil).
		WithProof([4]byte{9, 9, 9, 9}, integrity.Proof{Message: []byte("m")}).
		Build()
	s.Publish(snap)

	p, ok := s.Proof([4]byte{9, 9, 9, 9})
	require.True(t, ok)
	require.Equal(t, []byte("m"), p.Message)
}

func TestBuilderSeedsFromBase(t *testing.T) {
	s := NewStore()
	first := NewBuilder(nil).WithProof([4]byte{1}, integrity.Proof{Message: []byte("a")}).Build()
	s.Publish(first)

	second := NewBuilder(s.Current()).WithProof([4]byte{2}, integrity.Proof{Message: []byte("b")}).Build()
	s.Publish(second)

	_, ok := s.Proof([4]byte{1})
	require.True(t, ok, "prior proof should survive an incremental rebuild")
	_, ok = s.Proof([4]byte{2})
	require.True(t, ok)
}
