// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package validators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	added, removed int
}

func (l *recordingListener) OnValidatorAdded(ID, uint64)             { l.added++ }
func (l *recordingListener) OnValidatorRemoved(ID, uint64)           { l.removed++ }
func (l *recordingListener) OnValidatorWeightChanged(ID, uint64, uint64) {}

func TestManagerAddRemove(t *testing.T) {
	m := NewManager()
	listener := &recordingListener{}
	m.RegisterListener(listener)

	require.NoError(t, m.AddValidator(1, Info{ValidatorID: 1, Weight: 10}))
	require.NoError(t, m.AddValidator(1, Info{ValidatorID: 2, Weight: 20}))

	total, err := m.TotalWeight(1)
	require.NoError(t, err)
	require.Equal(t, uint64(30), total)
	require.Equal(t, 2, m.NumValidators(1))
	require.Equal(t, 2, listener.added)

	require.NoError(t, m.RemoveValidator(1, 1))
	require.Equal(t, 1, m.NumValidators(1))
	require.Equal(t, 1, listener.removed)

	require.Error(t, m.RemoveValidator(1, 99))
}

func TestManagerEmptyEpoch(t *testing.T) {
	m := NewManager()
	set, err := m.GetValidators(42)
	require.NoError(t, err)
	require.Equal(t, 0, set.Len())
	require.Equal(t, uint64(0), set.TotalWeight())
}
