// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validators tracks the cluster's validator identities: each
// validator owns a stable 2-byte ID and an epoch-scoped keypair, and
// the set of valid IDs and weights is distributed out of band and
// swapped in atomically as new epochs begin.
package validators

import (
	"context"
	"fmt"

	"github.com/luxfi/crypto/bls"
)

// ID is a validator's stable 2-byte identity, unique across the
// cluster for the lifetime of its stake.
type ID uint16

func (v ID) String() string {
	return fmt.Sprintf("validator-%04x", uint16(v))
}

// Info is everything the cluster knows about one validator at a given
// epoch: its public key and voting weight.
type Info struct {
	ValidatorID ID
	PublicKey   *bls.PublicKey
	Weight      uint64
}

// Set is a read-only view over the validators active in one epoch.
type Set interface {
	Has(ID) bool
	Len() int
	List() []Info
	TotalWeight() uint64
	Get(ID) (Info, bool)
}

// State answers validator-set queries scoped by epoch, mirroring how a
// coordinator looks up who was entitled to vote at the time a
// descriptor was issued.
type State interface {
	GetValidatorSet(ctx context.Context, epoch uint64) (Set, error)
}

// Manager is the mutable side of validator tracking: stakers are added
// and removed per epoch, and Manager.GetValidators produces the Set
// snapshot State.GetValidatorSet serves.
type Manager interface {
	AddValidator(epoch uint64, info Info) error
	RemoveValidator(epoch uint64, id ID) error
	GetValidators(epoch uint64) (Set, error)
	GetValidator(epoch uint64, id ID) (Info, bool)
	TotalWeight(epoch uint64) (uint64, error)
	NumEpochs() int
	NumValidators(epoch uint64) int
	RegisterListener(l SetCallbackListener)
}

// SetCallbackListener is notified of membership and weight changes
// within an epoch's validator set.
type SetCallbackListener interface {
	OnValidatorAdded(id ID, weight uint64)
	OnValidatorRemoved(id ID, weight uint64)
	OnValidatorWeightChanged(id ID, oldWeight, newWeight uint64)
}

// Connector reports when a validator's transport connection comes up
// or down, independent of its epoch membership.
type Connector interface {
	Connected(ctx context.Context, id ID) error
	Disconnected(ctx context.Context, id ID) error
}
