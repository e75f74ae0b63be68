// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package validators

import (
	"context"
	"fmt"
	"sync"
)

// NewManager returns an in-memory Manager, the reference implementation
// used by the reference deployment and by tests.
func NewManager() Manager {
	return &manager{
		epochs: make(map[uint64]map[ID]Info),
	}
}

type manager struct {
	mu        sync.RWMutex
	epochs    map[uint64]map[ID]Info
	listeners []SetCallbackListener
}

func (m *manager) AddValidator(epoch uint64, info Info) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epochs[epoch] == nil {
		m.epochs[epoch] = make(map[ID]Info)
	}
	old, existed := m.epochs[epoch][info.ValidatorID]
	m.epochs[epoch][info.ValidatorID] = info

	for _, l := range m.listeners {
		if existed {
			l.OnValidatorWeightChanged(info.ValidatorID, old.Weight, info.Weight)
		} else {
			l.OnValidatorAdded(info.ValidatorID, info.Weight)
		}
	}
	return nil
}

func (m *manager) RemoveValidator(epoch uint64, id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.epochs[epoch]
	if !ok {
		return fmt.Errorf("validators: epoch %d not found", epoch)
	}
	info, ok := set[id]
	if !ok {
		return fmt.Errorf("validators: %s not found in epoch %d", id, epoch)
	}
	delete(set, id)
	if len(set) == 0 {
		delete(m.epochs, epoch)
	}

	for _, l := range m.listeners {
		l.OnValidatorRemoved(id, info.Weight)
	}
	return nil
}

func (m *manager) GetValidators(epoch uint64) (Set, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.epochs[epoch]
	if !ok {
		return emptySet{}, nil
	}
	snapshot := make(map[ID]Info, len(set))
	for k, v := range set {
		snapshot[k] = v
	}
	return validatorSet{validators: snapshot}, nil
}

func (m *manager) GetValidator(epoch uint64, id ID) (Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.epochs[epoch]
	if !ok {
		return Info{}, false
	}
	info, ok := set[id]
	return info, ok
}

func (m *manager) TotalWeight(epoch uint64) (uint64, error) {
	set, err := m.GetValidators(epoch)
	if err != nil {
		return 0, err
	}
	return set.TotalWeight(), nil
}

func (m *manager) NumEpochs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.epochs)
}

func (m *manager) NumValidators(epoch uint64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.epochs[epoch])
}

func (m *manager) RegisterListener(l SetCallbackListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// GetValidatorSet implements State by delegating to GetValidators; it
// is the read path an epoch-scoped consensus coordinator uses to
// decide who is entitled to vote on a given descriptor.
func (m *manager) GetValidatorSet(_ context.Context, epoch uint64) (Set, error) {
	return m.GetValidators(epoch)
}

type validatorSet struct {
	validators map[ID]Info
}

func (s validatorSet) Has(id ID) bool { _, ok := s.validators[id]; return ok }
func (s validatorSet) Len() int       { return len(s.validators) }

func (s validatorSet) List() []Info {
	out := make([]Info, 0, len(s.validators))
	for _, v := range s.validators {
		out = append(out, v)
	}
	return out
}

func (s validatorSet) TotalWeight() uint64 {
	var total uint64
	for _, v := range s.validators {
		total += v.Weight
	}
	return total
}

func (s validatorSet) Get(id ID) (Info, bool) {
	v, ok := s.validators[id]
	return v, ok
}

type emptySet struct{}

func (emptySet) Has(ID) bool          { return false }
func (emptySet) Len() int             { return 0 }
func (emptySet) List() []Info         { return nil }
func (emptySet) TotalWeight() uint64  { return 0 }
func (emptySet) Get(ID) (Info, bool)  { return Info{}, false }
