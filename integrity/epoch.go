// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package integrity

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/crypto/bls"
	rt "github.com/luxfi/crypto/ringtail"
)

// EpochKeys holds one epoch's classical and post-quantum keypairs for
// a single validator.
type EpochKeys struct {
	Epoch uint64

	BLSSecretKey *bls.SecretKey
	BLSPublicKey *bls.PublicKey

	PQSecretKey []byte
	PQPublicKey []byte

	IssuedAt time.Time
}

// EpochManager rotates a validator's signing keys on a bounded cadence:
// no sooner than MinEpochDuration, forced after MaxEpochDuration, with
// a bounded history of retired epochs kept so signatures issued just
// before a rotation still verify during the overlap window.
type EpochManager struct {
	mu sync.RWMutex

	minDuration  time.Duration
	maxDuration  time.Duration
	historyLimit int

	current EpochKeys
	history []EpochKeys // most recent first, length capped at historyLimit
}

// NewEpochManager constructs a manager and generates its first epoch's
// keys immediately.
func NewEpochManager(minDuration, maxDuration time.Duration, historyLimit int) (*EpochManager, error) {
	if historyLimit <= 0 {
		historyLimit = 1
	}
	em := &EpochManager{
		minDuration:  minDuration,
		maxDuration:  maxDuration,
		historyLimit: historyLimit,
	}
	keys, err := generateEpochKeys(0)
	if err != nil {
		return nil, fmt.Errorf("integrity: initial epoch key generation: %w", err)
	}
	em.current = keys
	return em, nil
}

func generateEpochKeys(epoch uint64) (EpochKeys, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return EpochKeys{}, err
	}
	blsSK, err := bls.SecretKeyFromSeed(seed)
	if err != nil {
		return EpochKeys{}, fmt.Errorf("bls key generation: %w", err)
	}

	pqSeed := make([]byte, 32)
	if _, err := rand.Read(pqSeed); err != nil {
		return EpochKeys{}, err
	}
	pqSK, pqPK, err := rt.KeyGen(pqSeed)
	if err != nil {
		return EpochKeys{}, fmt.Errorf("ringtail key generation: %w", err)
	}

	return EpochKeys{
		Epoch:        epoch,
		BLSSecretKey: blsSK,
		BLSPublicKey: blsSK.PublicKey(),
		PQSecretKey:  pqSK,
		PQPublicKey:  pqPK,
		IssuedAt:     time.Now(),
	}, nil
}

// Current returns the active epoch's keys.
func (em *EpochManager) Current() EpochKeys {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return em.current
}

// ForEpoch returns the keys for a specific epoch if it is either
// current or within the retained history, for verifying signatures
// issued during an overlap window.
func (em *EpochManager) ForEpoch(epoch uint64) (EpochKeys, bool) {
	em.mu.RLock()
	defer em.mu.RUnlock()

	if em.current.Epoch == epoch {
		return em.current, true
	}
	for _, k := range em.history {
		if k.Epoch == epoch {
			return k, true
		}
	}
	return EpochKeys{}, false
}

// TimeUntilNextRotation reports how long until MaxEpochDuration forces
// a rotation, or zero if that time has already passed.
func (em *EpochManager) TimeUntilNextRotation() time.Duration {
	em.mu.RLock()
	defer em.mu.RUnlock()

	deadline := em.current.IssuedAt.Add(em.maxDuration)
	remaining := time.Until(deadline)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Eligible reports whether RotateIfDue(force) would perform a rotation
// right now, without generating keys or mutating state. It lets a
// caller (the operator CLI's rotate-keys --dry-run) preview the
// outcome before committing to fresh key material.
func (em *EpochManager) Eligible(force bool) bool {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return em.eligibleLocked(force)
}

func (em *EpochManager) eligibleLocked(force bool) bool {
	elapsed := time.Since(em.current.IssuedAt)
	if elapsed < em.minDuration {
		return false
	}
	if !force && elapsed < em.maxDuration {
		return false
	}
	return true
}

// RotateIfDue rotates the epoch if MinEpochDuration has elapsed since
// the current epoch began and either MaxEpochDuration has elapsed or
// force is true. It returns whether a rotation occurred.
func (em *EpochManager) RotateIfDue(force bool) (bool, error) {
	em.mu.Lock()
	defer em.mu.Unlock()

	if !em.eligibleLocked(force) {
		return false, nil
	}

	next, err := generateEpochKeys(em.current.Epoch + 1)
	if err != nil {
		return false, fmt.Errorf("integrity: epoch rotation: %w", err)
	}

	em.history = append([]EpochKeys{em.current}, em.history...)
	if len(em.history) > em.historyLimit {
		em.history = em.history[:em.historyLimit]
	}
	em.current = next
	return true, nil
}

// Stats summarizes the manager's state for the Operator CLI's status
// command.
type Stats struct {
	CurrentEpoch      uint64
	HistorySize       int
	NextRotationHint  time.Duration
}

func (em *EpochManager) StatsSnapshot() Stats {
	em.mu.RLock()
	defer em.mu.RUnlock()

	deadline := em.current.IssuedAt.Add(em.maxDuration)
	remaining := time.Until(deadline)
	if remaining < 0 {
		remaining = 0
	}
	return Stats{
		CurrentEpoch:     em.current.Epoch,
		HistorySize:      len(em.history),
		NextRotationHint: remaining,
	}
}
