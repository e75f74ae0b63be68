// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package keystore publishes the signing-key and proof-store material
// the Integrity Layer needs to verify descriptors, as an immutable
// snapshot that can be swapped in atomically — the same
// read-mostly/atomic-swap shape config/runtime.go uses for cluster
// parameters, applied here to key material instead.
package keystore

import (
	"sync"

	"github.com/luxfi/crypto/bls"

	"github.com/luxfi/tcpcore/integrity"
)

// Snapshot is one immutable view of the keystore's contents: never
// mutated in place, only ever replaced wholesale by Publish.
type Snapshot struct {
	Issuers map[[4]byte]*bls.PublicKey
	Proofs  map[[4]byte]integrity.Proof
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Issuers: make(map[[4]byte]*bls.PublicKey),
		Proofs:  make(map[[4]byte]integrity.Proof),
	}
}

// Store is a keystore whose contents are published atomically: a
// writer builds a full new Snapshot and calls Publish, while readers
// calling IssuerKey/Proof always see a complete, consistent snapshot
// and never a partially updated one.
type Store struct {
	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewStore returns a Store with an empty initial snapshot.
func NewStore() *Store {
	return &Store{snapshot: emptySnapshot()}
}

// Publish atomically replaces the store's snapshot.
func (s *Store) Publish(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
}

// Current returns the currently published snapshot.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// IssuerKey implements integrity.Keystore.
func (s *Store) IssuerKey(commandHash [4]byte) (*bls.PublicKey, bool) {
	snap := s.Current()
	pk, ok := snap.Issuers[commandHash]
	return pk, ok
}

// Proof implements integrity.Keystore.
func (s *Store) Proof(selector [4]byte) (integrity.Proof, bool) {
	snap := s.Current()
	p, ok := snap.Proofs[selector]
	return p, ok
}

// Builder accumulates issuer keys and proofs for one Snapshot before
// it is published, so a reader never observes a Store mid-update.
type Builder struct {
	snap *Snapshot
}

// NewBuilder starts a new snapshot build, optionally seeded from the
// store's current contents so unrelated keys survive an incremental
// update.
func NewBuilder(base *Snapshot) *Builder {
	b := &Builder{snap: emptySnapshot()}
	if base != nil {
		for k, v := range base.Issuers {
			b.snap.Issuers[k] = v
		}
		for k, v := range base.Proofs {
			b.snap.Proofs[k] = v
		}
	}
	return b
}

// WithIssuer registers a classical issuer's public key under
// commandHash.
func (b *Builder) WithIssuer(commandHash [4]byte, pk *bls.PublicKey) *Builder {
	b.snap.Issuers[commandHash] = pk
	return b
}

// WithProof registers a post-quantum proof under its selector.
func (b *Builder) WithProof(selector [4]byte, proof integrity.Proof) *Builder {
	b.snap.Proofs[selector] = proof
	return b
}

// Build returns the finished Snapshot, ready for Store.Publish.
func (b *Builder) Build() *Snapshot {
	return b.snap
}
