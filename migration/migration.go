// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package migration dispatches a raw descriptor submission to the
// codec/integrity variant its magic+version select, and tracks the
// deprecation window during which a retiring variant is still
// accepted but flagged for operators to migrate off of.
package migration

import (
	"fmt"
	"time"

	"github.com/luxfi/tcpcore/descriptor"
	"github.com/luxfi/tcpcore/version"
)

// Variant identifies one supported descriptor codec/integrity
// pairing.
type Variant struct {
	Magic   [4]byte
	Version descriptor.Version
	Release version.Version
}

var (
	// Classical is the v2 BLS-authenticated descriptor variant.
	Classical = Variant{Magic: descriptor.MagicClassical, Version: descriptor.VersionClassical, Release: version.Version{Major: 1, Minor: 0, Patch: 0}}
	// PostQuantum is the v3 Ringtail-authenticated descriptor variant.
	PostQuantum = Variant{Magic: descriptor.MagicPQ, Version: descriptor.VersionPQ, Release: version.Version{Major: 1, Minor: 1, Patch: 0}}
)

// Deprecation records that a variant is scheduled for retirement in
// favor of Successor: it is still accepted (Dispatch continues to
// resolve it) until Sunset, after which submissions in that variant
// should be Denied upstream by policy rather than Dispatch itself,
// keeping the decision auditable.
type Deprecation struct {
	Variant   Variant
	Successor Variant
	Sunset    time.Time
}

// Table holds the set of currently-recognized variants and any
// in-flight deprecations.
type Table struct {
	variants     map[[4]byte]Variant
	deprecations map[[4]byte]Deprecation
}

// Default returns the baseline table: classical and post-quantum both
// current, no deprecations in flight.
func Default() *Table {
	t := &Table{
		variants:     make(map[[4]byte]Variant),
		deprecations: make(map[[4]byte]Deprecation),
	}
	t.variants[Classical.Magic] = Classical
	t.variants[PostQuantum.Magic] = PostQuantum
	return t
}

// Deprecate marks v as scheduled for retirement at sunset in favor of
// successor. successor's release must genuinely supersede v's — a
// deprecation naming a successor that isn't actually newer would let
// an operator retire a variant in favor of one an issuer could not yet
// have adopted, breaking the §4.8 compatibility rule that an upgrading
// issuer continues honouring the retiring variant through its window.
func (t *Table) Deprecate(v, successor Variant, sunset time.Time) error {
	if !v.Release.Before(successor.Release) {
		return fmt.Errorf("migration: successor release %s does not supersede %s", successor.Release, v.Release)
	}
	t.deprecations[v.Magic] = Deprecation{Variant: v, Successor: successor, Sunset: sunset}
	return nil
}

// Dispatch resolves a raw descriptor's magic bytes to its Variant. It
// does not decode the descriptor itself; that remains the codec's job.
func (t *Table) Dispatch(raw []byte) (Variant, bool) {
	if len(raw) < 4 {
		return Variant{}, false
	}
	var magic [4]byte
	copy(magic[:], raw[0:4])
	v, ok := t.variants[magic]
	return v, ok
}

// DeprecationFor reports whether v has an in-flight deprecation and,
// if so, the Deprecation record.
func (t *Table) DeprecationFor(v Variant) (Deprecation, bool) {
	d, ok := t.deprecations[v.Magic]
	return d, ok
}

// IsSunset reports whether v's deprecation window has already closed
// as of now.
func (t *Table) IsSunset(v Variant, now time.Time) bool {
	d, ok := t.DeprecationFor(v)
	if !ok {
		return false
	}
	return !now.Before(d.Sunset)
}
