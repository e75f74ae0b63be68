// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package descriptor encodes and decodes the fixed 24-byte capability
// descriptor: the wire format an agent obtains for a proposed command
// and submits for validation. Parsing validates magic, version,
// structural CRC, and the cross-field risk/flag invariants before a
// descriptor is considered well-formed.
package descriptor

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/snksoft/crc"
)

// Size is the fixed wire size of a descriptor, in bytes.
const Size = 24

// Magic identifies the variant family. Classical (v2) and
// post-quantum (v3) share this codec; only the Integrity Layer differs
// between them.
var (
	MagicClassical = [4]byte{'T', 'C', 'P', 0x02}
	MagicPQ        = [4]byte{'T', 'C', 'P', 0x03}
)

// Version is the descriptor's major format version.
type Version uint8

const (
	VersionClassical Version = 2
	VersionPQ        Version = 3
)

// CapabilityFlags is the bitset of effect classes a command may cause.
type CapabilityFlags uint16

const (
	FlagFileOps CapabilityFlags = 1 << iota
	FlagNetwork
	FlagDestructive
	FlagSystem
	FlagSudo
	FlagProcess
	FlagCrypto
	FlagKernel

	// knownFlagsMask covers every bit this version of the codec assigns
	// meaning to; bits outside it are reserved.
	knownFlagsMask = FlagFileOps | FlagNetwork | FlagDestructive | FlagSystem |
		FlagSudo | FlagProcess | FlagCrypto | FlagKernel
)

// Has reports whether f contains every flag in mask.
func (f CapabilityFlags) Has(mask CapabilityFlags) bool {
	return f&mask == mask
}

// Reserved returns the bits of f outside the known flag set.
func (f CapabilityFlags) Reserved() CapabilityFlags {
	return f &^ knownFlagsMask
}

// RiskLevel is the ordinal severity of a descriptor's command.
type RiskLevel uint8

const (
	RiskSafe RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskSafe:
		return "SAFE"
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	case RiskCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// PerformanceEnvelope packs expected latency, memory, and I/O bounds
// into the descriptor's 6-byte performance field: a 2-byte latency
// class, a 2-byte memory class, and a 2-byte I/O class, each a bounded
// numeric scale rather than raw units.
type PerformanceEnvelope struct {
	LatencyClass uint16
	MemoryClass  uint16
	IOClass      uint16
}

// Authenticator is the variant-dependent 4-byte integrity field: for
// classical descriptors a truncated signature, for PQ descriptors a
// selector (truncated hash) into the external proof store.
type Authenticator [4]byte

// Descriptor is the parsed, validated form of the 24-byte wire record.
type Descriptor struct {
	Magic         [4]byte
	Version       Version
	CommandHash   [4]byte
	Flags         CapabilityFlags
	Risk          RiskLevel
	Perf          PerformanceEnvelope
	Authenticator Authenticator
}

// ParseError is a terminal failure class returned by Decode. The zero
// value is never returned from a failing decode; a present code always
// carries a non-empty reason.
type ParseError struct {
	Code ParseErrorCode
}

func (e *ParseError) Error() string {
	return "descriptor: " + string(e.Code)
}

// ParseErrorCode enumerates the taxonomy of Codec-local parse failures.
type ParseErrorCode string

const (
	ErrBadMagic          ParseErrorCode = "bad_magic"
	ErrUnsupportedVer    ParseErrorCode = "unsupported_version"
	ErrCrcMismatch       ParseErrorCode = "crc_mismatch"
	ErrFlagRiskConflict  ParseErrorCode = "flag_risk_conflict"
	ErrOutOfRangeField   ParseErrorCode = "out_of_range_field"
	ErrWrongLength       ParseErrorCode = "bad_magic" // length mismatch is a BadMagic-equivalent terminal error
)

// Mode selects how Decode treats reserved capability-flag bits. It is
// a deployment-wide choice, mirroring the Integrity Layer's hybrid
// Mode: not a per-request parameter.
type Mode uint8

const (
	// ModeStrict rejects any descriptor carrying non-zero reserved
	// capability bits as a terminal ErrOutOfRangeField, same as an
	// out-of-range risk level.
	ModeStrict Mode = iota
	// ModeLenient preserves reserved bits instead of rejecting them, so
	// a descriptor that sets an as-yet-unassigned flag still reaches
	// the Policy Engine, whose own unknown-flag tie-break defers
	// rather than denies.
	ModeLenient
)

var crcTable = crc.NewTable(crc.CCITT)

// crc16 computes the CRC-16/CCITT-FALSE checksum over b, the fixed
// polynomial used for bytes 0..21 of every descriptor.
func crc16(b []byte) uint16 {
	return uint16(crc.CalculateCRC(crcTable, b))
}

// Decode parses exactly 24 bytes into a Descriptor in ModeStrict,
// rejecting reserved capability bits as a terminal error. It is
// equivalent to DecodeMode(b, ModeStrict).
func Decode(b []byte) (Descriptor, error) {
	return DecodeMode(b, ModeStrict)
}

// DecodeMode parses exactly 24 bytes into a Descriptor. It always
// performs magic, version, CRC, and cross-field checks over the same
// memory regions regardless of where the descriptor is ultimately
// found invalid — the returned error tag carries the failure class,
// there is no early-exit branch structure a timing oracle could
// exploit to learn which check failed first. mode only changes whether
// reserved capability bits are a terminal failure (ModeStrict) or are
// preserved in the returned Descriptor for the Policy Engine to see
// (ModeLenient); every other field is validated identically.
func DecodeMode(b []byte, mode Mode) (Descriptor, error) {
	if len(b) != Size {
		return Descriptor{}, &ParseError{Code: ErrWrongLength}
	}

	var d Descriptor
	copy(d.Magic[:], b[0:4])
	d.Version = Version(b[4])
	copy(d.CommandHash[:], b[5:9])
	d.Flags = CapabilityFlags(binary.BigEndian.Uint16(b[9:11]))
	d.Risk = RiskLevel(b[11])
	d.Perf = PerformanceEnvelope{
		LatencyClass: binary.BigEndian.Uint16(b[12:14]),
		MemoryClass:  binary.BigEndian.Uint16(b[14:16]),
		IOClass:      binary.BigEndian.Uint16(b[16:18]),
	}
	copy(d.Authenticator[:], b[18:22])
	wantCRC := binary.BigEndian.Uint16(b[22:24])

	gotCRC := crc16(b[0:22])
	magicOK := d.Magic == MagicClassical || d.Magic == MagicPQ
	versionOK := (d.Magic == MagicClassical && d.Version == VersionClassical) ||
		(d.Magic == MagicPQ && d.Version == VersionPQ)
	crcOK := gotCRC == wantCRC
	reservedOK := mode == ModeLenient || d.Flags.Reserved() == 0
	flagsOK := d.Risk <= RiskCritical && reservedOK
	invariantOK := checkInvariants(d.Flags, d.Risk)

	// Evaluate every class in a fixed order, matching field offset
	// order, so a failing decode does the same work as a succeeding
	// one before reporting which class failed.
	switch {
	case !magicOK:
		return Descriptor{}, &ParseError{Code: ErrBadMagic}
	case !versionOK:
		return Descriptor{}, &ParseError{Code: ErrUnsupportedVer}
	case !crcOK:
		return Descriptor{}, &ParseError{Code: ErrCrcMismatch}
	case !flagsOK:
		return Descriptor{}, &ParseError{Code: ErrOutOfRangeField}
	case !invariantOK:
		return Descriptor{}, &ParseError{Code: ErrFlagRiskConflict}
	}

	return d, nil
}

// checkInvariants enforces the risk/flag cross-field rules from the
// descriptor's data model: DESTRUCTIVE and SUDO both require at least
// HIGH risk, KERNEL requires exactly CRITICAL, and SAFE may only carry
// FILE_OPS among the known flags. Reserved bits are not considered
// here; ModeStrict rejects them before this check runs.
func checkInvariants(flags CapabilityFlags, risk RiskLevel) bool {
	if flags.Has(FlagDestructive) && risk < RiskHigh {
		return false
	}
	if flags.Has(FlagSudo) && risk < RiskHigh {
		return false
	}
	if flags.Has(FlagKernel) && risk != RiskCritical {
		return false
	}
	if risk == RiskSafe && (flags&knownFlagsMask&^FlagFileOps) != 0 {
		return false
	}
	return true
}

// Encode serialises a Descriptor into its canonical 24-byte form.
// Encode never fails for a well-formed Descriptor; EncodeStrict should
// be used when out-of-range values must be rejected rather than
// clamped.
func Encode(d Descriptor) [Size]byte {
	b, _ := encode(d, false)
	return b
}

// EncodeStrict behaves like Encode but panics on an out-of-range field
// instead of clamping it, for use in debug/test builds where a
// malformed Descriptor indicates a programming error upstream.
func EncodeStrict(d Descriptor) [Size]byte {
	b, err := encode(d, true)
	if err != nil {
		panic(err)
	}
	return b
}

func encode(d Descriptor, strict bool) ([Size]byte, error) {
	var out [Size]byte

	if d.Risk > RiskCritical {
		if strict {
			return out, fmt.Errorf("descriptor: risk level %d out of range", d.Risk)
		}
		d.Risk = RiskCritical
	}
	if d.Flags.Reserved() != 0 {
		if strict {
			return out, errors.New("descriptor: reserved capability bits set")
		}
		d.Flags &= knownFlagsMask
	}

	copy(out[0:4], d.Magic[:])
	out[4] = byte(d.Version)
	copy(out[5:9], d.CommandHash[:])
	binary.BigEndian.PutUint16(out[9:11], uint16(d.Flags))
	out[11] = byte(d.Risk)
	binary.BigEndian.PutUint16(out[12:14], d.Perf.LatencyClass)
	binary.BigEndian.PutUint16(out[14:16], d.Perf.MemoryClass)
	binary.BigEndian.PutUint16(out[16:18], d.Perf.IOClass)
	copy(out[18:22], d.Authenticator[:])
	binary.BigEndian.PutUint16(out[22:24], crc16(out[0:22]))

	return out, nil
}

// IsPQ reports whether the descriptor's magic selects the
// post-quantum variant.
func (d Descriptor) IsPQ() bool {
	return d.Magic == MagicPQ
}
