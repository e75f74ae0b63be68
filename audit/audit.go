// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package audit implements the append-only, hash-chained record of
// every network decision: each record's ChainHash binds it to the
// record before it, so a reader can detect any truncation or
// tampering by recomputing the chain from the genesis record forward.
// The chain-linkage scheme mirrors the teacher's QuantumBundle.Hash,
// adapted from 3-second BLS-block bundles to one record per resolved
// descriptor.
package audit

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/database"
	"github.com/luxfi/warp"

	"github.com/luxfi/tcpcore/node"
)

// Record is one sealed network decision, content-addressed by its own
// ChainHash and linked to its predecessor by PreviousHash. Votes is the
// sorted-by-validator-ID list of verified votes the decision was
// derived from (coordinator.Resolution.Votes), not just a count: per
// spec §4.5/§4.6, reproducing who voted what is what lets an auditor
// independently re-derive the quorum decision from a sealed record.
type Record struct {
	Sequence     uint64
	Fingerprint  [32]byte
	Decision     uint8
	Reason       string
	Epoch        uint64
	Votes        []node.Vote
	Timestamp    int64
	PreviousHash [32]byte

	// Attestation is an optional cross-coordinator signature over
	// Hash(), produced by Attest. It is not part of the chain-hash
	// computation: two coordinators that sealed the same decision
	// without attestation still compute identical ChainHash values.
	Attestation []byte `json:"attestation,omitempty"`
}

// VoteCount reports how many verified votes the sealed decision carries.
func (r Record) VoteCount() int {
	return len(r.Votes)
}

// Hash returns the chain-linkage hash of r: every field except
// Attestation, in a fixed field order, so two independent coordinators
// sealing the same decision compute byte-identical chain hashes. Each
// vote is folded in using the same canonical encoding its own signature
// was computed over (node.SignableBytes), plus its signature, so the
// hash binds exactly who voted what and not merely how many did.
func (r Record) Hash() [32]byte {
	h := sha256.New()
	buf := make([]byte, 8)

	binary.BigEndian.PutUint64(buf, r.Sequence)
	h.Write(buf)
	h.Write(r.Fingerprint[:])
	h.Write([]byte{r.Decision})
	h.Write([]byte(r.Reason))
	binary.BigEndian.PutUint64(buf, r.Epoch)
	h.Write(buf)
	binary.BigEndian.PutUint64(buf, uint64(len(r.Votes)))
	h.Write(buf)
	for _, v := range r.Votes {
		h.Write(node.SignableBytes(v))
		h.Write(v.Signature)
	}
	binary.BigEndian.PutUint64(buf, uint64(r.Timestamp))
	h.Write(buf)
	h.Write(r.PreviousHash[:])

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Attest signs rec's chain hash with signer, producing a portable
// attestation a peer coordinator can verify without replaying the
// chain from genesis to confirm this record was honestly sealed. This
// is a side channel alongside ChainHash, not part of it: the 24-byte
// wire format and the chain-hash calculation stay wire-stable across
// deployments that do or don't carry cross-coordinator attestation.
func Attest(rec Record, signer warp.Signer) ([]byte, error) {
	h := rec.Hash()
	sig, err := signer.Sign(&warp.Message{Payload: h[:]})
	if err != nil {
		return nil, fmt.Errorf("audit: attesting record %d: %w", rec.Sequence, err)
	}
	return bls.SignatureToBytes(sig), nil
}

var (
	// ErrChainBroken is returned by VerifyChain when a record's
	// PreviousHash does not match the hash of the record before it.
	ErrChainBroken = errors.New("audit: chain hash mismatch")
	// ErrTruncated is returned when a sealed record (the tail Append
	// links onto, any record Iter walks, or the last acknowledged
	// sequence Recover checks) is missing from storage.
	ErrTruncated = errors.New("audit: sealed record missing from storage")
)

var (
	lastSeqKey = []byte("audit/last-sequence")
	lastAckKey = []byte("audit/last-ack")
)

func recordKey(seq uint64) []byte {
	key := make([]byte, 8+len("audit/record/"))
	copy(key, "audit/record/")
	binary.BigEndian.PutUint64(key[len("audit/record/"):], seq)
	return key
}

// Log is an append-only, hash-chained record store backed by a
// key-value database.
type Log struct {
	db database.Database
}

// New opens a Log over db. It does not validate existing content;
// call VerifyChain to check the stored chain's integrity.
func New(db database.Database) *Log {
	return &Log{db: db}
}

// Append seals rec onto the chain: it assigns Sequence and
// PreviousHash from the log's current tail, persists the record, and
// advances the durable last-sequence marker. It does not advance the
// last-ack marker; callers do that once the record has been
// successfully replicated or surfaced to an operator.
func (l *Log) Append(rec Record) (Record, error) {
	nextSeq := uint64(0)
	prevHash := [32]byte{}

	if has, err := l.db.Has(lastSeqKey); err != nil {
		return Record{}, fmt.Errorf("audit: checking last sequence: %w", err)
	} else if has {
		raw, err := l.db.Get(lastSeqKey)
		if err != nil {
			return Record{}, fmt.Errorf("audit: reading last sequence: %w", err)
		}
		lastSeq := binary.BigEndian.Uint64(raw)
		prev, ok, err := l.get(lastSeq)
		if err != nil {
			return Record{}, err
		}
		if !ok {
			return Record{}, ErrTruncated
		}
		prevHash = prev.Hash()
		nextSeq = lastSeq + 1
	}

	rec.Sequence = nextSeq
	rec.PreviousHash = prevHash

	blob, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("audit: marshalling record: %w", err)
	}
	if err := l.db.Put(recordKey(rec.Sequence), blob); err != nil {
		return Record{}, fmt.Errorf("audit: storing record: %w", err)
	}

	seqBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBuf, rec.Sequence)
	if err := l.db.Put(lastSeqKey, seqBuf); err != nil {
		return Record{}, fmt.Errorf("audit: advancing last sequence: %w", err)
	}

	return rec, nil
}

// Acknowledge durably marks seq as safely surfaced, so a future crash
// recovery refuses to silently truncate past it.
func (l *Log) Acknowledge(seq uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return l.db.Put(lastAckKey, buf)
}

func (l *Log) get(seq uint64) (Record, bool, error) {
	has, err := l.db.Has(recordKey(seq))
	if err != nil {
		return Record{}, false, fmt.Errorf("audit: checking record %d: %w", seq, err)
	}
	if !has {
		return Record{}, false, nil
	}
	raw, err := l.db.Get(recordKey(seq))
	if err != nil {
		return Record{}, false, fmt.Errorf("audit: reading record %d: %w", seq, err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, false, fmt.Errorf("audit: decoding record %d: %w", seq, err)
	}
	return rec, true, nil
}

// Iter yields every sealed record from genesis to the current tail in
// order. Errors mid-iteration stop the walk and are returned.
func (l *Log) Iter() ([]Record, error) {
	has, err := l.db.Has(lastSeqKey)
	if err != nil {
		return nil, fmt.Errorf("audit: checking last sequence: %w", err)
	}
	if !has {
		return nil, nil
	}
	raw, err := l.db.Get(lastSeqKey)
	if err != nil {
		return nil, fmt.Errorf("audit: reading last sequence: %w", err)
	}
	lastSeq := binary.BigEndian.Uint64(raw)

	records := make([]Record, 0, lastSeq+1)
	for seq := uint64(0); seq <= lastSeq; seq++ {
		rec, ok, err := l.get(seq)
		if err != nil {
			return records, err
		}
		if !ok {
			return records, fmt.Errorf("%w: sequence %d", ErrTruncated, seq)
		}
		records = append(records, rec)
	}
	return records, nil
}

// VerifyChain re-derives every record's hash and confirms each one's
// PreviousHash matches its predecessor's Hash, returning the first
// break found.
func VerifyChain(records []Record) error {
	prevHash := [32]byte{}
	for _, rec := range records {
		if rec.PreviousHash != prevHash {
			return fmt.Errorf("%w: at sequence %d", ErrChainBroken, rec.Sequence)
		}
		prevHash = rec.Hash()
	}
	return nil
}

// Recover checks the log at startup. With no last-ack marker it
// returns 0 without reading any record. Otherwise it confirms the
// acknowledged record is present, then reads every record from genesis
// to the tail and verifies the whole chain, returning ErrTruncated for
// any missing record and ErrChainBroken for any break. It never
// truncates the log. On success it returns the tail's sequence.
func (l *Log) Recover() (lastIntact uint64, err error) {
	hasAck, err := l.db.Has(lastAckKey)
	if err != nil {
		return 0, fmt.Errorf("audit: checking last-ack: %w", err)
	}
	if !hasAck {
		return 0, nil
	}
	raw, err := l.db.Get(lastAckKey)
	if err != nil {
		return 0, fmt.Errorf("audit: reading last-ack: %w", err)
	}
	ackSeq := binary.BigEndian.Uint64(raw)

	if _, ok, err := l.get(ackSeq); err != nil {
		return 0, err
	} else if !ok {
		return 0, fmt.Errorf("%w: acknowledged sequence %d", ErrTruncated, ackSeq)
	}

	records, err := l.Iter()
	if err != nil {
		return 0, err
	}
	if err := VerifyChain(records); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return records[len(records)-1].Sequence, nil
}
