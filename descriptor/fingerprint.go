// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package descriptor

import "crypto/sha256"

// Fingerprint is a hash over the 24 canonical descriptor bytes, used to
// bind votes and audit records to the exact descriptor they concern
// without carrying the raw bytes everywhere.
type Fingerprint [32]byte

// Fingerprint computes the Fingerprint of d's canonical encoding.
func (d Descriptor) Fingerprint() Fingerprint {
	b := Encode(d)
	return Fingerprint(sha256.Sum256(b[:]))
}

// FingerprintBytes computes the Fingerprint of a raw 24-byte wire
// descriptor without requiring it to parse successfully first — used
// to bind a fingerprint to descriptors that failed decode, so a denied
// vote can still reference the offending bytes.
func FingerprintBytes(raw []byte) Fingerprint {
	return Fingerprint(sha256.Sum256(raw))
}
