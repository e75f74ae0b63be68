// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package integrity

import (
	"errors"

	rt "github.com/luxfi/crypto/ringtail"
)

// verifyLatticeProof checks a post-quantum proof fetched from the
// external proof store: a Ringtail certificate over Message under the
// group public key GroupKeyBytes.
func verifyLatticeProof(p Proof) error {
	if len(p.GroupKeyBytes) == 0 || len(p.Signature) == 0 {
		return errors.New("integrity: empty proof")
	}
	if !rt.Verify(p.GroupKeyBytes, p.Message, p.Signature) {
		return errors.New("integrity: ringtail certificate verification failed")
	}
	return nil
}
