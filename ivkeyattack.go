// ivkeyattack.go: Key recovery from CBC with IV = key.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"encoding/binary"
	"errors"
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// DefaultKeyRecoveryAttempts bounds RecoverCBCKeyFromIV when the caller passes 0.
const DefaultKeyRecoveryAttempts = 1 << 16

// RecoverCBCKeyFromIV recovers the key of a CBC victim that uses its key
// as IV and leaks rejected plaintext.
//
// It submits C1 ‖ M ‖ C1, with C1 the first block of a ciphertext from the
// victim. Decryption gives P1' = D(C1) ⊕ K and P3' = D(C1) ⊕ M, hence
// K = P1' ⊕ P3' ⊕ M. M starts at zero and is incremented whenever the
// victim happens to accept the forged text, up to maxAttempts tries
// (0 means DefaultKeyRecoveryAttempts).
func RecoverCBCKeyFromIV(v TextValidator, ciphertext []byte, maxAttempts int) (Key, error) {
	if len(ciphertext) < BlockSize {
		return Key{}, blockSizeError(len(ciphertext))
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultKeyRecoveryAttempts
	}

	c1 := ciphertext[:BlockSize]
	attack := make([]byte, 3*BlockSize)
	copy(attack, c1)
	copy(attack[2*BlockSize:], c1)
	middle := attack[BlockSize : 2*BlockSize]

	for attempt := 0; attempt < maxAttempts; attempt++ {
		binary.BigEndian.PutUint64(middle[8:], uint64(attempt))

		err := v.Validate(attack)
		if err == nil {
			continue
		}
		var rejected *InvalidTextError
		if !errors.As(err, &rejected) {
			return Key{}, goerrors.Wrap(err, ErrCodeOracle, "validate: oracle query failed")
		}
		if len(rejected.Plaintext) < 3*BlockSize {
			return Key{}, brokenOracle("iv key", "leaked plaintext shorter than three blocks")
		}

		material, err := XOR(rejected.Plaintext[:BlockSize], rejected.Plaintext[2*BlockSize:3*BlockSize])
		if err != nil {
			return Key{}, err
		}
		if err := XORInPlace(material, middle); err != nil {
			return Key{}, err
		}
		defer Zeroize(material)
		return NewKey(material)
	}
	return Key{}, richError(ErrKeyNotRecovered,
		goerrors.New(ErrCodeKeyRecovery, fmt.Sprintf("victim accepted all %d forged texts", maxAttempts)))
}
