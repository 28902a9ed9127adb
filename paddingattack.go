// paddingattack.go: CBC padding oracle decryption.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// DecryptCBCPaddingOracle decrypts iv ‖ ciphertext using only a padding
// validity signal and returns the unpadded plaintext.
//
// Each block is attacked on its own as a one-block message behind a forged
// IV. Bytes are recovered from last to first: with the intermediate bytes
// after position pos known, the forged IV is set so they decrypt to the
// padding value n = BlockSize-pos, and the 256 candidates for byte pos are
// tried until the padding is accepted. For n = 1 an accepted guess is
// confirmed by disturbing byte pos-1, since a longer padding may have
// matched by accident.
func DecryptCBCPaddingOracle(v PaddingValidator, iv IV, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%BlockSize != 0 {
		return nil, blockSizeError(len(ciphertext))
	}

	plaintext := make([]byte, 0, len(ciphertext))
	prev := iv
	for i := 0; i < len(ciphertext); i += BlockSize {
		block := ciphertext[i : i+BlockSize]
		intermediate, err := recoverIntermediate(v, block, len(plaintext))
		if err != nil {
			return nil, err
		}
		for j := range intermediate {
			plaintext = append(plaintext, intermediate[j]^prev[j])
		}
		copy(prev[:], block)
	}
	return UnpadPKCS7(plaintext, BlockSize)
}

// recoverIntermediate returns D(block) byte by byte. base is the offset of
// block in the message and only serves error reporting.
func recoverIntermediate(v PaddingValidator, block []byte, base int) ([]byte, error) {
	var intermediate [BlockSize]byte
	for pos := BlockSize - 1; pos >= 0; pos-- {
		n := byte(BlockSize - pos)

		var forged IV
		for j := pos + 1; j < BlockSize; j++ {
			forged[j] = intermediate[j] ^ n
		}

		found := false
		for guess := 0; guess <= 0xff; guess++ {
			forged[pos] = byte(guess)
			ok, err := v.ValidPadding(forged, block)
			if err != nil {
				return nil, goerrors.Wrap(err, ErrCodeOracle, "padding: oracle query failed")
			}
			if !ok {
				continue
			}
			if n == 1 && pos > 0 {
				check := forged
				check[pos-1] ^= 0xff
				ok, err = v.ValidPadding(check, block)
				if err != nil {
					return nil, goerrors.Wrap(err, ErrCodeOracle, "padding: oracle query failed")
				}
				if !ok {
					continue
				}
			}
			intermediate[pos] = byte(guess) ^ n
			found = true
			break
		}
		if !found {
			return nil, richError(&UnmatchedByteError{Position: base + pos},
				goerrors.New(ErrCodeUnmatchedByte, fmt.Sprintf("no IV byte produced valid padding at %d", base+pos)))
		}
	}
	return intermediate[:], nil
}
