// forge.go: CBC bit-flipping forgeries.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// FlipCBC returns a copy of ciphertext in which plaintext block target
// decrypts to desired instead of known. The delta known ⊕ desired is xored
// into ciphertext block target-1, whose own plaintext is destroyed.
//
// known and desired must have the same length, at most blockSize; they
// cover the first bytes of the target block. Block 0 cannot be targeted
// since its mask is the IV.
func FlipCBC(ciphertext []byte, blockSize, target int, known, desired []byte) ([]byte, error) {
	if err := checkBlockSize(blockSize); err != nil {
		return nil, err
	}
	if len(known) != len(desired) {
		return nil, lengthMismatch(len(known), len(desired))
	}
	if len(known) > blockSize {
		return nil, richError(ErrPayloadTooLarge,
			goerrors.New(ErrCodePayload, fmt.Sprintf("%d bytes do not fit a %d byte block", len(known), blockSize)))
	}
	if target < 1 || (target+1)*blockSize > len(ciphertext) {
		return nil, richError(&OffsetError{Length: len(ciphertext), Offset: target * blockSize},
			goerrors.New(ErrCodeInvalidOffset, "target block must have a preceding ciphertext block"))
	}

	delta, err := XOR(known, desired)
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), ciphertext...)
	start := (target - 1) * blockSize
	if err := XORInPlace(out[start:start+len(delta)], delta); err != nil {
		return nil, err
	}
	return out, nil
}

// ForgeCBCTrailer appends want to the message decrypted by the victim of a
// padded CBC oracle without knowing the key or the hidden data.
//
// The input is sized so that the hidden data ends on a block boundary and
// the final plaintext block is pure PKCS#7 padding, a block whose plaintext
// is therefore known. Flipping the preceding ciphertext block turns that
// block into pad(want). The block before it decrypts to garbage, so want
// should begin with a separator the victim's parser honours.
func ForgeCBCTrailer(o Oracle, blockSize int, filler byte, want []byte) ([]byte, error) {
	if err := checkBlockSize(blockSize); err != nil {
		return nil, err
	}
	if len(want) >= blockSize {
		return nil, richError(ErrPayloadTooLarge,
			goerrors.New(ErrCodePayload, fmt.Sprintf("payload must be shorter than %d bytes", blockSize)))
	}
	hidden, err := DetectPrefixPlusSuffixSize(o, blockSize, filler)
	if err != nil {
		return nil, err
	}
	if hidden == 0 {
		return nil, brokenOracle("trailer", "no hidden data to sacrifice a block of")
	}

	hiddenBlocks := (hidden + blockSize - 1) / blockSize
	fill := (blockSize - hidden%blockSize) % blockSize
	ct, err := oracleQuery(o, "trailer", repeat(filler, fill))
	if err != nil {
		return nil, err
	}
	if len(ct) != (hiddenBlocks+1)*blockSize {
		return nil, brokenOracle("trailer", "ciphertext does not end with a full padding block")
	}

	wanted, err := PadPKCS7(want, blockSize)
	if err != nil {
		return nil, err
	}
	if len(wanted) == 0 {
		wanted = repeat(byte(blockSize), blockSize)
	}
	return FlipCBC(ct, blockSize, hiddenBlocks, repeat(byte(blockSize), blockSize), wanted)
}

// InjectCBC forges a ciphertext whose plaintext contains want right after
// a sacrificial block that follows the prefix.
//
// The input is prefix alignment, one sacrificial block and
// len(want) more filler bytes. Flipping the sacrificial block
// turns the filler bytes after it into want. filler must pass through the
// victim's input encoding unchanged.
func InjectCBC(o Oracle, blockSize, prefixSize int, filler byte, want []byte) ([]byte, error) {
	if err := checkBlockSize(blockSize); err != nil {
		return nil, err
	}
	if len(want) > blockSize {
		return nil, richError(ErrPayloadTooLarge,
			goerrors.New(ErrCodePayload, fmt.Sprintf("payload must be at most %d bytes", blockSize)))
	}
	if prefixSize < 0 {
		return nil, brokenOracle("inject", "negative prefix size")
	}

	prefixPad := (blockSize - prefixSize%blockSize) % blockSize
	sacrificial := (prefixSize + prefixPad) / blockSize
	input := repeat(filler, prefixPad+blockSize+len(want))

	ct, err := oracleQuery(o, "inject", input)
	if err != nil {
		return nil, err
	}
	return FlipCBC(ct, blockSize, sacrificial+1, repeat(filler, len(want)), want)
}
