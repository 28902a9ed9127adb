// ecbdecrypt.go: Byte-at-a-time recovery of an ECB oracle's hidden suffix.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"bytes"
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// DecryptSuffix recovers the suffixSize hidden bytes an ECB oracle appends
// to the input, given the exact prefix length.
//
// Filler bytes are chosen so that suffix byte i is the last byte of a
// ciphertext block. That block is requested once as the reference, then
// all 256 candidates are appended to the filler plus the bytes recovered so
// far until one reproduces it. The first matching candidate wins; a real
// collision at fixed plaintext would need an AES collision.
//
// If no candidate matches, the returned error is an *UnmatchedByteError
// carrying the bytes recovered before the failing position.
func DecryptSuffix(o Oracle, blockSize, prefixSize, suffixSize int) ([]byte, error) {
	if err := requireDeterministic(o); err != nil {
		return nil, err
	}
	if err := checkBlockSize(blockSize); err != nil {
		return nil, err
	}
	if prefixSize < 0 || suffixSize < 0 {
		return nil, brokenOracle("suffix", "negative prefix or suffix size")
	}
	if suffixSize == 0 {
		return []byte{}, nil
	}

	prefixBlocks := (prefixSize + blockSize - 1) / blockSize
	prefixPad := (blockSize - prefixSize%blockSize) % blockSize

	// blocks holds the filler followed by every recovered byte. Dropping
	// skip leading bytes shifts the target byte into the last slot.
	blocks := make([]byte, prefixPad+blockSize-1, prefixPad+blockSize-1+suffixSize+1)

	table := make([][]byte, blockSize)
	for skip := 0; skip < blockSize; skip++ {
		ct, err := oracleQuery(o, "suffix", blocks[skip:])
		if err != nil {
			return nil, err
		}
		table[skip] = ct
	}

	suffix := make([]byte, 0, suffixSize)
	for index := 0; index < suffixSize; index++ {
		skipIndex := prefixBlocks + index/blockSize
		skip := index % blockSize

		ref, ok := blockAt(table[skip], blockSize, skipIndex)
		if !ok {
			return nil, brokenOracle("suffix",
				fmt.Sprintf("reference ciphertext has no block %d", skipIndex))
		}

		matched := false
		blocks = append(blocks, 0)
		for candidate := 0; candidate <= 0xff; candidate++ {
			blocks[len(blocks)-1] = byte(candidate)
			ct, err := oracleQuery(o, "suffix", blocks[skip:])
			if err != nil {
				return nil, err
			}
			got, ok := blockAt(ct, blockSize, skipIndex)
			if ok && bytes.Equal(ref, got) {
				suffix = append(suffix, byte(candidate))
				matched = true
				break
			}
		}
		if !matched {
			return nil, richError(&UnmatchedByteError{Position: index, Recovered: append([]byte(nil), suffix...)},
				goerrors.New(ErrCodeUnmatchedByte, fmt.Sprintf("no candidate reproduced block %d", skipIndex)))
		}
	}
	return suffix, nil
}
