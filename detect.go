// detect.go: Black-box measurement of block size, mode, padding and hidden
// prefix and suffix lengths.
//
// Every detector here assumes the oracle is a pure function of its input for
// the duration of the measurement. Measurements that compare ciphertext
// bytes across calls reject oracles reporting Deterministic() == false.
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

// DefaultMaxQueries bounds DetectBlockSize when the caller passes 0.
const DefaultMaxQueries = 512

// repeat returns n copies of b.
func repeat(b byte, n int) []byte {
	return bytes.Repeat([]byte{b}, n)
}

// blockAt returns block i of ct, or false when ct is too short.
func blockAt(ct []byte, blockSize, i int) ([]byte, bool) {
	start := i * blockSize
	if i < 0 || start+blockSize > len(ct) {
		return nil, false
	}
	return ct[start : start+blockSize], true
}

func checkBlockSize(blockSize int) error {
	if blockSize < 1 || blockSize > 255 {
		return richError(ErrBlockSizeOutOfRange,
			goerrors.New(ErrCodeInvalidBlock, fmt.Sprintf("block size %d outside [1,255]", blockSize)))
	}
	return nil
}

// DetectBlockSize grows an all-filler input one byte at a time until the
// ciphertext length changes and returns the size of that jump. At most
// maxQueries inputs are tried (0 means DefaultMaxQueries).
//
// Only lengths are compared, so per-call IVs do not disturb it.
func DetectBlockSize(o Oracle, filler byte, maxQueries int) (int, error) {
	if maxQueries <= 0 {
		maxQueries = DefaultMaxQueries
	}
	base, err := oracleQuery(o, "block size", nil)
	if err != nil {
		return 0, err
	}

	for n := 1; n <= maxQueries; n++ {
		out, err := oracleQuery(o, "block size", repeat(filler, n))
		if err != nil {
			return 0, err
		}
		if len(out) != len(base) {
			jump := len(out) - len(base)
			if err := checkBlockSize(jump); err != nil {
				return 0, err
			}
			return jump, nil
		}
	}
	return 0, brokenOracle("block size", fmt.Sprintf("output length unchanged after %d queries", maxQueries))
}

// CountPrefixBlocks returns the number of leading ciphertext blocks owned
// entirely by the hidden prefix: the index of the first block that differs
// between the encryptions of [byte0] and [byte1].
func CountPrefixBlocks(o Oracle, blockSize int, byte0, byte1 byte) (int, error) {
	if err := requireDeterministic(o); err != nil {
		return 0, err
	}
	return countPrefixBlocks(o, blockSize, byte0, byte1)
}

func countPrefixBlocks(o Oracle, blockSize int, byte0, byte1 byte) (int, error) {
	if err := checkBlockSize(blockSize); err != nil {
		return 0, err
	}
	if byte0 == byte1 {
		return 0, brokenOracle("prefix blocks", "filler bytes must differ")
	}
	a, err := oracleQuery(o, "prefix blocks", []byte{byte0})
	if err != nil {
		return 0, err
	}
	b, err := oracleQuery(o, "prefix blocks", []byte{byte1})
	if err != nil {
		return 0, err
	}

	for i := 0; ; i++ {
		ba, okA := blockAt(a, blockSize, i)
		bb, okB := blockAt(b, blockSize, i)
		if !okA || !okB {
			return 0, brokenOracle("prefix blocks", "oracle produced same output for different input")
		}
		if !bytes.Equal(ba, bb) {
			return i, nil
		}
	}
}

// DetectECB submits three blocks of filler bytes and reports whether the
// two blocks following the prefix encrypt identically.
//
// On an oracle that reports itself nondeterministic the prefix cannot be
// measured across calls; the single ciphertext is scanned for any equal
// adjacent pair instead, which three blocks of input always contain under ECB.
// A block size of 1 means a stream mode and is reported as not ECB.
func DetectECB(o Oracle, blockSize int, filler byte) (bool, error) {
	if err := checkBlockSize(blockSize); err != nil {
		return false, err
	}
	if blockSize == 1 {
		return false, nil
	}
	ct, err := oracleQuery(o, "ecb", repeat(filler, 3*blockSize))
	if err != nil {
		return false, err
	}

	if requireDeterministic(o) != nil {
		for i := 0; ; i++ {
			a, okA := blockAt(ct, blockSize, i)
			b, okB := blockAt(ct, blockSize, i+1)
			if !okA || !okB {
				return false, nil
			}
			if bytes.Equal(a, b) {
				return true, nil
			}
		}
	}

	prefixBlocks, err := countPrefixBlocks(o, blockSize, filler, filler^0xff)
	if err != nil {
		return false, err
	}
	a, okA := blockAt(ct, blockSize, prefixBlocks+1)
	b, okB := blockAt(ct, blockSize, prefixBlocks+2)
	if !okA || !okB {
		return false, brokenOracle("ecb", "ciphertext shorter than prefix plus three blocks")
	}
	return bytes.Equal(a, b), nil
}

// DetectPrefixOffset returns how many prefix bytes occupy the block that
// starts at byteOffset. It drops filler bytes one at a time from a full
// block of input and reports the first drop that changes the ciphertext
// block at byteOffset.
//
// If the suffix happens to start with filler the result can be too large;
// DetectPrefixSize runs it with two filler bytes and keeps the minimum.
func DetectPrefixOffset(o Oracle, blockSize, byteOffset int, filler byte) (int, error) {
	if err := requireDeterministic(o); err != nil {
		return 0, err
	}
	if err := checkBlockSize(blockSize); err != nil {
		return 0, err
	}
	block := repeat(filler, blockSize)
	ref, err := oracleQuery(o, "prefix offset", block)
	if err != nil {
		return 0, err
	}
	if len(ref) < byteOffset+blockSize {
		return 0, brokenOracle("prefix offset", "ciphertext shorter than prefix plus one block")
	}
	ref = ref[byteOffset : byteOffset+blockSize]

	for position := 0; position < blockSize; position++ {
		cur, err := oracleQuery(o, "prefix offset", block[position+1:])
		if err != nil {
			return 0, err
		}
		if len(cur) < byteOffset+blockSize || !bytes.Equal(ref, cur[byteOffset:byteOffset+blockSize]) {
			return position, nil
		}
	}
	return blockSize, nil
}

// DetectPrefixSize returns the exact prefix length given the count of
// whole prefix blocks.
func DetectPrefixSize(o Oracle, blockSize, prefixBlocks int, byte0, byte1 byte) (int, error) {
	byteOffset := prefixBlocks * blockSize
	offset0, err := DetectPrefixOffset(o, blockSize, byteOffset, byte0)
	if err != nil {
		return 0, err
	}
	offset1, err := DetectPrefixOffset(o, blockSize, byteOffset, byte1)
	if err != nil {
		return 0, err
	}
	return byteOffset + min(offset0, offset1), nil
}

// DetectUsesPadding reports whether one byte of input grows the output by
// a whole number of blocks. A block size of 1 means a stream mode and is
// reported as unpadded.
func DetectUsesPadding(o Oracle, blockSize int, filler byte) (bool, error) {
	if err := checkBlockSize(blockSize); err != nil {
		return false, err
	}
	if blockSize == 1 {
		return false, nil
	}
	one, err := oracleQuery(o, "padding", []byte{filler})
	if err != nil {
		return false, err
	}
	empty, err := oracleQuery(o, "padding", nil)
	if err != nil {
		return false, err
	}
	return (len(one)-len(empty))%blockSize == 0, nil
}

// DetectPrefixPlusSuffixSize returns the number of hidden bytes around the
// input. Without padding that is the length of an empty query; with
// padding it is found by growing the input until the output gains a block.
func DetectPrefixPlusSuffixSize(o Oracle, blockSize int, filler byte) (int, error) {
	empty, err := oracleQuery(o, "prefix+suffix", nil)
	if err != nil {
		return 0, err
	}
	padded, err := DetectUsesPadding(o, blockSize, filler)
	if err != nil {
		return 0, err
	}
	alen := len(empty)
	if !padded || alen == 0 {
		return alen, nil
	}

	block := repeat(filler, blockSize)
	for position := 1; position <= blockSize; position++ {
		out, err := oracleQuery(o, "prefix+suffix", block[:position])
		if err != nil {
			return 0, err
		}
		if len(out) != alen {
			return alen - position, nil
		}
	}
	return 0, brokenOracle("prefix+suffix", "output length does not change with different length input")
}

// DetectPrefixAndSuffixSize returns the exact prefix and suffix lengths.
func DetectPrefixAndSuffixSize(o Oracle, blockSize int, byte0, byte1 byte) (prefixSize, suffixSize int, err error) {
	prefixBlocks, err := CountPrefixBlocks(o, blockSize, byte0, byte1)
	if err != nil {
		return 0, 0, err
	}
	prefixSize, err = DetectPrefixSize(o, blockSize, prefixBlocks, byte0, byte1)
	if err != nil {
		return 0, 0, err
	}
	total, err := DetectPrefixPlusSuffixSize(o, blockSize, byte0)
	if err != nil {
		return 0, 0, err
	}
	if total < prefixSize {
		return 0, 0, brokenOracle("prefix+suffix",
			fmt.Sprintf("hidden length %d smaller than prefix %d", total, prefixSize))
	}
	return prefixSize, total - prefixSize, nil
}
