// cutpaste.go: ECB cut-and-paste forgery.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// CutAndPasteECB replaces the last tailSize bytes of an ECB oracle's hidden
// suffix with replacement, using two encryptions and no key.
//
// The first query aligns pad(replacement) on a block boundary right after
// the prefix and cuts those blocks out. The second sizes the input so the
// tail starts a fresh block; the ciphertext is truncated there and the cut
// blocks are appended. replacement must survive the oracle's input
// encoding unchanged, including its PKCS#7 padding bytes.
func CutAndPasteECB(o Oracle, blockSize, prefixSize, suffixSize, tailSize int, filler byte, replacement []byte) ([]byte, error) {
	if err := requireDeterministic(o); err != nil {
		return nil, err
	}
	if err := checkBlockSize(blockSize); err != nil {
		return nil, err
	}
	if prefixSize < 0 || tailSize < 0 || tailSize > suffixSize {
		return nil, richError(ErrPayloadTooLarge,
			goerrors.New(ErrCodePayload, fmt.Sprintf("tail of %d bytes does not fit a %d byte suffix", tailSize, suffixSize)))
	}
	if len(replacement) == 0 {
		return nil, richError(ErrPayloadTooLarge, goerrors.New(ErrCodePayload, "replacement cannot be empty"))
	}

	prefixBlocks := (prefixSize + blockSize - 1) / blockSize
	prefixPad := (blockSize - prefixSize%blockSize) % blockSize
	suffixPad := (blockSize - suffixSize%blockSize) % blockSize

	paddedReplacement, err := PadPKCS7(replacement, blockSize)
	if err != nil {
		return nil, err
	}

	input := append(repeat(filler, prefixPad), paddedReplacement...)
	ct, err := oracleQuery(o, "cut", input)
	if err != nil {
		return nil, err
	}
	start := prefixBlocks * blockSize
	if len(ct) < start+len(paddedReplacement) {
		return nil, brokenOracle("cut", "ciphertext shorter than prefix plus replacement")
	}
	pasted := ct[start : start+len(paddedReplacement)]

	ct, err = oracleQuery(o, "paste", repeat(filler, prefixPad+suffixPad+tailSize))
	if err != nil {
		return nil, err
	}
	keep := prefixSize + prefixPad + suffixPad + suffixSize
	if len(ct) < keep {
		return nil, brokenOracle("paste", "ciphertext shorter than the aligned message")
	}

	out := make([]byte, 0, keep+len(pasted))
	out = append(out, ct[:keep]...)
	return append(out, pasted...), nil
}
