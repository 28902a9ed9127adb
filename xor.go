// xor.go: Length-checked XOR over byte slices.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// XOR returns a ⊕ b. Both operands must have the same length.
func XOR(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, lengthMismatch(len(a), len(b))
	}
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out, nil
}

// XORInPlace sets dst to dst ⊕ src. Both operands must have the same length.
func XORInPlace(dst, src []byte) error {
	if len(dst) != len(src) {
		return lengthMismatch(len(dst), len(src))
	}
	for i := range dst {
		dst[i] ^= src[i]
	}
	return nil
}

func lengthMismatch(a, b int) error {
	return richError(ErrLengthMismatch,
		goerrors.New(ErrCodeLengthMismatch, fmt.Sprintf("cannot xor %d bytes with %d bytes", a, b)))
}
