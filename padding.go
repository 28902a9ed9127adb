// padding.go: PKCS#7 padding with typed validation errors.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// Padding selects the padding scheme applied by a Context before encryption.
type Padding int

const (
	// PaddingNone applies no padding; the mode must accept the raw length.
	PaddingNone Padding = iota
	// PaddingPKCS7 pads to a block multiple with PKCS#7.
	PaddingPKCS7
)

func (p Padding) String() string {
	switch p {
	case PaddingNone:
		return "none"
	case PaddingPKCS7:
		return "pkcs7"
	default:
		return "unknown"
	}
}

func (p Padding) valid() bool {
	return p == PaddingNone || p == PaddingPKCS7
}

func checkPKCS7BlockSize(blockSize int) error {
	if blockSize < 1 || blockSize > 255 {
		return richError(ErrZeroBlockSize,
			goerrors.New(ErrCodePadding, fmt.Sprintf("block size %d outside [1,255]", blockSize)))
	}
	return nil
}

// PadPKCS7 appends n bytes of value n so that the result is a multiple of
// blockSize; an aligned input gets a full extra block.
//
// Empty input is returned empty, without a padding block. Callers that need
// a padding block for empty messages must add it themselves.
func PadPKCS7(input []byte, blockSize int) ([]byte, error) {
	if err := checkPKCS7BlockSize(blockSize); err != nil {
		return nil, err
	}
	if len(input) == 0 {
		return []byte{}, nil
	}
	n := blockSize - len(input)%blockSize
	out := make([]byte, len(input), len(input)+n)
	copy(out, input)
	return appendPKCS7(out, n), nil
}

// appendPKCS7 appends n bytes of value n to buf.
func appendPKCS7(buf []byte, n int) []byte {
	for i := 0; i < n; i++ {
		buf = append(buf, byte(n))
	}
	return buf
}

// UnpadPKCS7 validates and strips PKCS#7 padding.
//
// The returned error distinguishes a bad overall length
// (*BlockLengthError), a bad padding length byte (*PaddingLengthError) and a
// bad padding byte (*PaddingByteError).
func UnpadPKCS7(input []byte, blockSize int) ([]byte, error) {
	if err := checkPKCS7BlockSize(blockSize); err != nil {
		return nil, err
	}
	if len(input) == 0 {
		return []byte{}, nil
	}
	if len(input)%blockSize != 0 {
		return nil, richError(&BlockLengthError{Length: len(input), BlockSize: blockSize},
			goerrors.New(ErrCodePadding, "padded input is not a whole number of blocks"))
	}

	last := len(input) - 1
	p := int(input[last])
	if p < 1 || p > blockSize || p > len(input) {
		return nil, richError(&PaddingLengthError{Value: input[last], Offset: last},
			goerrors.New(ErrCodePadding, "padding length out of range"))
	}
	for offset := len(input) - p; offset < len(input); offset++ {
		if int(input[offset]) != p {
			return nil, richError(&PaddingByteError{Offset: offset, Found: input[offset], Expected: byte(p)},
				goerrors.New(ErrCodePadding, "padding byte mismatch"))
		}
	}

	out := make([]byte, len(input)-p)
	copy(out, input[:len(input)-p])
	return out, nil
}

// ValidPKCS7 reports whether input carries well-formed PKCS#7 padding.
func ValidPKCS7(input []byte, blockSize int) bool {
	if len(input) == 0 {
		return false
	}
	_, err := UnpadPKCS7(input, blockSize)
	return err == nil
}
