// errors.go: Error taxonomy shared by the mode layer, the oracles and the attacks.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"errors"
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// Public standard errors for drop-in compatibility.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrInvalidKeySize is returned when a key is not 16, 24 or 32 bytes.
	ErrInvalidKeySize = errors.New("pythia: invalid key size")

	// ErrInvalidBlockSize is returned when a plaintext or ciphertext length
	// is not a multiple of the cipher block size.
	ErrInvalidBlockSize = errors.New("pythia: invalid block size")

	// ErrInvalidIVSize is returned when an initialization vector is not 16 bytes.
	ErrInvalidIVSize = errors.New("pythia: invalid initialization vector size")

	// ErrInvalidOffset is returned by CTR edits starting past the end of the ciphertext.
	ErrInvalidOffset = errors.New("pythia: invalid offset for length of input")

	// ErrZeroBlockSize is returned by PKCS#7 when the block size is outside [1,255].
	ErrZeroBlockSize = errors.New("pythia: pkcs7 block size must be between 1 and 255")

	// ErrInvalidBlockLength is returned when padded input is not a multiple of the block size.
	ErrInvalidBlockLength = errors.New("pythia: pkcs7 invalid block length")

	// ErrInvalidPaddingLength is returned when the final padding byte is out of range.
	ErrInvalidPaddingLength = errors.New("pythia: pkcs7 invalid padding length")

	// ErrInvalidPaddingByte is returned when a padding byte differs from the padding length.
	ErrInvalidPaddingByte = errors.New("pythia: pkcs7 invalid padding byte")

	// ErrLengthMismatch is returned by XOR helpers on operands of different length.
	ErrLengthMismatch = errors.New("pythia: operand length mismatch")

	// ErrUnsupportedMode is returned when an operation is not defined for the context mode.
	ErrUnsupportedMode = errors.New("pythia: operation not supported by mode")

	// ErrUnknownLayout is returned for a CounterLayout other than BE128 or LE64.
	ErrUnknownLayout = errors.New("pythia: unknown counter layout")

	// ErrUnknownPadding is returned for a Padding other than none or PKCS#7.
	ErrUnknownPadding = errors.New("pythia: unknown padding scheme")

	// ErrNondeterministicOracle is returned when an attack that needs stable
	// output is handed an oracle drawing a fresh IV per call.
	ErrNondeterministicOracle = errors.New("pythia: oracle is not deterministic")

	// ErrBrokenOracle is returned when the oracle violates an assumption the
	// attack depends on (output never changes, output too short, ...).
	ErrBrokenOracle = errors.New("pythia: broken oracle")

	// ErrBlockSizeOutOfRange is returned when a detected block size is 0 or above 255.
	ErrBlockSizeOutOfRange = errors.New("pythia: detected block size out of range")

	// ErrUnableToMatchByte is returned when no candidate byte reproduces the target block.
	ErrUnableToMatchByte = errors.New("pythia: unable to match byte")

	// ErrInvalidText is returned by victim oracles rejecting decrypted plaintext.
	ErrInvalidText = errors.New("pythia: decrypted text is not valid")

	// ErrPayloadTooLarge is returned when a forged payload does not fit the forgery window.
	ErrPayloadTooLarge = errors.New("pythia: payload too large")

	// ErrKeyNotRecovered is returned when a key recovery attack exhausts its attempts.
	ErrKeyNotRecovered = errors.New("pythia: key not recovered")

	// ErrNoCiphertexts is returned when a fixed-nonce solver has nothing to work with.
	ErrNoCiphertexts = errors.New("pythia: no ciphertexts collected")

	// ErrRandomSource is returned when the configured random source fails.
	ErrRandomSource = errors.New("pythia: random source error")
)

// Error codes for rich error handling
const (
	ErrCodeInvalidKey      = "PYTHIA_INVALID_KEY"
	ErrCodeInvalidBlock    = "PYTHIA_INVALID_BLOCK"
	ErrCodeInvalidIV       = "PYTHIA_INVALID_IV"
	ErrCodeInvalidOffset   = "PYTHIA_INVALID_OFFSET"
	ErrCodePadding         = "PYTHIA_PKCS7"
	ErrCodeLengthMismatch  = "PYTHIA_LENGTH_MISMATCH"
	ErrCodeUnsupportedMode = "PYTHIA_UNSUPPORTED_MODE"
	ErrCodeConfig          = "PYTHIA_CONFIG"
	ErrCodeNondeterminism  = "PYTHIA_NONDETERMINISTIC"
	ErrCodeBrokenOracle    = "PYTHIA_BROKEN_ORACLE"
	ErrCodeUnmatchedByte   = "PYTHIA_UNMATCHED_BYTE"
	ErrCodeInvalidText     = "PYTHIA_INVALID_TEXT"
	ErrCodePayload         = "PYTHIA_PAYLOAD"
	ErrCodeKeyRecovery     = "PYTHIA_KEY_RECOVERY"
	ErrCodeNoCiphertexts   = "PYTHIA_NO_CIPHERTEXTS"
	ErrCodeRandom          = "PYTHIA_RANDOM"
	ErrCodeCipherInit      = "PYTHIA_CIPHER_INIT"
	ErrCodeOracle          = "PYTHIA_ORACLE"
)

// KeySizeError reports a key of unsupported length.
type KeySizeError struct {
	Size int
}

func (e *KeySizeError) Error() string {
	return fmt.Sprintf("invalid key size of '%d' must be 16, 24, or 32", e.Size)
}

func (e *KeySizeError) Unwrap() error { return ErrInvalidKeySize }

// BlockSizeError reports input whose length is not a multiple of the block size.
type BlockSizeError struct {
	Size      int
	BlockSize int
}

func (e *BlockSizeError) Error() string {
	return fmt.Sprintf("invalid block size of '%d' must be divisible by %d", e.Size, e.BlockSize)
}

func (e *BlockSizeError) Unwrap() error { return ErrInvalidBlockSize }

// IVSizeError reports an initialization vector of the wrong length.
type IVSizeError struct {
	Size int
}

func (e *IVSizeError) Error() string {
	return fmt.Sprintf("invalid initialization vector size of '%d' must be %d bytes", e.Size, IVSize)
}

func (e *IVSizeError) Unwrap() error { return ErrInvalidIVSize }

// OffsetError reports a CTR edit whose offset lies past the ciphertext.
type OffsetError struct {
	Length int
	Offset int
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("invalid offset of '%d' for input length of %d", e.Offset, e.Length)
}

func (e *OffsetError) Unwrap() error { return ErrInvalidOffset }

// BlockLengthError reports padded input that is not a whole number of blocks.
type BlockLengthError struct {
	Length    int
	BlockSize int
}

func (e *BlockLengthError) Error() string {
	return fmt.Sprintf("invalid block length '%d' (expected multiple of '%d')", e.Length, e.BlockSize)
}

func (e *BlockLengthError) Unwrap() error { return ErrInvalidBlockLength }

// PaddingLengthError reports a final padding byte that cannot be a padding length.
type PaddingLengthError struct {
	Value  byte
	Offset int
}

func (e *PaddingLengthError) Error() string {
	return fmt.Sprintf("invalid padding length '%d' at offset %d", e.Value, e.Offset)
}

func (e *PaddingLengthError) Unwrap() error { return ErrInvalidPaddingLength }

// PaddingByteError reports the first padding byte that disagrees with the padding length.
type PaddingByteError struct {
	Offset   int
	Found    byte
	Expected byte
}

func (e *PaddingByteError) Error() string {
	return fmt.Sprintf("invalid padding byte '%d' at offset %d (expected '%d')", e.Found, e.Offset, e.Expected)
}

func (e *PaddingByteError) Unwrap() error { return ErrInvalidPaddingByte }

// UnmatchedByteError is returned by DecryptSuffix when no candidate byte
// reproduces the reference block. Recovered holds every byte decrypted
// before Position.
type UnmatchedByteError struct {
	Position  int
	Recovered []byte
}

func (e *UnmatchedByteError) Error() string {
	return fmt.Sprintf("unable to match byte at position %d (%d bytes recovered)", e.Position, len(e.Recovered))
}

func (e *UnmatchedByteError) Unwrap() error { return ErrUnableToMatchByte }

// InvalidTextError is returned by victim oracles that reject decrypted
// plaintext and, carelessly, echo it back.
type InvalidTextError struct {
	Plaintext []byte
}

func (e *InvalidTextError) Error() string {
	return fmt.Sprintf("invalid text: %q", e.Plaintext)
}

func (e *InvalidTextError) Unwrap() error { return ErrInvalidText }

// richError joins a sentinel (or typed error) with a coded go-errors value.
func richError(kind error, rich error) error {
	return fmt.Errorf("%w: %w", kind, rich)
}

// brokenOracle reports an oracle assumption violation detected at stage.
func brokenOracle(stage, msg string) error {
	return richError(ErrBrokenOracle, goerrors.New(ErrCodeBrokenOracle, stage+": "+msg))
}
