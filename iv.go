// iv.go: Initialization vectors and CTR counter layouts.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"crypto/rand"
	"fmt"
	"io"

	goerrors "github.com/agilira/go-errors"
)

// IVSize is the size of an IV or CTR nonce block in bytes.
const IVSize = 16

// IV is a CBC chaining seed or a CTR nonce‖counter block. How a CTR IV is
// split and incremented depends on the CounterLayout carried alongside it.
type IV [IVSize]byte

// NewIV copies b into an IV. b must be exactly 16 bytes.
func NewIV(b []byte) (IV, error) {
	var iv IV
	if len(b) != IVSize {
		return iv, richError(&IVSizeError{Size: len(b)},
			goerrors.New(ErrCodeInvalidIV, "initialization vector must be 16 bytes"))
	}
	copy(iv[:], b)
	return iv, nil
}

// GenerateIV returns a random IV.
func GenerateIV() (IV, error) {
	return generateIVFrom(rand.Reader)
}

func generateIVFrom(rng io.Reader) (IV, error) {
	var iv IV
	if _, err := io.ReadFull(rng, iv[:]); err != nil {
		return iv, richError(ErrRandomSource, goerrors.Wrap(err, ErrCodeRandom, "failed to generate IV"))
	}
	return iv, nil
}

// IVFromKey reuses 16-byte key material as an IV, the mistake exploited by
// RecoverCBCKeyFromIV.
func IVFromKey(k Key) (IV, error) {
	return NewIV(k.material[:k.size])
}

// CounterLayout selects how a CTR IV is split into nonce and counter.
type CounterLayout int

const (
	// CounterBigEndian128 treats the whole block as one 128-bit big-endian
	// counter (NIST SP 800-38A).
	CounterBigEndian128 CounterLayout = iota

	// CounterLittleEndian64 uses the first 8 bytes as a fixed nonce and the
	// last 8 bytes as a 64-bit little-endian counter.
	CounterLittleEndian64
)

func (l CounterLayout) String() string {
	switch l {
	case CounterBigEndian128:
		return "BE128"
	case CounterLittleEndian64:
		return "LE64"
	default:
		return "unknown"
	}
}

func (l CounterLayout) valid() bool {
	return l == CounterBigEndian128 || l == CounterLittleEndian64
}

func layoutError(l CounterLayout) error {
	return richError(ErrUnknownLayout,
		goerrors.New(ErrCodeConfig, fmt.Sprintf("counter layout %d", int(l))))
}

// increment advances the counter field of iv by one, wrapping inside the field.
func (l CounterLayout) increment(iv *IV) {
	switch l {
	case CounterLittleEndian64:
		for i := 8; i < IVSize; i++ {
			iv[i]++
			if iv[i] != 0 {
				return
			}
		}
	default:
		for i := IVSize - 1; i >= 0; i-- {
			iv[i]++
			if iv[i] != 0 {
				return
			}
		}
	}
}

// advance adds n to the counter field of iv, wrapping inside the field.
func (l CounterLayout) advance(iv *IV, n uint64) {
	switch l {
	case CounterLittleEndian64:
		carry := n
		for i := 8; i < IVSize && carry != 0; i++ {
			sum := uint64(iv[i]) + (carry & 0xff)
			iv[i] = byte(sum)
			carry = (carry >> 8) + (sum >> 8)
		}
	default:
		carry := n
		for i := IVSize - 1; i >= 0 && carry != 0; i-- {
			sum := uint64(iv[i]) + (carry & 0xff)
			iv[i] = byte(sum)
			carry = (carry >> 8) + (sum >> 8)
		}
	}
}
