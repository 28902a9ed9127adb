// oracle.go: Narrow oracle interfaces consumed by the cryptanalysis engine.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"sync/atomic"

	goerrors "github.com/agilira/go-errors"
)

// Oracle encrypts attacker-controlled input under hidden parameters.
// The attacks in this package see nothing but this method.
type Oracle interface {
	Encrypt(input []byte) ([]byte, error)
}

// EditOracle is an Oracle that also supports random-access CTR
// re-encryption of an existing ciphertext.
type EditOracle interface {
	Oracle
	Edit(ciphertext []byte, offset int, plaintext []byte) ([]byte, error)
}

// DeterminismReporter is implemented by oracles that know whether equal
// inputs produce equal outputs. Attacks needing stable output refuse oracles
// that report false; oracles that do not implement it are trusted.
type DeterminismReporter interface {
	Deterministic() bool
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(input []byte) ([]byte, error)

// Encrypt calls f(input).
func (f OracleFunc) Encrypt(input []byte) ([]byte, error) {
	return f(input)
}

// TextValidator is a victim that decrypts a ciphertext and reports whether
// the plaintext is acceptable. A rejection is an *InvalidTextError which
// may leak the offending plaintext.
type TextValidator interface {
	Validate(ciphertext []byte) error
}

// PaddingValidator is a victim that decrypts iv‖ciphertext and reveals
// only whether the PKCS#7 padding was valid.
type PaddingValidator interface {
	ValidPadding(iv IV, ciphertext []byte) (bool, error)
}

// requireDeterministic rejects oracles that declare per-call randomness.
func requireDeterministic(o Oracle) error {
	if r, ok := o.(DeterminismReporter); ok && !r.Deterministic() {
		return richError(ErrNondeterministicOracle,
			goerrors.New(ErrCodeNondeterminism, "attack requires an oracle with a fixed IV or ECB"))
	}
	return nil
}

// oracleQuery wraps an oracle failure with the attack stage that issued it.
func oracleQuery(o Oracle, stage string, input []byte) ([]byte, error) {
	out, err := o.Encrypt(input)
	if err != nil {
		return nil, goerrors.Wrap(err, ErrCodeOracle, stage+": oracle query failed")
	}
	return out, nil
}

// CountingOracle counts the queries made against an Oracle. It forwards
// Edit and Deterministic when the wrapped oracle supports them.
type CountingOracle struct {
	inner   Oracle
	queries atomic.Int64
}

// NewCountingOracle wraps o.
func NewCountingOracle(o Oracle) *CountingOracle {
	return &CountingOracle{inner: o}
}

// Encrypt forwards to the wrapped oracle.
func (c *CountingOracle) Encrypt(input []byte) ([]byte, error) {
	c.queries.Add(1)
	return c.inner.Encrypt(input)
}

// Edit forwards to the wrapped oracle, or fails with ErrUnsupportedMode.
func (c *CountingOracle) Edit(ciphertext []byte, offset int, plaintext []byte) ([]byte, error) {
	e, ok := c.inner.(EditOracle)
	if !ok {
		return nil, richError(ErrUnsupportedMode,
			goerrors.New(ErrCodeUnsupportedMode, "wrapped oracle does not support edit"))
	}
	c.queries.Add(1)
	return e.Edit(ciphertext, offset, plaintext)
}

// Deterministic reports the wrapped oracle's determinism, true if unknown.
func (c *CountingOracle) Deterministic() bool {
	if r, ok := c.inner.(DeterminismReporter); ok {
		return r.Deterministic()
	}
	return true
}

// Queries returns the number of queries made so far.
func (c *CountingOracle) Queries() int64 {
	return c.queries.Load()
}
