// coinflip.go: Oracle that secretly picks ECB or CBC.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"crypto/rand"
	"io"
)

// CoinFlipOracle encrypts under a random context whose mode was chosen by a
// coin flip at construction: ECB, or CBC with a fresh IV per call. Both use
// PKCS#7 and random prefix and suffix bytes.
type CoinFlipOracle struct {
	ctx *Context
}

// NewCoinFlipOracle builds the oracle. rng nil means crypto/rand.Reader.
func NewCoinFlipOracle(rng io.Reader) (*CoinFlipOracle, error) {
	if rng == nil {
		rng = rand.Reader
	}
	flip, err := randomInt(rng, 2)
	if err != nil {
		return nil, err
	}
	mode := ModeCBC
	if flip == 0 {
		mode = ModeECB
	}
	ctx, err := NewRandomContext(mode, PaddingPKCS7, rng)
	if err != nil {
		return nil, err
	}
	return &CoinFlipOracle{ctx: ctx}, nil
}

// Encrypt implements Oracle.
func (c *CoinFlipOracle) Encrypt(input []byte) ([]byte, error) {
	return c.ctx.Encrypt(input)
}

// Deterministic is true only when the coin landed on ECB.
func (c *CoinFlipOracle) Deterministic() bool { return c.ctx.Deterministic() }

// Mode reveals the chosen mode.
func (c *CoinFlipOracle) Mode() Mode { return c.ctx.Mode() }
