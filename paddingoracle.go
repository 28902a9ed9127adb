// paddingoracle.go: CBC victim revealing only padding validity.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"crypto/cipher"
	"crypto/rand"
	"io"
)

// PaddingOracleContext encrypts messages under AES-CBC with a fresh IV per
// message and answers, for any iv and ciphertext, only whether the
// decryption is correctly PKCS#7 padded.
type PaddingOracleContext struct {
	block cipher.Block
	rng   io.Reader
}

// NewPaddingOracleContext returns a padding oracle under key. rng nil means
// crypto/rand.Reader; it is used for the per-message IVs.
func NewPaddingOracleContext(key Key, rng io.Reader) (*PaddingOracleContext, error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.Reader
	}
	return &PaddingOracleContext{block: block, rng: rng}, nil
}

// EncryptMessage pads and encrypts plaintext under a fresh IV.
func (p *PaddingOracleContext) EncryptMessage(plaintext []byte) (IV, []byte, error) {
	iv, err := generateIVFrom(p.rng)
	if err != nil {
		return IV{}, nil, err
	}
	padded := appendPKCS7(append([]byte(nil), plaintext...), BlockSize-len(plaintext)%BlockSize)
	ct, err := encryptCBC(p.block, iv, padded)
	if err != nil {
		return IV{}, nil, err
	}
	return iv, ct, nil
}

// ValidPadding decrypts ciphertext under iv and reports whether the
// padding is valid. Malformed lengths are an error, not a false.
func (p *PaddingOracleContext) ValidPadding(iv IV, ciphertext []byte) (bool, error) {
	if len(ciphertext) == 0 {
		return false, blockSizeError(0)
	}
	plaintext, err := decryptCBC(p.block, iv, ciphertext)
	if err != nil {
		return false, err
	}
	return ValidPKCS7(plaintext, BlockSize), nil
}
