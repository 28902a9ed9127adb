// cbc.go: Cipher Block Chaining mode.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import "crypto/cipher"

// EncryptCBC computes C[0] = E(P[0] ⊕ IV), C[i] = E(P[i] ⊕ C[i-1]).
//
// plaintext must already be padded to a multiple of BlockSize; empty input
// yields empty output.
func EncryptCBC(key Key, iv IV, plaintext []byte) ([]byte, error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	return encryptCBC(block, iv, plaintext)
}

func encryptCBC(block cipher.Block, iv IV, plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return []byte{}, nil
	}
	if len(plaintext)%BlockSize != 0 {
		return nil, blockSizeError(len(plaintext))
	}

	scratch := getBlockBuffer()
	defer putBlockBuffer(scratch)
	buf := *scratch

	ciphertext := make([]byte, len(plaintext))
	prev := iv[:]
	for i := 0; i < len(plaintext); i += BlockSize {
		copy(buf, plaintext[i:i+BlockSize])
		if err := XORInPlace(buf, prev); err != nil {
			return nil, err
		}
		block.Encrypt(ciphertext[i:i+BlockSize], buf)
		prev = ciphertext[i : i+BlockSize]
	}
	return ciphertext, nil
}

// DecryptCBC computes P[i] = D(C[i]) ⊕ C[i-1] with C[-1] = IV. Padding is
// not removed.
func DecryptCBC(key Key, iv IV, ciphertext []byte) ([]byte, error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	return decryptCBC(block, iv, ciphertext)
}

func decryptCBC(block cipher.Block, iv IV, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return []byte{}, nil
	}
	if len(ciphertext)%BlockSize != 0 {
		return nil, blockSizeError(len(ciphertext))
	}

	plaintext := make([]byte, len(ciphertext))
	prev := iv[:]
	for i := 0; i < len(ciphertext); i += BlockSize {
		out := plaintext[i : i+BlockSize]
		block.Decrypt(out, ciphertext[i:i+BlockSize])
		if err := XORInPlace(out, prev); err != nil {
			return nil, err
		}
		prev = ciphertext[i : i+BlockSize]
	}
	return plaintext, nil
}
