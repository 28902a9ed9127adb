// ecb.go: Electronic Codebook mode.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import "crypto/cipher"

// EncryptECB encrypts every 16-byte block of plaintext independently.
//
// plaintext must be a multiple of BlockSize; empty input yields empty
// output. Identical plaintext blocks always produce identical ciphertext
// blocks, which is what DetectECB and DecryptSuffix rely on.
func EncryptECB(key Key, plaintext []byte) ([]byte, error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	return cryptECB(block, plaintext, true)
}

// DecryptECB inverts EncryptECB. Padding is not removed.
func DecryptECB(key Key, ciphertext []byte) ([]byte, error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	return cryptECB(block, ciphertext, false)
}

func cryptECB(block cipher.Block, input []byte, encrypt bool) ([]byte, error) {
	if len(input) == 0 {
		return []byte{}, nil
	}
	if len(input)%BlockSize != 0 {
		return nil, blockSizeError(len(input))
	}

	out := make([]byte, len(input))
	for i := 0; i < len(input); i += BlockSize {
		if encrypt {
			block.Encrypt(out[i:i+BlockSize], input[i:i+BlockSize])
		} else {
			block.Decrypt(out[i:i+BlockSize], input[i:i+BlockSize])
		}
	}
	return out, nil
}
