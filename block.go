// block.go: Single-block AES primitive.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// BlockSize is the AES block size in bytes.
const BlockSize = aes.BlockSize

// newBlock expands the AES key schedule for key. Long-lived holders
// (Context, PaddingOracleContext, Keystream) call it once and keep the result.
func newBlock(key Key) (cipher.Block, error) {
	if !key.size.Valid() {
		return nil, richError(&KeySizeError{Size: int(key.size)},
			goerrors.New(ErrCodeInvalidKey, "zero or invalid key"))
	}
	block, err := aes.NewCipher(key.material[:key.size])
	if err != nil {
		return nil, richError(ErrInvalidKeySize, goerrors.Wrap(err, ErrCodeCipherInit, "failed to create AES cipher"))
	}
	return block, nil
}

// BlockCipher encrypts and decrypts exactly one 16-byte block under a fixed
// key. It is the opaque permutation every mode in this package is built on.
type BlockCipher struct {
	block cipher.Block
}

// NewBlockCipher returns the block primitive for key.
func NewBlockCipher(key Key) (*BlockCipher, error) {
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	return &BlockCipher{block: block}, nil
}

// EncryptBlock encrypts a single block. src must be exactly BlockSize bytes.
func (b *BlockCipher) EncryptBlock(src []byte) ([]byte, error) {
	if len(src) != BlockSize {
		return nil, blockSizeError(len(src))
	}
	dst := make([]byte, BlockSize)
	b.block.Encrypt(dst, src)
	return dst, nil
}

// DecryptBlock decrypts a single block. src must be exactly BlockSize bytes.
func (b *BlockCipher) DecryptBlock(src []byte) ([]byte, error) {
	if len(src) != BlockSize {
		return nil, blockSizeError(len(src))
	}
	dst := make([]byte, BlockSize)
	b.block.Decrypt(dst, src)
	return dst, nil
}

func blockSizeError(n int) error {
	return richError(&BlockSizeError{Size: n, BlockSize: BlockSize},
		goerrors.New(ErrCodeInvalidBlock, fmt.Sprintf("length %d is not a multiple of %d", n, BlockSize)))
}
