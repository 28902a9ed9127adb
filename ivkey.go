// ivkey.go: CBC victim that reuses its key as the IV and leaks rejected
// plaintext through its error.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"errors"

	goerrors "github.com/agilira/go-errors"
)

// IVKeyOracle encrypts input under AES-128-CBC with IV = key and PKCS#7.
// Validate rejects plaintext that is not 7-bit ASCII and, like a verbose
// error page, returns the decrypted bytes in the *InvalidTextError.
type IVKeyOracle struct {
	ctx *Context
}

// NewIVKeyOracle returns the victim for a 16-byte key.
func NewIVKeyOracle(key Key) (*IVKeyOracle, error) {
	iv, err := IVFromKey(key)
	if err != nil {
		return nil, richError(&KeySizeError{Size: int(key.Size())},
			goerrors.New(ErrCodeInvalidKey, "IV = key needs a 16 byte key"))
	}
	ctx, err := NewContext(&ContextConfig{
		Key:     key,
		Mode:    ModeCBC,
		Padding: PaddingPKCS7,
		IV:      &iv,
	})
	if err != nil {
		return nil, err
	}
	return &IVKeyOracle{ctx: ctx}, nil
}

// NewRandomIVKeyOracle returns the victim with a random AES-128 key.
func NewRandomIVKeyOracle() (*IVKeyOracle, error) {
	key, err := GenerateKey(AES128)
	if err != nil {
		return nil, err
	}
	return NewIVKeyOracle(key)
}

// Encrypt encrypts input with no prefix or suffix.
func (v *IVKeyOracle) Encrypt(input []byte) ([]byte, error) {
	return v.ctx.Encrypt(input)
}

// Deterministic is always true: the IV is the key.
func (v *IVKeyOracle) Deterministic() bool { return true }

// Validate decrypts ciphertext and checks the plaintext. Bad padding or
// non-ASCII bytes yield an *InvalidTextError carrying the raw decryption.
func (v *IVKeyOracle) Validate(ciphertext []byte) error {
	_, err := v.Decrypt(ciphertext)
	return err
}

// Decrypt is Validate that also returns the accepted plaintext.
func (v *IVKeyOracle) Decrypt(ciphertext []byte) ([]byte, error) {
	padded, err := v.ctx.decryptRaw(ciphertext)
	if err != nil {
		return nil, err
	}
	plaintext, err := UnpadPKCS7(padded, BlockSize)
	if err != nil {
		return nil, rejectText(padded, err)
	}
	if !isASCII(plaintext) {
		return nil, rejectText(padded, errors.New("plaintext is not ASCII"))
	}
	return plaintext, nil
}

func rejectText(plaintext []byte, cause error) error {
	return richError(&InvalidTextError{Plaintext: plaintext},
		goerrors.Wrap(cause, ErrCodeInvalidText, "decrypted text rejected"))
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
