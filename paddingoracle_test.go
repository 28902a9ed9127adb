// paddingoracle_test.go: CBC padding oracle decryption tests.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agilira/pythia"
)

func TestPaddingOracleContext(t *testing.T) {
	p, err := pythia.NewPaddingOracleContext(testKey, nil)
	require.NoError(t, err)

	iv, ct, err := p.EncryptMessage([]byte("sixteen bytes!!!"))
	require.NoError(t, err)
	assert.Len(t, ct, 32, "a full block of padding is added")

	ok, err := p.ValidPadding(iv, ct)
	require.NoError(t, err)
	assert.True(t, ok)

	iv[15] ^= 0x01
	ok, err = p.ValidPadding(iv, ct[:16])
	require.NoError(t, err)
	assert.False(t, ok, "the first block alone is plaintext, not padding")

	_, err = p.ValidPadding(iv, nil)
	assert.ErrorIs(t, err, pythia.ErrInvalidBlockSize)
	_, err = p.ValidPadding(iv, make([]byte, 17))
	assert.ErrorIs(t, err, pythia.ErrInvalidBlockSize)

	_, err = pythia.NewPaddingOracleContext(pythia.Key{}, nil)
	assert.ErrorIs(t, err, pythia.ErrInvalidKeySize)
}

func TestDecryptCBCPaddingOracle(t *testing.T) {
	messages := []string{
		"",
		"a",
		"000000Now that the party is jumping",
		"000001With the bass kicked in and the Vega's are pumpin'",
		"exactly sixteen!",
		string(bytes.Repeat([]byte{0x01}, 31)),
		string(bytes.Repeat([]byte{0x02}, 15)),
	}

	for _, msg := range messages {
		key, err := pythia.GenerateRandomKey()
		require.NoError(t, err)
		p, err := pythia.NewPaddingOracleContext(key, nil)
		require.NoError(t, err)

		iv, ct, err := p.EncryptMessage([]byte(msg))
		require.NoError(t, err)

		got, err := pythia.DecryptCBCPaddingOracle(p, iv, ct)
		require.NoError(t, err, "message %q", msg)
		assert.Equal(t, msg, string(got))
	}
}

type blindValidator struct{}

func (blindValidator) ValidPadding(pythia.IV, []byte) (bool, error) { return false, nil }

type erroringValidator struct{}

func (erroringValidator) ValidPadding(pythia.IV, []byte) (bool, error) {
	return false, errors.New("timeout")
}

func TestDecryptCBCPaddingOracle_Errors(t *testing.T) {
	_, err := pythia.DecryptCBCPaddingOracle(blindValidator{}, pythia.IV{}, nil)
	assert.ErrorIs(t, err, pythia.ErrInvalidBlockSize)

	_, err = pythia.DecryptCBCPaddingOracle(blindValidator{}, pythia.IV{}, make([]byte, 16))
	var unmatched *pythia.UnmatchedByteError
	require.True(t, errors.As(err, &unmatched))
	assert.Equal(t, 15, unmatched.Position)

	_, err = pythia.DecryptCBCPaddingOracle(erroringValidator{}, pythia.IV{}, make([]byte, 16))
	assert.Error(t, err)
}
