// kdf_test.go: Test cases for key derivation utilities.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agilira/pythia"
)

// TestDeriveKey_Valid tests Argon2id derivation for every key size
func TestDeriveKey_Valid(t *testing.T) {
	pw := []byte("my-secure-password")
	salt := []byte("random-salt-123")

	for _, size := range []pythia.KeySize{pythia.AES128, pythia.AES192, pythia.AES256} {
		key, err := pythia.DeriveKey(pw, salt, size, pythia.FastKDFParams())
		require.NoError(t, err)
		assert.Equal(t, size, key.Size())
		assert.NotEqual(t, make([]byte, size), key.Bytes(), "derived key should not be all zeros")

		again, err := pythia.DeriveKey(pw, salt, size, pythia.FastKDFParams())
		require.NoError(t, err)
		assert.True(t, key.Equal(again), "derivation must be deterministic")
	}
}

// TestDeriveKey_InvalidParams tests DeriveKey with invalid parameters
func TestDeriveKey_InvalidParams(t *testing.T) {
	_, err := pythia.DeriveKey(nil, []byte("salt"), pythia.AES128, nil)
	assert.Error(t, err, "expected error for nil password")

	_, err = pythia.DeriveKey([]byte("pw"), nil, pythia.AES128, nil)
	assert.Error(t, err, "expected error for nil salt")

	_, err = pythia.DeriveKey([]byte("pw"), []byte("salt"), 0, nil)
	assert.ErrorIs(t, err, pythia.ErrInvalidKeySize)
}

func TestDeriveKey_SaltAndParamsMatter(t *testing.T) {
	pw := []byte("password")
	a, err := pythia.DeriveKey(pw, []byte("salt-one"), pythia.AES128, pythia.FastKDFParams())
	require.NoError(t, err)
	b, err := pythia.DeriveKey(pw, []byte("salt-two"), pythia.AES128, pythia.FastKDFParams())
	require.NoError(t, err)
	assert.False(t, a.Equal(b))

	c, err := pythia.DeriveKey(pw, []byte("salt-one"), pythia.AES128, &pythia.KDFParams{Time: 2, Memory: 32, Threads: 2})
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}

func TestDefaultKDFParams(t *testing.T) {
	p := pythia.DefaultKDFParams()
	assert.Equal(t, uint32(pythia.DefaultTime), p.Time)
	assert.Equal(t, uint32(pythia.DefaultMemory), p.Memory)
	assert.Equal(t, uint8(pythia.DefaultThreads), p.Threads)
}

func TestDeriveKeyPBKDF2(t *testing.T) {
	key, err := pythia.DeriveKeyPBKDF2([]byte("pw"), []byte("salt"), 1000, pythia.AES256)
	require.NoError(t, err)
	assert.Equal(t, pythia.AES256, key.Size())

	_, err = pythia.DeriveKeyPBKDF2([]byte("pw"), []byte("salt"), 0, pythia.AES256)
	assert.Error(t, err)
	_, err = pythia.DeriveKeyPBKDF2(nil, []byte("salt"), 1000, pythia.AES256)
	assert.Error(t, err)
}

func TestDeriveKeyHKDF(t *testing.T) {
	master := bytes.Repeat([]byte{0x0b}, 32)
	a, err := pythia.DeriveKeyHKDF(master, nil, []byte("oracle-a"), pythia.AES128)
	require.NoError(t, err)
	b, err := pythia.DeriveKeyHKDF(master, nil, []byte("oracle-b"), pythia.AES128)
	require.NoError(t, err)
	assert.False(t, a.Equal(b), "info separates derived keys")

	_, err = pythia.DeriveKeyHKDF(nil, nil, nil, pythia.AES128)
	assert.Error(t, err)
}

func TestNewSeededReader_Reproducible(t *testing.T) {
	r1, err := pythia.NewSeededReader([]byte("seed"), []byte("scenario"))
	require.NoError(t, err)
	r2, err := pythia.NewSeededReader([]byte("seed"), []byte("scenario"))
	require.NoError(t, err)
	r3, err := pythia.NewSeededReader([]byte("seed"), []byte("other"))
	require.NoError(t, err)

	a := make([]byte, 100)
	b := make([]byte, 100)
	c := make([]byte, 100)
	_, err = io.ReadFull(r1, a)
	require.NoError(t, err)
	_, err = io.ReadFull(r2, b)
	require.NoError(t, err)
	_, err = io.ReadFull(r3, c)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	_, err = pythia.NewSeededReader(nil, nil)
	assert.Error(t, err)
}

func TestNewSeededReader_DrivesRandomContext(t *testing.T) {
	build := func() []byte {
		rng, err := pythia.NewSeededReader([]byte("fixed"), nil)
		require.NoError(t, err)
		ctx, err := pythia.NewRandomContext(pythia.ModeECB, pythia.PaddingPKCS7, rng)
		require.NoError(t, err)
		ct, err := ctx.Encrypt([]byte("same input"))
		require.NoError(t, err)
		return ct
	}
	assert.Equal(t, build(), build())
}
