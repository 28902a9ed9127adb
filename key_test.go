// key_test.go: Key, IV and XOR helper tests.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia_test

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agilira/pythia"
)

func TestNewKey(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		want    pythia.KeySize
		wantErr bool
	}{
		{"AES-128", 16, pythia.AES128, false},
		{"AES-192", 24, pythia.AES192, false},
		{"AES-256", 32, pythia.AES256, false},
		{"empty", 0, 0, true},
		{"too short", 15, 0, true},
		{"between sizes", 20, 0, true},
		{"too long", 64, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := pythia.NewKey(make([]byte, tt.length))
			if tt.wantErr {
				var sizeErr *pythia.KeySizeError
				require.True(t, errors.As(err, &sizeErr), "want KeySizeError, got %v", err)
				assert.Equal(t, tt.length, sizeErr.Size)
				assert.ErrorIs(t, err, pythia.ErrInvalidKeySize)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key.Size())
			assert.Len(t, key.Bytes(), tt.length)
		})
	}
}

func TestMustKey_Panics(t *testing.T) {
	assert.Panics(t, func() { pythia.MustKey([]byte("short")) })
	assert.NotPanics(t, func() { pythia.MustKey([]byte("YELLOW SUBMARINE")) })
}

func TestGenerateKey(t *testing.T) {
	a, err := pythia.GenerateKey(pythia.AES256)
	require.NoError(t, err)
	b, err := pythia.GenerateKey(pythia.AES256)
	require.NoError(t, err)
	assert.False(t, a.Equal(b), "two random keys must differ")

	_, err = pythia.GenerateKey(pythia.KeySize(7))
	assert.ErrorIs(t, err, pythia.ErrInvalidKeySize)
}

func TestGenerateRandomKey_CoversAllSizes(t *testing.T) {
	seen := map[pythia.KeySize]bool{}
	for i := 0; i < 200 && len(seen) < 3; i++ {
		key, err := pythia.GenerateRandomKey()
		require.NoError(t, err)
		require.True(t, key.Size().Valid())
		seen[key.Size()] = true
	}
	assert.Len(t, seen, 3)
}

func TestKey_Encodings(t *testing.T) {
	key := pythia.MustKey([]byte("YELLOW SUBMARINE"))

	assert.Equal(t, "59454c4c4f57205355424d4152494e45", key.Hex())
	assert.Equal(t, "WUVMTE9XIFNVQk1BUklORQ==", key.Base64())

	fromHex, err := pythia.ParseKeyHex(key.Hex())
	require.NoError(t, err)
	assert.True(t, key.Equal(fromHex))

	fromB64, err := pythia.ParseKeyBase64(key.Base64())
	require.NoError(t, err)
	assert.True(t, key.Equal(fromB64))

	_, err = pythia.ParseKeyHex("zz")
	assert.Error(t, err)
	_, err = pythia.ParseKeyBase64("!!!")
	assert.Error(t, err)
	_, err = pythia.ParseKeyHex("00")
	assert.ErrorIs(t, err, pythia.ErrInvalidKeySize)
}

func TestKey_StringHidesMaterial(t *testing.T) {
	key := pythia.MustKey([]byte("YELLOW SUBMARINE"))
	s := key.String()
	assert.True(t, strings.HasPrefix(s, "AES-128("), s)
	assert.NotContains(t, s, "YELLOW")
	assert.NotContains(t, s, key.Hex())
	assert.Len(t, key.Fingerprint(), 16)
	assert.Empty(t, pythia.Key{}.Fingerprint())
}

func TestKey_BytesIsACopy(t *testing.T) {
	key := pythia.MustKey([]byte("YELLOW SUBMARINE"))
	b := key.Bytes()
	b[0] = 'X'
	assert.Equal(t, byte('Y'), key.Bytes()[0])
}

func TestZeroize(t *testing.T) {
	b := []byte("secret")
	pythia.Zeroize(b)
	assert.Equal(t, make([]byte, 6), b)
	pythia.Zeroize(nil)
}

func TestNewIV(t *testing.T) {
	iv, err := pythia.NewIV(make([]byte, 16))
	require.NoError(t, err)
	assert.Equal(t, pythia.IV{}, iv)

	_, err = pythia.NewIV(make([]byte, 8))
	var sizeErr *pythia.IVSizeError
	require.True(t, errors.As(err, &sizeErr))
	assert.Equal(t, 8, sizeErr.Size)
	assert.ErrorIs(t, err, pythia.ErrInvalidIVSize)

	a, err := pythia.GenerateIV()
	require.NoError(t, err)
	b, err := pythia.GenerateIV()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestIVFromKey(t *testing.T) {
	key := pythia.MustKey([]byte("YELLOW SUBMARINE"))
	iv, err := pythia.IVFromKey(key)
	require.NoError(t, err)
	assert.Equal(t, "YELLOW SUBMARINE", string(iv[:]))

	_, err = pythia.IVFromKey(pythia.MustKey(make([]byte, 32)))
	assert.ErrorIs(t, err, pythia.ErrInvalidIVSize)
}

func TestXOR(t *testing.T) {
	a := mustHex(t, "1c0111001f010100061a024b53535009181c")
	b := mustHex(t, "686974207468652062756c6c277320657965")

	got, err := pythia.XOR(a, b)
	require.NoError(t, err)
	assert.Equal(t, "746865206b696420646f6e277420706c6179", hex.EncodeToString(got))

	require.NoError(t, pythia.XORInPlace(a, b))
	assert.Equal(t, got, a)

	_, err = pythia.XOR([]byte{1}, []byte{1, 2})
	assert.ErrorIs(t, err, pythia.ErrLengthMismatch)
	assert.ErrorIs(t, pythia.XORInPlace([]byte{1}, nil), pythia.ErrLengthMismatch)
}
