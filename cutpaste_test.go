// cutpaste_test.go: ECB cut-and-paste against the profile oracle.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agilira/pythia"
)

func TestProfile_EncodeParse(t *testing.T) {
	p := pythia.ProfileFor("foo@bar.com")
	assert.Equal(t, "email=foo@bar.com&uid=10&role=user", p.Encode())

	back, err := pythia.ParseProfile(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, p, back)

	sneaky := pythia.ProfileFor("foo@bar.com&role=admin")
	assert.Equal(t, "email=foo@bar.com%26role%3Dadmin&uid=10&role=user", sneaky.Encode())
	back, err = pythia.ParseProfile(sneaky.Encode())
	require.NoError(t, err)
	assert.Equal(t, "user", back.Role)
	assert.Equal(t, "foo@bar.com&role=admin", back.Email)
}

func TestParseProfile_Errors(t *testing.T) {
	_, err := pythia.ParseProfile("email=a&uid=10")
	assert.ErrorIs(t, err, pythia.ErrInvalidText)

	_, err = pythia.ParseProfile("email=a&uid=ten&role=user")
	assert.ErrorIs(t, err, pythia.ErrInvalidText)

	_, err = pythia.ParseProfile("email=%zz&uid=10&role=user")
	assert.ErrorIs(t, err, pythia.ErrInvalidText)
}

func TestProfileOracle_Layout(t *testing.T) {
	key, err := pythia.ParseKeyBase64("5QMYGvkoPsrN5hcBwZc00g==")
	require.NoError(t, err)
	o, err := pythia.NewProfileOracle(key)
	require.NoError(t, err)

	blocks, err := pythia.CountPrefixBlocks(o, 16, 'A', 'B')
	require.NoError(t, err)
	assert.Equal(t, 0, blocks)

	prefixSize, suffixSize, err := pythia.DetectPrefixAndSuffixSize(o, 16, 'A', 'B')
	require.NoError(t, err)
	assert.Equal(t, 6, prefixSize)
	assert.Equal(t, 17, suffixSize)
}

func TestCutAndPasteECB_Admin(t *testing.T) {
	key, err := pythia.ParseKeyBase64("5QMYGvkoPsrN5hcBwZc00g==")
	require.NoError(t, err)
	o, err := pythia.NewProfileOracle(key)
	require.NoError(t, err)

	prefixSize, suffixSize, err := pythia.DetectPrefixAndSuffixSize(o, 16, 'A', 'B')
	require.NoError(t, err)

	forged, err := pythia.CutAndPasteECB(o, 16, prefixSize, suffixSize, len("user"), 'x', []byte("admin"))
	require.NoError(t, err)

	profile, err := o.DecryptProfile(forged)
	require.NoError(t, err)
	assert.Equal(t, "admin", profile.Role)
	assert.Equal(t, 10, profile.UID)
	assert.Equal(t, strings.Repeat("x", 29), profile.Email)
}

func TestCutAndPasteECB_Validation(t *testing.T) {
	o, err := pythia.NewProfileOracle(testKey)
	require.NoError(t, err)

	_, err = pythia.CutAndPasteECB(o, 16, 6, 17, 18, 'x', []byte("admin"))
	assert.ErrorIs(t, err, pythia.ErrPayloadTooLarge)

	_, err = pythia.CutAndPasteECB(o, 16, 6, 17, 4, 'x', nil)
	assert.ErrorIs(t, err, pythia.ErrPayloadTooLarge)

	random := newContext(t, pythia.ContextConfig{Mode: pythia.ModeCBC, Padding: pythia.PaddingPKCS7})
	_, err = pythia.CutAndPasteECB(random, 16, 0, 0, 0, 'x', []byte("admin"))
	assert.ErrorIs(t, err, pythia.ErrNondeterministicOracle)
}
