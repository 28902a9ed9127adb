// ctrattack_test.go: Keystream recovery through a random-access edit oracle.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agilira/pythia"
)

func TestRecoverCTRPlaintext(t *testing.T) {
	secret := []byte("I'm back and I'm ringin' the bell \nA rockin' on the mike while the fly girls yell \n")

	for _, layout := range []pythia.CounterLayout{pythia.CounterBigEndian128, pythia.CounterLittleEndian64} {
		for _, n := range []int{1, 15, 16, 17, 33, len(secret)} {
			t.Run(fmt.Sprintf("%s/%d", layout, n), func(t *testing.T) {
				iv, err := pythia.GenerateIV()
				require.NoError(t, err)
				key, err := pythia.GenerateRandomKey()
				require.NoError(t, err)
				ctx := newContext(t, pythia.ContextConfig{Key: key, Mode: pythia.ModeCTR, IV: &iv, Layout: layout})

				ct, err := ctx.Encrypt(secret[:n])
				require.NoError(t, err)

				counting := pythia.NewCountingOracle(ctx)
				got, err := pythia.RecoverCTRPlaintext(counting, ct)
				require.NoError(t, err)
				assert.Equal(t, secret[:n], got)
				assert.Equal(t, int64(1), counting.Queries(), "one edit recovers everything")
			})
		}
	}
}

type truncatingEditor struct{ *pythia.Context }

func (e truncatingEditor) Edit(ct []byte, offset int, pt []byte) ([]byte, error) {
	out, err := e.Context.Edit(ct, offset, pt)
	if err != nil {
		return nil, err
	}
	return out[:len(out)-1], nil
}

func TestRecoverCTRPlaintext_Errors(t *testing.T) {
	iv := pythia.IV{}
	ctx := newContext(t, pythia.ContextConfig{Mode: pythia.ModeCTR, IV: &iv})
	ct, err := ctx.Encrypt([]byte("secret"))
	require.NoError(t, err)

	_, err = pythia.RecoverCTRPlaintext(truncatingEditor{ctx}, ct)
	assert.ErrorIs(t, err, pythia.ErrBrokenOracle)

	random := newContext(t, pythia.ContextConfig{Mode: pythia.ModeCTR})
	_, err = pythia.RecoverCTRPlaintext(random, ct)
	assert.ErrorIs(t, err, pythia.ErrNondeterministicOracle)
}

func TestCountingOracle(t *testing.T) {
	base := pythia.OracleFunc(func(in []byte) ([]byte, error) { return bytes.ToUpper(in), nil })
	c := pythia.NewCountingOracle(base)

	for i := 0; i < 3; i++ {
		_, err := c.Encrypt([]byte("x"))
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), c.Queries())
	assert.True(t, c.Deterministic(), "unknown determinism is trusted")

	_, err := c.Edit(nil, 0, nil)
	assert.ErrorIs(t, err, pythia.ErrUnsupportedMode)
	assert.Equal(t, int64(3), c.Queries())

	random := pythia.NewCountingOracle(newContext(t, pythia.ContextConfig{Mode: pythia.ModeCBC, Padding: pythia.PaddingPKCS7}))
	assert.False(t, random.Deterministic())

	failing := pythia.NewCountingOracle(pythia.OracleFunc(func([]byte) ([]byte, error) { return nil, errors.New("down") }))
	_, err = failing.Encrypt(nil)
	assert.Error(t, err)
	assert.Equal(t, int64(1), failing.Queries())
}
