// registry_test.go: Oracle registry tests.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agilira/pythia"
)

type closableOracle struct {
	pythia.Oracle
	healthy    bool
	closed     bool
	closeError error
}

func (c *closableOracle) IsHealthy() bool { return c.healthy }

func (c *closableOracle) Close() error {
	c.closed = true
	return c.closeError
}

func TestNewOracleRegistry(t *testing.T) {
	r := pythia.NewOracleRegistry(nil, nil)
	require.NotNil(t, r)
	assert.Nil(t, r.PluginManager())
	assert.Empty(t, r.Names())
}

func TestOracleRegistry_RegisterAndLookup(t *testing.T) {
	r := pythia.NewOracleRegistry(&pythia.RegistryConfig{DefaultOracle: "profile"}, nil)

	ecb := newContext(t, pythia.ContextConfig{Mode: pythia.ModeECB, Padding: pythia.PaddingPKCS7})
	profile, err := pythia.NewProfileOracle(testKey)
	require.NoError(t, err)

	require.NoError(t, r.Register("ecb", ecb))
	require.NoError(t, r.Register("profile", profile))

	assert.Error(t, r.Register("", ecb))
	assert.Error(t, r.Register("nil", nil))
	assert.ErrorIs(t, r.Register("ecb", ecb), pythia.ErrOracleExists)

	got, err := r.Lookup("")
	require.NoError(t, err)
	assert.Same(t, profile, got, "configured default wins")

	got, err = r.Lookup("ecb")
	require.NoError(t, err)
	assert.Same(t, ecb, got)

	_, err = r.Lookup("missing")
	assert.ErrorIs(t, err, pythia.ErrOracleNotFound)

	assert.Equal(t, []string{"ecb", "profile"}, r.Names())
}

func TestOracleRegistry_Info(t *testing.T) {
	r := pythia.NewOracleRegistry(nil, nil)
	iv := pythia.IV{}
	require.NoError(t, r.Register("edit", newContext(t, pythia.ContextConfig{Mode: pythia.ModeCTR, IV: &iv})))
	require.NoError(t, r.Register("ctr-random", newContext(t, pythia.ContextConfig{Mode: pythia.ModeCTR})))
	require.NoError(t, r.Register("plain", pythia.OracleFunc(func(in []byte) ([]byte, error) { return in, nil })))

	info, err := r.Info("edit")
	require.NoError(t, err)
	assert.Equal(t, "edit", info.Name)
	assert.True(t, info.Deterministic)
	assert.True(t, info.Editable)
	assert.False(t, info.RegisteredAt.IsZero())

	info, err = r.Info("ctr-random")
	require.NoError(t, err)
	assert.False(t, info.Deterministic)
	assert.False(t, info.Editable)

	info, err = r.Info("plain")
	require.NoError(t, err)
	assert.True(t, info.Deterministic)
	assert.False(t, info.Editable)

	_, err = r.Info("missing")
	assert.ErrorIs(t, err, pythia.ErrOracleNotFound)
}

func TestOracleRegistry_Serve(t *testing.T) {
	r := pythia.NewOracleRegistry(nil, nil)
	iv := pythia.IV{}
	ctx := newContext(t, pythia.ContextConfig{Mode: pythia.ModeCTR, IV: &iv})
	require.NoError(t, r.Register("ctr", ctx))
	require.NoError(t, r.Register("ecb", newContext(t, pythia.ContextConfig{Mode: pythia.ModeECB, Padding: pythia.PaddingPKCS7})))

	resp, err := r.Serve("ctr", pythia.OracleRequest{Operation: pythia.OperationEncrypt, Input: []byte("hello")})
	require.NoError(t, err)
	require.True(t, resp.Success)
	want, err := ctx.Encrypt([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, want, resp.Data)

	resp, err = r.Serve("ctr", pythia.OracleRequest{Operation: pythia.OperationEdit, Ciphertext: want, Offset: 0, Input: []byte("jello")})
	require.NoError(t, err)
	require.True(t, resp.Success)
	pt, err := ctx.Decrypt(resp.Data)
	require.NoError(t, err)
	assert.Equal(t, "jello", string(pt))

	resp, err = r.Serve("ctr", pythia.OracleRequest{Operation: pythia.OperationEdit, Ciphertext: want, Offset: 99})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, pythia.ErrCodeInvalidOffset, resp.Code)
	assert.ErrorIs(t, pythia.ErrorForCode(resp.Code), pythia.ErrInvalidOffset)

	resp, err = r.Serve("ecb", pythia.OracleRequest{Operation: pythia.OperationEdit})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, pythia.ErrCodeUnsupportedMode, resp.Code)

	_, err = r.Serve("ctr", pythia.OracleRequest{Operation: "decrypt"})
	assert.ErrorIs(t, err, pythia.ErrUnknownOperation)

	_, err = r.Serve("missing", pythia.OracleRequest{})
	assert.ErrorIs(t, err, pythia.ErrOracleNotFound)
}

func TestErrorForCode_Unknown(t *testing.T) {
	assert.ErrorIs(t, pythia.ErrorForCode("NOPE"), pythia.ErrBrokenOracle)
}

func TestOracleRegistry_HealthAndClose(t *testing.T) {
	r := pythia.NewOracleRegistry(nil, nil)
	base := newContext(t, pythia.ContextConfig{Mode: pythia.ModeECB, Padding: pythia.PaddingPKCS7})

	sick := &closableOracle{Oracle: base}
	good := &closableOracle{Oracle: base, healthy: true}
	broken := &closableOracle{Oracle: base, healthy: true, closeError: errors.New("stuck")}
	require.NoError(t, r.Register("sick", sick))
	require.NoError(t, r.Register("good", good))
	require.NoError(t, r.Register("broken", broken))

	_, err := r.Lookup("sick")
	assert.ErrorIs(t, err, pythia.ErrOracleUnhealthy)
	_, err = r.Lookup("good")
	assert.NoError(t, err)

	err = r.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.True(t, sick.closed)
	assert.True(t, good.closed)
	assert.True(t, broken.closed)
	assert.Empty(t, r.Names())

	assert.NoError(t, r.Close(), "closing an empty registry is a no-op")
}

func TestOracleRegistry_Concurrent(t *testing.T) {
	r := pythia.NewOracleRegistry(nil, nil)
	require.NoError(t, r.Register("ecb", newContext(t, pythia.ContextConfig{Mode: pythia.ModeECB, Padding: pythia.PaddingPKCS7})))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				resp, err := r.Serve("ecb", pythia.OracleRequest{Input: []byte("x")})
				if err != nil || !resp.Success {
					t.Errorf("serve failed: %v %+v", err, resp)
					return
				}
				_ = r.Names()
			}
		}()
	}
	wg.Wait()
}
