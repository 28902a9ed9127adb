// coinflip_test.go: ECB/CBC fingerprinting against a hidden coin flip.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agilira/pythia"
)

func TestCoinFlipOracle_DetectECB(t *testing.T) {
	seen := map[pythia.Mode]int{}
	for i := 0; i < 64; i++ {
		o, err := pythia.NewCoinFlipOracle(nil)
		require.NoError(t, err)
		seen[o.Mode()]++

		assert.Equal(t, o.Mode() == pythia.ModeECB, o.Deterministic())

		ecb, err := pythia.DetectECB(o, 16, 0)
		require.NoError(t, err)
		assert.Equal(t, o.Mode() == pythia.ModeECB, ecb, "trial %d", i)
	}
	assert.Len(t, seen, 2, "both sides of the coin should come up in 64 flips")
}

func TestCoinFlipOracle_Seeded(t *testing.T) {
	build := func() pythia.Mode {
		rng, err := pythia.NewSeededReader([]byte("coin"), nil)
		require.NoError(t, err)
		o, err := pythia.NewCoinFlipOracle(rng)
		require.NoError(t, err)
		return o.Mode()
	}
	assert.Equal(t, build(), build())
}

func TestCoinFlipOracle_Padding(t *testing.T) {
	o, err := pythia.NewCoinFlipOracle(nil)
	require.NoError(t, err)

	ct, err := o.Encrypt(make([]byte, 48))
	require.NoError(t, err)
	// 48 input bytes plus 10..18 hidden bytes, padded.
	assert.Contains(t, []int{64, 80}, len(ct))
}
