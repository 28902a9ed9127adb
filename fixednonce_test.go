// fixednonce_test.go: Fixed-nonce CTR keystream recovery tests.
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

const harbourText = `The tide came in before the lamps were lit along the quay,
and the fishermen sat mending nets in the last of the light.
Nobody spoke of the storm that had taken the harbour wall.
A boy ran past with a loaf of bread under each arm,
his boots loud on the wet stones of the empty market.
Somewhere above the chapel a bell was ringing for no one.
The baker's widow counted coins into a tin by the window.
Gulls argued over the gutters and the smoke of the chimneys.
I had come to that town to forget a name,
and every street seemed to spell it back to me.
We drank cold tea in a room that smelled of tar and rope.
The old captain told the same story three times that night,
each time the whale grew larger and the sea grew quieter.
By morning the fog had folded the hills into grey paper.
She said the ferry would run if the wind dropped by noon.
It did not drop, and we did not leave, and nobody minded.
There is a kind of patience that only islands teach.
You learn to read the sky the way others read a clock.
The postman brought letters twice a week, or not at all.
Most of them were bills, and one was a wedding invitation.
At dusk the lighthouse keeper walked his dog along the dunes.
He waved to us as if we had lived there all our lives.
Later I wrote down everything I could remember of that week,
but the pages read like someone else's weather report.
Perhaps that is the only honest way to keep a summer.`

func harbourLines() [][]byte {
	var lines [][]byte
	for _, l := range strings.Split(harbourText, "\n") {
		lines = append(lines, []byte(l))
	}
	return lines
}

func TestFixedNonceCTRSolver_RecoversPlaintexts(t *testing.T) {
	for _, layout := range []pythia.CounterLayout{pythia.CounterBigEndian128, pythia.CounterLittleEndian64} {
		t.Run(layout.String(), func(t *testing.T) {
			key, err := pythia.GenerateRandomKey()
			require.NoError(t, err)
			iv, err := pythia.GenerateIV()
			require.NoError(t, err)
			o := newContext(t, pythia.ContextConfig{Key: key, Mode: pythia.ModeCTR, IV: &iv, Layout: layout})

			lines := harbourLines()
			s := pythia.NewFixedNonceCTRSolver()
			require.NoError(t, s.Collect(o, lines...))
			require.NoError(t, s.CollectFillers(o))
			assert.Equal(t, len(lines)+62, s.Count())

			keystream, plaintexts, err := s.Solve()
			require.NoError(t, err)

			want, err := pythia.XORKeyStream(key, iv, layout, make([]byte, s.Len()))
			require.NoError(t, err)
			assert.Equal(t, want, keystream)

			require.Len(t, plaintexts, s.Count())
			for i, line := range lines {
				assert.Equal(t, string(line), string(plaintexts[i]), "line %d", i)
			}
		})
	}
}

func TestFixedNonceCTRSolver_Add(t *testing.T) {
	key := pythia.MustKey([]byte("YELLOW SUBMARINE"))
	lines := harbourLines()
	width := 0
	for _, l := range lines {
		width = max(width, len(l))
	}
	for _, c := range []byte("etaoinshrdlucmfwypvbgkjqxzETAOINSHRDLUCMFWYPVBGKJQXZ0123456789") {
		lines = append(lines, []byte(strings.Repeat(string(c), width)))
	}

	s := pythia.NewFixedNonceCTRSolver()
	for _, l := range lines {
		ct, err := pythia.XORKeyStream(key, pythia.IV{}, pythia.CounterLittleEndian64, l)
		require.NoError(t, err)
		s.Add(ct)
		ct[0] ^= 0xff // Add keeps its own copy
	}

	_, plaintexts, err := s.Solve()
	require.NoError(t, err)
	for i, l := range lines {
		assert.Equal(t, l, plaintexts[i])
	}
}

func TestFixedNonceCTRSolver_Errors(t *testing.T) {
	s := pythia.NewFixedNonceCTRSolver()
	_, err := s.Keystream()
	assert.ErrorIs(t, err, pythia.ErrNoCiphertexts)
	_, err = s.Decrypt(nil)
	assert.ErrorIs(t, err, pythia.ErrNoCiphertexts)

	iv := pythia.IV{}
	fixed := newContext(t, pythia.ContextConfig{Mode: pythia.ModeCTR, IV: &iv})
	assert.ErrorIs(t, s.CollectFillers(fixed), pythia.ErrNoCiphertexts)

	random := newContext(t, pythia.ContextConfig{Mode: pythia.ModeCTR})
	assert.ErrorIs(t, s.Collect(random, []byte("x")), pythia.ErrNondeterministicOracle)

	suffixed := newContext(t, pythia.ContextConfig{Mode: pythia.ModeCTR, IV: &iv, Suffix: []byte("tail")})
	assert.ErrorIs(t, s.Collect(suffixed, []byte("x")), pythia.ErrBrokenOracle)
	assert.Zero(t, s.Count())

	require.NoError(t, s.Collect(fixed, []byte("eight by"), []byte("four")))
	assert.Equal(t, 8, s.Len())
	_, err = s.Decrypt(make([]byte, 4))
	assert.ErrorIs(t, err, pythia.ErrLengthMismatch)
}

func TestBreakSingleByteXOR(t *testing.T) {
	text := []byte("Cooking MC's like a pound of bacon")
	ct := make([]byte, len(text))
	for i, b := range text {
		ct[i] = b ^ 0x58
	}
	key, score := pythia.BreakSingleByteXOR(ct)
	assert.Equal(t, byte(0x58), key)
	assert.Positive(t, score)
}
