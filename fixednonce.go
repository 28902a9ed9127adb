// fixednonce.go: Keystream recovery from many CTR ciphertexts sharing a nonce.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// fillerAlphabet seeds CollectFillers: one run per character.
const fillerAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// englishFrequency holds relative frequencies of the lower-case letters and
// space in English text. Upper-case letters score as their lower-case form.
var englishFrequency = [256]float64{
	'a': 0.08167, 'b': 0.01492, 'c': 0.02782, 'd': 0.04253, 'e': 0.12702,
	'f': 0.02228, 'g': 0.02015, 'h': 0.06094, 'i': 0.06966, 'j': 0.00153,
	'k': 0.00772, 'l': 0.04025, 'm': 0.02406, 'n': 0.06749, 'o': 0.07507,
	'p': 0.01929, 'q': 0.00095, 'r': 0.05987, 's': 0.06327, 't': 0.09056,
	'u': 0.02758, 'v': 0.00978, 'w': 0.02360, 'x': 0.00150, 'y': 0.01974,
	'z': 0.00074, ' ': 0.19181,
}

// FixedNonceCTRSolver recovers the keystream shared by CTR ciphertexts that
// were all produced under one key and one nonce. Byte i of every ciphertext
// is the plaintext byte xored with keystream byte i, so each column of the
// collected ciphertexts is a single-byte XOR cipher over English text.
//
// The recovered keystream is as long as the longest ciphertext. Columns
// covered by only a few ciphertexts are guessed from little data;
// CollectFillers adds known-plaintext runs that pin every column down.
//
// A FixedNonceCTRSolver is not safe for concurrent use.
type FixedNonceCTRSolver struct {
	ciphertexts [][]byte
}

// NewFixedNonceCTRSolver returns an empty solver.
func NewFixedNonceCTRSolver() *FixedNonceCTRSolver {
	return &FixedNonceCTRSolver{}
}

// Add records ciphertexts captured elsewhere. They are copied.
func (s *FixedNonceCTRSolver) Add(ciphertexts ...[]byte) {
	for _, ct := range ciphertexts {
		s.ciphertexts = append(s.ciphertexts, append([]byte(nil), ct...))
	}
}

// Collect encrypts each plaintext through o and records the ciphertexts.
// o must reuse its nonce and must not add a prefix or suffix: every
// ciphertext has to be exactly as long as its plaintext.
func (s *FixedNonceCTRSolver) Collect(o Oracle, plaintexts ...[]byte) error {
	if err := requireDeterministic(o); err != nil {
		return err
	}
	for i, pt := range plaintexts {
		ct, err := oracleQuery(o, "fixed nonce", pt)
		if err != nil {
			return err
		}
		if len(ct) != len(pt) {
			return brokenOracle("fixed nonce",
				fmt.Sprintf("plaintext %d: %d byte ciphertext for %d byte input", i, len(ct), len(pt)))
		}
		s.ciphertexts = append(s.ciphertexts, ct)
	}
	return nil
}

// CollectFillers encrypts one run of each letter and digit, as long as the
// longest ciphertext collected so far, so that every keystream column sees
// enough text to score.
func (s *FixedNonceCTRSolver) CollectFillers(o Oracle) error {
	n := s.Len()
	if n == 0 {
		return noCiphertexts()
	}
	runs := make([][]byte, 0, len(fillerAlphabet))
	for i := 0; i < len(fillerAlphabet); i++ {
		runs = append(runs, repeat(fillerAlphabet[i], n))
	}
	return s.Collect(o, runs...)
}

// Count returns the number of ciphertexts collected.
func (s *FixedNonceCTRSolver) Count() int {
	return len(s.ciphertexts)
}

// Len returns the length of the longest ciphertext collected.
func (s *FixedNonceCTRSolver) Len() int {
	n := 0
	for _, ct := range s.ciphertexts {
		n = max(n, len(ct))
	}
	return n
}

// Keystream transposes the collected ciphertexts into columns and breaks
// each column as a single-byte XOR cipher.
func (s *FixedNonceCTRSolver) Keystream() ([]byte, error) {
	n := s.Len()
	if n == 0 {
		return nil, noCiphertexts()
	}
	keystream := make([]byte, n)
	column := make([]byte, 0, len(s.ciphertexts))
	for i := range keystream {
		column = column[:0]
		for _, ct := range s.ciphertexts {
			if i < len(ct) {
				column = append(column, ct[i])
			}
		}
		keystream[i], _ = BreakSingleByteXOR(column)
	}
	return keystream, nil
}

// Decrypt xors every collected ciphertext with keystream, in collection
// order. keystream must be at least Len bytes long.
func (s *FixedNonceCTRSolver) Decrypt(keystream []byte) ([][]byte, error) {
	if len(s.ciphertexts) == 0 {
		return nil, noCiphertexts()
	}
	out := make([][]byte, len(s.ciphertexts))
	for i, ct := range s.ciphertexts {
		if len(ct) > len(keystream) {
			return nil, lengthMismatch(len(ct), len(keystream))
		}
		pt, err := XOR(ct, keystream[:len(ct)])
		if err != nil {
			return nil, err
		}
		out[i] = pt
	}
	return out, nil
}

// Solve recovers the keystream and returns it with every collected
// plaintext.
func (s *FixedNonceCTRSolver) Solve() ([]byte, [][]byte, error) {
	keystream, err := s.Keystream()
	if err != nil {
		return nil, nil, err
	}
	plaintexts, err := s.Decrypt(keystream)
	if err != nil {
		return nil, nil, err
	}
	return keystream, plaintexts, nil
}

// BreakSingleByteXOR returns the key byte under which data decrypts to the
// most English-looking text, together with its frequency score. Keys that
// yield fewer non-printable bytes always win; the frequency score breaks
// ties, and the lowest key wins an exact tie.
func BreakSingleByteXOR(data []byte) (byte, float64) {
	var (
		bestKey   byte
		bestBad   = len(data) + 1
		bestScore float64
	)
	for k := 0; k < 256; k++ {
		bad, score := scoreEnglish(data, byte(k))
		if bad < bestBad || (bad == bestBad && score > bestScore) {
			bestKey, bestBad, bestScore = byte(k), bad, score
		}
	}
	return bestKey, bestScore
}

// scoreEnglish decrypts data under key and returns the number of bytes that
// are not printable ASCII or whitespace, and the summed letter frequency.
func scoreEnglish(data []byte, key byte) (int, float64) {
	bad := 0
	score := 0.0
	for _, c := range data {
		p := c ^ key
		if !humanlike(p) {
			bad++
			continue
		}
		if 'A' <= p && p <= 'Z' {
			p += 'a' - 'A'
		}
		score += englishFrequency[p]
	}
	return bad, score
}

func humanlike(b byte) bool {
	switch {
	case 0x21 <= b && b <= 0x7e:
		return true
	case b == ' ', b == '\t', b == '\n', b == '\r', b == '\v', b == '\f':
		return true
	}
	return false
}

func noCiphertexts() error {
	return richError(ErrNoCiphertexts, goerrors.New(ErrCodeNoCiphertexts, "collect ciphertexts before solving"))
}
