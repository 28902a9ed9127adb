// kdf.go: Key derivation and reproducible randomness for oracle scenarios.
//
// Passphrase keys use Argon2id (PBKDF2 is kept for interoperability).
// HKDF turns a seed into an infinite deterministic byte stream so a random
// scenario can be replayed exactly from its seed.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"crypto/sha256"
	"io"

	goerrors "github.com/agilira/go-errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
	pbkdf2 "golang.org/x/crypto/pbkdf2"
)

// Default Argon2 parameters for key derivation.
const (
	// DefaultTime is the default number of iterations for Argon2id.
	DefaultTime = 3

	// DefaultMemory is the default memory usage in MB for Argon2id.
	DefaultMemory = 64

	// DefaultThreads is the default number of threads for Argon2id.
	DefaultThreads = 4
)

// KDFParams defines custom parameters for Argon2id key derivation.
// A zero field falls back to the matching default.
//
// Example:
//
//	params := &pythia.KDFParams{Time: 4, Memory: 128, Threads: 2}
//	key, err := pythia.DeriveKey(password, salt, pythia.AES256, params)
type KDFParams struct {
	// Time is the number of iterations. If zero, DefaultTime is used.
	Time uint32 `json:"time,omitempty"`

	// Memory is the memory usage in MB. If zero, DefaultMemory is used.
	Memory uint32 `json:"memory,omitempty"`

	// Threads is the degree of parallelism. If zero, DefaultThreads is used.
	Threads uint8 `json:"threads,omitempty"`
}

// DefaultKDFParams returns the default Argon2id parameters.
//
// Parameters: Time=3, Memory=64MB, Threads=4
func DefaultKDFParams() *KDFParams {
	return &KDFParams{
		Time:    DefaultTime,
		Memory:  DefaultMemory,
		Threads: DefaultThreads,
	}
}

// FastKDFParams returns Argon2id parameters for tests and throwaway keys.
//
// Parameters: Time=1, Memory=32MB, Threads=2
func FastKDFParams() *KDFParams {
	return &KDFParams{
		Time:    1,
		Memory:  32,
		Threads: 2,
	}
}

// DeriveKey derives a key of the given size from a passphrase and salt
// using Argon2id. nil params selects the defaults.
//
// Example:
//
//	key, err := pythia.DeriveKey([]byte("YELLOW SUBMARINE"), salt, pythia.AES128, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
func DeriveKey(password, salt []byte, size KeySize, params *KDFParams) (Key, error) {
	if len(password) == 0 {
		return Key{}, goerrors.New("EMPTY_PASSWORD", "password cannot be empty")
	}
	if len(salt) == 0 {
		return Key{}, goerrors.New("EMPTY_SALT", "salt cannot be empty")
	}
	if !size.Valid() {
		return Key{}, richError(&KeySizeError{Size: int(size)},
			goerrors.New(ErrCodeInvalidKey, "unsupported key size"))
	}

	time := uint32(DefaultTime)
	memory := uint32(DefaultMemory * 1024)
	threads := uint8(DefaultThreads)

	if params != nil {
		if params.Time > 0 {
			time = params.Time
		}
		if params.Memory > 0 {
			memory = params.Memory * 1024
		}
		if params.Threads > 0 {
			threads = params.Threads
		}
	}

	material := argon2.IDKey(password, salt, time, memory, threads, uint32(size)) // #nosec G115
	defer Zeroize(material)
	return NewKey(material)
}

// DeriveKeyPBKDF2 derives a key using PBKDF2-SHA256.
//
// Deprecated: Use DeriveKey instead.
func DeriveKeyPBKDF2(password, salt []byte, iterations int, size KeySize) (Key, error) {
	if len(password) == 0 {
		return Key{}, goerrors.New("EMPTY_PASSWORD", "password cannot be empty")
	}
	if len(salt) == 0 {
		return Key{}, goerrors.New("EMPTY_SALT", "salt cannot be empty")
	}
	if iterations <= 0 {
		return Key{}, goerrors.New("INVALID_ITERATIONS", "iterations must be positive")
	}
	if !size.Valid() {
		return Key{}, richError(&KeySizeError{Size: int(size)},
			goerrors.New(ErrCodeInvalidKey, "unsupported key size"))
	}

	material := pbkdf2.Key(password, salt, iterations, int(size), sha256.New)
	defer Zeroize(material)
	return NewKey(material)
}

// DeriveKeyHKDF derives a key from high-entropy input keying material with
// HKDF-SHA256. salt and info may be nil.
func DeriveKeyHKDF(masterKey, salt, info []byte, size KeySize) (Key, error) {
	if len(masterKey) == 0 {
		return Key{}, goerrors.New("INVALID_MASTER_KEY", "master key cannot be empty")
	}
	if !size.Valid() {
		return Key{}, richError(&KeySizeError{Size: int(size)},
			goerrors.New(ErrCodeInvalidKey, "unsupported key size"))
	}

	material := make([]byte, size)
	defer Zeroize(material)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, salt, info), material); err != nil {
		return Key{}, goerrors.Wrap(err, "HKDF_FAILED", "failed to expand key material")
	}
	return NewKey(material)
}

// NewSeededReader returns an infinite deterministic byte stream derived
// from seed: HKDF-SHA256 expands seed and info into an AES-256 key and a
// counter block, and the stream is that key's CTR keystream.
//
// Passing the reader as the random source of NewRandomContext, or as
// ContextConfig.Rand, makes a scenario reproducible from its seed. The
// reader is not safe for concurrent use.
func NewSeededReader(seed, info []byte) (io.Reader, error) {
	if len(seed) == 0 {
		return nil, goerrors.New("EMPTY_SEED", "seed cannot be empty")
	}

	okm := make([]byte, int(AES256)+IVSize)
	defer Zeroize(okm)
	if _, err := io.ReadFull(hkdf.New(sha256.New, seed, nil, info), okm); err != nil {
		return nil, goerrors.Wrap(err, "HKDF_FAILED", "failed to expand seed")
	}

	key, err := NewKey(okm[:AES256])
	if err != nil {
		return nil, err
	}
	iv, err := NewIV(okm[AES256:])
	if err != nil {
		return nil, err
	}
	ks, err := NewKeystream(key, iv, CounterBigEndian128)
	if err != nil {
		return nil, err
	}
	return ks, nil
}
