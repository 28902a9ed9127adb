// key.go: AES key variants, generation, import/export and fingerprinting.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	goerrors "github.com/agilira/go-errors"
)

// KeySize tags the three AES key variants.
type KeySize int

// Supported AES key sizes in bytes.
const (
	AES128 KeySize = 16
	AES192 KeySize = 24
	AES256 KeySize = 32
)

// Valid reports whether s is one of the three AES key sizes.
func (s KeySize) Valid() bool {
	return s == AES128 || s == AES192 || s == AES256
}

func (s KeySize) String() string {
	switch s {
	case AES128:
		return "AES-128"
	case AES192:
		return "AES-192"
	case AES256:
		return "AES-256"
	default:
		return fmt.Sprintf("KeySize(%d)", int(s))
	}
}

// Key is an immutable AES key. The zero Key is invalid; build one with
// NewKey, GenerateKey, GenerateRandomKey or DeriveKey.
//
// Key is a value type: the payload lives in a fixed array sized for the
// largest variant and only the first Size() bytes are meaningful.
type Key struct {
	size     KeySize
	material [32]byte
}

// NewKey copies b into a Key. b must be 16, 24 or 32 bytes long.
func NewKey(b []byte) (Key, error) {
	size := KeySize(len(b))
	if !size.Valid() {
		return Key{}, richError(&KeySizeError{Size: len(b)},
			goerrors.New(ErrCodeInvalidKey, fmt.Sprintf("invalid key size: must be 16, 24 or 32 bytes (got %d)", len(b))))
	}
	var k Key
	k.size = size
	copy(k.material[:], b)
	return k, nil
}

// MustKey is NewKey for literal keys in tests and examples. It panics on
// an invalid length.
func MustKey(b []byte) Key {
	k, err := NewKey(b)
	if err != nil {
		panic(err)
	}
	return k
}

// GenerateKey generates a cryptographically secure random key of the given size.
//
// Example:
//
//	key, err := pythia.GenerateKey(pythia.AES128)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(key.Size()) // Output: AES-128
func GenerateKey(size KeySize) (Key, error) {
	return generateKeyFrom(rand.Reader, size)
}

// GenerateRandomKey picks one of the three key sizes uniformly at random and
// generates a key of that size.
func GenerateRandomKey() (Key, error) {
	return generateRandomKeyFrom(rand.Reader)
}

func generateKeyFrom(rng io.Reader, size KeySize) (Key, error) {
	if !size.Valid() {
		return Key{}, richError(&KeySizeError{Size: int(size)},
			goerrors.New(ErrCodeInvalidKey, "unsupported key size"))
	}
	var k Key
	k.size = size
	if _, err := io.ReadFull(rng, k.material[:size]); err != nil {
		return Key{}, richError(ErrRandomSource, goerrors.Wrap(err, ErrCodeRandom, "failed to generate key"))
	}
	return k, nil
}

func generateRandomKeyFrom(rng io.Reader) (Key, error) {
	n, err := randomInt(rng, 3)
	if err != nil {
		return Key{}, err
	}
	sizes := [...]KeySize{AES128, AES192, AES256}
	return generateKeyFrom(rng, sizes[n])
}

// randomInt returns a uniform integer in [0, n) drawn from rng.
func randomInt(rng io.Reader, n int) (int, error) {
	v, err := rand.Int(rng, big.NewInt(int64(n)))
	if err != nil {
		return 0, richError(ErrRandomSource, goerrors.Wrap(err, ErrCodeRandom, "failed to draw random integer"))
	}
	return int(v.Int64()), nil
}

// randomBytes returns n bytes drawn from rng.
func randomBytes(rng io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rng, b); err != nil {
		return nil, richError(ErrRandomSource, goerrors.Wrap(err, ErrCodeRandom, "failed to read random bytes"))
	}
	return b, nil
}

// Size returns the key variant. The zero Key reports 0.
func (k Key) Size() KeySize { return k.size }

// Bytes returns a copy of the key material.
func (k Key) Bytes() []byte {
	b := make([]byte, k.size)
	copy(b, k.material[:k.size])
	return b
}

// Equal reports whether two keys have the same variant and material.
func (k Key) Equal(other Key) bool {
	return k == other
}

// Hex encodes the key as lowercase hexadecimal.
func (k Key) Hex() string {
	return hex.EncodeToString(k.material[:k.size])
}

// Base64 encodes the key with standard base64.
func (k Key) Base64() string {
	return base64.StdEncoding.EncodeToString(k.material[:k.size])
}

// String never prints key material.
func (k Key) String() string {
	return fmt.Sprintf("%s(%s)", k.size, k.Fingerprint())
}

// Fingerprint returns the first 8 bytes of SHA-256 over the key as 16 hex
// characters, or "" for the zero Key. Safe for logs.
func (k Key) Fingerprint() string {
	return fingerprint(k.material[:k.size])
}

func fingerprint(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	hash := sha256.Sum256(b)
	return fmt.Sprintf("%016x", hash[:8])
}

// ParseKeyHex decodes a hexadecimal key.
func ParseKeyHex(s string) (Key, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Key{}, goerrors.Wrap(err, "HEX_DECODE_ERROR", "failed to decode hex key")
	}
	defer Zeroize(b)
	return NewKey(b)
}

// ParseKeyBase64 decodes a standard base64 key.
func ParseKeyBase64(s string) (Key, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Key{}, goerrors.Wrap(err, "BASE64_DECODE_ERROR", "failed to decode base64 key")
	}
	defer Zeroize(b)
	return NewKey(b)
}

// Zeroize overwrites b with zeros.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
