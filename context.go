// context.go: Encryption contexts wrapping a mode with hidden key, IV policy,
// prefix and suffix.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	goerrors "github.com/agilira/go-errors"
)

// Mode selects the block cipher mode of operation.
type Mode int

const (
	ModeECB Mode = iota
	ModeCBC
	ModeCTR
)

func (m Mode) String() string {
	switch m {
	case ModeECB:
		return "ECB"
	case ModeCBC:
		return "CBC"
	case ModeCTR:
		return "CTR"
	default:
		return "unknown"
	}
}

// BlockSize returns the padding block size of the mode, or 0 for CTR which
// is a stream mode and is never padded.
func (m Mode) BlockSize() int {
	switch m {
	case ModeECB, ModeCBC:
		return BlockSize
	default:
		return 0
	}
}

// ContextConfig holds the parameters of a Context. The zero value of every
// optional field has a usable default.
type ContextConfig struct {
	Key     Key
	Mode    Mode
	Padding Padding

	// IV fixes the IV (CBC) or nonce‖counter block (CTR). nil draws a fresh
	// IV from Rand on every Encrypt, which makes the context nondeterministic.
	IV *IV

	// Layout is the CTR counter layout. Ignored by ECB and CBC.
	Layout CounterLayout

	Prefix []byte
	Suffix []byte

	// Rand is the source for per-call IVs. Default: crypto/rand.Reader.
	Rand io.Reader
}

// Context is an encryption oracle: Encrypt(input) encrypts
// pad(prefix ‖ input ‖ suffix) under the configured mode. Key, IV policy,
// prefix and suffix never change after construction, so a Context is safe
// for concurrent use as long as its random source is.
type Context struct {
	block   cipher.Block
	mode    Mode
	padding Padding
	iv      IV
	fixedIV bool
	layout  CounterLayout
	prefix  []byte
	suffix  []byte
	rng     io.Reader
}

// NewContext validates cfg and returns a Context. Prefix and suffix are copied.
func NewContext(cfg *ContextConfig) (*Context, error) {
	if cfg == nil {
		return nil, goerrors.New(ErrCodeInvalidKey, "context config must not be nil")
	}
	if !cfg.Key.size.Valid() {
		return nil, richError(&KeySizeError{Size: int(cfg.Key.size)},
			goerrors.New(ErrCodeInvalidKey, "context requires a 16, 24 or 32 byte key"))
	}
	switch cfg.Mode {
	case ModeECB, ModeCBC, ModeCTR:
	default:
		return nil, richError(ErrUnsupportedMode, goerrors.New(ErrCodeUnsupportedMode, "unknown mode"))
	}
	if !cfg.Padding.valid() {
		return nil, richError(ErrUnknownPadding,
			goerrors.New(ErrCodeConfig, fmt.Sprintf("padding %d", int(cfg.Padding))))
	}
	if !cfg.Layout.valid() {
		return nil, layoutError(cfg.Layout)
	}
	block, err := newBlock(cfg.Key)
	if err != nil {
		return nil, err
	}

	c := &Context{
		block:   block,
		mode:    cfg.Mode,
		padding: cfg.Padding,
		layout:  cfg.Layout,
		prefix:  append([]byte(nil), cfg.Prefix...),
		suffix:  append([]byte(nil), cfg.Suffix...),
		rng:     cfg.Rand,
	}
	if cfg.IV != nil {
		c.iv = *cfg.IV
		c.fixedIV = true
	}
	if c.rng == nil {
		c.rng = rand.Reader
	}
	return c, nil
}

// NewRandomContext returns a context with a random key of random size and
// 5 to 9 random bytes of prefix and of suffix. IVs are drawn per call.
// rng nil means crypto/rand.Reader.
func NewRandomContext(mode Mode, padding Padding, rng io.Reader) (*Context, error) {
	if rng == nil {
		rng = rand.Reader
	}
	key, err := generateRandomKeyFrom(rng)
	if err != nil {
		return nil, err
	}
	prefix, err := randomFiller(rng, 5, 10)
	if err != nil {
		return nil, err
	}
	suffix, err := randomFiller(rng, 5, 10)
	if err != nil {
		return nil, err
	}
	return NewContext(&ContextConfig{
		Key:     key,
		Mode:    mode,
		Padding: padding,
		Prefix:  prefix,
		Suffix:  suffix,
		Rand:    rng,
	})
}

// NewStaticContentContext returns a context with the given prefix and
// suffix under a fresh random key. IVs are drawn per call.
func NewStaticContentContext(prefix, suffix []byte, mode Mode, padding Padding) (*Context, error) {
	key, err := GenerateRandomKey()
	if err != nil {
		return nil, err
	}
	return NewContext(&ContextConfig{
		Key:     key,
		Mode:    mode,
		Padding: padding,
		Prefix:  prefix,
		Suffix:  suffix,
	})
}

// randomFiller returns between min and max-1 random bytes.
func randomFiller(rng io.Reader, min, max int) ([]byte, error) {
	n, err := randomInt(rng, max-min)
	if err != nil {
		return nil, err
	}
	return randomBytes(rng, min+n)
}

// Mode returns the context mode.
func (c *Context) Mode() Mode { return c.mode }

// BlockSize returns 16 for ECB and CBC and 0 for CTR.
func (c *Context) BlockSize() int { return c.mode.BlockSize() }

// Deterministic reports whether equal inputs always give equal ciphertexts:
// true for ECB and for CBC/CTR with a fixed IV.
func (c *Context) Deterministic() bool {
	return c.mode == ModeECB || c.fixedIV
}

// PaddedSize returns the plaintext length Encrypt would produce for an
// input of inputSize bytes.
func (c *Context) PaddedSize(inputSize int) int {
	n := len(c.prefix) + inputSize + len(c.suffix)
	bs := c.BlockSize()
	if c.padding == PaddingPKCS7 && bs > 0 && n > 0 {
		n += bs - n%bs
	}
	return n
}

// Encrypt encrypts prefix ‖ input ‖ suffix. With PaddingPKCS7 the message
// is padded for ECB and CBC; CTR is never padded.
func (c *Context) Encrypt(input []byte) ([]byte, error) {
	buf := getDynamicBuffer()
	defer putDynamicBuffer(buf)
	*buf = c.assemble(*buf, input)
	plaintext := *buf

	iv := c.iv
	if !c.fixedIV && c.mode != ModeECB {
		var err error
		if iv, err = generateIVFrom(c.rng); err != nil {
			return nil, err
		}
	}

	switch c.mode {
	case ModeECB:
		return cryptECB(c.block, plaintext, true)
	case ModeCBC:
		return encryptCBC(c.block, iv, plaintext)
	default:
		return newKeystream(c.block, iv, c.layout).xorAt(plaintext, 0), nil
	}
}

// assemble appends prefix ‖ input ‖ suffix and its padding to dst.
func (c *Context) assemble(dst, input []byte) []byte {
	n := len(c.prefix) + len(input) + len(c.suffix)
	dst = append(dst, c.prefix...)
	dst = append(dst, input...)
	dst = append(dst, c.suffix...)

	bs := c.BlockSize()
	if c.padding == PaddingPKCS7 && bs > 0 && n > 0 {
		dst = appendPKCS7(dst, bs-n%bs)
	}
	return dst
}

// Edit re-encrypts plaintext at byte offset of ciphertext and returns the
// spliced copy. The ciphertext grows if the edit runs past its end.
// Only CTR contexts with a fixed IV support it.
func (c *Context) Edit(ciphertext []byte, offset int, plaintext []byte) ([]byte, error) {
	if c.mode != ModeCTR {
		return nil, richError(ErrUnsupportedMode,
			goerrors.New(ErrCodeUnsupportedMode, "edit is only defined for CTR"))
	}
	if !c.fixedIV {
		return nil, richError(ErrUnsupportedMode,
			goerrors.New(ErrCodeUnsupportedMode, "edit requires a fixed nonce"))
	}
	if offset < 0 || offset > len(ciphertext) {
		return nil, richError(&OffsetError{Length: len(ciphertext), Offset: offset},
			goerrors.New(ErrCodeInvalidOffset, "edit offset exceeds ciphertext length"))
	}

	patch := newKeystream(c.block, c.iv, c.layout).xorAt(plaintext, uint64(offset))

	size := len(ciphertext)
	if end := offset + len(plaintext); end > size {
		size = end
	}
	out := make([]byte, size)
	copy(out, ciphertext)
	copy(out[offset:], patch)
	return out, nil
}

// Decrypt reverses Encrypt and strips the padding, returning the whole
// prefix ‖ input ‖ suffix message. It needs a deterministic context since a
// per-call IV is never returned.
func (c *Context) Decrypt(ciphertext []byte) ([]byte, error) {
	if !c.Deterministic() {
		return nil, richError(ErrNondeterministicOracle,
			goerrors.New(ErrCodeNondeterminism, "decrypt requires a fixed IV"))
	}
	plaintext, err := c.decryptRaw(ciphertext)
	if err != nil {
		return nil, err
	}
	if c.padding == PaddingPKCS7 && c.BlockSize() > 0 {
		return UnpadPKCS7(plaintext, c.BlockSize())
	}
	return plaintext, nil
}

func (c *Context) decryptRaw(ciphertext []byte) ([]byte, error) {
	switch c.mode {
	case ModeECB:
		return cryptECB(c.block, ciphertext, false)
	case ModeCBC:
		return decryptCBC(c.block, c.iv, ciphertext)
	default:
		return newKeystream(c.block, c.iv, c.layout).xorAt(ciphertext, 0), nil
	}
}
