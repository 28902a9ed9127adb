// ctr.go: Counter mode keystream generator and random-access XOR.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"crypto/cipher"
)

// Keystream is a pull-style CTR keystream generator. It holds the expanded
// cipher, the next counter block, the current keystream block and the read
// offset into it. The stream is logically infinite; it can only be restarted
// by building a new Keystream from the original IV.
//
// A Keystream is not safe for concurrent use.
type Keystream struct {
	block   cipher.Block
	layout  CounterLayout
	counter IV
	buf     [BlockSize]byte
	off     int
}

// NewKeystream returns a generator positioned at byte 0 of the keystream
// for key and the nonce‖counter block iv, incremented according to layout.
func NewKeystream(key Key, iv IV, layout CounterLayout) (*Keystream, error) {
	if !layout.valid() {
		return nil, layoutError(layout)
	}
	block, err := newBlock(key)
	if err != nil {
		return nil, err
	}
	return newKeystream(block, iv, layout), nil
}

func newKeystream(block cipher.Block, iv IV, layout CounterLayout) *Keystream {
	return &Keystream{
		block:   block,
		layout:  layout,
		counter: iv,
		off:     BlockSize,
	}
}

func (ks *Keystream) refill() {
	ks.block.Encrypt(ks.buf[:], ks.counter[:])
	ks.layout.increment(&ks.counter)
	ks.off = 0
}

// Next returns the next keystream byte.
func (ks *Keystream) Next() byte {
	if ks.off == BlockSize {
		ks.refill()
	}
	b := ks.buf[ks.off]
	ks.off++
	return b
}

// Read fills p with keystream bytes. It never fails.
func (ks *Keystream) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if ks.off == BlockSize {
			ks.refill()
		}
		c := copy(p[n:], ks.buf[ks.off:])
		ks.off += c
		n += c
	}
	return n, nil
}

// XOR xors the next len(data) keystream bytes into data in place.
func (ks *Keystream) XOR(data []byte) {
	for i := 0; i < len(data); {
		if ks.off == BlockSize {
			ks.refill()
		}
		n := len(data) - i
		if avail := BlockSize - ks.off; n > avail {
			n = avail
		}
		for j := 0; j < n; j++ {
			data[i+j] ^= ks.buf[ks.off+j]
		}
		ks.off += n
		i += n
	}
}

// Skip discards n keystream bytes. Whole blocks are skipped by advancing the
// counter; only the intra-block remainder is generated and dropped.
func (ks *Keystream) Skip(n uint64) {
	if n == 0 {
		return
	}
	// Drain what is left of the current block first.
	avail := uint64(BlockSize - ks.off)
	if n <= avail {
		ks.off += int(n)
		return
	}
	n -= avail
	ks.off = BlockSize

	ks.layout.advance(&ks.counter, n/BlockSize)
	if rem := int(n % BlockSize); rem > 0 {
		ks.refill()
		ks.off = rem
	}
}

// XORKeyStream encrypts or decrypts data under CTR. The same transform
// serves both directions; the output has the length of data.
func XORKeyStream(key Key, iv IV, layout CounterLayout, data []byte) ([]byte, error) {
	return XORKeyStreamAt(key, iv, layout, data, 0)
}

// XORKeyStreamAt xors data with the keystream bytes at
// [offset, offset+len(data)). It is the building block for random-access
// re-encryption.
func XORKeyStreamAt(key Key, iv IV, layout CounterLayout, data []byte, offset uint64) ([]byte, error) {
	ks, err := NewKeystream(key, iv, layout)
	if err != nil {
		return nil, err
	}
	return ks.xorAt(data, offset), nil
}

// xorAt returns a copy of data xored with the keystream at offset. ks must
// be positioned at byte 0.
func (ks *Keystream) xorAt(data []byte, offset uint64) []byte {
	ks.Skip(offset)
	out := make([]byte, len(data))
	copy(out, data)
	ks.XOR(out)
	return out
}
