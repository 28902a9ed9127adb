// pool.go: Block scratch buffers and plaintext assembly buffers.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"sync"
)

var (
	// One AES block of scratch space for chaining XORs
	blockBufferPool = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, BlockSize)
			return &buf
		},
	}

	// Plaintext assembly for prefix ‖ input ‖ suffix - uses pointers to avoid allocations
	dynamicBufferPool = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, 0, 512)
			return &buf
		},
	}
)

// getBlockBuffer returns a zeroed BlockSize scratch buffer.
func getBlockBuffer() *[]byte {
	buf := blockBufferPool.Get().(*[]byte)
	*buf = (*buf)[:BlockSize]
	return buf
}

// putBlockBuffer wipes buf and returns it to the pool.
func putBlockBuffer(buf *[]byte) {
	if buf == nil || cap(*buf) != BlockSize {
		return
	}
	Zeroize(*buf)
	blockBufferPool.Put(buf)
}

// getDynamicBuffer returns an empty buffer that can grow.
func getDynamicBuffer() *[]byte {
	buf := dynamicBufferPool.Get().(*[]byte)
	*buf = (*buf)[:0]
	return buf
}

// putDynamicBuffer wipes the used capacity of buf and returns it to the pool.
// Buffers that grew past 64KB are left to the GC.
func putDynamicBuffer(buf *[]byte) {
	if buf == nil {
		return
	}
	Zeroize((*buf)[:cap(*buf)])
	if cap(*buf) <= 64*1024 {
		*buf = (*buf)[:0]
		dynamicBufferPool.Put(buf)
	}
}
